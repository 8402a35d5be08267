package domain

// AuditEventType defines the type of audit event
type AuditEventType string

const (
	// Authentication events
	LoginEvent            AuditEventType = "LOGIN"
	LoginFailureEvent     AuditEventType = "LOGIN_FAILED"
	AccountLockedEvent    AuditEventType = "ACCOUNT_LOCKED"
	AccountProvisionEvent AuditEventType = "ACCOUNT_PROVISIONED"
	RegistrationEvent     AuditEventType = "ACCOUNT_REGISTERED"

	// Verification code events
	CodeIssuedEvent        AuditEventType = "CODE_ISSUED"
	CodeConsumedEvent      AuditEventType = "CODE_CONSUMED"
	CodeVerifyFailureEvent AuditEventType = "CODE_VERIFY_FAILED"

	// Moderation events
	AnswerSubmittedEvent AuditEventType = "ANSWER_SUBMITTED"
	AnswerApprovedEvent  AuditEventType = "ANSWER_APPROVED"
	AnswerRejectedEvent  AuditEventType = "ANSWER_REJECTED"
	AnswerAcceptedEvent  AuditEventType = "ANSWER_ACCEPTED"
	AnswerEditedEvent    AuditEventType = "ANSWER_EDITED"
	AnswerDeletedEvent   AuditEventType = "ANSWER_DELETED"

	// External gateway events
	MirrorPublishedEvent AuditEventType = "MIRROR_PUBLISHED"
	MirrorRetractedEvent AuditEventType = "MIRROR_RETRACTED"
	MirrorFailureEvent   AuditEventType = "MIRROR_FAILED"
	MailFailureEvent     AuditEventType = "MAIL_FAILED"
	SMSFailureEvent      AuditEventType = "SMS_FAILED"
)
