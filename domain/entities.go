package domain

import "time"

// Provider identifies how an account proves its identity.
type Provider string

const (
	ProviderGoogle Provider = "google"
	ProviderLocal  Provider = "local"
)

// Role is the account's authorization role.
type Role string

const (
	RoleUser   Role = "user"
	RoleExpert Role = "expert"
	RoleAdmin  Role = "admin"
)

// Account represents a forum account
type Account struct {
	ID              uint
	Email           string
	Phone           string
	DisplayName     string
	AvatarURL       string
	Provider        Provider
	GoogleID        string
	PasswordHash    string
	Role            Role
	Rating          int
	IsEmailVerified bool
	IsActive        bool
	IsBanned        bool
	BannedUntil     *time.Time
	BannedReason    string
	LoginAttempts   int
	LockUntil       *time.Time
	LastLoginAt     *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Locked reports whether the account is currently locked out of login.
func (a *Account) Locked(now time.Time) bool {
	return a.LockUntil != nil && a.LockUntil.After(now)
}

// BanActive reports whether a ban is in effect at the given instant.
// A nil BannedUntil means the ban is permanent.
func (a *Account) BanActive(now time.Time) bool {
	if !a.IsBanned {
		return false
	}
	return a.BannedUntil == nil || a.BannedUntil.After(now)
}

// AccountStatusKind enumerates the outcomes of the security gate.
type AccountStatusKind string

const (
	StatusValid    AccountStatusKind = "valid"
	StatusInactive AccountStatusKind = "inactive"
	StatusLocked   AccountStatusKind = "locked"
	StatusBanned   AccountStatusKind = "banned"
)

// AccountStatus is the result of evaluating an account against the
// security gate. Check order is fixed: inactive, locked, banned, valid.
// A locked account reports the lock even when it is also banned, because
// the lock is transient and self-resolving while a ban is administrative.
type AccountStatus struct {
	Kind          AccountStatusKind
	LockRemaining time.Duration
	BannedUntil   *time.Time
	BanReason     string
}

// VerificationPurpose scopes a one-time code to the flow it was issued for.
type VerificationPurpose string

const (
	PurposeEmailVerification VerificationPurpose = "email_verification"
	PurposePasswordReset     VerificationPurpose = "password_reset"
)

// IssuedCode is returned to the caller responsible for delivering the code.
type IssuedCode struct {
	Code      string
	ExpiresAt time.Time
}

// ActiveCode describes an unconsumed, unexpired code without exposing it.
type ActiveCode struct {
	ExpiresAt time.Time
}

// CodeConsumeStatus is the internal outcome of a consume attempt. Callers
// collapse everything but CodeConsumed into a generic failure; the precise
// status is for the audit log only.
type CodeConsumeStatus int

const (
	CodeConsumed CodeConsumeStatus = iota
	CodeNotFound
	CodeExpired
	CodeMismatch
)

func (s CodeConsumeStatus) String() string {
	switch s {
	case CodeConsumed:
		return "consumed"
	case CodeNotFound:
		return "not_found"
	case CodeExpired:
		return "expired"
	case CodeMismatch:
		return "mismatch"
	default:
		return "unknown"
	}
}

// QuestionStatus is the aggregate moderation status of a question.
type QuestionStatus string

const (
	QuestionPending  QuestionStatus = "pending"
	QuestionAnswered QuestionStatus = "answered"
)

// Question represents a user question. Its aggregate fields (Status,
// HasAcceptedAnswer, AnswersCount) are mutated only through moderation
// transitions, never ad hoc.
type Question struct {
	ID                uint
	AuthorID          uint
	Title             string
	Content           string
	Status            QuestionStatus
	HasAcceptedAnswer bool
	AnswersCount      int
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Answer represents an expert answer. Answers are created unapproved and
// move through the moderation state machine.
type Answer struct {
	ID                uint
	QuestionID        uint
	ExpertID          uint
	Content           string
	IsApproved        bool
	IsAccepted        bool
	ModeratedBy       *uint
	ModeratedAt       *time.Time
	ModerationComment string
	Likes             int
	Version           int
	SocialPosts       []SocialPost
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// SocialPost is a reference to an external mirror of an approved answer.
type SocialPost struct {
	ID         uint
	AnswerID   uint
	Channel    string
	ExternalID string
	PostedAt   time.Time
}

// FederatedIdentity holds the claims extracted from a verified
// federated ID token.
type FederatedIdentity struct {
	Subject       string
	Email         string
	EmailVerified bool
	Name          string
	Picture       string
}

// TokenClaims represents the claims of a locally issued session token.
type TokenClaims struct {
	AccountID     uint
	Role          Role
	Provider      Provider
	EmailVerified bool
	IssuedAt      int64
	ExpiresAt     int64
}

// AuthResult represents a successful authentication.
type AuthResult struct {
	Account   *Account
	Token     string
	ExpiresIn int64
}

// ModerationOutcome is the authoritative post-transition state returned by
// a moderation operation. MirrorWarning carries a best-effort gateway
// failure that did not block the transition.
type ModerationOutcome struct {
	Answer        *Answer
	Question      *Question
	MirrorWarning string
}

// MailKind selects an outbound mail template.
type MailKind string

const (
	MailEmailVerification MailKind = "email_verification"
	MailPasswordReset     MailKind = "password_reset"
	MailAnswerApproved    MailKind = "answer_approved"
	MailAnswerRejected    MailKind = "answer_rejected"
)
