package domain

import (
	"context"
	"time"
)

// AccountRepository defines account data access operations. Counter
// mutations (login attempts, lock, rating) are single-statement updates so
// concurrent callers cannot under- or over-count.
type AccountRepository interface {
	Create(ctx context.Context, account *Account) error
	FindByID(ctx context.Context, id uint) (*Account, error)
	FindByEmail(ctx context.Context, email string) (*Account, error)
	FindByGoogleID(ctx context.Context, googleID string) (*Account, error)
	Update(ctx context.Context, account *Account) error
	TouchLogin(ctx context.Context, id uint, at time.Time) error

	// IncrementFailedLogin atomically bumps the counter and returns the
	// new value.
	IncrementFailedLogin(ctx context.Context, id uint) (int, error)
	// Lock sets lock_until only while the account is not already locked,
	// so concurrent failures past the threshold do not extend the window.
	Lock(ctx context.Context, id uint, until time.Time) error
	ResetLoginState(ctx context.Context, id uint) error

	SetPassword(ctx context.Context, id uint, passwordHash string) error
	MarkEmailVerified(ctx context.Context, id uint) error
	SetBan(ctx context.Context, id uint, banned bool, until *time.Time, reason string) error
	SetRole(ctx context.Context, id uint, role Role) error
	AddRating(ctx context.Context, id uint, delta int) error
}

// CodeRepository persists one-time verification codes keyed by
// (subject, purpose). Issuing overwrites any previous code for the pair;
// consumption is atomic and exactly-once.
type CodeRepository interface {
	Put(ctx context.Context, subject string, purpose VerificationPurpose, code string, expiresAt time.Time) error
	// Peek returns the active code's expiry, or nil when no active code
	// exists.
	Peek(ctx context.Context, subject string, purpose VerificationPurpose) (*ActiveCode, error)
	// Consume atomically checks and deletes the code. Exactly one of two
	// concurrent calls with the correct value observes CodeConsumed.
	Consume(ctx context.Context, subject string, purpose VerificationPurpose, code string) (CodeConsumeStatus, error)
	// DeleteExpired removes leftovers past their retention window.
	DeleteExpired(ctx context.Context) error
}

// QuestionRepository defines question data access. Aggregate writes happen
// through the dedicated methods below so they stay atomic relative to other
// writers of the same question.
type QuestionRepository interface {
	Create(ctx context.Context, question *Question) error
	FindByID(ctx context.Context, id uint) (*Question, error)
	List(ctx context.Context, offset, limit int) ([]Question, int64, error)

	// RecountAnswers recomputes answers_count and status from the current
	// approved-answer set. Used after any transition that touches the
	// aggregate, so a repeated call always converges on the true count.
	RecountAnswers(ctx context.Context, id uint) (*Question, error)
	// MarkAccepted flips has_accepted_answer only when it is currently
	// false; reports whether this call won.
	MarkAccepted(ctx context.Context, id uint) (bool, error)
	ClearAcceptance(ctx context.Context, id uint) error
}

// AnswerRepository defines answer data access with optimistic locking on
// moderation writes.
type AnswerRepository interface {
	Create(ctx context.Context, answer *Answer) error
	FindByID(ctx context.Context, id uint) (*Answer, error)
	FindByQuestionAndExpert(ctx context.Context, questionID, expertID uint) (*Answer, error)
	ListByQuestion(ctx context.Context, questionID uint) ([]Answer, error)
	// UpdateModerated writes moderation fields guarded by the answer's
	// Version; returns ErrReviewConflict when another transition won.
	UpdateModerated(ctx context.Context, answer *Answer) (*Answer, error)
	// Delete removes the answer and its mirror references. When the
	// deleted answer was approved, the owning question's aggregate is
	// recomputed in the same transaction.
	Delete(ctx context.Context, id uint) error
	AddLike(ctx context.Context, id uint) (*Answer, error)
	AttachSocialPost(ctx context.Context, post *SocialPost) error
	RemoveSocialPosts(ctx context.Context, answerID uint) error
}

// FederatedVerifier validates a federated ID token and extracts the
// identity claims. Implementations are injected so tests can stub the
// issuer.
type FederatedVerifier interface {
	Verify(ctx context.Context, rawToken string) (*FederatedIdentity, error)
}

// SessionSigner mints and verifies locally issued session tokens.
type SessionSigner interface {
	Mint(account *Account) (token string, expiresIn int64, err error)
	Verify(token string) (*TokenClaims, error)
}

// TokenService resolves an inbound identity token to an account and mints
// session tokens. Federated verification is attempted first; local
// verification is the fallback for tokens the federated path cannot parse.
type TokenService interface {
	Authenticate(ctx context.Context, rawToken string) (*AuthResult, error)
	Mint(account *Account) (token string, expiresIn int64, err error)
	Verify(token string) (*TokenClaims, error)
}

// GuardService tracks per-account security counters and gates access.
type GuardService interface {
	RecordFailure(ctx context.Context, accountID uint) error
	RecordSuccess(ctx context.Context, accountID uint) error
	Evaluate(account *Account, now time.Time) AccountStatus
	// Gate maps Evaluate to the corresponding domain error, nil when valid.
	Gate(account *Account) error
}

// CodeService issues and verifies one-time verification codes.
type CodeService interface {
	Issue(ctx context.Context, subject string, purpose VerificationPurpose) (*IssuedCode, error)
	Verify(ctx context.Context, subject string, purpose VerificationPurpose, code string) error
	PeekActive(ctx context.Context, subject string, purpose VerificationPurpose) (*ActiveCode, error)
}

// AuthService defines the local-credential authentication flows.
type AuthService interface {
	Register(ctx context.Context, email, password, displayName, phone string) (*Account, error)
	Login(ctx context.Context, email, password string) (*AuthResult, error)
	RequestEmailVerification(ctx context.Context, email string) error
	ConfirmEmail(ctx context.Context, email, code string) error
	RequestPasswordReset(ctx context.Context, email string) error
	ConfirmPasswordReset(ctx context.Context, email, code, newPassword string) error
}

// ModerationService drives the answer moderation state machine.
type ModerationService interface {
	Submit(ctx context.Context, expert *Account, questionID uint, content string) (*Answer, error)
	Approve(ctx context.Context, moderator *Account, answerID uint, comment string) (*ModerationOutcome, error)
	Reject(ctx context.Context, moderator *Account, answerID uint, comment string) (*ModerationOutcome, error)
	Accept(ctx context.Context, caller *Account, answerID uint) (*ModerationOutcome, error)
	Edit(ctx context.Context, caller *Account, answerID uint, content string) (*ModerationOutcome, error)
	Delete(ctx context.Context, caller *Account, answerID uint) error
	Like(ctx context.Context, answerID uint) (*Answer, error)
}

// PasswordService defines local-credential hashing operations.
type PasswordService interface {
	Hash(password string) (string, error)
	Verify(hashedPassword, password string) bool
}

// NotificationService delivers outbound mail and SMS. Both are
// fire-and-forget from the core's perspective: failures are logged by the
// caller, never propagated.
type NotificationService interface {
	SendMail(ctx context.Context, to string, kind MailKind, data map[string]string) error
	SendSMS(to, message string) error
}

// SocialPublisher mirrors approved content to an external channel. All
// calls are best-effort and must be bounded by the caller's context.
type SocialPublisher interface {
	Publish(ctx context.Context, question *Question, answer *Answer) (externalID string, err error)
	Republish(ctx context.Context, post *SocialPost, content string) error
	Retract(ctx context.Context, post *SocialPost) error
}

// PolicyService defines authorization policy operations.
type PolicyService interface {
	AddPolicy(role, resource, action string) error
	RemovePolicy(role, resource, action string) error
	CheckPermission(role, resource, action string) (bool, error)
	GetPolicies() [][]string
}

// CasbinEnforcer is the subset of the casbin enforcer the service needs.
type CasbinEnforcer interface {
	AddPolicy(params ...interface{}) (bool, error)
	RemovePolicy(params ...interface{}) (bool, error)
	Enforce(rvals ...interface{}) (bool, error)
	GetPolicy() ([][]string, error)
	SavePolicy() error
}
