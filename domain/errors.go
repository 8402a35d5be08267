package domain

import "fmt"

// ErrorKind is the closed set of failure classes surfaced by the core.
// Transport-level mapping (HTTP status and so on) is the caller's job.
type ErrorKind string

const (
	KindValidation   ErrorKind = "validation"
	KindNotFound     ErrorKind = "not_found"
	KindConflict     ErrorKind = "conflict"
	KindUnauthorized ErrorKind = "unauthorized"
	KindForbidden    ErrorKind = "forbidden"
	KindRateLimited  ErrorKind = "rate_limited"
	KindUnavailable  ErrorKind = "unavailable"
	KindInternal     ErrorKind = "internal"
)

// Error is a tagged failure with a machine-readable code. Two errors are
// considered equal by errors.Is when their codes match, so the predeclared
// values below act as sentinels even after WithMessage.
type Error struct {
	Kind    ErrorKind
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

// WithMessage returns a copy carrying a caller-specific message. The code
// is preserved so sentinel matching still works.
func (e *Error) WithMessage(format string, args ...any) *Error {
	return &Error{Kind: e.Kind, Code: e.Code, Message: fmt.Sprintf(format, args...)}
}

// WithCause returns a copy wrapping an underlying error.
func (e *Error) WithCause(err error) *Error {
	return &Error{Kind: e.Kind, Code: e.Code, Message: e.Message, Err: err}
}

// Internal wraps an unexpected failure from a collaborator.
func Internal(err error) *Error {
	return &Error{Kind: KindInternal, Code: "INTERNAL", Message: "internal error", Err: err}
}

// KindOf extracts the error kind, defaulting to KindInternal for untyped
// errors.
func KindOf(err error) ErrorKind {
	if e, ok := err.(*Error); ok {
		return e.Kind
	}
	return KindInternal
}

// Identity token failures
var (
	ErrMissingToken       = &Error{Kind: KindUnauthorized, Code: "MISSING_TOKEN", Message: "authorization token required"}
	ErrInvalidIssuer      = &Error{Kind: KindUnauthorized, Code: "INVALID_ISSUER", Message: "token issuer is not trusted"}
	ErrEmailAlreadyExists = &Error{Kind: KindConflict, Code: "EMAIL_EXISTS", Message: "an account with this email already exists"}
	ErrAccountNotFound    = &Error{Kind: KindNotFound, Code: "ACCOUNT_NOT_FOUND", Message: "account not found"}
	ErrTokenExpired       = &Error{Kind: KindUnauthorized, Code: "TOKEN_EXPIRED", Message: "token has expired"}
	ErrInvalidToken       = &Error{Kind: KindUnauthorized, Code: "INVALID_TOKEN", Message: "invalid token"}
)

// Account security failures
var (
	ErrInvalidCredentials = &Error{Kind: KindUnauthorized, Code: "INVALID_CREDENTIALS", Message: "invalid credentials"}
	ErrAccountInactive    = &Error{Kind: KindForbidden, Code: "ACCOUNT_INACTIVE", Message: "account is deactivated"}
	ErrAccountLocked      = &Error{Kind: KindRateLimited, Code: "ACCOUNT_LOCKED", Message: "account is temporarily locked"}
	ErrAccountBanned      = &Error{Kind: KindForbidden, Code: "ACCOUNT_BANNED", Message: "account is banned"}
	ErrEmailNotVerified   = &Error{Kind: KindForbidden, Code: "EMAIL_NOT_VERIFIED", Message: "email address is not verified"}
)

// Verification code failures. ErrCodeInvalid is deliberately generic: the
// precise reason (expired, missing, mismatch) goes to the audit log only.
var (
	ErrCodeInvalid     = &Error{Kind: KindUnauthorized, Code: "CODE_INVALID", Message: "invalid or expired verification code"}
	ErrCodeRateLimited = &Error{Kind: KindRateLimited, Code: "CODE_RATE_LIMITED", Message: "a verification code was issued recently"}
)

// Content failures
var (
	ErrQuestionNotFound  = &Error{Kind: KindNotFound, Code: "QUESTION_NOT_FOUND", Message: "question not found"}
	ErrAnswerNotFound    = &Error{Kind: KindNotFound, Code: "ANSWER_NOT_FOUND", Message: "answer not found"}
	ErrDuplicateAnswer   = &Error{Kind: KindConflict, Code: "DUPLICATE_ANSWER", Message: "expert already answered this question"}
	ErrOwnQuestion       = &Error{Kind: KindValidation, Code: "OWN_QUESTION", Message: "cannot answer your own question"}
	ErrNotApproved       = &Error{Kind: KindValidation, Code: "NOT_APPROVED", Message: "answer is not approved"}
	ErrAlreadyAccepted   = &Error{Kind: KindConflict, Code: "ALREADY_ACCEPTED", Message: "question already has an accepted answer"}
	ErrAlreadyReviewed   = &Error{Kind: KindConflict, Code: "ALREADY_REVIEWED", Message: "answer has already been reviewed"}
	ErrReviewConflict    = &Error{Kind: KindConflict, Code: "REVIEW_CONFLICT", Message: "answer was modified concurrently, retry"}
	ErrNotQuestionAuthor = &Error{Kind: KindForbidden, Code: "NOT_QUESTION_AUTHOR", Message: "only the question author may accept an answer"}
	ErrForbidden         = &Error{Kind: KindForbidden, Code: "FORBIDDEN", Message: "operation not permitted"}
	ErrInvalidInput      = &Error{Kind: KindValidation, Code: "INVALID_INPUT", Message: "invalid input"}
)

// External collaborator failure. Always non-fatal to the operation that
// triggered the call; surfaced as a warning at most.
var ErrExternalService = &Error{Kind: KindUnavailable, Code: "EXTERNAL_SERVICE", Message: "external service call failed"}
