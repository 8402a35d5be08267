package domain

import (
	"errors"
	"fmt"
	"testing"
)

func TestError_Is(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		target error
		want   bool
	}{
		{name: "sentinel matches itself", err: ErrAccountLocked, target: ErrAccountLocked, want: true},
		{name: "different codes do not match", err: ErrAccountLocked, target: ErrAccountBanned, want: false},
		{name: "WithMessage keeps the identity", err: ErrAccountLocked.WithMessage("try again in %d seconds", 42), target: ErrAccountLocked, want: true},
		{name: "WithCause keeps the identity", err: ErrCodeInvalid.WithCause(errors.New("boom")), target: ErrCodeInvalid, want: true},
		{name: "wrapped sentinel still matches", err: fmt.Errorf("context: %w", ErrTokenExpired), target: ErrTokenExpired, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := errors.Is(tt.err, tt.target); got != tt.want {
				t.Errorf("errors.Is() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestError_WithMessage(t *testing.T) {
	err := ErrAccountLocked.WithMessage("locked for %d seconds", 30)
	if err.Message != "locked for 30 seconds" {
		t.Errorf("message = %q", err.Message)
	}
	if err.Code != ErrAccountLocked.Code {
		t.Errorf("code = %q, must be preserved", err.Code)
	}
	if err.Kind != ErrAccountLocked.Kind {
		t.Errorf("kind = %q, must be preserved", err.Kind)
	}
	// The sentinel itself is untouched.
	if ErrAccountLocked.Message != "account is temporarily locked" {
		t.Errorf("sentinel mutated: %q", ErrAccountLocked.Message)
	}
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := Internal(cause)
	if !errors.Is(err, cause) {
		t.Error("the cause must be reachable through Unwrap")
	}
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorKind
	}{
		{name: "tagged error", err: ErrCodeRateLimited, want: KindRateLimited},
		{name: "untyped error defaults to internal", err: errors.New("boom"), want: KindInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := KindOf(tt.err); got != tt.want {
				t.Errorf("KindOf() = %v, want %v", got, tt.want)
			}
		})
	}
}
