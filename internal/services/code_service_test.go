package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/you/qnaforum/domain"
	"github.com/you/qnaforum/internal/mocks"
)

func createCodeServiceForTest(t *testing.T, codes domain.CodeRepository) domain.CodeService {
	t.Helper()
	config := CodeConfig{
		Length: 6,
		TTL:    15 * time.Minute,
		Grace:  14 * time.Minute,
	}
	return NewCodeService(codes, config, zap.NewNop())
}

func TestCodeServiceImpl_Issue(t *testing.T) {
	tests := []struct {
		name          string
		active        *domain.ActiveCode
		expectedError error
	}{
		{
			name:          "no active code issues",
			active:        nil,
			expectedError: nil,
		},
		{
			name:          "fresh active code is rate limited",
			active:        &domain.ActiveCode{ExpiresAt: time.Now().Add(15 * time.Minute)},
			expectedError: domain.ErrCodeRateLimited,
		},
		{
			name:          "active code inside grace reissues",
			active:        &domain.ActiveCode{ExpiresAt: time.Now().Add(13 * time.Minute)},
			expectedError: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			codes := mocks.NewMockCodeRepository()
			codes.PeekFunc = func(ctx context.Context, subject string, purpose domain.VerificationPurpose) (*domain.ActiveCode, error) {
				return tt.active, nil
			}
			var stored string
			codes.PutFunc = func(ctx context.Context, subject string, purpose domain.VerificationPurpose, code string, expiresAt time.Time) error {
				stored = code
				return nil
			}

			svc := createCodeServiceForTest(t, codes)
			issued, err := svc.Issue(context.Background(), "a@example.com", domain.PurposeEmailVerification)

			if tt.expectedError != nil {
				if !errors.Is(err, tt.expectedError) {
					t.Fatalf("Issue() error = %v, want %v", err, tt.expectedError)
				}
				return
			}
			if err != nil {
				t.Fatalf("Issue() error = %v", err)
			}
			if len(issued.Code) != 6 {
				t.Errorf("code length = %d, want 6", len(issued.Code))
			}
			for _, c := range issued.Code {
				if c < '0' || c > '9' {
					t.Errorf("code %q contains non-digit", issued.Code)
					break
				}
			}
			if issued.Code != stored {
				t.Errorf("stored code %q differs from returned %q", stored, issued.Code)
			}
		})
	}
}

func TestCodeServiceImpl_Issue_RateLimitWait(t *testing.T) {
	// 15m remaining with a 14m grace leaves about a minute of wait.
	codes := mocks.NewMockCodeRepository()
	codes.PeekFunc = func(ctx context.Context, subject string, purpose domain.VerificationPurpose) (*domain.ActiveCode, error) {
		return &domain.ActiveCode{ExpiresAt: time.Now().Add(15 * time.Minute)}, nil
	}

	svc := createCodeServiceForTest(t, codes)
	_, err := svc.Issue(context.Background(), "a@example.com", domain.PurposeEmailVerification)
	if !errors.Is(err, domain.ErrCodeRateLimited) {
		t.Fatalf("Issue() error = %v, want %v", err, domain.ErrCodeRateLimited)
	}
	var domainErr *domain.Error
	if !errors.As(err, &domainErr) {
		t.Fatalf("Issue() error is not a tagged error: %v", err)
	}
	if domainErr.Kind != domain.KindRateLimited {
		t.Errorf("error kind = %v, want %v", domainErr.Kind, domain.KindRateLimited)
	}
}

func TestSweepExpiredCodes(t *testing.T) {
	swept := make(chan struct{}, 8)
	codes := mocks.NewMockCodeRepository()
	codes.DeleteExpiredFunc = func(ctx context.Context) error {
		swept <- struct{}{}
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		SweepExpiredCodes(ctx, codes, 10*time.Millisecond, zap.NewNop())
		close(done)
	}()

	select {
	case <-swept:
	case <-time.After(2 * time.Second):
		t.Fatal("the sweep never ran")
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("the sweep did not stop on cancellation")
	}
}

func TestCodeServiceImpl_Verify(t *testing.T) {
	tests := []struct {
		name          string
		status        domain.CodeConsumeStatus
		expectedError error
	}{
		{name: "consumed", status: domain.CodeConsumed, expectedError: nil},
		{name: "not found collapses to generic", status: domain.CodeNotFound, expectedError: domain.ErrCodeInvalid},
		{name: "expired collapses to generic", status: domain.CodeExpired, expectedError: domain.ErrCodeInvalid},
		{name: "mismatch collapses to generic", status: domain.CodeMismatch, expectedError: domain.ErrCodeInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			codes := mocks.NewMockCodeRepository()
			codes.ConsumeFunc = func(ctx context.Context, subject string, purpose domain.VerificationPurpose, code string) (domain.CodeConsumeStatus, error) {
				return tt.status, nil
			}

			svc := createCodeServiceForTest(t, codes)
			err := svc.Verify(context.Background(), "a@example.com", domain.PurposeEmailVerification, "123456")

			if tt.expectedError == nil {
				if err != nil {
					t.Fatalf("Verify() error = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.expectedError) {
				t.Errorf("Verify() error = %v, want %v", err, tt.expectedError)
			}
		})
	}
}
