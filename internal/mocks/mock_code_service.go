package mocks

import (
	"context"
	"time"

	"github.com/you/qnaforum/domain"
)

// MockCodeService implements domain.CodeService for testing
type MockCodeService struct {
	IssueFunc      func(ctx context.Context, subject string, purpose domain.VerificationPurpose) (*domain.IssuedCode, error)
	VerifyFunc     func(ctx context.Context, subject string, purpose domain.VerificationPurpose, code string) error
	PeekActiveFunc func(ctx context.Context, subject string, purpose domain.VerificationPurpose) (*domain.ActiveCode, error)
}

// NewMockCodeService creates a new MockCodeService
func NewMockCodeService() *MockCodeService {
	return &MockCodeService{}
}

func (m *MockCodeService) Issue(ctx context.Context, subject string, purpose domain.VerificationPurpose) (*domain.IssuedCode, error) {
	if m.IssueFunc != nil {
		return m.IssueFunc(ctx, subject, purpose)
	}
	return &domain.IssuedCode{Code: "123456", ExpiresAt: time.Now().Add(15 * time.Minute)}, nil
}

func (m *MockCodeService) Verify(ctx context.Context, subject string, purpose domain.VerificationPurpose, code string) error {
	if m.VerifyFunc != nil {
		return m.VerifyFunc(ctx, subject, purpose, code)
	}
	return nil
}

func (m *MockCodeService) PeekActive(ctx context.Context, subject string, purpose domain.VerificationPurpose) (*domain.ActiveCode, error) {
	if m.PeekActiveFunc != nil {
		return m.PeekActiveFunc(ctx, subject, purpose)
	}
	return nil, nil
}
