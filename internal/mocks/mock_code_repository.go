package mocks

import (
	"context"
	"time"

	"github.com/you/qnaforum/domain"
)

// MockCodeRepository implements domain.CodeRepository for testing
type MockCodeRepository struct {
	PutFunc           func(ctx context.Context, subject string, purpose domain.VerificationPurpose, code string, expiresAt time.Time) error
	PeekFunc          func(ctx context.Context, subject string, purpose domain.VerificationPurpose) (*domain.ActiveCode, error)
	ConsumeFunc       func(ctx context.Context, subject string, purpose domain.VerificationPurpose, code string) (domain.CodeConsumeStatus, error)
	DeleteExpiredFunc func(ctx context.Context) error
}

// NewMockCodeRepository creates a new MockCodeRepository
func NewMockCodeRepository() *MockCodeRepository {
	return &MockCodeRepository{}
}

func (m *MockCodeRepository) Put(ctx context.Context, subject string, purpose domain.VerificationPurpose, code string, expiresAt time.Time) error {
	if m.PutFunc != nil {
		return m.PutFunc(ctx, subject, purpose, code, expiresAt)
	}
	return nil
}

func (m *MockCodeRepository) Peek(ctx context.Context, subject string, purpose domain.VerificationPurpose) (*domain.ActiveCode, error) {
	if m.PeekFunc != nil {
		return m.PeekFunc(ctx, subject, purpose)
	}
	return nil, nil
}

func (m *MockCodeRepository) Consume(ctx context.Context, subject string, purpose domain.VerificationPurpose, code string) (domain.CodeConsumeStatus, error) {
	if m.ConsumeFunc != nil {
		return m.ConsumeFunc(ctx, subject, purpose, code)
	}
	return domain.CodeConsumed, nil
}

func (m *MockCodeRepository) DeleteExpired(ctx context.Context) error {
	if m.DeleteExpiredFunc != nil {
		return m.DeleteExpiredFunc(ctx)
	}
	return nil
}
