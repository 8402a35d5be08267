package mocks

import (
	"context"
	"time"

	"github.com/you/qnaforum/domain"
)

// MockGuardService implements domain.GuardService for testing
type MockGuardService struct {
	RecordFailureFunc func(ctx context.Context, accountID uint) error
	RecordSuccessFunc func(ctx context.Context, accountID uint) error
	EvaluateFunc      func(account *domain.Account, now time.Time) domain.AccountStatus
	GateFunc          func(account *domain.Account) error
}

// NewMockGuardService creates a new MockGuardService
func NewMockGuardService() *MockGuardService {
	return &MockGuardService{}
}

func (m *MockGuardService) RecordFailure(ctx context.Context, accountID uint) error {
	if m.RecordFailureFunc != nil {
		return m.RecordFailureFunc(ctx, accountID)
	}
	return nil
}

func (m *MockGuardService) RecordSuccess(ctx context.Context, accountID uint) error {
	if m.RecordSuccessFunc != nil {
		return m.RecordSuccessFunc(ctx, accountID)
	}
	return nil
}

func (m *MockGuardService) Evaluate(account *domain.Account, now time.Time) domain.AccountStatus {
	if m.EvaluateFunc != nil {
		return m.EvaluateFunc(account, now)
	}
	return domain.AccountStatus{Kind: domain.StatusValid}
}

func (m *MockGuardService) Gate(account *domain.Account) error {
	if m.GateFunc != nil {
		return m.GateFunc(account)
	}
	return nil
}
