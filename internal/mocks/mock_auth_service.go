package mocks

import (
	"context"

	"github.com/you/qnaforum/domain"
)

// MockAuthService implements domain.AuthService for testing
type MockAuthService struct {
	RegisterFunc                 func(ctx context.Context, email, password, displayName, phone string) (*domain.Account, error)
	LoginFunc                    func(ctx context.Context, email, password string) (*domain.AuthResult, error)
	RequestEmailVerificationFunc func(ctx context.Context, email string) error
	ConfirmEmailFunc             func(ctx context.Context, email, code string) error
	RequestPasswordResetFunc     func(ctx context.Context, email string) error
	ConfirmPasswordResetFunc     func(ctx context.Context, email, code, newPassword string) error
}

// NewMockAuthService creates a new MockAuthService
func NewMockAuthService() *MockAuthService {
	return &MockAuthService{}
}

func (m *MockAuthService) Register(ctx context.Context, email, password, displayName, phone string) (*domain.Account, error) {
	if m.RegisterFunc != nil {
		return m.RegisterFunc(ctx, email, password, displayName, phone)
	}
	return &domain.Account{ID: 1, Email: email, Phone: phone, DisplayName: displayName, Provider: domain.ProviderLocal, Role: domain.RoleUser, IsActive: true}, nil
}

func (m *MockAuthService) Login(ctx context.Context, email, password string) (*domain.AuthResult, error) {
	if m.LoginFunc != nil {
		return m.LoginFunc(ctx, email, password)
	}
	return &domain.AuthResult{
		Token:     "mock_session_token",
		ExpiresIn: 3600,
		Account:   &domain.Account{ID: 1, Email: email, Provider: domain.ProviderLocal, Role: domain.RoleUser, IsActive: true},
	}, nil
}

func (m *MockAuthService) RequestEmailVerification(ctx context.Context, email string) error {
	if m.RequestEmailVerificationFunc != nil {
		return m.RequestEmailVerificationFunc(ctx, email)
	}
	return nil
}

func (m *MockAuthService) ConfirmEmail(ctx context.Context, email, code string) error {
	if m.ConfirmEmailFunc != nil {
		return m.ConfirmEmailFunc(ctx, email, code)
	}
	return nil
}

func (m *MockAuthService) RequestPasswordReset(ctx context.Context, email string) error {
	if m.RequestPasswordResetFunc != nil {
		return m.RequestPasswordResetFunc(ctx, email)
	}
	return nil
}

func (m *MockAuthService) ConfirmPasswordReset(ctx context.Context, email, code, newPassword string) error {
	if m.ConfirmPasswordResetFunc != nil {
		return m.ConfirmPasswordResetFunc(ctx, email, code, newPassword)
	}
	return nil
}
