package mocks

import (
	"context"

	"github.com/you/qnaforum/domain"
)

// MockTokenService implements domain.TokenService for testing
type MockTokenService struct {
	AuthenticateFunc func(ctx context.Context, rawToken string) (*domain.AuthResult, error)
	MintFunc         func(account *domain.Account) (string, int64, error)
	VerifyFunc       func(token string) (*domain.TokenClaims, error)
}

// NewMockTokenService creates a new MockTokenService
func NewMockTokenService() *MockTokenService {
	return &MockTokenService{}
}

func (m *MockTokenService) Authenticate(ctx context.Context, rawToken string) (*domain.AuthResult, error) {
	if m.AuthenticateFunc != nil {
		return m.AuthenticateFunc(ctx, rawToken)
	}
	return nil, domain.ErrInvalidToken
}

func (m *MockTokenService) Mint(account *domain.Account) (string, int64, error) {
	if m.MintFunc != nil {
		return m.MintFunc(account)
	}
	return "mock_session_token", 3600, nil
}

func (m *MockTokenService) Verify(token string) (*domain.TokenClaims, error) {
	if m.VerifyFunc != nil {
		return m.VerifyFunc(token)
	}
	return &domain.TokenClaims{AccountID: 1, Role: domain.RoleUser}, nil
}
