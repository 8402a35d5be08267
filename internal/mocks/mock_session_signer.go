package mocks

import (
	"github.com/you/qnaforum/domain"
)

// MockSessionSigner implements domain.SessionSigner for testing
type MockSessionSigner struct {
	MintFunc   func(account *domain.Account) (string, int64, error)
	VerifyFunc func(token string) (*domain.TokenClaims, error)
}

// NewMockSessionSigner creates a new MockSessionSigner
func NewMockSessionSigner() *MockSessionSigner {
	return &MockSessionSigner{}
}

func (m *MockSessionSigner) Mint(account *domain.Account) (string, int64, error) {
	if m.MintFunc != nil {
		return m.MintFunc(account)
	}
	return "mock_session_token", 3600, nil
}

func (m *MockSessionSigner) Verify(token string) (*domain.TokenClaims, error) {
	if m.VerifyFunc != nil {
		return m.VerifyFunc(token)
	}
	return nil, domain.ErrInvalidToken
}
