package mocks

import (
	"context"

	"github.com/you/qnaforum/domain"
)

// MockFederatedVerifier implements domain.FederatedVerifier for testing
type MockFederatedVerifier struct {
	VerifyFunc func(ctx context.Context, rawToken string) (*domain.FederatedIdentity, error)
}

// NewMockFederatedVerifier creates a new MockFederatedVerifier
func NewMockFederatedVerifier() *MockFederatedVerifier {
	return &MockFederatedVerifier{}
}

func (m *MockFederatedVerifier) Verify(ctx context.Context, rawToken string) (*domain.FederatedIdentity, error) {
	if m.VerifyFunc != nil {
		return m.VerifyFunc(ctx, rawToken)
	}
	return nil, domain.ErrInvalidToken
}
