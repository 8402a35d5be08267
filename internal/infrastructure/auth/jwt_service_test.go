package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/you/qnaforum/domain"
)

func createJWTServiceForTest(t *testing.T, ttl time.Duration) domain.SessionSigner {
	t.Helper()
	return NewJWTService("test-secret-key-at-least-32-bytes!!", "qnaforum-test", ttl)
}

func TestJWTServiceImpl_MintAndVerify(t *testing.T) {
	svc := createJWTServiceForTest(t, time.Hour)
	account := &domain.Account{
		ID:              42,
		Role:            domain.RoleExpert,
		Provider:        domain.ProviderLocal,
		IsEmailVerified: true,
	}

	token, expiresIn, err := svc.Mint(account)
	if err != nil {
		t.Fatalf("Mint() error = %v", err)
	}
	if token == "" {
		t.Fatal("expected a token")
	}
	if expiresIn != 3600 {
		t.Errorf("expires_in = %d, want 3600", expiresIn)
	}

	claims, err := svc.Verify(token)
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if claims.AccountID != 42 {
		t.Errorf("account ID = %d, want 42", claims.AccountID)
	}
	if claims.Role != domain.RoleExpert {
		t.Errorf("role = %v, want expert", claims.Role)
	}
	if claims.Provider != domain.ProviderLocal {
		t.Errorf("provider = %v, want local", claims.Provider)
	}
	if !claims.EmailVerified {
		t.Error("email_verified should carry through")
	}
}

func TestJWTServiceImpl_Verify_Expired(t *testing.T) {
	svc := createJWTServiceForTest(t, -time.Minute)
	token, _, err := svc.Mint(&domain.Account{ID: 1, Role: domain.RoleUser})
	if err != nil {
		t.Fatalf("Mint() error = %v", err)
	}

	_, err = svc.Verify(token)
	if !errors.Is(err, domain.ErrTokenExpired) {
		t.Fatalf("Verify() error = %v, want %v", err, domain.ErrTokenExpired)
	}
}

func TestJWTServiceImpl_Verify_Invalid(t *testing.T) {
	svc := createJWTServiceForTest(t, time.Hour)

	tests := []struct {
		name  string
		token string
	}{
		{name: "garbage", token: "not-a-token"},
		{name: "empty", token: ""},
		{
			name: "wrong signature",
			token: func() string {
				other := NewJWTService("a-completely-different-secret-key!!!", "qnaforum-test", time.Hour)
				token, _, _ := other.Mint(&domain.Account{ID: 1, Role: domain.RoleUser})
				return token
			}(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Verify(tt.token)
			if !errors.Is(err, domain.ErrInvalidToken) {
				t.Errorf("Verify() error = %v, want %v", err, domain.ErrInvalidToken)
			}
		})
	}
}
