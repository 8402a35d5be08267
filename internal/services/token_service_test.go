package services

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/you/qnaforum/domain"
	"github.com/you/qnaforum/internal/mocks"
)

func createTokenServiceForTest(t *testing.T) (domain.TokenService, *mocks.MockAccountRepository, *mocks.MockFederatedVerifier, *mocks.MockSessionSigner) {
	t.Helper()
	accounts := mocks.NewMockAccountRepository()
	verifier := mocks.NewMockFederatedVerifier()
	signer := mocks.NewMockSessionSigner()
	guard := mocks.NewMockGuardService()
	svc := NewTokenService(accounts, verifier, signer, guard, zap.NewNop())
	return svc, accounts, verifier, signer
}

func TestTokenServiceImpl_Authenticate_Federated(t *testing.T) {
	identity := &domain.FederatedIdentity{
		Subject:       "google-sub-1",
		Email:         "fed@example.com",
		EmailVerified: true,
		Name:          "Fed User",
	}

	tests := []struct {
		name          string
		setupMocks    func(*mocks.MockAccountRepository, *mocks.MockFederatedVerifier)
		expectedError error
		validate      func(t *testing.T, result *domain.AuthResult)
	}{
		{
			name: "known federated identity resolves",
			setupMocks: func(accounts *mocks.MockAccountRepository, verifier *mocks.MockFederatedVerifier) {
				verifier.VerifyFunc = func(ctx context.Context, rawToken string) (*domain.FederatedIdentity, error) {
					return identity, nil
				}
				accounts.FindByGoogleIDFunc = func(ctx context.Context, googleID string) (*domain.Account, error) {
					return &domain.Account{ID: 7, Email: identity.Email, GoogleID: googleID, Provider: domain.ProviderGoogle, IsActive: true}, nil
				}
			},
			validate: func(t *testing.T, result *domain.AuthResult) {
				if result.Account.ID != 7 {
					t.Errorf("account ID = %d, want 7", result.Account.ID)
				}
				if result.Token == "" {
					t.Error("expected a session token")
				}
			},
		},
		{
			name: "first sign-in provisions an account",
			setupMocks: func(accounts *mocks.MockAccountRepository, verifier *mocks.MockFederatedVerifier) {
				verifier.VerifyFunc = func(ctx context.Context, rawToken string) (*domain.FederatedIdentity, error) {
					return identity, nil
				}
				accounts.CreateFunc = func(ctx context.Context, account *domain.Account) error {
					account.ID = 42
					return nil
				}
			},
			validate: func(t *testing.T, result *domain.AuthResult) {
				a := result.Account
				if a.ID != 42 {
					t.Errorf("account ID = %d, want 42", a.ID)
				}
				if a.Provider != domain.ProviderGoogle {
					t.Errorf("provider = %v, want google", a.Provider)
				}
				if !a.IsEmailVerified {
					t.Error("federated account should be email verified")
				}
				if a.Role != domain.RoleUser {
					t.Errorf("role = %v, want user", a.Role)
				}
			},
		},
		{
			name: "existing local account under same email blocks provisioning",
			setupMocks: func(accounts *mocks.MockAccountRepository, verifier *mocks.MockFederatedVerifier) {
				verifier.VerifyFunc = func(ctx context.Context, rawToken string) (*domain.FederatedIdentity, error) {
					return identity, nil
				}
				accounts.FindByEmailFunc = func(ctx context.Context, email string) (*domain.Account, error) {
					return &domain.Account{ID: 3, Email: email, Provider: domain.ProviderLocal}, nil
				}
			},
			expectedError: domain.ErrEmailAlreadyExists,
		},
		{
			name: "untrusted issuer is terminal",
			setupMocks: func(accounts *mocks.MockAccountRepository, verifier *mocks.MockFederatedVerifier) {
				verifier.VerifyFunc = func(ctx context.Context, rawToken string) (*domain.FederatedIdentity, error) {
					return nil, domain.ErrInvalidIssuer
				}
			},
			expectedError: domain.ErrInvalidIssuer,
		},
		{
			name: "expired federated token is terminal",
			setupMocks: func(accounts *mocks.MockAccountRepository, verifier *mocks.MockFederatedVerifier) {
				verifier.VerifyFunc = func(ctx context.Context, rawToken string) (*domain.FederatedIdentity, error) {
					return nil, domain.ErrTokenExpired
				}
			},
			expectedError: domain.ErrTokenExpired,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, accounts, verifier, _ := createTokenServiceForTest(t)
			tt.setupMocks(accounts, verifier)

			result, err := svc.Authenticate(context.Background(), "some-token")
			if tt.expectedError != nil {
				if !errors.Is(err, tt.expectedError) {
					t.Fatalf("Authenticate() error = %v, want %v", err, tt.expectedError)
				}
				return
			}
			if err != nil {
				t.Fatalf("Authenticate() error = %v", err)
			}
			tt.validate(t, result)
		})
	}
}

func TestTokenServiceImpl_Authenticate_LocalFallback(t *testing.T) {
	tests := []struct {
		name          string
		setupMocks    func(*mocks.MockAccountRepository, *mocks.MockFederatedVerifier, *mocks.MockSessionSigner)
		expectedError error
	}{
		{
			name: "unparseable federated token falls back to local",
			setupMocks: func(accounts *mocks.MockAccountRepository, verifier *mocks.MockFederatedVerifier, signer *mocks.MockSessionSigner) {
				verifier.VerifyFunc = func(ctx context.Context, rawToken string) (*domain.FederatedIdentity, error) {
					return nil, domain.ErrInvalidToken
				}
				signer.VerifyFunc = func(token string) (*domain.TokenClaims, error) {
					return &domain.TokenClaims{AccountID: 9}, nil
				}
				accounts.FindByIDFunc = func(ctx context.Context, id uint) (*domain.Account, error) {
					return &domain.Account{ID: id, Provider: domain.ProviderLocal, IsActive: true}, nil
				}
			},
		},
		{
			name: "expired local token",
			setupMocks: func(accounts *mocks.MockAccountRepository, verifier *mocks.MockFederatedVerifier, signer *mocks.MockSessionSigner) {
				signer.VerifyFunc = func(token string) (*domain.TokenClaims, error) {
					return nil, domain.ErrTokenExpired
				}
			},
			expectedError: domain.ErrTokenExpired,
		},
		{
			name: "malformed local token",
			setupMocks: func(accounts *mocks.MockAccountRepository, verifier *mocks.MockFederatedVerifier, signer *mocks.MockSessionSigner) {
				signer.VerifyFunc = func(token string) (*domain.TokenClaims, error) {
					return nil, domain.ErrInvalidToken
				}
			},
			expectedError: domain.ErrInvalidToken,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, accounts, verifier, signer := createTokenServiceForTest(t)
			tt.setupMocks(accounts, verifier, signer)

			result, err := svc.Authenticate(context.Background(), "some-token")
			if tt.expectedError != nil {
				if !errors.Is(err, tt.expectedError) {
					t.Fatalf("Authenticate() error = %v, want %v", err, tt.expectedError)
				}
				return
			}
			if err != nil {
				t.Fatalf("Authenticate() error = %v", err)
			}
			if result.Account == nil {
				t.Fatal("expected an account on the result")
			}
		})
	}
}

func TestTokenServiceImpl_Authenticate_MissingToken(t *testing.T) {
	svc, _, _, _ := createTokenServiceForTest(t)
	_, err := svc.Authenticate(context.Background(), "")
	if !errors.Is(err, domain.ErrMissingToken) {
		t.Fatalf("Authenticate() error = %v, want %v", err, domain.ErrMissingToken)
	}
}

func TestTokenServiceImpl_Authenticate_GateBlocks(t *testing.T) {
	accounts := mocks.NewMockAccountRepository()
	verifier := mocks.NewMockFederatedVerifier()
	signer := mocks.NewMockSessionSigner()
	guard := mocks.NewMockGuardService()

	verifier.VerifyFunc = func(ctx context.Context, rawToken string) (*domain.FederatedIdentity, error) {
		return &domain.FederatedIdentity{Subject: "sub", Email: "banned@example.com"}, nil
	}
	accounts.FindByGoogleIDFunc = func(ctx context.Context, googleID string) (*domain.Account, error) {
		return &domain.Account{ID: 2, IsActive: true, IsBanned: true}, nil
	}
	guard.GateFunc = func(account *domain.Account) error {
		return domain.ErrAccountBanned
	}

	svc := NewTokenService(accounts, verifier, signer, guard, zap.NewNop())
	_, err := svc.Authenticate(context.Background(), "token")
	if !errors.Is(err, domain.ErrAccountBanned) {
		t.Fatalf("Authenticate() error = %v, want %v", err, domain.ErrAccountBanned)
	}
}
