package services

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/you/qnaforum/domain"
)

// TokenServiceImpl implements domain.TokenService. An inbound opaque token
// is resolved along two mutually exclusive paths tried in fixed order:
// first as a federated ID token, then, if the federated verifier could not
// even parse it, as a locally issued session token. Business rejections on
// the federated path (untrusted issuer, expired federated token) are
// terminal and never fall through to the local path.
type TokenServiceImpl struct {
	accounts domain.AccountRepository
	verifier domain.FederatedVerifier
	signer   domain.SessionSigner
	guard    domain.GuardService
	log      *zap.Logger
}

// NewTokenService creates a new identity token service
func NewTokenService(
	accounts domain.AccountRepository,
	verifier domain.FederatedVerifier,
	signer domain.SessionSigner,
	guard domain.GuardService,
	log *zap.Logger,
) domain.TokenService {
	return &TokenServiceImpl{
		accounts: accounts,
		verifier: verifier,
		signer:   signer,
		guard:    guard,
		log:      log,
	}
}

// Authenticate implements domain.TokenService
func (s *TokenServiceImpl) Authenticate(ctx context.Context, rawToken string) (*domain.AuthResult, error) {
	if rawToken == "" {
		return nil, domain.ErrMissingToken
	}

	identity, ferr := s.verifier.Verify(ctx, rawToken)
	if ferr == nil {
		return s.resolveFederated(ctx, identity)
	}
	if errors.Is(ferr, domain.ErrInvalidIssuer) || errors.Is(ferr, domain.ErrTokenExpired) {
		return nil, ferr
	}

	// The token is not a federated one; try the local path.
	return s.resolveLocal(ctx, rawToken)
}

func (s *TokenServiceImpl) resolveFederated(ctx context.Context, identity *domain.FederatedIdentity) (*domain.AuthResult, error) {
	account, err := s.accounts.FindByGoogleID(ctx, identity.Subject)
	if err != nil {
		if !errors.Is(err, domain.ErrAccountNotFound) {
			return nil, domain.Internal(err)
		}
		account, err = s.provision(ctx, identity)
		if err != nil {
			return nil, err
		}
	}
	return s.finish(ctx, account)
}

// provision creates an account for a first-time federated sign-in. An
// existing account under the same email with a different provider blocks
// provisioning, so a federated token cannot silently take over a local
// account.
func (s *TokenServiceImpl) provision(ctx context.Context, identity *domain.FederatedIdentity) (*domain.Account, error) {
	existing, err := s.accounts.FindByEmail(ctx, identity.Email)
	if err == nil && existing != nil {
		return nil, domain.ErrEmailAlreadyExists
	}
	if err != nil && !errors.Is(err, domain.ErrAccountNotFound) {
		return nil, domain.Internal(err)
	}

	// Federated providers are trusted for email ownership.
	account := &domain.Account{
		Email:           identity.Email,
		DisplayName:     identity.Name,
		AvatarURL:       identity.Picture,
		Provider:        domain.ProviderGoogle,
		GoogleID:        identity.Subject,
		Role:            domain.RoleUser,
		IsEmailVerified: true,
		IsActive:        true,
	}
	if err := s.accounts.Create(ctx, account); err != nil {
		return nil, err
	}

	s.log.Info("account provisioned from federated identity",
		zap.String("event", string(domain.AccountProvisionEvent)),
		zap.Uint("account_id", account.ID),
		zap.String("email", account.Email))
	return account, nil
}

func (s *TokenServiceImpl) resolveLocal(ctx context.Context, rawToken string) (*domain.AuthResult, error) {
	claims, err := s.signer.Verify(rawToken)
	if err != nil {
		// Expired and malformed are distinct failure kinds.
		return nil, err
	}

	account, err := s.accounts.FindByID(ctx, claims.AccountID)
	if err != nil {
		return nil, err
	}
	return s.finish(ctx, account)
}

// finish applies the security gate, records the login, and mints a fresh
// session token.
func (s *TokenServiceImpl) finish(ctx context.Context, account *domain.Account) (*domain.AuthResult, error) {
	if err := s.guard.Gate(account); err != nil {
		return nil, err
	}

	now := time.Now()
	if err := s.accounts.TouchLogin(ctx, account.ID, now); err != nil {
		return nil, domain.Internal(err)
	}
	account.LastLoginAt = &now

	token, expiresIn, err := s.signer.Mint(account)
	if err != nil {
		return nil, domain.Internal(err)
	}

	s.log.Info("authentication succeeded",
		zap.String("event", string(domain.LoginEvent)),
		zap.Uint("account_id", account.ID),
		zap.String("provider", string(account.Provider)))

	return &domain.AuthResult{Account: account, Token: token, ExpiresIn: expiresIn}, nil
}

// Mint implements domain.TokenService
func (s *TokenServiceImpl) Mint(account *domain.Account) (string, int64, error) {
	return s.signer.Mint(account)
}

// Verify implements domain.TokenService
func (s *TokenServiceImpl) Verify(token string) (*domain.TokenClaims, error) {
	return s.signer.Verify(token)
}
