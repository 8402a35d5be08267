package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/you/qnaforum/domain"
)

// AuthServiceImpl implements domain.AuthService: the local-credential
// registration, login, email verification, and password reset flows.
type AuthServiceImpl struct {
	accounts    domain.AccountRepository
	passwordSvc domain.PasswordService
	codeSvc     domain.CodeService
	guard       domain.GuardService
	tokenSvc    domain.TokenService
	notifier    domain.NotificationService
	mailTimeout time.Duration
	log         *zap.Logger
}

// NewAuthService creates a new auth service
func NewAuthService(
	accounts domain.AccountRepository,
	passwordSvc domain.PasswordService,
	codeSvc domain.CodeService,
	guard domain.GuardService,
	tokenSvc domain.TokenService,
	notifier domain.NotificationService,
	mailTimeout time.Duration,
	log *zap.Logger,
) domain.AuthService {
	return &AuthServiceImpl{
		accounts:    accounts,
		passwordSvc: passwordSvc,
		codeSvc:     codeSvc,
		guard:       guard,
		tokenSvc:    tokenSvc,
		notifier:    notifier,
		mailTimeout: mailTimeout,
		log:         log,
	}
}

// Register implements domain.AuthService. The phone number is optional;
// when present it receives security alerts such as lockout notices.
func (s *AuthServiceImpl) Register(ctx context.Context, email, password, displayName, phone string) (*domain.Account, error) {
	existing, err := s.accounts.FindByEmail(ctx, email)
	if err == nil && existing != nil {
		return nil, domain.ErrEmailAlreadyExists
	}
	if err != nil && !errors.Is(err, domain.ErrAccountNotFound) {
		return nil, domain.Internal(err)
	}

	hash, err := s.passwordSvc.Hash(password)
	if err != nil {
		return nil, domain.Internal(fmt.Errorf("failed to hash password: %w", err))
	}

	account := &domain.Account{
		Email:        email,
		Phone:        phone,
		DisplayName:  displayName,
		Provider:     domain.ProviderLocal,
		PasswordHash: hash,
		Role:         domain.RoleUser,
		IsActive:     true,
	}
	if err := s.accounts.Create(ctx, account); err != nil {
		return nil, err
	}

	s.log.Info("account registered",
		zap.String("event", string(domain.RegistrationEvent)),
		zap.Uint("account_id", account.ID),
		zap.String("email", account.Email))

	// Best effort: a failed delivery never fails the registration; the
	// caller can re-request a code.
	if issued, err := s.codeSvc.Issue(ctx, account.Email, domain.PurposeEmailVerification); err == nil {
		s.deliverCode(account.Email, domain.MailEmailVerification, issued)
	}

	return account, nil
}

// Login implements domain.AuthService. The security gate runs before the
// password check, so a locked account fails with ACCOUNT_LOCKED even when
// the submitted password is correct.
func (s *AuthServiceImpl) Login(ctx context.Context, email, password string) (*domain.AuthResult, error) {
	account, err := s.accounts.FindByEmail(ctx, email)
	if err != nil {
		// Same generic failure as a wrong password, to resist
		// enumeration.
		return nil, domain.ErrInvalidCredentials
	}

	if err := s.guard.Gate(account); err != nil {
		return nil, err
	}

	if account.Provider != domain.ProviderLocal || !s.passwordSvc.Verify(account.PasswordHash, password) {
		if err := s.guard.RecordFailure(ctx, account.ID); err != nil {
			s.log.Error("failed to record login failure", zap.Uint("account_id", account.ID), zap.Error(err))
		}
		s.log.Warn("login failed",
			zap.String("event", string(domain.LoginFailureEvent)),
			zap.Uint("account_id", account.ID))
		return nil, domain.ErrInvalidCredentials
	}

	if err := s.guard.RecordSuccess(ctx, account.ID); err != nil {
		return nil, domain.Internal(err)
	}

	now := time.Now()
	if err := s.accounts.TouchLogin(ctx, account.ID, now); err != nil {
		return nil, domain.Internal(err)
	}
	account.LastLoginAt = &now

	token, expiresIn, err := s.tokenSvc.Mint(account)
	if err != nil {
		return nil, domain.Internal(err)
	}

	s.log.Info("login succeeded",
		zap.String("event", string(domain.LoginEvent)),
		zap.Uint("account_id", account.ID))

	return &domain.AuthResult{Account: account, Token: token, ExpiresIn: expiresIn}, nil
}

// RequestEmailVerification implements domain.AuthService
func (s *AuthServiceImpl) RequestEmailVerification(ctx context.Context, email string) error {
	account, err := s.accounts.FindByEmail(ctx, email)
	if err != nil {
		return err
	}
	if account.IsEmailVerified {
		return domain.ErrInvalidInput.WithMessage("email is already verified")
	}

	issued, err := s.codeSvc.Issue(ctx, email, domain.PurposeEmailVerification)
	if err != nil {
		return err
	}
	s.deliverCode(email, domain.MailEmailVerification, issued)
	return nil
}

// ConfirmEmail implements domain.AuthService
func (s *AuthServiceImpl) ConfirmEmail(ctx context.Context, email, code string) error {
	account, err := s.accounts.FindByEmail(ctx, email)
	if err != nil {
		// Do not reveal whether the email exists; the code check fails
		// the same way.
		return domain.ErrCodeInvalid
	}

	if err := s.codeSvc.Verify(ctx, email, domain.PurposeEmailVerification, code); err != nil {
		return err
	}
	return s.accounts.MarkEmailVerified(ctx, account.ID)
}

// RequestPasswordReset implements domain.AuthService. Unknown emails and
// federated accounts report success without issuing anything, so the
// endpoint cannot be used to enumerate accounts.
func (s *AuthServiceImpl) RequestPasswordReset(ctx context.Context, email string) error {
	account, err := s.accounts.FindByEmail(ctx, email)
	if err != nil || account.Provider != domain.ProviderLocal {
		s.log.Info("password reset requested for ineligible email", zap.String("email", email))
		return nil
	}

	issued, err := s.codeSvc.Issue(ctx, email, domain.PurposePasswordReset)
	if err != nil {
		return err
	}
	s.deliverCode(email, domain.MailPasswordReset, issued)
	return nil
}

// ConfirmPasswordReset implements domain.AuthService. A successful reset
// also clears any lockout: the caller just proved email ownership.
func (s *AuthServiceImpl) ConfirmPasswordReset(ctx context.Context, email, code, newPassword string) error {
	account, err := s.accounts.FindByEmail(ctx, email)
	if err != nil {
		return domain.ErrCodeInvalid
	}

	if err := s.codeSvc.Verify(ctx, email, domain.PurposePasswordReset, code); err != nil {
		return err
	}

	hash, err := s.passwordSvc.Hash(newPassword)
	if err != nil {
		return domain.Internal(fmt.Errorf("failed to hash password: %w", err))
	}
	if err := s.accounts.SetPassword(ctx, account.ID, hash); err != nil {
		return domain.Internal(err)
	}
	return s.accounts.ResetLoginState(ctx, account.ID)
}

// deliverCode sends the code by mail without blocking the caller. Mail
// failures are logged, never surfaced.
func (s *AuthServiceImpl) deliverCode(email string, kind domain.MailKind, issued *domain.IssuedCode) {
	data := map[string]string{
		"code":        issued.Code,
		"ttl_minutes": fmt.Sprintf("%d", int(time.Until(issued.ExpiresAt).Minutes())+1),
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.mailTimeout)
		defer cancel()
		if err := s.notifier.SendMail(ctx, email, kind, data); err != nil {
			s.log.Error("failed to deliver verification mail",
				zap.String("event", string(domain.MailFailureEvent)),
				zap.String("email", email),
				zap.String("kind", string(kind)),
				zap.Error(err))
		}
	}()
}
