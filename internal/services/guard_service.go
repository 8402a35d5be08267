package services

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/you/qnaforum/domain"
)

// smsTimeout bounds the lockout-alert delivery, which runs off the
// login hot path.
const smsTimeout = 10 * time.Second

// GuardServiceImpl implements domain.GuardService. It owns the per-account
// security counters and the single gate every authenticated entry point
// passes through. It never touches tokens or sessions.
type GuardServiceImpl struct {
	accounts     domain.AccountRepository
	notifier     domain.NotificationService
	threshold    int
	lockDuration time.Duration
	log          *zap.Logger
}

// NewGuardService creates a new account security guard
func NewGuardService(accounts domain.AccountRepository, notifier domain.NotificationService, threshold int, lockDuration time.Duration, log *zap.Logger) domain.GuardService {
	return &GuardServiceImpl{
		accounts:     accounts,
		notifier:     notifier,
		threshold:    threshold,
		lockDuration: lockDuration,
		log:          log,
	}
}

// RecordFailure implements domain.GuardService. The repository increments
// atomically; crossing the threshold arms the lock window. The lock write
// is conditional on no active lock, so failures past the threshold do not
// extend an existing window.
func (s *GuardServiceImpl) RecordFailure(ctx context.Context, accountID uint) error {
	attempts, err := s.accounts.IncrementFailedLogin(ctx, accountID)
	if err != nil {
		return err
	}
	if attempts < s.threshold {
		return nil
	}

	until := time.Now().Add(s.lockDuration)
	if err := s.accounts.Lock(ctx, accountID, until); err != nil {
		return err
	}
	s.log.Warn("account locked after repeated login failures",
		zap.String("event", string(domain.AccountLockedEvent)),
		zap.Uint("account_id", accountID),
		zap.Int("attempts", attempts),
		zap.Time("lock_until", until))
	s.alertLockout(accountID, until)
	return nil
}

// alertLockout texts the account holder that their account was locked.
// Best effort: delivery failures are logged, never surfaced, and the
// alert does not block the login path.
func (s *GuardServiceImpl) alertLockout(accountID uint, until time.Time) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), smsTimeout)
		defer cancel()

		account, err := s.accounts.FindByID(ctx, accountID)
		if err != nil || account.Phone == "" {
			return
		}
		message := fmt.Sprintf(
			"Your account was locked after repeated failed logins. It unlocks at %s.",
			until.UTC().Format(time.RFC3339))
		if err := s.notifier.SendSMS(account.Phone, message); err != nil {
			s.log.Warn("failed to deliver lockout alert",
				zap.String("event", string(domain.SMSFailureEvent)),
				zap.Uint("account_id", accountID),
				zap.Error(err))
		}
	}()
}

// RecordSuccess implements domain.GuardService
func (s *GuardServiceImpl) RecordSuccess(ctx context.Context, accountID uint) error {
	return s.accounts.ResetLoginState(ctx, accountID)
}

// Evaluate implements domain.GuardService. Check order is fixed: inactive,
// locked, banned, valid. A banned-and-locked account reports the lock
// because it resolves on its own while the ban does not.
func (s *GuardServiceImpl) Evaluate(account *domain.Account, now time.Time) domain.AccountStatus {
	if !account.IsActive {
		return domain.AccountStatus{Kind: domain.StatusInactive}
	}
	if account.Locked(now) {
		return domain.AccountStatus{
			Kind:          domain.StatusLocked,
			LockRemaining: account.LockUntil.Sub(now),
		}
	}
	if account.BanActive(now) {
		return domain.AccountStatus{
			Kind:        domain.StatusBanned,
			BannedUntil: account.BannedUntil,
			BanReason:   account.BannedReason,
		}
	}
	return domain.AccountStatus{Kind: domain.StatusValid}
}

// Gate implements domain.GuardService
func (s *GuardServiceImpl) Gate(account *domain.Account) error {
	status := s.Evaluate(account, time.Now())
	switch status.Kind {
	case domain.StatusInactive:
		return domain.ErrAccountInactive
	case domain.StatusLocked:
		return domain.ErrAccountLocked.WithMessage(
			"account is temporarily locked, try again in %d seconds",
			int(status.LockRemaining.Seconds())+1)
	case domain.StatusBanned:
		if status.BannedUntil == nil {
			return domain.ErrAccountBanned.WithMessage("account is permanently banned: %s", status.BanReason)
		}
		return domain.ErrAccountBanned.WithMessage(
			"account is banned until %s: %s",
			status.BannedUntil.UTC().Format(time.RFC3339), status.BanReason)
	default:
		return nil
	}
}
