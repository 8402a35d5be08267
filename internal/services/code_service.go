package services

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"go.uber.org/zap"

	"github.com/you/qnaforum/domain"
)

// CodeConfig holds the tunables of the verification code store.
type CodeConfig struct {
	Length int
	TTL    time.Duration
	// Grace is how much lifetime an active code may have left before a
	// re-issue is allowed. With TTL 15m and Grace 14m a caller can
	// request a fresh code one minute after the previous one.
	Grace time.Duration
}

// CodeServiceImpl implements domain.CodeService. Codes are fixed-width
// numeric, uniformly drawn, single-use, and bound to (subject, purpose).
type CodeServiceImpl struct {
	codes  domain.CodeRepository
	config CodeConfig
	log    *zap.Logger
}

// NewCodeService creates a new verification code service
func NewCodeService(codes domain.CodeRepository, config CodeConfig, log *zap.Logger) domain.CodeService {
	return &CodeServiceImpl{codes: codes, config: config, log: log}
}

// Issue implements domain.CodeService. Issuing invalidates any previous
// active code for the pair. While the active code still has more lifetime
// than the grace threshold the request is rejected with the seconds left
// until a re-issue is permitted.
func (s *CodeServiceImpl) Issue(ctx context.Context, subject string, purpose domain.VerificationPurpose) (*domain.IssuedCode, error) {
	active, err := s.codes.Peek(ctx, subject, purpose)
	if err != nil {
		return nil, domain.Internal(err)
	}
	if active != nil {
		remaining := time.Until(active.ExpiresAt)
		if remaining > s.config.Grace {
			wait := int((remaining - s.config.Grace).Seconds()) + 1
			return nil, domain.ErrCodeRateLimited.WithMessage(
				"a code was issued recently, retry in %d seconds", wait)
		}
	}

	code, err := s.generateCode()
	if err != nil {
		return nil, domain.Internal(fmt.Errorf("failed to generate code: %w", err))
	}

	expiresAt := time.Now().Add(s.config.TTL)
	if err := s.codes.Put(ctx, subject, purpose, code, expiresAt); err != nil {
		return nil, domain.Internal(err)
	}

	s.log.Info("verification code issued",
		zap.String("event", string(domain.CodeIssuedEvent)),
		zap.String("subject", subject),
		zap.String("purpose", string(purpose)),
		zap.Time("expires_at", expiresAt))

	return &domain.IssuedCode{Code: code, ExpiresAt: expiresAt}, nil
}

// Verify implements domain.CodeService. It fails closed: every
// unsuccessful outcome collapses to the generic ErrCodeInvalid so an
// unauthenticated caller cannot tell expired from missing from wrong.
// The precise status goes to the audit log.
func (s *CodeServiceImpl) Verify(ctx context.Context, subject string, purpose domain.VerificationPurpose, code string) error {
	status, err := s.codes.Consume(ctx, subject, purpose, code)
	if err != nil {
		return domain.Internal(err)
	}

	if status != domain.CodeConsumed {
		s.log.Warn("verification code rejected",
			zap.String("event", string(domain.CodeVerifyFailureEvent)),
			zap.String("subject", subject),
			zap.String("purpose", string(purpose)),
			zap.String("reason", status.String()))
		return domain.ErrCodeInvalid
	}

	s.log.Info("verification code consumed",
		zap.String("event", string(domain.CodeConsumedEvent)),
		zap.String("subject", subject),
		zap.String("purpose", string(purpose)))
	return nil
}

// PeekActive implements domain.CodeService
func (s *CodeServiceImpl) PeekActive(ctx context.Context, subject string, purpose domain.VerificationPurpose) (*domain.ActiveCode, error) {
	active, err := s.codes.Peek(ctx, subject, purpose)
	if err != nil {
		return nil, domain.Internal(err)
	}
	return active, nil
}

// SweepExpiredCodes periodically removes codes past their logical expiry
// but still inside the store's retention window. Blocks until ctx is
// cancelled.
func SweepExpiredCodes(ctx context.Context, codes domain.CodeRepository, every time.Duration, log *zap.Logger) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := codes.DeleteExpired(ctx); err != nil {
				log.Warn("verification code sweep failed", zap.Error(err))
			}
		}
	}
}

// generateCode draws a fixed-width numeric code from a uniform
// distribution.
func (s *CodeServiceImpl) generateCode() (string, error) {
	digits := make([]byte, s.config.Length)
	for i := 0; i < s.config.Length; i++ {
		num, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", err
		}
		digits[i] = byte('0' + num.Int64())
	}
	return string(digits), nil
}
