package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/you/qnaforum/domain"
	"github.com/you/qnaforum/internal/mocks"
)

func createGuardServiceForTest(t *testing.T, accounts *mocks.MockAccountRepository) domain.GuardService {
	t.Helper()
	return NewGuardService(accounts, mocks.NewMockNotificationService(), 5, 30*time.Minute, zap.NewNop())
}

func TestGuardServiceImpl_RecordFailure(t *testing.T) {
	tests := []struct {
		name       string
		attempts   int
		expectLock bool
	}{
		{name: "below threshold does not lock", attempts: 4, expectLock: false},
		{name: "reaching threshold locks", attempts: 5, expectLock: true},
		{name: "past threshold locks again", attempts: 7, expectLock: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			accounts := mocks.NewMockAccountRepository()
			accounts.IncrementFailedLoginFunc = func(ctx context.Context, id uint) (int, error) {
				return tt.attempts, nil
			}
			locked := false
			var lockedUntil time.Time
			accounts.LockFunc = func(ctx context.Context, id uint, until time.Time) error {
				locked = true
				lockedUntil = until
				return nil
			}

			svc := createGuardServiceForTest(t, accounts)
			if err := svc.RecordFailure(context.Background(), 1); err != nil {
				t.Fatalf("RecordFailure() error = %v", err)
			}

			if locked != tt.expectLock {
				t.Errorf("locked = %v, want %v", locked, tt.expectLock)
			}
			if tt.expectLock {
				remaining := time.Until(lockedUntil)
				if remaining < 29*time.Minute || remaining > 31*time.Minute {
					t.Errorf("lock window = %v, want about 30m", remaining)
				}
			}
		})
	}
}

func TestGuardServiceImpl_LockoutSendsSMSAlert(t *testing.T) {
	accounts := mocks.NewMockAccountRepository()
	accounts.IncrementFailedLoginFunc = func(ctx context.Context, id uint) (int, error) {
		return 5, nil
	}
	accounts.FindByIDFunc = func(ctx context.Context, id uint) (*domain.Account, error) {
		return &domain.Account{ID: id, Phone: "+15550001111", IsActive: true}, nil
	}

	sent := make(chan string, 1)
	notifier := mocks.NewMockNotificationService()
	notifier.SendSMSFunc = func(to, message string) error {
		sent <- to
		return nil
	}

	svc := NewGuardService(accounts, notifier, 5, 30*time.Minute, zap.NewNop())
	if err := svc.RecordFailure(context.Background(), 1); err != nil {
		t.Fatalf("RecordFailure() error = %v", err)
	}

	select {
	case to := <-sent:
		if to != "+15550001111" {
			t.Errorf("alert sent to %q, want the account's phone", to)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("expected a lockout alert SMS")
	}
}

func TestGuardServiceImpl_LockoutWithoutPhoneSendsNothing(t *testing.T) {
	accounts := mocks.NewMockAccountRepository()
	accounts.IncrementFailedLoginFunc = func(ctx context.Context, id uint) (int, error) {
		return 5, nil
	}
	accounts.FindByIDFunc = func(ctx context.Context, id uint) (*domain.Account, error) {
		return &domain.Account{ID: id, IsActive: true}, nil
	}

	sent := make(chan struct{}, 1)
	notifier := mocks.NewMockNotificationService()
	notifier.SendSMSFunc = func(to, message string) error {
		sent <- struct{}{}
		return nil
	}

	svc := NewGuardService(accounts, notifier, 5, 30*time.Minute, zap.NewNop())
	if err := svc.RecordFailure(context.Background(), 1); err != nil {
		t.Fatalf("RecordFailure() error = %v", err)
	}

	select {
	case <-sent:
		t.Error("no SMS should go out when the account has no phone")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestGuardServiceImpl_RecordSuccess(t *testing.T) {
	accounts := mocks.NewMockAccountRepository()
	reset := false
	accounts.ResetLoginStateFunc = func(ctx context.Context, id uint) error {
		reset = true
		return nil
	}

	svc := createGuardServiceForTest(t, accounts)
	if err := svc.RecordSuccess(context.Background(), 1); err != nil {
		t.Fatalf("RecordSuccess() error = %v", err)
	}
	if !reset {
		t.Error("expected login state to be reset")
	}
}

func TestGuardServiceImpl_Evaluate(t *testing.T) {
	now := time.Now()
	future := now.Add(10 * time.Minute)
	past := now.Add(-10 * time.Minute)

	tests := []struct {
		name     string
		account  domain.Account
		expected domain.AccountStatusKind
	}{
		{
			name:     "active account is valid",
			account:  domain.Account{IsActive: true},
			expected: domain.StatusValid,
		},
		{
			name:     "inactive account",
			account:  domain.Account{IsActive: false},
			expected: domain.StatusInactive,
		},
		{
			name:     "locked account",
			account:  domain.Account{IsActive: true, LockUntil: &future},
			expected: domain.StatusLocked,
		},
		{
			name:     "expired lock is valid again",
			account:  domain.Account{IsActive: true, LockUntil: &past},
			expected: domain.StatusValid,
		},
		{
			name:     "permanently banned account",
			account:  domain.Account{IsActive: true, IsBanned: true},
			expected: domain.StatusBanned,
		},
		{
			name:     "temporarily banned account",
			account:  domain.Account{IsActive: true, IsBanned: true, BannedUntil: &future},
			expected: domain.StatusBanned,
		},
		{
			name:     "expired ban is valid again",
			account:  domain.Account{IsActive: true, IsBanned: true, BannedUntil: &past},
			expected: domain.StatusValid,
		},
		{
			name:     "inactive wins over ban",
			account:  domain.Account{IsActive: false, IsBanned: true},
			expected: domain.StatusInactive,
		},
		{
			name:     "lock wins over ban",
			account:  domain.Account{IsActive: true, IsBanned: true, LockUntil: &future},
			expected: domain.StatusLocked,
		},
	}

	svc := createGuardServiceForTest(t, mocks.NewMockAccountRepository())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status := svc.Evaluate(&tt.account, now)
			if status.Kind != tt.expected {
				t.Errorf("Evaluate() kind = %v, want %v", status.Kind, tt.expected)
			}
		})
	}
}

func TestGuardServiceImpl_Gate(t *testing.T) {
	future := time.Now().Add(10 * time.Minute)

	tests := []struct {
		name     string
		account  domain.Account
		expected error
	}{
		{name: "valid account passes", account: domain.Account{IsActive: true}, expected: nil},
		{name: "inactive account", account: domain.Account{IsActive: false}, expected: domain.ErrAccountInactive},
		{name: "locked account", account: domain.Account{IsActive: true, LockUntil: &future}, expected: domain.ErrAccountLocked},
		{name: "banned account", account: domain.Account{IsActive: true, IsBanned: true}, expected: domain.ErrAccountBanned},
	}

	svc := createGuardServiceForTest(t, mocks.NewMockAccountRepository())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := svc.Gate(&tt.account)
			if tt.expected == nil {
				if err != nil {
					t.Fatalf("Gate() error = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.expected) {
				t.Errorf("Gate() error = %v, want %v", err, tt.expected)
			}
		})
	}
}
