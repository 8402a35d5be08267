package mocks

import (
	"context"
	"time"

	"github.com/you/qnaforum/domain"
)

// MockAccountRepository implements domain.AccountRepository for testing
type MockAccountRepository struct {
	CreateFunc               func(ctx context.Context, account *domain.Account) error
	FindByIDFunc             func(ctx context.Context, id uint) (*domain.Account, error)
	FindByEmailFunc          func(ctx context.Context, email string) (*domain.Account, error)
	FindByGoogleIDFunc       func(ctx context.Context, googleID string) (*domain.Account, error)
	UpdateFunc               func(ctx context.Context, account *domain.Account) error
	TouchLoginFunc           func(ctx context.Context, id uint, at time.Time) error
	IncrementFailedLoginFunc func(ctx context.Context, id uint) (int, error)
	LockFunc                 func(ctx context.Context, id uint, until time.Time) error
	ResetLoginStateFunc      func(ctx context.Context, id uint) error
	SetPasswordFunc          func(ctx context.Context, id uint, passwordHash string) error
	MarkEmailVerifiedFunc    func(ctx context.Context, id uint) error
	SetBanFunc               func(ctx context.Context, id uint, banned bool, until *time.Time, reason string) error
	SetRoleFunc              func(ctx context.Context, id uint, role domain.Role) error
	AddRatingFunc            func(ctx context.Context, id uint, delta int) error
}

// NewMockAccountRepository creates a new MockAccountRepository
func NewMockAccountRepository() *MockAccountRepository {
	return &MockAccountRepository{}
}

func (m *MockAccountRepository) Create(ctx context.Context, account *domain.Account) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, account)
	}
	account.ID = 1
	return nil
}

func (m *MockAccountRepository) FindByID(ctx context.Context, id uint) (*domain.Account, error) {
	if m.FindByIDFunc != nil {
		return m.FindByIDFunc(ctx, id)
	}
	return nil, domain.ErrAccountNotFound
}

func (m *MockAccountRepository) FindByEmail(ctx context.Context, email string) (*domain.Account, error) {
	if m.FindByEmailFunc != nil {
		return m.FindByEmailFunc(ctx, email)
	}
	return nil, domain.ErrAccountNotFound
}

func (m *MockAccountRepository) FindByGoogleID(ctx context.Context, googleID string) (*domain.Account, error) {
	if m.FindByGoogleIDFunc != nil {
		return m.FindByGoogleIDFunc(ctx, googleID)
	}
	return nil, domain.ErrAccountNotFound
}

func (m *MockAccountRepository) Update(ctx context.Context, account *domain.Account) error {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, account)
	}
	return nil
}

func (m *MockAccountRepository) TouchLogin(ctx context.Context, id uint, at time.Time) error {
	if m.TouchLoginFunc != nil {
		return m.TouchLoginFunc(ctx, id, at)
	}
	return nil
}

func (m *MockAccountRepository) IncrementFailedLogin(ctx context.Context, id uint) (int, error) {
	if m.IncrementFailedLoginFunc != nil {
		return m.IncrementFailedLoginFunc(ctx, id)
	}
	return 1, nil
}

func (m *MockAccountRepository) Lock(ctx context.Context, id uint, until time.Time) error {
	if m.LockFunc != nil {
		return m.LockFunc(ctx, id, until)
	}
	return nil
}

func (m *MockAccountRepository) ResetLoginState(ctx context.Context, id uint) error {
	if m.ResetLoginStateFunc != nil {
		return m.ResetLoginStateFunc(ctx, id)
	}
	return nil
}

func (m *MockAccountRepository) SetPassword(ctx context.Context, id uint, passwordHash string) error {
	if m.SetPasswordFunc != nil {
		return m.SetPasswordFunc(ctx, id, passwordHash)
	}
	return nil
}

func (m *MockAccountRepository) MarkEmailVerified(ctx context.Context, id uint) error {
	if m.MarkEmailVerifiedFunc != nil {
		return m.MarkEmailVerifiedFunc(ctx, id)
	}
	return nil
}

func (m *MockAccountRepository) SetBan(ctx context.Context, id uint, banned bool, until *time.Time, reason string) error {
	if m.SetBanFunc != nil {
		return m.SetBanFunc(ctx, id, banned, until, reason)
	}
	return nil
}

func (m *MockAccountRepository) SetRole(ctx context.Context, id uint, role domain.Role) error {
	if m.SetRoleFunc != nil {
		return m.SetRoleFunc(ctx, id, role)
	}
	return nil
}

func (m *MockAccountRepository) AddRating(ctx context.Context, id uint, delta int) error {
	if m.AddRatingFunc != nil {
		return m.AddRatingFunc(ctx, id, delta)
	}
	return nil
}
