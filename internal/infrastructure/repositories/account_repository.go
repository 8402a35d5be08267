package repositories

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/you/qnaforum/domain"
)

// AccountRepositoryImpl implements domain.AccountRepository using GORM
type AccountRepositoryImpl struct {
	db *gorm.DB
}

// DBAccount represents the database model for Account (with GORM tags)
type DBAccount struct {
	ID              uint    `gorm:"primaryKey"`
	Email           string  `gorm:"uniqueIndex;size:255"`
	Phone           string  `gorm:"size:32"`
	DisplayName     string  `gorm:"size:255"`
	AvatarURL       string  `gorm:"size:512"`
	Provider        string  `gorm:"index;size:32"`
	GoogleID        *string `gorm:"uniqueIndex;size:255"`
	PasswordHash    string  `gorm:"column:password"`
	Role            string  `gorm:"index;size:32"`
	Rating          int
	IsEmailVerified bool
	IsActive        bool `gorm:"index"`
	IsBanned        bool `gorm:"index"`
	BannedUntil     *time.Time
	BannedReason    string `gorm:"size:512"`
	LoginAttempts   int
	LockUntil       *time.Time
	LastLoginAt     *time.Time
	CreatedAt       time.Time `gorm:"index"`
	UpdatedAt       time.Time
}

// TableName returns the table name for GORM
func (DBAccount) TableName() string {
	return "accounts"
}

// NewAccountRepository creates a new account repository
func NewAccountRepository(db *gorm.DB) domain.AccountRepository {
	return &AccountRepositoryImpl{db: db}
}

// Create implements domain.AccountRepository
func (r *AccountRepositoryImpl) Create(ctx context.Context, account *domain.Account) error {
	dbAccount := r.domainToDB(account)
	if err := r.db.WithContext(ctx).Create(dbAccount).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return domain.ErrEmailAlreadyExists
		}
		return err
	}
	account.ID = dbAccount.ID
	account.CreatedAt = dbAccount.CreatedAt
	account.UpdatedAt = dbAccount.UpdatedAt
	return nil
}

// FindByID implements domain.AccountRepository
func (r *AccountRepositoryImpl) FindByID(ctx context.Context, id uint) (*domain.Account, error) {
	return r.findOne(ctx, "id = ?", id)
}

// FindByEmail implements domain.AccountRepository
func (r *AccountRepositoryImpl) FindByEmail(ctx context.Context, email string) (*domain.Account, error) {
	return r.findOne(ctx, "email = ?", email)
}

// FindByGoogleID implements domain.AccountRepository
func (r *AccountRepositoryImpl) FindByGoogleID(ctx context.Context, googleID string) (*domain.Account, error) {
	return r.findOne(ctx, "google_id = ?", googleID)
}

func (r *AccountRepositoryImpl) findOne(ctx context.Context, query string, arg any) (*domain.Account, error) {
	var dbAccount DBAccount
	err := r.db.WithContext(ctx).Where(query, arg).First(&dbAccount).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, err
	}
	return r.dbToDomain(&dbAccount), nil
}

// Update implements domain.AccountRepository
func (r *AccountRepositoryImpl) Update(ctx context.Context, account *domain.Account) error {
	return r.db.WithContext(ctx).Save(r.domainToDB(account)).Error
}

// TouchLogin implements domain.AccountRepository
func (r *AccountRepositoryImpl) TouchLogin(ctx context.Context, id uint, at time.Time) error {
	return r.db.WithContext(ctx).Model(&DBAccount{}).Where("id = ?", id).
		UpdateColumn("last_login_at", at).Error
}

// IncrementFailedLogin implements domain.AccountRepository. The increment
// is a single UPDATE so concurrent failures never under-count; the value
// read back may include a concurrent increment, which only triggers the
// lock earlier.
func (r *AccountRepositoryImpl) IncrementFailedLogin(ctx context.Context, id uint) (int, error) {
	res := r.db.WithContext(ctx).Model(&DBAccount{}).Where("id = ?", id).
		UpdateColumn("login_attempts", gorm.Expr("login_attempts + ?", 1))
	if res.Error != nil {
		return 0, res.Error
	}
	if res.RowsAffected == 0 {
		return 0, domain.ErrAccountNotFound
	}

	var attempts int
	err := r.db.WithContext(ctx).Model(&DBAccount{}).Where("id = ?", id).
		Pluck("login_attempts", &attempts).Error
	return attempts, err
}

// Lock implements domain.AccountRepository. The guard clause keeps a
// second over-threshold failure from extending an existing lock window.
func (r *AccountRepositoryImpl) Lock(ctx context.Context, id uint, until time.Time) error {
	return r.db.WithContext(ctx).Model(&DBAccount{}).
		Where("id = ? AND (lock_until IS NULL OR lock_until < ?)", id, time.Now()).
		UpdateColumns(map[string]any{
			"lock_until":     until,
			"login_attempts": 0,
		}).Error
}

// ResetLoginState implements domain.AccountRepository
func (r *AccountRepositoryImpl) ResetLoginState(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Model(&DBAccount{}).Where("id = ?", id).
		UpdateColumns(map[string]any{
			"login_attempts": 0,
			"lock_until":     nil,
		}).Error
}

// SetPassword implements domain.AccountRepository
func (r *AccountRepositoryImpl) SetPassword(ctx context.Context, id uint, passwordHash string) error {
	return r.db.WithContext(ctx).Model(&DBAccount{}).Where("id = ?", id).
		UpdateColumn("password", passwordHash).Error
}

// MarkEmailVerified implements domain.AccountRepository
func (r *AccountRepositoryImpl) MarkEmailVerified(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Model(&DBAccount{}).Where("id = ?", id).
		UpdateColumn("is_email_verified", true).Error
}

// SetBan implements domain.AccountRepository
func (r *AccountRepositoryImpl) SetBan(ctx context.Context, id uint, banned bool, until *time.Time, reason string) error {
	return r.db.WithContext(ctx).Model(&DBAccount{}).Where("id = ?", id).
		UpdateColumns(map[string]any{
			"is_banned":     banned,
			"banned_until":  until,
			"banned_reason": reason,
		}).Error
}

// SetRole implements domain.AccountRepository
func (r *AccountRepositoryImpl) SetRole(ctx context.Context, id uint, role domain.Role) error {
	return r.db.WithContext(ctx).Model(&DBAccount{}).Where("id = ?", id).
		UpdateColumn("role", string(role)).Error
}

// AddRating implements domain.AccountRepository
func (r *AccountRepositoryImpl) AddRating(ctx context.Context, id uint, delta int) error {
	return r.db.WithContext(ctx).Model(&DBAccount{}).Where("id = ?", id).
		UpdateColumn("rating", gorm.Expr("rating + ?", delta)).Error
}

// domainToDB converts domain account to database account
func (r *AccountRepositoryImpl) domainToDB(account *domain.Account) *DBAccount {
	var googleID *string
	if account.GoogleID != "" {
		googleID = &account.GoogleID
	}
	return &DBAccount{
		ID:              account.ID,
		Email:           account.Email,
		Phone:           account.Phone,
		DisplayName:     account.DisplayName,
		AvatarURL:       account.AvatarURL,
		Provider:        string(account.Provider),
		GoogleID:        googleID,
		PasswordHash:    account.PasswordHash,
		Role:            string(account.Role),
		Rating:          account.Rating,
		IsEmailVerified: account.IsEmailVerified,
		IsActive:        account.IsActive,
		IsBanned:        account.IsBanned,
		BannedUntil:     account.BannedUntil,
		BannedReason:    account.BannedReason,
		LoginAttempts:   account.LoginAttempts,
		LockUntil:       account.LockUntil,
		LastLoginAt:     account.LastLoginAt,
	}
}

// dbToDomain converts database account to domain account
func (r *AccountRepositoryImpl) dbToDomain(dbAccount *DBAccount) *domain.Account {
	googleID := ""
	if dbAccount.GoogleID != nil {
		googleID = *dbAccount.GoogleID
	}
	return &domain.Account{
		ID:              dbAccount.ID,
		Email:           dbAccount.Email,
		Phone:           dbAccount.Phone,
		DisplayName:     dbAccount.DisplayName,
		AvatarURL:       dbAccount.AvatarURL,
		Provider:        domain.Provider(dbAccount.Provider),
		GoogleID:        googleID,
		PasswordHash:    dbAccount.PasswordHash,
		Role:            domain.Role(dbAccount.Role),
		Rating:          dbAccount.Rating,
		IsEmailVerified: dbAccount.IsEmailVerified,
		IsActive:        dbAccount.IsActive,
		IsBanned:        dbAccount.IsBanned,
		BannedUntil:     dbAccount.BannedUntil,
		BannedReason:    dbAccount.BannedReason,
		LoginAttempts:   dbAccount.LoginAttempts,
		LockUntil:       dbAccount.LockUntil,
		LastLoginAt:     dbAccount.LastLoginAt,
		CreatedAt:       dbAccount.CreatedAt,
		UpdatedAt:       dbAccount.UpdatedAt,
	}
}
