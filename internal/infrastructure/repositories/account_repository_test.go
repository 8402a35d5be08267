package repositories

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"github.com/you/qnaforum/domain"
)

// setupTestDB creates an in-memory SQLite database for testing
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("failed to connect database: %v", err)
	}

	if err := db.AutoMigrate(&DBAccount{}, &DBQuestion{}, &DBAnswer{}, &DBSocialPost{}); err != nil {
		t.Fatalf("failed to migrate database: %v", err)
	}

	return db
}

func createTestAccount(t *testing.T, db *gorm.DB, email string) *domain.Account {
	t.Helper()

	repo := NewAccountRepository(db)
	account := &domain.Account{
		Email:        email,
		DisplayName:  "Test User",
		Provider:     domain.ProviderLocal,
		PasswordHash: "hashed_password",
		Role:         domain.RoleUser,
		IsActive:     true,
	}
	if err := repo.Create(context.Background(), account); err != nil {
		t.Fatalf("failed to create account: %v", err)
	}
	return account
}

func TestAccountRepositoryImpl_Create_DuplicateEmail(t *testing.T) {
	db := setupTestDB(t)
	createTestAccount(t, db, "dup@example.com")

	repo := NewAccountRepository(db)
	err := repo.Create(context.Background(), &domain.Account{
		Email:    "dup@example.com",
		Provider: domain.ProviderLocal,
	})
	if !errors.Is(err, domain.ErrEmailAlreadyExists) {
		t.Fatalf("Create() error = %v, want %v", err, domain.ErrEmailAlreadyExists)
	}
}

func TestAccountRepositoryImpl_FindByEmail(t *testing.T) {
	db := setupTestDB(t)
	created := createTestAccount(t, db, "find@example.com")

	repo := NewAccountRepository(db)
	found, err := repo.FindByEmail(context.Background(), "find@example.com")
	if err != nil {
		t.Fatalf("FindByEmail() error = %v", err)
	}
	if found.ID != created.ID {
		t.Errorf("ID = %d, want %d", found.ID, created.ID)
	}

	_, err = repo.FindByEmail(context.Background(), "missing@example.com")
	if !errors.Is(err, domain.ErrAccountNotFound) {
		t.Errorf("FindByEmail() error = %v, want %v", err, domain.ErrAccountNotFound)
	}
}

func TestAccountRepositoryImpl_FindByGoogleID(t *testing.T) {
	db := setupTestDB(t)
	repo := NewAccountRepository(db)

	account := &domain.Account{
		Email:    "google@example.com",
		Provider: domain.ProviderGoogle,
		GoogleID: "google-sub-123",
		IsActive: true,
	}
	if err := repo.Create(context.Background(), account); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	found, err := repo.FindByGoogleID(context.Background(), "google-sub-123")
	if err != nil {
		t.Fatalf("FindByGoogleID() error = %v", err)
	}
	if found.Email != "google@example.com" {
		t.Errorf("email = %q", found.Email)
	}
}

func TestAccountRepositoryImpl_IncrementFailedLogin(t *testing.T) {
	db := setupTestDB(t)
	account := createTestAccount(t, db, "inc@example.com")
	repo := NewAccountRepository(db)

	for want := 1; want <= 3; want++ {
		got, err := repo.IncrementFailedLogin(context.Background(), account.ID)
		if err != nil {
			t.Fatalf("IncrementFailedLogin() error = %v", err)
		}
		if got != want {
			t.Errorf("attempts = %d, want %d", got, want)
		}
	}

	if _, err := repo.IncrementFailedLogin(context.Background(), 9999); !errors.Is(err, domain.ErrAccountNotFound) {
		t.Errorf("IncrementFailedLogin() error = %v, want %v", err, domain.ErrAccountNotFound)
	}
}

func TestAccountRepositoryImpl_Lock_DoesNotExtendActiveWindow(t *testing.T) {
	db := setupTestDB(t)
	account := createTestAccount(t, db, "lock@example.com")
	repo := NewAccountRepository(db)
	ctx := context.Background()

	first := time.Now().Add(30 * time.Minute)
	if err := repo.Lock(ctx, account.ID, first); err != nil {
		t.Fatalf("Lock() error = %v", err)
	}

	// A second lock attempt while the window is active is a no-op.
	later := time.Now().Add(2 * time.Hour)
	if err := repo.Lock(ctx, account.ID, later); err != nil {
		t.Fatalf("Lock() error = %v", err)
	}

	found, err := repo.FindByID(ctx, account.ID)
	if err != nil {
		t.Fatalf("FindByID() error = %v", err)
	}
	if found.LockUntil == nil {
		t.Fatal("expected a lock")
	}
	if found.LockUntil.Sub(first).Abs() > time.Second {
		t.Errorf("lock_until = %v, want about %v", found.LockUntil, first)
	}
	if found.LoginAttempts != 0 {
		t.Errorf("login attempts = %d, want 0 after lock", found.LoginAttempts)
	}
}

func TestAccountRepositoryImpl_ResetLoginState(t *testing.T) {
	db := setupTestDB(t)
	account := createTestAccount(t, db, "reset@example.com")
	repo := NewAccountRepository(db)
	ctx := context.Background()

	repo.IncrementFailedLogin(ctx, account.ID)
	repo.Lock(ctx, account.ID, time.Now().Add(time.Hour))

	if err := repo.ResetLoginState(ctx, account.ID); err != nil {
		t.Fatalf("ResetLoginState() error = %v", err)
	}

	found, _ := repo.FindByID(ctx, account.ID)
	if found.LoginAttempts != 0 || found.LockUntil != nil {
		t.Errorf("state = (%d, %v), want (0, nil)", found.LoginAttempts, found.LockUntil)
	}
}

func TestAccountRepositoryImpl_SetBanAndRole(t *testing.T) {
	db := setupTestDB(t)
	account := createTestAccount(t, db, "ban@example.com")
	repo := NewAccountRepository(db)
	ctx := context.Background()

	until := time.Now().Add(24 * time.Hour)
	if err := repo.SetBan(ctx, account.ID, true, &until, "spam"); err != nil {
		t.Fatalf("SetBan() error = %v", err)
	}
	found, _ := repo.FindByID(ctx, account.ID)
	if !found.IsBanned || found.BannedReason != "spam" || found.BannedUntil == nil {
		t.Errorf("ban state = (%v, %q, %v)", found.IsBanned, found.BannedReason, found.BannedUntil)
	}

	if err := repo.SetBan(ctx, account.ID, false, nil, ""); err != nil {
		t.Fatalf("SetBan() error = %v", err)
	}
	found, _ = repo.FindByID(ctx, account.ID)
	if found.IsBanned || found.BannedUntil != nil {
		t.Error("expected the ban to be lifted")
	}

	if err := repo.SetRole(ctx, account.ID, domain.RoleExpert); err != nil {
		t.Fatalf("SetRole() error = %v", err)
	}
	found, _ = repo.FindByID(ctx, account.ID)
	if found.Role != domain.RoleExpert {
		t.Errorf("role = %v, want expert", found.Role)
	}
}

func TestAccountRepositoryImpl_AddRating(t *testing.T) {
	db := setupTestDB(t)
	account := createTestAccount(t, db, "rating@example.com")
	repo := NewAccountRepository(db)
	ctx := context.Background()

	repo.AddRating(ctx, account.ID, 10)
	repo.AddRating(ctx, account.ID, 10)

	found, _ := repo.FindByID(ctx, account.ID)
	if found.Rating != 20 {
		t.Errorf("rating = %d, want 20", found.Rating)
	}
}
