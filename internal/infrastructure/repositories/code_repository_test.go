package repositories

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/you/qnaforum/domain"
)

// setupCodeRepo creates a CodeRepository backed by an in-process Redis.
func setupCodeRepo(t *testing.T) (domain.CodeRepository, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return NewCodeRepository(client), mr
}

func TestCodeRepositoryImpl_PutAndPeek(t *testing.T) {
	repo, _ := setupCodeRepo(t)
	ctx := context.Background()

	expiresAt := time.Now().Add(15 * time.Minute)
	if err := repo.Put(ctx, "a@example.com", domain.PurposeEmailVerification, "123456", expiresAt); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	active, err := repo.Peek(ctx, "a@example.com", domain.PurposeEmailVerification)
	if err != nil {
		t.Fatalf("Peek() error = %v", err)
	}
	if active == nil {
		t.Fatal("expected an active code")
	}
	if active.ExpiresAt.Sub(expiresAt).Abs() > time.Second {
		t.Errorf("expiry = %v, want about %v", active.ExpiresAt, expiresAt)
	}

	// A different purpose has its own slot.
	other, err := repo.Peek(ctx, "a@example.com", domain.PurposePasswordReset)
	if err != nil {
		t.Fatalf("Peek() error = %v", err)
	}
	if other != nil {
		t.Error("password reset slot should be empty")
	}
}

func TestCodeRepositoryImpl_Put_OverwritesPrevious(t *testing.T) {
	repo, _ := setupCodeRepo(t)
	ctx := context.Background()
	expiresAt := time.Now().Add(15 * time.Minute)

	repo.Put(ctx, "a@example.com", domain.PurposeEmailVerification, "111111", expiresAt)
	repo.Put(ctx, "a@example.com", domain.PurposeEmailVerification, "222222", expiresAt)

	// The old code is gone.
	status, err := repo.Consume(ctx, "a@example.com", domain.PurposeEmailVerification, "111111")
	if err != nil {
		t.Fatalf("Consume() error = %v", err)
	}
	if status != domain.CodeMismatch {
		t.Errorf("status = %v, want mismatch", status)
	}

	status, _ = repo.Consume(ctx, "a@example.com", domain.PurposeEmailVerification, "222222")
	if status != domain.CodeConsumed {
		t.Errorf("status = %v, want consumed", status)
	}
}

func TestCodeRepositoryImpl_Consume(t *testing.T) {
	tests := []struct {
		name     string
		setup    func(repo domain.CodeRepository)
		code     string
		expected domain.CodeConsumeStatus
	}{
		{
			name:     "no code stored",
			setup:    func(repo domain.CodeRepository) {},
			code:     "123456",
			expected: domain.CodeNotFound,
		},
		{
			name: "correct code",
			setup: func(repo domain.CodeRepository) {
				repo.Put(context.Background(), "a@example.com", domain.PurposeEmailVerification, "123456", time.Now().Add(15*time.Minute))
			},
			code:     "123456",
			expected: domain.CodeConsumed,
		},
		{
			name: "wrong code leaves the stored one intact",
			setup: func(repo domain.CodeRepository) {
				repo.Put(context.Background(), "a@example.com", domain.PurposeEmailVerification, "123456", time.Now().Add(15*time.Minute))
			},
			code:     "654321",
			expected: domain.CodeMismatch,
		},
		{
			name: "logically expired code still in retention reports expired",
			setup: func(repo domain.CodeRepository) {
				repo.Put(context.Background(), "a@example.com", domain.PurposeEmailVerification, "123456", time.Now().Add(time.Second))
			},
			code:     "123456",
			expected: domain.CodeExpired,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, _ := setupCodeRepo(t)
			tt.setup(repo)

			if tt.expected == domain.CodeExpired {
				// Cross the logical expiry without hitting the Redis TTL.
				time.Sleep(1100 * time.Millisecond)
			}

			status, err := repo.Consume(context.Background(), "a@example.com", domain.PurposeEmailVerification, tt.code)
			if err != nil {
				t.Fatalf("Consume() error = %v", err)
			}
			if status != tt.expected {
				t.Errorf("status = %v, want %v", status, tt.expected)
			}
		})
	}
}

func TestCodeRepositoryImpl_Consume_MismatchKeepsCode(t *testing.T) {
	repo, _ := setupCodeRepo(t)
	ctx := context.Background()

	repo.Put(ctx, "a@example.com", domain.PurposeEmailVerification, "123456", time.Now().Add(15*time.Minute))
	repo.Consume(ctx, "a@example.com", domain.PurposeEmailVerification, "000000")

	status, _ := repo.Consume(ctx, "a@example.com", domain.PurposeEmailVerification, "123456")
	if status != domain.CodeConsumed {
		t.Errorf("status = %v, the code must survive a mismatch", status)
	}
}

func TestCodeRepositoryImpl_Consume_ExactlyOnce(t *testing.T) {
	repo, _ := setupCodeRepo(t)
	ctx := context.Background()

	repo.Put(ctx, "a@example.com", domain.PurposeEmailVerification, "123456", time.Now().Add(15*time.Minute))

	const callers = 8
	var wg sync.WaitGroup
	results := make([]domain.CodeConsumeStatus, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			status, err := repo.Consume(ctx, "a@example.com", domain.PurposeEmailVerification, "123456")
			if err != nil {
				t.Errorf("Consume() error = %v", err)
				return
			}
			results[i] = status
		}(i)
	}
	wg.Wait()

	consumed := 0
	for _, status := range results {
		if status == domain.CodeConsumed {
			consumed++
		}
	}
	if consumed != 1 {
		t.Errorf("consumed %d times, want exactly once", consumed)
	}
}

func TestCodeRepositoryImpl_DeleteExpired(t *testing.T) {
	repo, _ := setupCodeRepo(t)
	ctx := context.Background()

	repo.Put(ctx, "stale@example.com", domain.PurposeEmailVerification, "111111", time.Now().Add(time.Second))
	repo.Put(ctx, "fresh@example.com", domain.PurposeEmailVerification, "222222", time.Now().Add(15*time.Minute))

	time.Sleep(1100 * time.Millisecond)
	if err := repo.DeleteExpired(ctx); err != nil {
		t.Fatalf("DeleteExpired() error = %v", err)
	}

	status, _ := repo.Consume(ctx, "stale@example.com", domain.PurposeEmailVerification, "111111")
	if status != domain.CodeNotFound {
		t.Errorf("stale status = %v, want not found after the sweep", status)
	}
	active, _ := repo.Peek(ctx, "fresh@example.com", domain.PurposeEmailVerification)
	if active == nil {
		t.Error("fresh code must survive the sweep")
	}
}
