package repositories

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/you/qnaforum/domain"
)

// CodeRepositoryImpl implements domain.CodeRepository using Redis.
//
// A code lives under one key per (subject, purpose) pair, so issuing a new
// code overwrites and thereby invalidates the previous one. The stored
// value carries its own expiry timestamp and the Redis TTL extends past it
// by a retention window, which lets Consume report "expired" distinctly
// from "not found" for the audit log.
type CodeRepositoryImpl struct {
	client    *redis.Client
	prefix    string
	retention time.Duration
}

// consumeScript atomically compares and deletes the code. A mismatch
// leaves the code in place; exactly one of two concurrent calls with the
// correct value observes "consumed".
var consumeScript = redis.NewScript(`
local v = redis.call('GET', KEYS[1])
if not v then
  return 'not_found'
end
local sep = string.find(v, '|', 1, true)
local code = string.sub(v, 1, sep - 1)
local exp = tonumber(string.sub(v, sep + 1))
if exp <= tonumber(ARGV[2]) then
  redis.call('DEL', KEYS[1])
  return 'expired'
end
if code ~= ARGV[1] then
  return 'mismatch'
end
redis.call('DEL', KEYS[1])
return 'consumed'
`)

// NewCodeRepository creates a new Redis-backed verification code store.
func NewCodeRepository(client *redis.Client) domain.CodeRepository {
	return &CodeRepositoryImpl{
		client:    client,
		prefix:    "code:",
		retention: time.Hour,
	}
}

func (r *CodeRepositoryImpl) key(subject string, purpose domain.VerificationPurpose) string {
	return fmt.Sprintf("%s%s:%s", r.prefix, purpose, subject)
}

// Put implements domain.CodeRepository
func (r *CodeRepositoryImpl) Put(ctx context.Context, subject string, purpose domain.VerificationPurpose, code string, expiresAt time.Time) error {
	value := fmt.Sprintf("%s|%d", code, expiresAt.Unix())
	ttl := time.Until(expiresAt) + r.retention
	if ttl <= 0 {
		return fmt.Errorf("code already expired at %v", expiresAt)
	}
	if err := r.client.Set(ctx, r.key(subject, purpose), value, ttl).Err(); err != nil {
		return fmt.Errorf("failed to store verification code: %w", err)
	}
	return nil
}

// Peek implements domain.CodeRepository
func (r *CodeRepositoryImpl) Peek(ctx context.Context, subject string, purpose domain.VerificationPurpose) (*domain.ActiveCode, error) {
	value, err := r.client.Get(ctx, r.key(subject, purpose)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read verification code: %w", err)
	}

	expiresAt, err := parseCodeExpiry(value)
	if err != nil {
		return nil, err
	}
	if !expiresAt.After(time.Now()) {
		return nil, nil
	}
	return &domain.ActiveCode{ExpiresAt: expiresAt}, nil
}

// Consume implements domain.CodeRepository
func (r *CodeRepositoryImpl) Consume(ctx context.Context, subject string, purpose domain.VerificationPurpose, code string) (domain.CodeConsumeStatus, error) {
	result, err := consumeScript.Run(ctx, r.client,
		[]string{r.key(subject, purpose)},
		code, time.Now().Unix(),
	).Text()
	if err != nil {
		return domain.CodeNotFound, fmt.Errorf("failed to consume verification code: %w", err)
	}

	switch result {
	case "consumed":
		return domain.CodeConsumed, nil
	case "expired":
		return domain.CodeExpired, nil
	case "mismatch":
		return domain.CodeMismatch, nil
	default:
		return domain.CodeNotFound, nil
	}
}

// DeleteExpired implements domain.CodeRepository. Redis drops keys at the
// retention boundary on its own; this sweep removes codes that are past
// their logical expiry but still inside the retention window.
func (r *CodeRepositoryImpl) DeleteExpired(ctx context.Context) error {
	iter := r.client.Scan(ctx, 0, r.prefix+"*", 100).Iterator()
	now := time.Now()
	for iter.Next(ctx) {
		key := iter.Val()
		value, err := r.client.Get(ctx, key).Result()
		if err != nil {
			continue
		}
		expiresAt, err := parseCodeExpiry(value)
		if err != nil || expiresAt.After(now) {
			continue
		}
		r.client.Del(ctx, key)
	}
	return iter.Err()
}

func parseCodeExpiry(value string) (time.Time, error) {
	sep := strings.IndexByte(value, '|')
	if sep < 0 {
		return time.Time{}, fmt.Errorf("malformed code record")
	}
	unix, err := strconv.ParseInt(value[sep+1:], 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("malformed code expiry: %w", err)
	}
	return time.Unix(unix, 0), nil
}
