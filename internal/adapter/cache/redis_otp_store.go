package cache

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/smallbiznis/bbf-onboarding/internal/repository"
)

// RedisOTPStore implements OTPStore backed by Redis, for deployments where
// the signup and verify requests may land on different processes.
type RedisOTPStore struct {
	client redis.UniversalClient
}

var _ repository.OTPStore = (*RedisOTPStore)(nil)

// NewRedisOTPStore constructs a Redis-backed one-time-code store.
func NewRedisOTPStore(client redis.UniversalClient) *RedisOTPStore {
	return &RedisOTPStore{client: client}
}

func codeKey(email string) string {
	return "onboarding:otp:" + strings.ToLower(email)
}

// SaveCode stores the issued code with TTL.
func (s *RedisOTPStore) SaveCode(ctx context.Context, email, code string, ttl time.Duration) error {
	if err := s.client.Set(ctx, codeKey(email), code, ttl).Err(); err != nil {
		return fmt.Errorf("persist otp code: %w", err)
	}
	return nil
}

// GetCode loads the pending code, "" when none is pending.
func (s *RedisOTPStore) GetCode(ctx context.Context, email string) (string, error) {
	code, err := s.client.Get(ctx, codeKey(email)).Result()
	if err != nil {
		if err == redis.Nil {
			return "", nil
		}
		return "", fmt.Errorf("load otp code: %w", err)
	}
	return code, nil
}

// DeleteCode removes the pending code after a successful verification.
func (s *RedisOTPStore) DeleteCode(ctx context.Context, email string) error {
	if err := s.client.Del(ctx, codeKey(email)).Err(); err != nil && err != redis.Nil {
		return fmt.Errorf("delete otp code: %w", err)
	}
	return nil
}
