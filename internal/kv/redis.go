package kv

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/rafaeljc/bifrost/internal/validation"
)

var _ Store = (*RedisStore)(nil)

// RedisStore persists values as plain Redis strings (GET/SET, no expiry).
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore wraps an initialized Redis client.
func NewRedisStore(client *redis.Client) *RedisStore {
	validation.AssertNotNil(client, "redis client")
	return &RedisStore{client: client}
}

// Get reads key. redis.Nil is translated into a clean "not found".
func (s *RedisStore) Get(ctx context.Context, key string) (string, bool, error) {
	val, err := s.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to get %q from redis: %w", key, err)
	}
	return val, true, nil
}

// Set writes key without TTL: identities must survive restarts.
func (s *RedisStore) Set(ctx context.Context, key, value string) error {
	if err := s.client.Set(ctx, key, value, 0).Err(); err != nil {
		return fmt.Errorf("failed to set %q in redis: %w", key, err)
	}
	return nil
}
