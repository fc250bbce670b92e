package remote

import (
	"context"
	"fmt"
	"maps"
	"sync"

	"github.com/redis/go-redis/v9"

	"github.com/rafaeljc/bifrost/internal/validation"
)

// DefaultRedisKey is the Redis hash holding the raw parameters.
const DefaultRedisKey = "bifrost:remote_config"

// MemorySource is an in-process Source. Used in development and tests.
type MemorySource struct {
	mu     sync.RWMutex
	params map[string]string
	err    error
}

var _ Source = (*MemorySource)(nil)

// NewMemorySource creates a source serving params.
func NewMemorySource(params map[string]string) *MemorySource {
	return &MemorySource{params: maps.Clone(params)}
}

// Set replaces one parameter.
func (s *MemorySource) Set(name, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.params == nil {
		s.params = map[string]string{}
	}
	s.params[name] = value
}

// Fail makes subsequent loads return err (nil restores normal operation).
func (s *MemorySource) Fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

// Load returns a copy of the current parameters.
func (s *MemorySource) Load(ctx context.Context) (map[string]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.err != nil {
		return nil, s.err
	}
	return maps.Clone(s.params), nil
}

// RedisSource reads parameters from a Redis hash (field = parameter name).
//
// Publishing new copy is a single HSET, e.g.:
//
//	HSET bifrost:remote_config copy_overrides_json '{"en":{...}}'
type RedisSource struct {
	client *redis.Client
	key    string
}

var _ Source = (*RedisSource)(nil)

// NewRedisSource creates a source over the hash at key.
func NewRedisSource(client *redis.Client, key string) *RedisSource {
	validation.AssertNotNil(client, "redis client")
	if key == "" {
		key = DefaultRedisKey
	}
	return &RedisSource{client: client, key: key}
}

// Load fetches the whole hash atomically with HGETALL.
func (s *RedisSource) Load(ctx context.Context) (map[string]string, error) {
	params, err := s.client.HGetAll(ctx, s.key).Result()
	if err != nil {
		return nil, fmt.Errorf("redis hgetall %s: %w", s.key, err)
	}
	return params, nil
}
