package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"

	"github.com/rafaeljc/bifrost/internal/cache"
)

func TestHealthChecker(t *testing.T) {
	t.Parallel()

	t.Run("Should report its component name", func(t *testing.T) {
		t.Parallel()

		assert.Equal(t, "redis", cache.NewHealthChecker(nil).Name())
	})

	t.Run("Should fail without a client", func(t *testing.T) {
		t.Parallel()

		err := cache.NewHealthChecker(nil).Check(context.Background())

		assert.ErrorContains(t, err, "redis client is nil")
	})

	t.Run("Should fail within the check timeout when redis is unreachable", func(t *testing.T) {
		t.Parallel()

		// Arrange
		client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", MaxRetries: -1})
		defer client.Close()
		checker := cache.NewHealthChecker(client, cache.WithCheckTimeout(200*time.Millisecond))

		// Act
		start := time.Now()
		err := checker.Check(context.Background())

		// Assert
		assert.ErrorContains(t, err, "redis ping failed")
		assert.Less(t, time.Since(start), 2*time.Second)
	})
}
