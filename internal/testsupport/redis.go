package testsupport

import (
	"context"
	"fmt"
	"net"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/redis"

	"github.com/rafaeljc/bifrost/internal/cache"
	"github.com/rafaeljc/bifrost/internal/config"
)

const redisImage = "redis:7-alpine"

// RedisContainer is a running Redis with a client built by cache.NewRedisClient,
// so tests exercise the same options as the binaries.
type RedisContainer struct {
	Container testcontainers.Container
	Client    *goredis.Client
	Config    *config.RedisConfig
}

// Terminate closes the client and removes the container.
func (c *RedisContainer) Terminate(ctx context.Context) error {
	_ = c.Client.Close()
	return c.Container.Terminate(ctx)
}

// Flush empties the keyspace between subtests.
func (c *RedisContainer) Flush(ctx context.Context) error {
	return c.Client.FlushDB(ctx).Err()
}

// StartRedisContainer starts Redis and connects to it.
func StartRedisContainer(ctx context.Context) (*RedisContainer, error) {
	ctr, err := redis.Run(ctx, redisImage)
	if err != nil {
		return nil, fmt.Errorf("failed to start redis container: %w", err)
	}

	endpoint, err := ctr.PortEndpoint(ctx, "6379/tcp", "")
	if err != nil {
		_ = ctr.Terminate(ctx)
		return nil, fmt.Errorf("failed to get redis endpoint: %w", err)
	}
	host, port, err := net.SplitHostPort(endpoint)
	if err != nil {
		_ = ctr.Terminate(ctx)
		return nil, fmt.Errorf("unexpected redis endpoint %q: %w", endpoint, err)
	}

	cfg := &config.RedisConfig{
		Host:           host,
		Port:           port,
		ClientName:     "bifrost-test",
		PoolSize:       10,
		DialTimeout:    5 * time.Second,
		ReadTimeout:    3 * time.Second,
		WriteTimeout:   3 * time.Second,
		PingMaxRetries: 5,
		PingBackoff:    time.Second,
	}
	client, err := cache.NewRedisClient(ctx, cfg)
	if err != nil {
		_ = ctr.Terminate(ctx)
		return nil, fmt.Errorf("failed to create redis client: %w", err)
	}

	return &RedisContainer{Container: ctr, Client: client, Config: cfg}, nil
}
