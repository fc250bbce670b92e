package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultCheckTimeout bounds one readiness ping.
const DefaultCheckTimeout = time.Second

// HealthChecker implements observability.Checker for the shared Redis client.
type HealthChecker struct {
	client  redis.UniversalClient
	timeout time.Duration
}

// HealthOption configures a HealthChecker.
type HealthOption func(*HealthChecker)

// WithCheckTimeout overrides DefaultCheckTimeout.
func WithCheckTimeout(d time.Duration) HealthOption {
	return func(h *HealthChecker) {
		if d > 0 {
			h.timeout = d
		}
	}
}

// NewHealthChecker creates a checker for client.
func NewHealthChecker(client redis.UniversalClient, opts ...HealthOption) *HealthChecker {
	h := &HealthChecker{client: client, timeout: DefaultCheckTimeout}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Name returns the component name.
func (h *HealthChecker) Name() string {
	return "redis"
}

// Check pings Redis. A server still loading its dataset counts as down.
func (h *HealthChecker) Check(ctx context.Context) error {
	if h.client == nil {
		return errors.New("redis client is nil")
	}

	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	if err := h.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}
