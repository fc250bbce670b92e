// Package database provides the PostgreSQL connection factory.
package database

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rafaeljc/bifrost/internal/config"
	"github.com/rafaeljc/bifrost/internal/logger"
	"github.com/rafaeljc/bifrost/internal/observability"
)

// NewPostgresPool initializes a PostgreSQL connection pool.
// It returns the pool directly, allowing the caller to manage the lifecycle via Dependency Injection.
func NewPostgresPool(ctx context.Context, cfg *config.DatabaseConfig) (*pgxpool.Pool, error) {
	if cfg == nil {
		return nil, fmt.Errorf("database config cannot be nil")
	}

	// 1. Parse the configuration string
	poolCfg, parseErr := pgxpool.ParseConfig(cfg.ConnectionString())
	if parseErr != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", parseErr)
	}

	// 2. Pool tuning
	poolCfg.MaxConns = int32(cfg.MaxConns)
	poolCfg.MinConns = int32(cfg.MinConns)
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	if cfg.MaxConnIdleTime > 0 {
		poolCfg.MaxConnIdleTime = cfg.MaxConnIdleTime
	}
	connectTimeout := cfg.ConnectTimeout
	if connectTimeout <= 0 {
		connectTimeout = 5 * time.Second
	}
	poolCfg.ConnConfig.ConnectTimeout = connectTimeout

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	// 3. Verify connectivity with exponential backoff
	maxRetries := max(cfg.PingMaxRetries, 1)
	backoff := cfg.PingBackoff
	log := logger.FromContext(ctx)

	var lastErr error
	for attempt := 1; attempt <= maxRetries; attempt++ {
		pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
		lastErr = pool.Ping(pingCtx)
		cancel()

		if lastErr == nil {
			log.Info("postgres ping successful", slog.Int("attempt", attempt))
			return pool, nil
		}

		log.Warn("postgres ping failed",
			slog.Int("attempt", attempt),
			slog.Int("max_retries", maxRetries),
			slog.Any("error", lastErr),
		)
		if attempt < maxRetries {
			select {
			case <-ctx.Done():
				pool.Close()
				return nil, fmt.Errorf("postgres connection aborted: %w", ctx.Err())
			case <-time.After(backoff):
			}
			backoff *= 2
		}
	}

	pool.Close()
	return nil, fmt.Errorf("failed to ping database after %d retries: %w", maxRetries, lastErr)
}

// RunPoolMonitor samples pool statistics into Prometheus until ctx is cancelled.
// Cumulative pgx counters are exported as deltas between samples.
func RunPoolMonitor(ctx context.Context, pool *pgxpool.Pool, interval time.Duration) {
	if pool == nil || interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var prev poolCounters
	for {
		prev = recordPoolStats(pool.Stat(), prev)

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

type poolCounters struct {
	acquireCount    int64
	acquireDuration time.Duration
	emptyAcquire    int64
}

func recordPoolStats(s *pgxpool.Stat, prev poolCounters) poolCounters {
	observability.DBPoolConnections.WithLabelValues("total").Set(float64(s.TotalConns()))
	observability.DBPoolConnections.WithLabelValues("idle").Set(float64(s.IdleConns()))
	observability.DBPoolConnections.WithLabelValues("in_use").Set(float64(s.AcquiredConns()))
	observability.DBPoolConnections.WithLabelValues("max").Set(float64(s.MaxConns()))

	cur := poolCounters{
		acquireCount:    s.AcquireCount(),
		acquireDuration: s.AcquireDuration(),
		emptyAcquire:    s.EmptyAcquireCount(),
	}
	if d := cur.acquireCount - prev.acquireCount; d > 0 {
		observability.DBPoolAcquireCount.Add(float64(d))
	}
	if d := cur.acquireDuration - prev.acquireDuration; d > 0 {
		observability.DBPoolAcquireDuration.Add(d.Seconds())
	}
	if d := cur.emptyAcquire - prev.emptyAcquire; d > 0 {
		observability.DBPoolWaitCount.Add(float64(d))
	}
	return cur
}
