package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// checkTimeout caps a single readiness check.
const checkTimeout = 2 * time.Second

// HealthChecker implements observability.Checker for PostgreSQL.
// Besides connectivity it verifies that the kv_entries migration was applied,
// since the identity store cannot work without it.
type HealthChecker struct {
	pool *pgxpool.Pool
}

// NewHealthChecker creates a checker for pool.
func NewHealthChecker(pool *pgxpool.Pool) *HealthChecker {
	return &HealthChecker{pool: pool}
}

// Name returns the component name.
func (h *HealthChecker) Name() string {
	return "postgres"
}

// Check pings the pool and looks up the kv_entries table.
func (h *HealthChecker) Check(ctx context.Context) error {
	if h.pool == nil {
		return fmt.Errorf("database pool is nil")
	}

	ctx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()

	var present bool
	if err := h.pool.QueryRow(ctx, `SELECT to_regclass('kv_entries') IS NOT NULL`).Scan(&present); err != nil {
		return fmt.Errorf("postgres query failed: %w", err)
	}
	if !present {
		return fmt.Errorf("table kv_entries is missing, run migrations")
	}
	return nil
}
