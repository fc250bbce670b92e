package kv

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rafaeljc/bifrost/internal/validation"
)

var _ Store = (*PostgresStore)(nil)

// PostgresStore persists values in the kv_entries table (see migrations/).
type PostgresStore struct {
	db *pgxpool.Pool
}

// NewPostgresStore creates a store with the given connection pool.
func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	validation.AssertNotNil(db, "database pool")
	return &PostgresStore{db: db}
}

// Get reads a single entry by key.
func (s *PostgresStore) Get(ctx context.Context, key string) (string, bool, error) {
	query := `SELECT value FROM kv_entries WHERE key = $1`

	var value string
	err := s.db.QueryRow(ctx, query, key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to get %q from database: %w", key, err)
	}
	return value, true, nil
}

// Set upserts an entry. The updated_at column is refreshed on every write.
func (s *PostgresStore) Set(ctx context.Context, key, value string) error {
	query := `
		INSERT INTO kv_entries (key, value, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (key) DO UPDATE
		SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at
	`

	if _, err := s.db.Exec(ctx, query, key, value, time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to set %q in database: %w", key, err)
	}
	return nil
}
