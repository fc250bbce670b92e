// Package testsupport provides ephemeral PostgreSQL and Redis containers and
// Prometheus assertions for Bifrost's integration tests.
package testsupport

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/rafaeljc/bifrost/internal/config"
	"github.com/rafaeljc/bifrost/internal/database"
)

const (
	postgresImage    = "postgres:16-alpine"
	postgresDatabase = "bifrost_test"
	postgresUser     = "bifrost"
	postgresPassword = "bifrost-test-password"
)

// PostgresContainer is a running PostgreSQL with the migrations applied and a
// pool created through database.NewPostgresPool.
type PostgresContainer struct {
	Container        testcontainers.Container
	DB               *pgxpool.Pool
	ConnectionString string
}

// Terminate closes the pool and removes the container.
func (c *PostgresContainer) Terminate(ctx context.Context) error {
	c.DB.Close()
	return c.Container.Terminate(ctx)
}

// ResetKV empties kv_entries so subtests start without a stored identity.
func (c *PostgresContainer) ResetKV(ctx context.Context) error {
	_, err := c.DB.Exec(ctx, `TRUNCATE kv_entries`)
	return err
}

// StartPostgresContainer starts PostgreSQL and runs every .sql file of
// migrationsDir, in file name order, as init scripts.
func StartPostgresContainer(ctx context.Context, migrationsDir string) (*PostgresContainer, error) {
	migrations, err := migrationFiles(migrationsDir)
	if err != nil {
		return nil, err
	}

	ctr, err := postgres.Run(ctx,
		postgresImage,
		postgres.WithDatabase(postgresDatabase),
		postgres.WithUsername(postgresUser),
		postgres.WithPassword(postgresPassword),
		postgres.WithInitScripts(migrations...),
		testcontainers.WithWaitStrategy(
			// The server restarts once after the init scripts ran.
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to start postgres container: %w", err)
	}

	connStr, err := ctr.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		_ = ctr.Terminate(ctx)
		return nil, fmt.Errorf("failed to get connection string: %w", err)
	}

	pool, err := database.NewPostgresPool(ctx, &config.DatabaseConfig{
		URL:             connStr,
		MaxConns:        5,
		MinConns:        1,
		MaxConnLifetime: 30 * time.Minute,
		MaxConnIdleTime: 5 * time.Minute,
		ConnectTimeout:  5 * time.Second,
		PingMaxRetries:  5,
		PingBackoff:     time.Second,
	})
	if err != nil {
		_ = ctr.Terminate(ctx)
		return nil, fmt.Errorf("failed to create pgx pool: %w", err)
	}

	return &PostgresContainer{Container: ctr, DB: pool, ConnectionString: connStr}, nil
}

// migrationFiles returns the absolute, sorted .sql paths of dir.
func migrationFiles(dir string) ([]string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve migrations path: %w", err)
	}

	entries, err := os.ReadDir(abs)
	if err != nil {
		return nil, fmt.Errorf("failed to read migrations directory: %w", err)
	}

	var files []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".sql") {
			files = append(files, filepath.Join(abs, e.Name()))
		}
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no migration files found in %s", abs)
	}

	// 001_, 002_, ... apply in order.
	slices.Sort(files)
	return files, nil
}
