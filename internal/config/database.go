package config

import (
	"fmt"
	"net"
	"net/url"
	"strings"
	"time"
)

// DatabaseConfig contains PostgreSQL connection settings.
// It is only required when the identity backend is postgres.
type DatabaseConfig struct {
	// URL takes precedence over the individual components.
	URL      string `envconfig:"URL"`
	Host     string `envconfig:"HOST"`
	Port     string `envconfig:"PORT"`
	Name     string `envconfig:"NAME"`
	User     string `envconfig:"USER"`
	Password string `envconfig:"PASSWORD"`

	// TLS
	SSLMode string `envconfig:"SSL_MODE" default:"prefer" validate:"oneof=disable allow prefer require verify-ca verify-full"`

	// Connection Pool
	MaxConns        int           `envconfig:"MAX_CONNS" default:"25" validate:"min=1"`
	MinConns        int           `envconfig:"MIN_CONNS" default:"2" validate:"min=0"`
	MaxConnLifetime time.Duration `envconfig:"MAX_CONN_LIFETIME" default:"1h"`
	MaxConnIdleTime time.Duration `envconfig:"MAX_CONN_IDLE_TIME" default:"30m"`
	ConnectTimeout  time.Duration `envconfig:"CONNECT_TIMEOUT" default:"5s"`

	// Ping/connection retry settings
	PingMaxRetries int           `envconfig:"PING_MAX_RETRIES" default:"5" validate:"min=1"`
	PingBackoff    time.Duration `envconfig:"PING_BACKOFF" default:"2s"`

	// Pool metrics sampling
	MonitorInterval time.Duration `envconfig:"MONITOR_INTERVAL" default:"15s"`
}

// ConnectionString returns URL when set, otherwise a postgres:// URL built
// from the components with credentials escaped.
func (c *DatabaseConfig) ConnectionString() string {
	if c.URL != "" {
		return c.URL
	}

	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     net.JoinHostPort(c.Host, c.Port),
		Path:     "/" + c.Name,
		RawQuery: url.Values{"sslmode": {c.SSLMode}}.Encode(),
	}
	return u.String()
}

// Validate checks the connection target and pool sizing.
// Production deployments must authenticate and use a verifying SSL mode.
func (c *DatabaseConfig) Validate(environment string) error {
	if c.URL != "" {
		if err := validatePostgresURL(c.URL); err != nil {
			return fmt.Errorf("invalid database URL: %w", err)
		}
	} else if err := c.validateComponents(environment); err != nil {
		return err
	}

	if c.MinConns > c.MaxConns {
		return fmt.Errorf("min_conns (%d) cannot be greater than max_conns (%d)", c.MinConns, c.MaxConns)
	}
	return nil
}

func (c *DatabaseConfig) validateComponents(environment string) error {
	if err := validateHost(c.Host, "database"); err != nil {
		return err
	}
	if err := validatePort(c.Port, "database"); err != nil {
		return err
	}
	if err := validateNoWhitespace(c.Name, "database name"); err != nil {
		return err
	}
	// NAMEDATALEN - 1
	if len(c.Name) > 63 {
		return fmt.Errorf("database name cannot exceed 63 characters")
	}
	if err := validateNoWhitespace(c.User, "database user"); err != nil {
		return err
	}
	if environment != EnvironmentProduction {
		return nil
	}

	if c.Password == "" {
		return fmt.Errorf("database password is required in production environment")
	}
	if err := validatePasswordStrength(c.Password, "database", environment); err != nil {
		return err
	}
	if !isSecureSSLMode(c.SSLMode) {
		return fmt.Errorf("database SSL mode must be 'require', 'verify-ca', or 'verify-full' in production environment")
	}
	return nil
}

// IsConfigured reports whether a connection target is set.
func (c *DatabaseConfig) IsConfigured() bool {
	return c.URL != "" || (c.Host != "" && c.Port != "" && c.Name != "" && c.User != "")
}

// validatePostgresURL requires a postgres scheme, a user and a database name.
func validatePostgresURL(dbURL string) error {
	parsed, err := parseAndValidateURL(dbURL, []string{"postgres", "postgresql"})
	if err != nil {
		return err
	}
	if parsed.User.Username() == "" {
		return fmt.Errorf("user is required in URL")
	}
	if strings.Trim(parsed.Path, "/") == "" {
		return fmt.Errorf("database name is required in URL path")
	}
	return nil
}
