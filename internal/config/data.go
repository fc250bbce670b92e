package config

import (
	"time"
)

// DataAPIConfig configures the HTTP Data API (assignments and copy resolution).
type DataAPIConfig struct {
	Port              string        `envconfig:"PORT" default:"8080"`
	Host              string        `envconfig:"HOST" default:"0.0.0.0"`
	ReadTimeout       time.Duration `envconfig:"READ_TIMEOUT" default:"5s"`
	WriteTimeout      time.Duration `envconfig:"WRITE_TIMEOUT" default:"5s"`
	ReadHeaderTimeout time.Duration `envconfig:"READ_HEADER_TIMEOUT" default:"2s"`
	IdleTimeout       time.Duration `envconfig:"IDLE_TIMEOUT" default:"60s"`
	MaxBodyBytes      int64         `envconfig:"MAX_BODY_BYTES" default:"65536" validate:"min=1"`
}

// Validate checks the listen address.
func (c *DataAPIConfig) Validate() error {
	if err := validatePort(c.Port, "data api"); err != nil {
		return err
	}
	return validateHost(c.Host, "data api")
}

// GRPCHealthConfig configures the gRPC health checking endpoint.
type GRPCHealthConfig struct {
	Enabled bool          `envconfig:"ENABLED" default:"true"`
	Port    string        `envconfig:"PORT" default:"50051"`
	Period  time.Duration `envconfig:"PERIOD" default:"10s" validate:"gt=0"`
}

// Validate checks GRPCHealthConfig fields for correctness.
func (c *GRPCHealthConfig) Validate() error {
	if !c.Enabled {
		return nil
	}
	return validatePort(c.Port, "grpc health")
}
