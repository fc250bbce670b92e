package config

import "time"

// SyncerConfig contains configuration for the remote fetch-and-activate worker.
type SyncerConfig struct {
	Enabled bool `envconfig:"ENABLED" default:"true"`

	// Interval is the duration between fetch-and-activate cycles.
	Interval time.Duration `envconfig:"INTERVAL" default:"60s" validate:"gte=1s"`

	// FetchTimeout bounds a single fetch; an abandoned fetch keeps the previous snapshot.
	FetchTimeout time.Duration `envconfig:"FETCH_TIMEOUT" default:"10s" validate:"gt=0"`

	// MinFetchInterval is the fetch policy handed to the remote source.
	// Fetches closer together than this reuse the activated values.
	MinFetchInterval time.Duration `envconfig:"MIN_FETCH_INTERVAL" default:"30s" validate:"gte=0"`
}
