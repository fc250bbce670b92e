// Package syncer implements the background worker that periodically
// fetches and activates remote parameters and feeds them to the copy cache.
package syncer

import (
	"context"
	"log/slog"
	"time"

	"github.com/rafaeljc/bifrost/internal/copydoc"
	"github.com/rafaeljc/bifrost/internal/remote"
	"github.com/rafaeljc/bifrost/internal/validation"
)

// Config holds the configuration for the Syncer service.
type Config struct {
	// Interval is the duration between fetch-and-activate cycles (polling).
	Interval time.Duration

	// FetchTimeout bounds a single cycle. Zero means no timeout.
	FetchTimeout time.Duration

	// BaseParam and OverridesParam name the raw document parameters.
	BaseParam      string
	OverridesParam string
}

// Service orchestrates the synchronization process.
type Service struct {
	logger  *slog.Logger
	config  Config
	fetcher remote.Fetcher
	cache   *copydoc.Cache
}

// New creates a new Syncer service.
func New(logger *slog.Logger, cfg Config, fetcher remote.Fetcher, cache *copydoc.Cache) *Service {
	if logger == nil {
		logger = slog.Default()
	}

	validation.AssertPresent(fetcher, "remote fetcher")
	validation.AssertNotNil(cache, "copy cache")

	if cfg.Interval < time.Second {
		cfg.Interval = 60 * time.Second // Safe default
	}
	if cfg.BaseParam == "" {
		cfg.BaseParam = remote.ParamCopyBase
	}
	if cfg.OverridesParam == "" {
		cfg.OverridesParam = remote.ParamCopyOverrides
	}

	return &Service{
		logger:  logger.With("component", "syncer"),
		config:  cfg,
		fetcher: fetcher,
		cache:   cache,
	}
}

// Run starts the syncer loop. It blocks until the context is cancelled.
func (s *Service) Run(ctx context.Context) error {
	s.logger.Info("starting syncer service", slog.String("interval", s.config.Interval.String()))

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	// Run once immediately on startup
	if _, err := s.SyncOnce(ctx); err != nil {
		s.logger.Error("initial sync failed", slog.String("error", err.Error()))
	}

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("syncer service stopping...")
			return nil
		case <-ticker.C:
			if _, err := s.SyncOnce(ctx); err != nil {
				// We log the error but don't stop the worker.
				// Retry on next tick.
				s.logger.Error("sync cycle failed", slog.String("error", err.Error()))
			}
		}
	}
}

// SyncOnce performs a single fetch-and-activate cycle and refreshes the cache.
//
// The cache is refreshed even when the fetch fails, so the local default layer
// is served before the remote source ever answers. A failed fetch leaves the
// previously active values, and therefore the current snapshot, in place.
func (s *Service) SyncOnce(ctx context.Context) (remote.FetchResult, error) {
	start := time.Now()

	fetchCtx := ctx
	if s.config.FetchTimeout > 0 {
		var cancel context.CancelFunc
		fetchCtx, cancel = context.WithTimeout(ctx, s.config.FetchTimeout)
		defer cancel()
	}

	// 1. Fetch and activate remote parameters
	result, fetchErr := s.fetcher.FetchAndActivate(fetchCtx)

	// 2. Hand the active raw payloads to the cache (no-op when unchanged)
	base := s.fetcher.GetRawString(s.config.BaseParam)
	overrides := s.fetcher.GetRawString(s.config.OverridesParam)
	invalidated := s.cache.Refresh(base, overrides)

	if fetchErr != nil {
		return result, fetchErr
	}

	if result.Activated || invalidated {
		s.logger.Info("sync cycle completed",
			slog.Bool("activated", result.Activated),
			slog.Bool("override_changed", result.OverridePayloadChanged),
			slog.Bool("invalidated", invalidated),
			slog.String("override_fingerprint", copydoc.Fingerprint(overrides)),
			slog.String("duration", time.Since(start).String()),
		)
	}
	return result, nil
}
