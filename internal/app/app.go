// Package app assembles the Bifrost components from configuration.
//
// A Context is built once at startup and handed to the HTTP API, the syncer
// and the CLI. Nothing in the decision core keeps package-level state, so
// tests build as many independent Contexts as they need.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/rafaeljc/bifrost/internal/cache"
	"github.com/rafaeljc/bifrost/internal/config"
	"github.com/rafaeljc/bifrost/internal/copydoc"
	"github.com/rafaeljc/bifrost/internal/database"
	"github.com/rafaeljc/bifrost/internal/events"
	"github.com/rafaeljc/bifrost/internal/experiment"
	"github.com/rafaeljc/bifrost/internal/identity"
	"github.com/rafaeljc/bifrost/internal/kv"
	"github.com/rafaeljc/bifrost/internal/locale"
	"github.com/rafaeljc/bifrost/internal/logger"
	"github.com/rafaeljc/bifrost/internal/observability"
	"github.com/rafaeljc/bifrost/internal/remote"
	"github.com/rafaeljc/bifrost/internal/syncer"
	"github.com/rafaeljc/bifrost/internal/validation"
)

// Context holds every long-lived component of a Bifrost process.
type Context struct {
	Config *config.Config
	Logger *slog.Logger

	// Redis and DB are nil unless a configured backend needs them.
	Redis *redis.Client
	DB    *pgxpool.Pool

	Store    kv.Store
	Identity *identity.Store
	Sink     events.Sink
	Engine   *experiment.Engine

	Source     remote.Source
	Remote     *remote.Client
	Copy       *copydoc.Cache
	Locale     *locale.Switchable
	Resolver   *copydoc.Resolver
	Translator *copydoc.Translator
	Syncer     *syncer.Service

	// Checkers are the readiness checks of the connected backends.
	Checkers []observability.Checker
}

// New connects the configured backends and wires the components.
// On error every connection opened so far is closed.
func New(ctx context.Context, cfg *config.Config, log *slog.Logger) (_ *Context, err error) {
	validation.AssertNotNil(cfg, "config")
	if log == nil {
		log = slog.Default()
	}
	ctx = logger.WithContext(ctx, log)

	c := &Context{Config: cfg, Logger: log}
	defer func() {
		if err != nil {
			c.Close()
		}
	}()

	// 1. Infrastructure
	if cfg.NeedsRedis() {
		if c.Redis, err = cache.NewRedisClient(ctx, &cfg.Redis); err != nil {
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		c.Checkers = append(c.Checkers, cache.NewHealthChecker(c.Redis))
	}
	if cfg.NeedsDatabase() {
		if c.DB, err = database.NewPostgresPool(ctx, &cfg.Database); err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		c.Checkers = append(c.Checkers, database.NewHealthChecker(c.DB))
	}

	// 2. Experiments
	if c.Store, err = c.newStore(); err != nil {
		return nil, err
	}
	c.Identity = identity.NewStore(c.Store, log, identity.WithKey(cfg.Identity.Key))

	registry, err := loadRegistry(cfg.Experiments)
	if err != nil {
		return nil, err
	}

	c.Sink = c.newSink()
	if c.Engine, err = experiment.NewEngine(registry, c.Identity, c.Sink, log, cfg.Experiments.MemoCapacity); err != nil {
		return nil, fmt.Errorf("failed to create experiment engine: %w", err)
	}

	// 3. Copy documents
	if c.Source, err = c.newSource(); err != nil {
		return nil, err
	}
	c.Remote = remote.NewClient(c.Source, cfg.Copy.OverridesParam, log)
	c.Remote.SetFetchPolicy(cfg.Syncer.MinFetchInterval)
	if cfg.Remote.DefaultsFile != "" {
		defaults, err := remote.LoadDefaultsFile(cfg.Remote.DefaultsFile)
		if err != nil {
			return nil, err
		}
		c.Remote.SetDefaults(defaults)
	}

	c.Copy = copydoc.NewCache(log)
	c.Locale = locale.NewSwitchable(cfg.Copy.Locale)
	c.Resolver = copydoc.NewResolver(c.Copy, c.Locale,
		copydoc.WithDefaultLanguage(cfg.Copy.DefaultLanguage),
		copydoc.WithOverridesBucket(cfg.Copy.OverridesBucket),
	)
	c.Translator = copydoc.NewTranslator(c.Resolver, nil)

	c.Syncer = syncer.New(log, syncer.Config{
		Interval:       cfg.Syncer.Interval,
		FetchTimeout:   cfg.Syncer.FetchTimeout,
		BaseParam:      cfg.Copy.BaseParam,
		OverridesParam: cfg.Copy.OverridesParam,
	}, c.Remote, c.Copy)

	// Serve the local defaults until the first fetch completes.
	c.Copy.Refresh(c.Remote.GetRawString(cfg.Copy.BaseParam), c.Remote.GetRawString(cfg.Copy.OverridesParam))

	return c, nil
}

// Close releases the engine and the backend connections. Safe on a partial Context.
func (c *Context) Close() {
	if c.Engine != nil {
		c.Engine.Close()
	}
	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil && !errors.Is(err, redis.ErrClosed) {
			c.Logger.Warn("failed to close redis client", slog.String("error", err.Error()))
		}
	}
	if c.DB != nil {
		c.DB.Close()
	}
}

func (c *Context) newStore() (kv.Store, error) {
	switch c.Config.Identity.Backend {
	case config.BackendRedis:
		return kv.NewRedisStore(c.Redis), nil
	case config.BackendPostgres:
		return kv.NewPostgresStore(c.DB), nil
	case config.BackendMemory, "":
		return kv.NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown identity backend %q", c.Config.Identity.Backend)
	}
}

func (c *Context) newSink() events.Sink {
	var sink events.Sink = events.NewLogSink(c.Logger)
	if c.Config.Events.Sink == config.BackendRedis {
		sink = events.NewRedisStreamSink(c.Redis, c.Config.Events.Stream, c.Config.Events.MaxLength, c.Logger)
	}
	return events.NewFanout(c.Logger, sink)
}

func (c *Context) newSource() (remote.Source, error) {
	switch c.Config.Remote.Source {
	case config.BackendRedis:
		return remote.NewRedisSource(c.Redis, c.Config.Remote.Key), nil
	case config.BackendMemory, "":
		return remote.NewMemorySource(nil), nil
	default:
		return nil, fmt.Errorf("unknown remote source %q", c.Config.Remote.Source)
	}
}

func loadRegistry(cfg config.ExperimentsConfig) (*experiment.Registry, error) {
	if cfg.File == "" {
		return experiment.DefaultRegistry(), nil
	}
	reg, err := experiment.LoadRegistryFile(cfg.File)
	if err != nil {
		return nil, fmt.Errorf("failed to load experiment registry: %w", err)
	}
	return reg, nil
}
