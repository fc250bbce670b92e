// Package remote fetches raw configuration parameters and activates them atomically.
package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"maps"
	"os"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/rafaeljc/bifrost/internal/observability"
	"github.com/rafaeljc/bifrost/internal/validation"
)

// Parameter names of the copy documents.
const (
	ParamCopyBase      = "copy_json"
	ParamCopyOverrides = "copy_overrides_json"
)

// FetchResult reports the outcome of one fetch-and-activate cycle.
type FetchResult struct {
	// Activated is true when a fetch produced a different parameter set.
	Activated bool `json:"activated"`

	// OverridePayloadChanged is true when the raw override parameter differs
	// from the previously active one.
	OverridePayloadChanged bool `json:"override_payload_changed"`
}

// Fetcher exposes remotely managed raw parameters.
type Fetcher interface {
	FetchAndActivate(ctx context.Context) (FetchResult, error)
	GetRawString(name string) string
	SetDefaults(defaults map[string]string)
	SetFetchPolicy(minInterval time.Duration)
}

// Source loads the complete current parameter set.
type Source interface {
	Load(ctx context.Context) (map[string]string, error)
}

// Client implements Fetcher over a Source.
//
// Fetched values become visible only once a complete Load succeeded; a failed
// or cancelled fetch leaves the active values untouched.
type Client struct {
	source        Source
	overrideParam string
	logger        *slog.Logger
	now           func() time.Time

	fetchMu     sync.Mutex // serializes fetch cycles
	lastFetch   time.Time
	minInterval time.Duration

	mu       sync.RWMutex
	active   map[string]string
	defaults map[string]string
}

var _ Fetcher = (*Client)(nil)

// NewClient creates a client. overrideParam names the parameter whose raw
// changes are reported in FetchResult.OverridePayloadChanged.
// If logger is nil, it defaults to slog.Default().
func NewClient(source Source, overrideParam string, logger *slog.Logger) *Client {
	validation.AssertPresent(source, "remote source")
	if overrideParam == "" {
		overrideParam = ParamCopyOverrides
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		source:        source,
		overrideParam: overrideParam,
		logger:        logger.With("component", "remote_config"),
		now:           time.Now,
		active:        map[string]string{},
		defaults:      map[string]string{},
	}
}

// SetDefaults replaces the local default layer.
func (c *Client) SetDefaults(defaults map[string]string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.defaults = maps.Clone(defaults)
	if c.defaults == nil {
		c.defaults = map[string]string{}
	}
}

// SetFetchPolicy sets the minimum interval between two real fetches.
// Zero disables throttling.
func (c *Client) SetFetchPolicy(minInterval time.Duration) {
	c.fetchMu.Lock()
	defer c.fetchMu.Unlock()
	c.minInterval = max(minInterval, 0)
}

// GetRawString returns the active remote value of name, or its default when
// the remote value is missing or empty.
func (c *Client) GetRawString(name string) string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if v := c.active[name]; v != "" {
		return v
	}
	return c.defaults[name]
}

// FetchAndActivate loads the parameter set and activates it.
// Calls within the fetch policy interval of the last successful fetch are
// throttled and report Activated=false without touching the source.
func (c *Client) FetchAndActivate(ctx context.Context) (FetchResult, error) {
	c.fetchMu.Lock()
	defer c.fetchMu.Unlock()

	if c.minInterval > 0 && !c.lastFetch.IsZero() && c.now().Sub(c.lastFetch) < c.minInterval {
		observability.RemoteFetchTotal.WithLabelValues("throttled").Inc()
		return FetchResult{}, nil
	}

	start := time.Now()
	params, err := c.source.Load(ctx)
	observability.RemoteFetchDuration.Observe(time.Since(start).Seconds())
	if err == nil {
		err = ctx.Err()
	}
	if err != nil {
		observability.RemoteFetchTotal.WithLabelValues("error").Inc()
		return FetchResult{}, fmt.Errorf("failed to fetch remote config: %w", err)
	}

	c.mu.Lock()
	prev := c.active
	result := FetchResult{
		Activated:              !maps.Equal(prev, params),
		OverridePayloadChanged: prev[c.overrideParam] != params[c.overrideParam],
	}
	if result.Activated {
		c.active = maps.Clone(params)
		if c.active == nil {
			c.active = map[string]string{}
		}
	}
	c.mu.Unlock()
	c.lastFetch = c.now()

	if result.Activated {
		observability.RemoteFetchTotal.WithLabelValues("activated").Inc()
		c.logger.Info("remote config activated",
			slog.Int("params", len(params)),
			slog.Bool("override_changed", result.OverridePayloadChanged),
		)
	} else {
		observability.RemoteFetchTotal.WithLabelValues("unchanged").Inc()
	}
	return result, nil
}

// LoadDefaultsFile reads the local default layer from a YAML or JSON mapping of
// parameter name to value. String values are kept verbatim; structured values
// are encoded as JSON, so a copy document can be authored inline:
//
//	copy_json:
//	  en:
//	    onboarding:
//	      index: {cta_label: "Let's start"}
func LoadDefaultsFile(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read defaults file: %w", err)
	}
	return ParseDefaults(data)
}

// ParseDefaults decodes defaults content; see LoadDefaultsFile.
func ParseDefaults(data []byte) (map[string]string, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse defaults: %w", err)
	}

	out := make(map[string]string, len(raw))
	for name, v := range raw {
		name = strings.TrimSpace(name)
		if name == "" {
			return nil, fmt.Errorf("failed to parse defaults: empty parameter name")
		}
		switch val := v.(type) {
		case nil:
			out[name] = ""
		case string:
			out[name] = val
		default:
			encoded, err := json.Marshal(val)
			if err != nil {
				return nil, fmt.Errorf("failed to encode default %q: %w", name, err)
			}
			out[name] = string(encoded)
		}
	}
	return out, nil
}
