package copydoc

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/spaolacci/murmur3"

	"github.com/rafaeljc/bifrost/internal/observability"
)

// Document is an immutable merged snapshot.
type Document struct {
	// Merged is DeepMerge(base, override), keyed by language.
	Merged Value

	// BaseFingerprint and OverrideFingerprint identify the raw payloads the snapshot was built from.
	BaseFingerprint     string
	OverrideFingerprint string

	BuiltAt time.Time
}

// layers is one generation of raw inputs. The merged Document is built lazily,
// at most once per generation.
type layers struct {
	generation  uint64
	baseRaw     string
	overrideRaw string
	refreshedAt time.Time

	once  sync.Once
	doc   *Document
	ready atomic.Bool
}

// Status summarizes the cache for diagnostics.
type Status struct {
	Generation          uint64    `json:"generation"`
	BaseFingerprint     string    `json:"base_fingerprint"`
	OverrideFingerprint string    `json:"override_fingerprint"`
	Merges              int64     `json:"merges"`
	Built               bool      `json:"built"`
	RefreshedAt         time.Time `json:"refreshed_at"`
}

// Cache holds the current merged copy document.
//
// Writers (Refresh) are serialized; readers load one snapshot pointer per
// call and never block on writers. A new generation is published only when a
// raw payload actually changed, and its merge runs on the first read.
type Cache struct {
	logger  *slog.Logger
	current atomic.Pointer[layers]
	writeMu sync.Mutex
	merges  atomic.Int64
	now     func() time.Time
}

// NewCache creates a cache holding two empty layers.
// If logger is nil, it defaults to slog.Default().
func NewCache(logger *slog.Logger) *Cache {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Cache{
		logger: logger.With("component", "copy_cache"),
		now:    time.Now,
	}
	c.current.Store(&layers{})
	return c
}

// Refresh installs new raw payloads and reports whether the snapshot was invalidated.
//
// Payloads are compared as raw strings, not parsed documents: byte-identical
// input keeps the existing snapshot and its memoized merge.
func (c *Cache) Refresh(baseRaw, overrideRaw string) bool {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	cur := c.current.Load()
	overrideChanged := cur.overrideRaw != overrideRaw
	baseChanged := cur.baseRaw != baseRaw
	if !overrideChanged && !baseChanged {
		return false
	}

	if overrideChanged {
		observability.CopyInvalidations.WithLabelValues("override").Inc()
	}
	if baseChanged {
		observability.CopyInvalidations.WithLabelValues("base").Inc()
	}

	next := &layers{
		generation:  cur.generation + 1,
		baseRaw:     baseRaw,
		overrideRaw: overrideRaw,
		refreshedAt: c.now(),
	}
	c.current.Store(next)

	c.logger.Info("copy document invalidated",
		slog.Uint64("generation", next.generation),
		slog.Bool("base_changed", baseChanged),
		slog.Bool("override_changed", overrideChanged),
		slog.String("override_fingerprint", Fingerprint(overrideRaw)),
	)
	return true
}

// Document returns the current merged snapshot, building it if needed.
// Concurrent first readers of a generation share one merge.
func (c *Cache) Document() *Document {
	l := c.current.Load()
	l.once.Do(func() {
		l.doc = c.build(l)
		l.ready.Store(true)
	})
	return l.doc
}

// Merges returns how many times a merged document has been built.
func (c *Cache) Merges() int64 {
	return c.merges.Load()
}

// Status returns a diagnostic summary without forcing a merge.
func (c *Cache) Status() Status {
	l := c.current.Load()
	return Status{
		Generation:          l.generation,
		BaseFingerprint:     Fingerprint(l.baseRaw),
		OverrideFingerprint: Fingerprint(l.overrideRaw),
		Merges:              c.merges.Load(),
		Built:               l.ready.Load(),
		RefreshedAt:         l.refreshedAt,
	}
}

func (c *Cache) build(l *layers) *Document {
	base := c.parseLayer("base", l.baseRaw)
	override := c.parseLayer("override", l.overrideRaw)

	c.merges.Add(1)
	observability.CopyMerges.Inc()

	return &Document{
		Merged:              DeepMerge(base, override),
		BaseFingerprint:     Fingerprint(l.baseRaw),
		OverrideFingerprint: Fingerprint(l.overrideRaw),
		BuiltAt:             c.now(),
	}
}

func (c *Cache) parseLayer(name, raw string) Value {
	v, err := Parse(raw)
	if err != nil {
		observability.CopyParseErrors.WithLabelValues(name).Inc()
		c.logger.Warn("malformed copy document, treating layer as empty",
			slog.String("layer", name),
			slog.String("fingerprint", Fingerprint(raw)),
			slog.String("error", err.Error()),
		)
		return EmptyObject()
	}
	return v
}

// Fingerprint returns a short stable identifier of a raw payload (murmur3, 64-bit).
// The empty payload fingerprints as "0000000000000000".
func Fingerprint(raw string) string {
	if raw == "" {
		return fmt.Sprintf("%016x", 0)
	}
	return fmt.Sprintf("%016x", murmur3.Sum64([]byte(raw)))
}
