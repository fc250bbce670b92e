package experiment

import (
	"context"
	"errors"
	"log/slog"
	"maps"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/rafaeljc/bifrost/internal/cache"
	"github.com/rafaeljc/bifrost/internal/events"
	"github.com/rafaeljc/bifrost/internal/identity"
	"github.com/rafaeljc/bifrost/internal/observability"
	"github.com/rafaeljc/bifrost/internal/validation"
)

// ExposureEvent is emitted the first time an experiment is shown in a process.
const ExposureEvent = "experiment_exposure"

// Event parameter names attached to exposures and conversions.
const (
	ParamExperimentID = "experiment_id"
	ParamVariant      = "variant"
)

var errEmptyIdentity = errors.New("identity provider returned an empty id")

// DefaultMemoCapacity bounds the number of memoized assignments.
const DefaultMemoCapacity = 1024

// IdentityTimeout bounds one identity round trip.
const IdentityTimeout = 5 * time.Second

// Engine assigns the current installation to experiment variants and reports
// exposures and conversions.
//
// Assignments are memoized per experiment ID for the lifetime of the Engine and
// a durable bucket identity is fetched at most once. Every method is safe for
// concurrent use and fail-open: identity and sink failures are logged, never returned.
type Engine struct {
	registry *Registry
	identity identity.Provider
	sink     events.Sink
	logger   *slog.Logger

	memo *cache.MemoryCache[Assignment]

	idGroup singleflight.Group
	idMu    sync.RWMutex
	userID  string

	exposed sync.Map // experiment ID -> struct{}
}

// NewEngine wires an Engine. memoCapacity <= 0 selects DefaultMemoCapacity.
// If logger is nil, it defaults to slog.Default().
func NewEngine(registry *Registry, provider identity.Provider, sink events.Sink, logger *slog.Logger, memoCapacity int) (*Engine, error) {
	validation.AssertNotNil(registry, "experiment registry")
	validation.AssertPresent(provider, "identity provider")
	validation.AssertPresent(sink, "event sink")
	if logger == nil {
		logger = slog.Default()
	}
	if memoCapacity <= 0 {
		memoCapacity = DefaultMemoCapacity
	}

	memo, err := cache.NewMemoryCache[Assignment]("assignments", memoCapacity, 0)
	if err != nil {
		return nil, err
	}

	return &Engine{
		registry: registry,
		identity: provider,
		sink:     sink,
		logger:   logger.With("component", "experiment_engine"),
		memo:     memo,
	}, nil
}

// Close releases the assignment memo.
func (e *Engine) Close() {
	e.memo.Close()
}

// Registry returns the definitions the engine serves.
func (e *Engine) Registry() *Registry {
	return e.registry
}

// Assign returns the variant of experimentID for the current installation.
// ok is false when the experiment is not registered.
//
// When no identity can be obtained the default variant is returned with an
// empty UserID. Neither such degraded assignments nor those bucketed on an
// ephemeral identity are memoized.
func (e *Engine) Assign(ctx context.Context, experimentID string) (Assignment, bool) {
	a, _, ok := e.assign(ctx, experimentID)
	return a, ok
}

// assign is Assign that also reports whether the result is settled for the
// rest of the process, that is memoized from a durable identity.
func (e *Engine) assign(ctx context.Context, experimentID string) (a Assignment, settled, ok bool) {
	if a, hit := e.memo.Get(experimentID); hit {
		return a, true, true
	}

	def, found := e.registry.Lookup(experimentID)
	if !found {
		observability.UnknownExperiments.Inc()
		return Assignment{}, false, false
	}

	id, err := e.bucketID(ctx)
	if err != nil {
		observability.AssignmentsDegraded.WithLabelValues(experimentID).Inc()
		e.logger.WarnContext(ctx, "bucket identity unavailable, serving default variant",
			slog.String("experiment_id", experimentID),
			slog.String("error", err.Error()),
		)
		return Assignment{ExperimentID: experimentID, Variant: def.DefaultVariant()}, false, true
	}

	a = Assignment{
		ExperimentID: experimentID,
		UserID:       id.value,
		Variant:      VariantFor(def, id.value),
	}
	observability.AssignmentsTotal.WithLabelValues(experimentID, a.Variant).Inc()

	if !id.durable {
		return a, false, true
	}
	// A rejected write only costs a recomputation; the result is deterministic.
	e.memo.Set(experimentID, a)
	return a, true, true
}

// Exposure is the outcome of TrackExposure: the assignment the caller should
// show and whether this call emitted the event.
type Exposure struct {
	Assignment
	Emitted bool
}

// TrackExposure emits ExposureEvent for experimentID at most once per Engine,
// carrying the variant returned in the Exposure. ok is false when the
// experiment is not registered.
//
// Only settled assignments are reported. While the identity is missing or
// ephemeral the variant may still change, so nothing is emitted and a later
// call reports the variant the user ends up with.
func (e *Engine) TrackExposure(ctx context.Context, experimentID string) (Exposure, bool) {
	a, settled, ok := e.assign(ctx, experimentID)
	if !ok {
		return Exposure{}, false
	}
	if !settled {
		e.logger.DebugContext(ctx, "exposure deferred until the assignment settles",
			slog.String("experiment_id", experimentID),
		)
		return Exposure{Assignment: a}, true
	}
	if _, already := e.exposed.LoadOrStore(experimentID, struct{}{}); already {
		return Exposure{Assignment: a}, true
	}

	e.emit(ctx, "exposure", ExposureEvent, map[string]any{
		ParamExperimentID: a.ExperimentID,
		ParamVariant:      a.Variant,
	})
	return Exposure{Assignment: a, Emitted: true}, true
}

// TrackConversion emits eventName with extra params plus the experiment ID and
// assigned variant. Conversions are not deduplicated.
// It reports false when experimentID is unknown.
func (e *Engine) TrackConversion(ctx context.Context, experimentID, eventName string, extra map[string]any) bool {
	a, ok := e.Assign(ctx, experimentID)
	if !ok {
		return false
	}

	params := make(map[string]any, len(extra)+2)
	maps.Copy(params, extra)
	params[ParamExperimentID] = a.ExperimentID
	params[ParamVariant] = a.Variant

	e.emit(ctx, "conversion", eventName, params)
	return true
}

// Exposed reports whether an exposure has already been emitted for experimentID.
func (e *Engine) Exposed(experimentID string) bool {
	_, ok := e.exposed.Load(experimentID)
	return ok
}

type bucketIdentity struct {
	value   string
	durable bool
}

// bucketID returns the durable identity, fetching it on first use.
// Concurrent first callers share a single provider round trip. The fetch
// ignores the caller's cancellation and is bounded by IdentityTimeout.
// Ephemeral identities are handed out but not kept.
func (e *Engine) bucketID(ctx context.Context) (bucketIdentity, error) {
	if id := e.cachedID(); id != "" {
		return bucketIdentity{value: id, durable: true}, nil
	}

	v, err, _ := e.idGroup.Do("bucket_id", func() (any, error) {
		// A previous flight may have finished since the check above.
		if id := e.cachedID(); id != "" {
			return bucketIdentity{value: id, durable: true}, nil
		}

		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), IdentityTimeout)
		defer cancel()

		id, err := e.resolveIdentity(fetchCtx)
		if err != nil {
			return bucketIdentity{}, err
		}
		if id.value == "" {
			return bucketIdentity{}, errEmptyIdentity
		}
		if id.durable {
			e.idMu.Lock()
			e.userID = id.value
			e.idMu.Unlock()
		}
		return id, nil
	})
	if err != nil {
		return bucketIdentity{}, err
	}
	return v.(bucketIdentity), nil
}

func (e *Engine) resolveIdentity(ctx context.Context) (bucketIdentity, error) {
	if dp, ok := e.identity.(identity.DurableProvider); ok {
		id, durable, err := dp.ResolveBucketID(ctx)
		return bucketIdentity{value: id, durable: durable}, err
	}
	id, err := e.identity.GetOrCreateBucketID(ctx)
	return bucketIdentity{value: id, durable: true}, err
}

func (e *Engine) cachedID() string {
	e.idMu.RLock()
	defer e.idMu.RUnlock()
	return e.userID
}

func (e *Engine) emit(ctx context.Context, kind, name string, params map[string]any) {
	defer func() {
		if r := recover(); r != nil {
			observability.SinkFailures.WithLabelValues("panic").Inc()
			e.logger.ErrorContext(ctx, "event sink panicked",
				slog.String("event", name),
				slog.Any("panic", r),
			)
		}
	}()

	observability.EventsTotal.WithLabelValues(kind).Inc()
	e.sink.Emit(ctx, name, params)
}
