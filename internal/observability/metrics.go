package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// NOTE: All metrics are registered globally on the default registry.
// Binaries that do not use a subsystem (e.g., bifrostctl) simply export zeros.

// namespace defines the global prefix for all metrics (e.g., bifrost_...).
const namespace = "bifrost"

// lowLatencyBuckets are used for in-process operations (copy resolution, HTTP reads).
// Range: 1ms to 500ms.
var lowLatencyBuckets = []float64{.001, .002, .005, .010, .015, .020, .025, .030, .050, .100, .500}

var (
	// -------------------------------------------------------------------------
	// DATA API (HTTP)
	// -------------------------------------------------------------------------

	// DataAPIReqDuration measures the latency of HTTP requests.
	// Metric: bifrost_data_api_http_handling_seconds
	DataAPIReqDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "data_api",
		Name:      "http_handling_seconds",
		Help:      "Time taken to handle HTTP requests in the Data API",
		Buckets:   lowLatencyBuckets,
	}, []string{"method", "path"})

	// DataAPIReqTotal counts the total number of HTTP requests.
	// Metric: bifrost_data_api_http_requests_total
	DataAPIReqTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "data_api",
		Name:      "http_requests_total",
		Help:      "Total HTTP requests in the Data API",
	}, []string{"method", "path", "code"})

	// -------------------------------------------------------------------------
	// EXPERIMENTS
	// -------------------------------------------------------------------------

	// AssignmentsTotal counts computed (non-memoized) assignments.
	// Metric: bifrost_experiment_assignments_total
	AssignmentsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "experiment",
		Name:      "assignments_total",
		Help:      "Total assignments computed, by experiment and variant",
	}, []string{"experiment", "variant"})

	// AssignmentsDegraded counts assignments served with the default variant
	// because no identity could be obtained.
	AssignmentsDegraded = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "experiment",
		Name:      "assignments_degraded_total",
		Help:      "Total assignments that fell back to the default variant",
	}, []string{"experiment"})

	// UnknownExperiments counts lookups for IDs missing from the registry.
	UnknownExperiments = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "experiment",
		Name:      "unknown_total",
		Help:      "Total assignment requests for unknown experiments",
	})

	// EventsTotal counts events handed to the sink.
	// Metric: bifrost_experiment_events_total{kind="exposure|conversion"}
	EventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "experiment",
		Name:      "events_total",
		Help:      "Total experiment events emitted",
	}, []string{"kind"})

	// SinkFailures counts events the sink failed to deliver (swallowed).
	SinkFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "events",
		Name:      "sink_failures_total",
		Help:      "Total event deliveries that failed and were dropped",
	}, []string{"sink"})

	// --- Memo Cache (Otter) ---

	MemoCacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "memo",
		Name:      "cache_hits_total",
		Help:      "Total in-memory memo cache hits",
	}, []string{"cache"})

	MemoCacheMisses = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "memo",
		Name:      "cache_misses_total",
		Help:      "Total in-memory memo cache misses",
	}, []string{"cache"})

	// -------------------------------------------------------------------------
	// IDENTITY
	// -------------------------------------------------------------------------

	// IdentityLookups counts bucket identity resolutions by outcome.
	// result: stored (read from KV), created (generated and persisted),
	// ephemeral (generated, persistence failed), failed (no id at all).
	IdentityLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "identity",
		Name:      "lookups_total",
		Help:      "Total bucket identity lookups by outcome",
	}, []string{"result"})

	// -------------------------------------------------------------------------
	// COPY DOCUMENTS
	// -------------------------------------------------------------------------

	// CopyMerges counts deep merges of the base and override documents.
	// Metric: bifrost_copy_merges_total
	CopyMerges = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "copy",
		Name:      "merges_total",
		Help:      "Total merged document rebuilds",
	})

	// CopyInvalidations counts snapshot invalidations by the layer that changed.
	CopyInvalidations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "copy",
		Name:      "invalidations_total",
		Help:      "Total merged document invalidations",
	}, []string{"layer"})

	// CopyParseErrors counts layers discarded because of malformed JSON.
	CopyParseErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "copy",
		Name:      "parse_errors_total",
		Help:      "Total document layers treated as empty due to malformed JSON",
	}, []string{"layer"})

	// CopyResolutions counts copy lookups by method and outcome.
	// method: path|key|translate, result: hit|fallback
	CopyResolutions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "copy",
		Name:      "resolutions_total",
		Help:      "Total copy resolutions by method and result",
	}, []string{"method", "result"})

	// -------------------------------------------------------------------------
	// REMOTE SYNC (Workers)
	// -------------------------------------------------------------------------

	// RemoteFetchDuration measures fetch-and-activate latency.
	// Metric: bifrost_remote_fetch_duration_seconds
	RemoteFetchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "remote",
		Name:      "fetch_duration_seconds",
		Help:      "Time taken by fetch-and-activate cycles",
		Buckets:   prometheus.DefBuckets,
	})

	// RemoteFetchTotal counts fetch-and-activate cycles by result.
	// result: activated, unchanged, throttled, error
	RemoteFetchTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "remote",
		Name:      "fetch_total",
		Help:      "Total fetch-and-activate cycles by result",
	}, []string{"result"})
)

var (
	// -------------------------------------------------------------------------
	// DATABASE POOL (pgx)
	// -------------------------------------------------------------------------

	// DBPoolConnections reports pool sizes by state.
	// state: total, idle, in_use, max
	DBPoolConnections = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "database",
		Name:      "pool_connections",
		Help:      "Current number of pool connections by state",
	}, []string{"state"})

	// DBPoolAcquireCount is the cumulative count of successful acquires.
	DBPoolAcquireCount = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "database",
		Name:      "pool_acquire_count_total",
		Help:      "Cumulative count of successful connection acquires",
	})

	// DBPoolAcquireDuration is the cumulative time spent acquiring connections.
	DBPoolAcquireDuration = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "database",
		Name:      "pool_acquire_duration_seconds_total",
		Help:      "Cumulative time spent acquiring connections",
	})

	// DBPoolWaitCount is the cumulative count of acquires that had to wait.
	DBPoolWaitCount = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "database",
		Name:      "pool_wait_count_total",
		Help:      "Cumulative count of acquires that waited for a free connection",
	})
)
