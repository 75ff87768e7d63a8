package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Namespace for all ExpoPass metrics
const namespace = "expopass"

// Registry is the global Prometheus registry for all metrics
var Registry = prometheus.NewRegistry()

// AppInfo is a gauge that exposes application version information as labels
var AppInfo = promauto.With(Registry).NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "app_info",
		Help:      "Application version information (always set to 1, version info in labels)",
	},
	[]string{"version", "commit", "build_date"},
)

// HTTPRequestsTotal tracks API requests by route, method and status
var HTTPRequestsTotal = promauto.With(Registry).NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests",
	},
	[]string{"route", "method", "status"},
)

// HTTPRequestDuration tracks API request latency
var HTTPRequestDuration = promauto.With(Registry).NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency in seconds",
		Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
	},
	[]string{"route", "method"},
)

// ImportRowsTotal tracks bulk import rows by outcome
var ImportRowsTotal = promauto.With(Registry).NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "import_rows_total",
		Help:      "Total number of bulk import rows processed",
	},
	[]string{"outcome"}, // outcome: created|skipped|failed
)

// ImportDuration tracks the duration of bulk import runs
var ImportDuration = promauto.With(Registry).NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "import_duration_seconds",
		Help:      "Duration of bulk import runs in seconds",
		Buckets:   []float64{0.1, 0.5, 1, 5, 15, 60, 300, 900},
	},
	[]string{"format"}, // format: csv|xlsx|json
)

// LocationsCreatedTotal tracks hierarchy entities minted per level
var LocationsCreatedTotal = promauto.With(Registry).NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "locations_created_total",
		Help:      "Total number of location entities created",
	},
	[]string{"level"}, // level: country|state|city|pincode
)

// ResolverCacheHitsTotal tracks hierarchy rows resolved from the
// per-run import caches rather than the database
var ResolverCacheHitsTotal = promauto.With(Registry).NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "resolver_cache_hits_total",
		Help:      "Total number of hierarchy resolver cache hits",
	},
	[]string{"level"}, // level: country|state|city
)

// UsageReconcileUpdatesTotal tracks counters corrected by the reconciler
var UsageReconcileUpdatesTotal = promauto.With(Registry).NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "usage_reconcile_updates_total",
		Help:      "Total number of usage counters corrected by reconciliation",
	},
	[]string{"level"},
)

// UsageReconcileErrorsTotal tracks per-entity reconciliation failures
var UsageReconcileErrorsTotal = promauto.With(Registry).NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "usage_reconcile_errors_total",
		Help:      "Total number of reconciliation failures",
	},
	[]string{"level"},
)

// SearchSyncFailuresTotal tracks best-effort index writes that failed
var SearchSyncFailuresTotal = promauto.With(Registry).NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "search_sync_failures_total",
		Help:      "Total number of failed search index sync attempts",
	},
	[]string{"operation"}, // operation: index|delete
)

// LookupsTotal tracks pincode lookups by result
var LookupsTotal = promauto.With(Registry).NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "pincode_lookups_total",
		Help:      "Total number of pincode lookups",
	},
	[]string{"result"}, // result: hit|miss
)

// Init initializes the metrics registry and sets version information
func Init(version, commit, buildDate string) {
	// Register default Go metrics (memory, goroutines, GC, etc.)
	Registry.MustRegister(collectors.NewGoCollector())

	// Register process metrics (CPU, memory, file descriptors)
	Registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	// Set application version info (value is always 1, info is in labels)
	AppInfo.WithLabelValues(version, commit, buildDate).Set(1)
}
