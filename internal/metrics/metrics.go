package metrics

import (
	"regexp"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var idRegex = regexp.MustCompile(`[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}`)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestsInFlight = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
		[]string{"method"},
	)

	RendersTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "clipforge_renders_total",
			Help: "Total render jobs by terminal status",
		},
		[]string{"status"},
	)

	RenderDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "clipforge_render_duration_seconds",
			Help:    "Render job duration in seconds by pipeline stage",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600, 1800},
		},
		[]string{"stage"},
	)

	RenderFailuresByKind = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "clipforge_render_failures_total",
			Help: "Render failures by fault kind",
		},
		[]string{"kind"},
	)

	NormalizeCacheTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "clipforge_normalize_cache_total",
			Help: "Normalization cache lookups by outcome",
		},
		[]string{"outcome"},
	)

	CompositionsCleanedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "clipforge_compositions_cleaned_total",
			Help: "Expired composition records removed by the cleanup job",
		},
		[]string{"status"},
	)

	JobsEnqueuedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jobs_enqueued_total",
			Help: "Total number of jobs enqueued",
		},
		[]string{"type", "queue"},
	)

	JobsProcessedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jobs_processed_total",
			Help: "Total number of jobs processed",
		},
		[]string{"type", "status"},
	)

	StorageOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storage_operations_total",
			Help: "Total number of storage operations",
		},
		[]string{"operation", "status"},
	)

	StorageOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "storage_operation_duration_seconds",
			Help:    "Duration of storage operations in seconds",
			Buckets: []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		},
		[]string{"operation"},
	)

	WebSocketClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "clipforge_websocket_clients",
			Help: "Currently connected WebSocket subscribers",
		},
	)

	WorkerPoolSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "worker_pool_size",
			Help: "Size of the worker pool",
		},
	)

	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "app_info",
			Help: "Application information",
		},
		[]string{"version", "environment", "service"},
	)

	AppUp = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "app_up",
			Help: "Application is up and running",
		},
	)
)

// NormalizePath collapses resource ids so path labels stay low-cardinality.
func NormalizePath(path string) string {
	return idRegex.ReplaceAllString(path, ":id")
}

func RecordCompositionCleaned(status string) {
	CompositionsCleanedTotal.WithLabelValues(status).Inc()
}

func RecordJobEnqueued(jobType, queue string) {
	JobsEnqueuedTotal.WithLabelValues(jobType, queue).Inc()
}

func RecordJobProcessed(jobType, status string) {
	JobsProcessedTotal.WithLabelValues(jobType, status).Inc()
}

func RecordRender(status string) {
	RendersTotal.WithLabelValues(status).Inc()
}

func RecordRenderStage(stage string, durationSeconds float64) {
	RenderDuration.WithLabelValues(stage).Observe(durationSeconds)
}

func RecordRenderFailure(kind string) {
	RenderFailuresByKind.WithLabelValues(kind).Inc()
}

func RecordNormalizeCache(hit bool) {
	outcome := "miss"
	if hit {
		outcome = "hit"
	}
	NormalizeCacheTotal.WithLabelValues(outcome).Inc()
}

func SetAppInfo(version, environment, service string) {
	AppInfo.WithLabelValues(version, environment, service).Set(1)
	AppUp.Set(1)
}

func SetWorkerPoolSize(size int) {
	WorkerPoolSize.Set(float64(size))
}
