// Package metrics provides Prometheus metrics for the songleague engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Cache lookup outcomes used as the "result" label.
const (
	CacheHit   = "hit"
	CacheMiss  = "miss"
	CacheError = "error"
)

// Manager manages all Prometheus metrics for the songleague engine.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// Engine
	reportsComputed    prometheus.Counter
	reportLatency      prometheus.Histogram
	tableLatency       *prometheus.HistogramVec
	pagerankIterations prometheus.Histogram
	undefinedValues    *prometheus.CounterVec

	// Collaborators
	cacheRequests *prometheus.CounterVec
	loaderErrors  *prometheus.CounterVec
	leaguesStored prometheus.Gauge

	// Batch preprocessing
	jobsProcessed prometheus.Counter
	jobsFailed    prometheus.Counter
	jobsDuplicate prometheus.Counter
	queueSize     prometheus.Gauge
	workerCount   prometheus.Gauge

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	httpErrors          *prometheus.CounterVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "songleague",
		subsystem:        "engine",
		histogramBuckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 25, 50, 100, 250, 500, 1000, 2500},
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) counter(name, help string) prometheus.Counter {
	return promauto.With(m.registry).NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      name,
		Help:      help,
	})
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      name,
		Help:      help,
	}, labels)
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      name,
		Help:      help,
	})
}

func (m *Manager) histogram(name, help string, buckets []float64) prometheus.Histogram {
	return promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      name,
		Help:      help,
		Buckets:   buckets,
	})
}

func (m *Manager) histogramVec(name, help string, labels ...string) *prometheus.HistogramVec {
	return promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      name,
		Help:      help,
		Buckets:   m.histogramBuckets,
	}, labels)
}

func (m *Manager) initializeMetrics() {
	m.reportsComputed = m.counter("reports_computed_total",
		"Total number of league reports computed from scratch")
	m.reportLatency = m.histogram("report_latency_milliseconds",
		"Time to compute a full league report in milliseconds", m.histogramBuckets)
	m.tableLatency = m.histogramVec("table_latency_milliseconds",
		"Time to compute one report table in milliseconds", "table")
	m.pagerankIterations = m.histogram("pagerank_iterations",
		"Power iterations used by PageRank until convergence",
		[]float64{5, 10, 20, 30, 50, 75, 100})
	m.undefinedValues = m.counterVec("undefined_values_total",
		"Metric values reported as undefined sentinels", "metric")

	m.cacheRequests = m.counterVec("cache_requests_total",
		"Report cache lookups by result", "result")
	m.loaderErrors = m.counterVec("loader_errors_total",
		"Errors raised while loading league data", "stage")
	m.leaguesStored = m.gauge("leagues_stored",
		"Number of league reports held in memory")

	m.jobsProcessed = m.counter("jobs_processed_total",
		"Total number of preprocessing jobs completed")
	m.jobsFailed = m.counter("jobs_failed_total",
		"Total number of preprocessing jobs that failed")
	m.jobsDuplicate = m.counter("jobs_duplicate_total",
		"Preprocessing jobs dropped because the league was already queued")
	m.queueSize = m.gauge("queue_size",
		"Current number of queued preprocessing jobs")
	m.workerCount = m.gauge("worker_count",
		"Current number of preprocessing workers")

	m.httpRequests = m.counterVec("http_requests_total",
		"Total number of HTTP requests by endpoint and method",
		"endpoint", "method", "status_code")
	m.httpRequestDuration = m.histogramVec("http_request_duration_milliseconds",
		"HTTP request duration in milliseconds",
		"endpoint", "method", "status_code")
	m.httpErrors = m.counterVec("http_errors_total",
		"HTTP responses with an error status by endpoint and error type",
		"endpoint", "method", "type")

	m.systemMemoryUsage = m.gauge("system_memory_bytes",
		"Heap bytes allocated by the process")
	m.systemGoroutineCount = m.gauge("system_goroutines",
		"Current number of goroutines")
	m.systemGCPauseTime = m.histogram("system_gc_pause_milliseconds",
		"Average GC pause time in milliseconds",
		[]float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 50})
}

// RecordReportComputed increments the computed reports counter.
func RecordReportComputed() {
	globalManager.reportsComputed.Inc()
}

// RecordReportLatency records full report latency in milliseconds.
func RecordReportLatency(latencyMs float64) {
	globalManager.reportLatency.Observe(latencyMs)
}

// RecordTableLatency records the latency of one report table.
func RecordTableLatency(table string, latencyMs float64) {
	globalManager.tableLatency.WithLabelValues(table).Observe(latencyMs)
}

// RecordPageRankIterations records how many iterations PageRank needed.
func RecordPageRankIterations(n int) {
	globalManager.pagerankIterations.Observe(float64(n))
}

// RecordUndefined adds n undefined values of the given metric.
func RecordUndefined(metric string, n int) {
	if n <= 0 {
		return
	}
	globalManager.undefinedValues.WithLabelValues(metric).Add(float64(n))
}

// RecordCacheResult counts a cache lookup with one of CacheHit, CacheMiss or
// CacheError.
func RecordCacheResult(result string) {
	globalManager.cacheRequests.WithLabelValues(result).Inc()
}

// RecordLoaderError counts a failure in the given loader stage.
func RecordLoaderError(stage string) {
	globalManager.loaderErrors.WithLabelValues(stage).Inc()
}

// UpdateLeaguesStored sets the number of reports held in memory.
func UpdateLeaguesStored(count int) {
	globalManager.leaguesStored.Set(float64(count))
}

// RecordJobProcessed increments the completed jobs counter.
func RecordJobProcessed() {
	globalManager.jobsProcessed.Inc()
}

// RecordJobFailed increments the failed jobs counter.
func RecordJobFailed() {
	globalManager.jobsFailed.Inc()
}

// RecordJobDuplicate increments the duplicate jobs counter.
func RecordJobDuplicate() {
	globalManager.jobsDuplicate.Inc()
}

// UpdateQueueSize sets the current queue size.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// UpdateWorkerCount sets the current worker count.
func UpdateWorkerCount(count int) {
	globalManager.workerCount.Set(float64(count))
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordHTTPError counts an HTTP error response.
func RecordHTTPError(endpoint, method, errorType string) {
	globalManager.httpErrors.WithLabelValues(endpoint, method, errorType).Inc()
}

// UpdateSystemMemoryUsage sets the allocated heap size.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the goroutine count.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// RecordSystemGCPauseTime records the average GC pause.
func RecordSystemGCPauseTime(pauseMs float64) {
	globalManager.systemGCPauseTime.Observe(pauseMs)
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
