// Package metrics provides Prometheus metrics for the fairval valuation service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Manager manages all Prometheus metrics for the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	registry         prometheus.Registerer

	// Ingestion metrics
	guessesSubmitted  prometheus.Counter
	guessesDuplicate  prometheus.Counter
	guessesMemeFlags  prometheus.Counter
	salesRecorded     prometheus.Counter
	submissionsFailed *prometheus.CounterVec

	// Engine metrics
	fmvComputations       prometheus.Counter
	fmvComputeLatency     prometheus.Histogram
	karmaComputations     prometheus.Counter
	karmaComputeLatency   prometheus.Histogram
	karmaBoardUpdates     prometheus.Counter
	reputationRefreshRuns prometheus.Counter

	// Queue metrics
	queueSize          prometheus.Gauge
	queueCapacity      prometheus.Gauge
	queueEnqueues      prometheus.Counter
	queueEnqueueErrors *prometheus.CounterVec

	// Worker metrics
	workerCount             prometheus.Gauge
	workerErrors            prometheus.Counter
	workerProcessingLatency prometheus.Histogram

	// Store metrics
	trackedProperties prometheus.Gauge
	trackedUsers      prometheus.Gauge

	// HTTP metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// System metrics
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
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
		namespace:        "fairval",
		subsystem:        "engine",
		histogramBuckets: prometheus.DefBuckets,
		enabled:          true,
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) counter(name, help string) prometheus.Counter {
	c := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
	})
	m.registry.MustRegister(c)
	return c
}

func (m *Manager) counterVec(name, help string, labels []string) *prometheus.CounterVec {
	c := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
	}, labels)
	m.registry.MustRegister(c)
	return c
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	g := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
	})
	m.registry.MustRegister(g)
	return g
}

func (m *Manager) histogram(name, help string) prometheus.Histogram {
	h := prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
		Buckets: m.histogramBuckets,
	})
	m.registry.MustRegister(h)
	return h
}

func (m *Manager) histogramVec(name, help string, labels []string) *prometheus.HistogramVec {
	h := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
		Buckets: m.histogramBuckets,
	}, labels)
	m.registry.MustRegister(h)
	return h
}

func (m *Manager) initializeMetrics() {
	if !m.enabled {
		return
	}

	m.guessesSubmitted = m.counter("guesses_submitted_total", "Price guesses accepted for processing")
	m.guessesDuplicate = m.counter("guesses_duplicate_total", "Duplicate guess submissions rejected by idempotency")
	m.guessesMemeFlags = m.counter("guesses_meme_flagged_total", "Guesses flagged as meme at submission time")
	m.salesRecorded = m.counter("sales_recorded_total", "Sale events recorded")
	m.submissionsFailed = m.counterVec("submissions_failed_total", "Submissions that failed processing", []string{"kind", "reason"})

	m.fmvComputations = m.counter("fmv_computations_total", "Consensus valuations computed")
	m.fmvComputeLatency = m.histogram("fmv_compute_latency_ms", "FMV computation latency in milliseconds")
	m.karmaComputations = m.counter("karma_computations_total", "Reputation aggregations computed")
	m.karmaComputeLatency = m.histogram("karma_compute_latency_ms", "Reputation computation latency in milliseconds")
	m.karmaBoardUpdates = m.counter("karma_board_updates_total", "Karma leaderboard score updates")
	m.reputationRefreshRuns = m.counter("reputation_refresh_runs_total", "Scheduled full reputation refreshes")

	m.queueSize = m.gauge("queue_size", "Current number of queued submissions")
	m.queueCapacity = m.gauge("queue_capacity", "Configured submission queue capacity")
	m.queueEnqueues = m.counter("queue_enqueue_total", "Successful queue enqueues")
	m.queueEnqueueErrors = m.counterVec("queue_enqueue_errors_total", "Failed queue enqueues", []string{"reason"})

	m.workerCount = m.gauge("worker_count", "Number of running workers")
	m.workerErrors = m.counter("worker_errors_total", "Worker processing errors")
	m.workerProcessingLatency = m.histogram("worker_processing_latency_ms", "Per-submission worker latency in milliseconds")

	m.trackedProperties = m.gauge("tracked_properties", "Properties known to the store")
	m.trackedUsers = m.gauge("tracked_users", "Users known to the karma board")

	m.httpRequests = m.counterVec("http_requests_total", "HTTP requests", []string{"endpoint", "method", "status"})
	m.httpRequestDuration = m.histogramVec("http_request_duration_ms", "HTTP request duration in milliseconds", []string{"endpoint", "method"})

	m.systemMemoryUsage = m.gauge("system_memory_bytes", "Heap in use")
	m.systemGoroutineCount = m.gauge("system_goroutines", "Current goroutine count")
}

// Package-level recording helpers, routed through the global manager.

func RecordGuessSubmitted() {
	if globalManager.enabled {
		globalManager.guessesSubmitted.Inc()
	}
}

func RecordGuessDuplicate() {
	if globalManager.enabled {
		globalManager.guessesDuplicate.Inc()
	}
}

func RecordMemeGuess() {
	if globalManager.enabled {
		globalManager.guessesMemeFlags.Inc()
	}
}

func RecordSaleRecorded() {
	if globalManager.enabled {
		globalManager.salesRecorded.Inc()
	}
}

func RecordSubmissionFailed(kind, reason string) {
	if globalManager.enabled {
		globalManager.submissionsFailed.WithLabelValues(kind, reason).Inc()
	}
}

func RecordFMVComputation(latencyMs float64) {
	if globalManager.enabled {
		globalManager.fmvComputations.Inc()
		globalManager.fmvComputeLatency.Observe(latencyMs)
	}
}

func RecordKarmaComputation(latencyMs float64) {
	if globalManager.enabled {
		globalManager.karmaComputations.Inc()
		globalManager.karmaComputeLatency.Observe(latencyMs)
	}
}

func RecordKarmaBoardUpdate() {
	if globalManager.enabled {
		globalManager.karmaBoardUpdates.Inc()
	}
}

func RecordReputationRefresh() {
	if globalManager.enabled {
		globalManager.reputationRefreshRuns.Inc()
	}
}

func UpdateQueueSize(size int) {
	if globalManager.enabled {
		globalManager.queueSize.Set(float64(size))
	}
}

func UpdateQueueCapacity(capacity int) {
	if globalManager.enabled {
		globalManager.queueCapacity.Set(float64(capacity))
	}
}

func RecordQueueEnqueue() {
	if globalManager.enabled {
		globalManager.queueEnqueues.Inc()
	}
}

func RecordQueueEnqueueError(reason string) {
	if globalManager.enabled {
		globalManager.queueEnqueueErrors.WithLabelValues(reason).Inc()
	}
}

func UpdateWorkerCount(count int) {
	if globalManager.enabled {
		globalManager.workerCount.Set(float64(count))
	}
}

func RecordWorkerError() {
	if globalManager.enabled {
		globalManager.workerErrors.Inc()
	}
}

func RecordWorkerProcessingLatency(latencyMs float64) {
	if globalManager.enabled {
		globalManager.workerProcessingLatency.Observe(latencyMs)
	}
}

func UpdateTrackedProperties(count int) {
	if globalManager.enabled {
		globalManager.trackedProperties.Set(float64(count))
	}
}

func UpdateTrackedUsers(count int) {
	if globalManager.enabled {
		globalManager.trackedUsers.Set(float64(count))
	}
}

func RecordHTTPRequest(endpoint, method, status string) {
	if globalManager.enabled {
		globalManager.httpRequests.WithLabelValues(endpoint, method, status).Inc()
	}
}

func RecordHTTPRequestDuration(endpoint, method string, durationMs float64) {
	if globalManager.enabled {
		globalManager.httpRequestDuration.WithLabelValues(endpoint, method).Observe(durationMs)
	}
}

func UpdateSystemMemoryUsage(bytes uint64) {
	if globalManager.enabled {
		globalManager.systemMemoryUsage.Set(float64(bytes))
	}
}

func UpdateSystemGoroutineCount(count int) {
	if globalManager.enabled {
		globalManager.systemGoroutineCount.Set(float64(count))
	}
}

// GetRegistry returns the custom registry backing the global manager,
// for serving /metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
