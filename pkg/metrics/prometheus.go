// Package metrics provides Prometheus metrics for the gitstart analysis service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for the gitstart service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// Pipeline Metrics - what the service is for
	analyzeTotal          *prometheus.CounterVec
	analyzeLatency        prometheus.Histogram
	pipelinePartial       prometheus.Counter
	unscoredSubjects      prometheus.Counter
	recommendations       *prometheus.CounterVec
	recommendationLatency prometheus.Histogram
	lowConfidenceItems    prometheus.Counter
	warmRequests          prometheus.Counter
	warmDuplicates        prometheus.Counter

	// Score Cache Metrics
	cacheHits          prometheus.Counter
	cacheMisses        prometheus.Counter
	cacheJoins         prometheus.Counter
	cacheInflight      prometheus.Gauge
	cacheWrites        *prometheus.CounterVec
	cacheInvalidations prometheus.Counter
	cacheStoreErrors   *prometheus.CounterVec

	// Adapter Metrics - per scorer
	adapterLatency    *prometheus.HistogramVec
	adapterFailures   *prometheus.CounterVec
	adapterRetries    *prometheus.CounterVec
	inferenceRequests *prometheus.CounterVec

	// Operational Health Metrics
	queueSize   prometheus.Gauge
	workerCount prometheus.Gauge

	// HTTP Performance Metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Queue Metrics
	queueCapacity          prometheus.Gauge
	queueUtilization       prometheus.Gauge
	queueEnqueueRate       prometheus.Counter
	queueDequeueRate       prometheus.Counter
	queueEnqueueErrors     prometheus.Counter
	queueProcessingLatency prometheus.Histogram

	// Worker Metrics
	workerActiveCount       prometheus.Gauge
	workerProcessingLatency prometheus.Histogram
	workerErrorRate         prometheus.Counter

	// Error Metrics
	errorRateByComponent *prometheus.CounterVec
	errorRateByEndpoint  *prometheus.CounterVec

	// System Performance Metrics
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
		namespace:        "gitstart",
		subsystem:        "pipeline",
		histogramBuckets: []float64{0.5, 1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000},
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

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // long function required for comprehensive metrics initialization
	// Pipeline Metrics
	m.analyzeTotal = m.counterVec("analyze_total", "Total number of analyze calls by subject kind and outcome", "kind", "outcome")
	m.analyzeLatency = m.histogram("analyze_latency_milliseconds", "Analyze latency in milliseconds including cache lookup", m.histogramBuckets)
	m.pipelinePartial = m.counter("partial_responses_total", "Responses returned with at least one unscored subject")
	m.unscoredSubjects = m.counter("unscored_subjects_total", "Subjects without a score when the pipeline deadline expired or analysis failed")
	m.recommendations = m.counterVec("recommendations_total", "Total number of recommendation requests by outcome", "outcome")
	m.recommendationLatency = m.histogram("recommendation_latency_milliseconds", "End-to-end recommendation latency in milliseconds", m.histogramBuckets)
	m.lowConfidenceItems = m.counter("low_confidence_items_total", "Recommendation items carrying the low-confidence flag")
	m.warmRequests = m.counter("warm_requests_total", "Issues accepted for cache warming")
	m.warmDuplicates = m.counter("warm_duplicates_total", "Warm requests dropped because the issue was already queued")

	// Score Cache Metrics
	m.cacheHits = m.counter("cache_hits_total", "Score cache lookups served from a live entry")
	m.cacheMisses = m.counter("cache_misses_total", "Score cache lookups that found no live entry")
	m.cacheJoins = m.counter("cache_joins_total", "Callers that joined an in-flight computation instead of starting one")
	m.cacheInflight = m.gauge("cache_inflight", "Computations currently in flight")
	m.cacheWrites = m.counterVec("cache_writes_total", "Entries written to the cache store by completeness", "completeness")
	m.cacheInvalidations = m.counter("cache_invalidations_total", "Explicit cache invalidations")
	m.cacheStoreErrors = m.counterVec("cache_store_errors_total", "Cache store failures by backend and operation", "backend", "op")

	// Adapter Metrics
	m.adapterLatency = m.histogramVec("adapter_latency_milliseconds", "Scorer call latency in milliseconds across all attempts", "scorer", "outcome")
	m.adapterFailures = m.counterVec("adapter_failures_total", "Scorer failures after retries by error kind", "scorer", "kind")
	m.adapterRetries = m.counterVec("adapter_retries_total", "Scorer attempts retried after a transient failure", "scorer")
	m.inferenceRequests = m.counterVec("inference_requests_total", "Inference service requests by status class", "status")

	// Operational Health Metrics
	m.queueSize = m.gauge("queue_size", "Current size of the warm queue (backlog indicator)")
	m.workerCount = m.gauge("worker_count", "Current number of warm workers (processing capacity)")

	// HTTP Performance Metrics
	m.httpRequests = m.counterVec("http_requests_total", "Total number of HTTP requests by endpoint and method", "endpoint", "method", "status_code")
	m.httpRequestDuration = m.histogramVec("http_request_duration_milliseconds", "HTTP request duration in milliseconds", "endpoint", "method", "status_code")

	// Queue Metrics
	m.queueCapacity = m.gauge("queue_capacity", "Maximum warm queue capacity")
	m.queueUtilization = m.gauge("queue_utilization_ratio", "Queue utilization ratio (current size / capacity)")
	m.queueEnqueueRate = m.counter("queue_enqueue_total", "Total number of jobs enqueued")
	m.queueDequeueRate = m.counter("queue_dequeue_total", "Total number of jobs dequeued")
	m.queueEnqueueErrors = m.counter("queue_enqueue_errors_total", "Total number of enqueue errors")
	m.queueProcessingLatency = m.histogram("queue_processing_latency_milliseconds", "Enqueue latency in milliseconds", m.histogramBuckets)

	// Worker Metrics
	m.workerActiveCount = m.gauge("worker_active_count", "Number of active workers")
	m.workerProcessingLatency = m.histogram("worker_processing_latency_milliseconds", "Worker processing latency in milliseconds", m.histogramBuckets)
	m.workerErrorRate = m.counter("worker_errors_total", "Total number of worker errors")

	// Error Metrics
	m.errorRateByComponent = m.counterVec("errors_by_component_total", "Total number of errors by component", "component", "error_type")
	m.errorRateByEndpoint = m.counterVec("errors_by_endpoint_total", "Total number of errors by endpoint", "endpoint", "method", "error_type")

	// System Performance Metrics
	m.systemMemoryUsage = m.gauge("system_memory_usage_bytes", "System memory usage in bytes")
	m.systemGoroutineCount = m.gauge("system_goroutine_count", "Number of goroutines")
	m.systemGCPauseTime = m.histogram("system_gc_pause_time_milliseconds", "GC pause time in milliseconds",
		[]float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000})
}

// Pipeline Metrics Functions.

// RecordAnalyze counts one analyze call.
func RecordAnalyze(kind, outcome string) {
	globalManager.analyzeTotal.WithLabelValues(kind, outcome).Inc()
}

// RecordAnalyzeLatency records analyze latency in milliseconds.
func RecordAnalyzeLatency(latencyMs float64) {
	globalManager.analyzeLatency.Observe(latencyMs)
}

// RecordPipelinePartial counts a response marked partial.
func RecordPipelinePartial() {
	globalManager.pipelinePartial.Inc()
}

// RecordUnscored adds n unscored subjects.
func RecordUnscored(n int) {
	globalManager.unscoredSubjects.Add(float64(n))
}

// RecordRecommendation counts a recommendation request by outcome.
func RecordRecommendation(outcome string) {
	globalManager.recommendations.WithLabelValues(outcome).Inc()
}

// RecordRecommendationLatency records recommendation latency in milliseconds.
func RecordRecommendationLatency(latencyMs float64) {
	globalManager.recommendationLatency.Observe(latencyMs)
}

// RecordLowConfidenceItems adds n low-confidence recommendation items.
func RecordLowConfidenceItems(n int) {
	globalManager.lowConfidenceItems.Add(float64(n))
}

// RecordWarmRequest counts an accepted warm request.
func RecordWarmRequest() {
	globalManager.warmRequests.Inc()
}

// RecordWarmDuplicate counts a warm request dropped as a duplicate.
func RecordWarmDuplicate() {
	globalManager.warmDuplicates.Inc()
}

// Score Cache Metrics Functions.

// RecordCacheHit increments the cache hit counter.
func RecordCacheHit() {
	globalManager.cacheHits.Inc()
}

// RecordCacheMiss increments the cache miss counter.
func RecordCacheMiss() {
	globalManager.cacheMisses.Inc()
}

// RecordCacheJoin increments the in-flight join counter.
func RecordCacheJoin() {
	globalManager.cacheJoins.Inc()
}

// UpdateCacheInflight sets the number of in-flight computations.
func UpdateCacheInflight(n int) {
	globalManager.cacheInflight.Set(float64(n))
}

// RecordCacheWrite counts a stored entry.
func RecordCacheWrite(partial bool) {
	completeness := "complete"
	if partial {
		completeness = "partial"
	}
	globalManager.cacheWrites.WithLabelValues(completeness).Inc()
}

// RecordCacheInvalidation counts an explicit invalidation.
func RecordCacheInvalidation() {
	globalManager.cacheInvalidations.Inc()
}

// RecordCacheStoreError counts a failed store operation.
func RecordCacheStoreError(backend, op string) {
	globalManager.cacheStoreErrors.WithLabelValues(backend, op).Inc()
}

// Adapter Metrics Functions.

// RecordAdapterLatency records the latency of one scorer call.
func RecordAdapterLatency(scorer, outcome string, latencyMs float64) {
	globalManager.adapterLatency.WithLabelValues(scorer, outcome).Observe(latencyMs)
}

// RecordAdapterFailure counts a scorer failure after retries.
func RecordAdapterFailure(scorer, kind string) {
	globalManager.adapterFailures.WithLabelValues(scorer, kind).Inc()
}

// RecordAdapterRetry counts a retried attempt.
func RecordAdapterRetry(scorer string) {
	globalManager.adapterRetries.WithLabelValues(scorer).Inc()
}

// RecordInferenceRequest counts an inference request by status class.
func RecordInferenceRequest(status string) {
	globalManager.inferenceRequests.WithLabelValues(status).Inc()
}

// Operational Health Metrics Functions.

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

// Queue Metrics Functions.

// UpdateQueueCapacity sets the maximum queue capacity.
func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

// UpdateQueueUtilization sets the queue utilization ratio.
func UpdateQueueUtilization(utilization float64) {
	globalManager.queueUtilization.Set(utilization)
}

// RecordQueueEnqueue increments the enqueue counter.
func RecordQueueEnqueue() {
	globalManager.queueEnqueueRate.Inc()
}

// RecordQueueDequeue increments the dequeue counter.
func RecordQueueDequeue() {
	globalManager.queueDequeueRate.Inc()
}

// RecordQueueEnqueueError increments the enqueue error counter.
func RecordQueueEnqueueError() {
	globalManager.queueEnqueueErrors.Inc()
}

// RecordQueueProcessingLatency records queue processing latency.
func RecordQueueProcessingLatency(latencyMs float64) {
	globalManager.queueProcessingLatency.Observe(latencyMs)
}

// Worker Metrics Functions.

// UpdateWorkerActiveCount sets the number of active workers.
func UpdateWorkerActiveCount(count int) {
	globalManager.workerActiveCount.Set(float64(count))
}

// RecordWorkerProcessingLatency records worker processing latency.
func RecordWorkerProcessingLatency(latencyMs float64) {
	globalManager.workerProcessingLatency.Observe(latencyMs)
}

// RecordWorkerError increments the worker error counter.
func RecordWorkerError() {
	globalManager.workerErrorRate.Inc()
}

// Error Metrics Functions.

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorRateByComponent.WithLabelValues(component, errorType).Inc()
}

// RecordErrorByEndpoint records an error with endpoint, method, and error type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// System Performance Metrics Functions.

// UpdateSystemMemoryUsage sets the system memory usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// RecordSystemGCPauseTime records GC pause time in milliseconds.
func RecordSystemGCPauseTime(pauseMs float64) {
	globalManager.systemGCPauseTime.Observe(pauseMs)
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
