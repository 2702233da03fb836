// Package metrics provides Prometheus metrics for the doorlog monitor.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns every collector exposed by the monitor.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      prometheus.Labels
	registry         prometheus.Registerer

	// Tick loop
	ticks        prometheus.Counter
	tickDuration prometheus.Histogram
	runState     prometheus.Gauge

	// Access events
	eventsReceived *prometheus.CounterVec
	eventsRejected *prometheus.CounterVec
	eventsDropped  *prometheus.CounterVec
	bufferSize     prometheus.Gauge
	bufferCapacity prometheus.Gauge

	// Access period
	periodActive   prometheus.Gauge
	periodsStarted prometheus.Counter
	periodsEnded   prometheus.Counter

	// Telemetry store
	recordsAppended  prometheus.Counter
	boundaryMarkers  prometheus.Counter
	storeErrors      *prometheus.CounterVec
	sensorReading    *prometheus.GaugeVec
	publishedTotal   *prometheus.CounterVec
	publishErrors    *prometheus.CounterVec
	accessDecisions  *prometheus.CounterVec
	reportRuns       prometheus.Counter
	reportPeriods    prometheus.Gauge
	reportDurationMs prometheus.Histogram

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	httpErrors          *prometheus.CounterVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
}

var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // metrics registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "doorlog",
		subsystem:        "monitor",
		histogramBuckets: prometheus.DefBuckets,
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
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	})
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	}, labels)
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	})
}

func (m *Manager) histogram(name, help string) prometheus.Histogram {
	return promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
		Buckets: m.histogramBuckets,
	})
}

func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every collector
	m.ticks = m.counter("ticks_total", "Total number of tick loop iterations")
	m.tickDuration = m.histogram("tick_duration_milliseconds", "Time spent inside one tick in milliseconds")
	m.runState = m.gauge("run_state", "Current lifecycle state of the monitor (1=not started .. 6=shutting down)")

	m.eventsReceived = m.counterVec("events_received_total", "Access events accepted from the transport", "channel")
	m.eventsRejected = m.counterVec("events_rejected_total", "Access events dropped because the payload did not parse", "channel", "reason")
	m.eventsDropped = m.counterVec("events_dropped_total", "Access events dropped before reaching the state machine", "reason")
	m.bufferSize = m.gauge("event_buffer_size", "Events waiting to be drained by the tick loop")
	m.bufferCapacity = m.gauge("event_buffer_capacity", "Maximum number of buffered events")

	m.periodActive = m.gauge("period_active", "1 while an access period is active")
	m.periodsStarted = m.counter("periods_started_total", "Enter events applied")
	m.periodsEnded = m.counter("periods_ended_total", "Exit events applied")

	m.recordsAppended = m.counter("records_appended_total", "Telemetry records persisted")
	m.boundaryMarkers = m.counter("boundary_markers_total", "Blank boundary rows persisted")
	m.storeErrors = m.counterVec("store_errors_total", "Telemetry store failures", "op")
	m.sensorReading = promauto.With(m.registry).NewGaugeVec(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: "sensor_reading",
		Help: "Latest simulated sensor value per channel", ConstLabels: m.constLabels,
	}, []string{"channel"})

	m.publishedTotal = m.counterVec("published_total", "Messages published by the door controller", "channel")
	m.publishErrors = m.counterVec("publish_errors_total", "Publish failures by channel", "channel")
	m.accessDecisions = m.counterVec("access_decisions_total", "Door controller decisions", "decision")

	m.reportRuns = m.counter("report_runs_total", "Segmentation runs")
	m.reportPeriods = m.gauge("report_periods", "Access periods found by the latest segmentation run")
	m.reportDurationMs = m.histogram("report_duration_milliseconds", "Segmentation run duration in milliseconds")

	m.httpRequests = m.counterVec("http_requests_total", "HTTP requests by endpoint, method and status", "endpoint", "method", "status_code")
	m.httpRequestDuration = promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: "http_request_duration_milliseconds",
		Help: "HTTP request duration in milliseconds", Buckets: m.histogramBuckets, ConstLabels: m.constLabels,
	}, []string{"endpoint", "method", "status_code"})

	m.httpErrors = m.counterVec("http_errors_total", "HTTP error responses by endpoint, method and error type", "endpoint", "method", "error_type")

	m.systemMemoryUsage = m.gauge("system_memory_bytes", "Heap bytes allocated")
	m.systemGoroutineCount = m.gauge("system_goroutines", "Number of goroutines")
}

// RecordTick counts one tick and its duration.
func RecordTick(durationMs float64) {
	globalManager.ticks.Inc()
	globalManager.tickDuration.Observe(durationMs)
}

// UpdateRunState publishes the lifecycle state ordinal.
func UpdateRunState(state int) {
	globalManager.runState.Set(float64(state))
}

// RecordEventReceived counts an event accepted on channel.
func RecordEventReceived(channel string) {
	globalManager.eventsReceived.WithLabelValues(channel).Inc()
}

// RecordEventRejected counts a payload that failed to parse.
func RecordEventRejected(channel, reason string) {
	globalManager.eventsRejected.WithLabelValues(channel, reason).Inc()
}

// RecordEventDropped counts an event lost before the state machine saw it.
func RecordEventDropped(reason string) {
	globalManager.eventsDropped.WithLabelValues(reason).Inc()
}

// UpdateEventBuffer sets the buffer depth and capacity gauges.
func UpdateEventBuffer(size, capacity int) {
	globalManager.bufferSize.Set(float64(size))
	globalManager.bufferCapacity.Set(float64(capacity))
}

// UpdatePeriodActive flips the active gauge.
func UpdatePeriodActive(active bool) {
	if active {
		globalManager.periodActive.Set(1)
		return
	}
	globalManager.periodActive.Set(0)
}

// RecordPeriodStarted counts an applied enter event.
func RecordPeriodStarted() { globalManager.periodsStarted.Inc() }

// RecordPeriodEnded counts an applied exit event.
func RecordPeriodEnded() { globalManager.periodsEnded.Inc() }

// RecordRecordAppended counts a persisted telemetry row.
func RecordRecordAppended() { globalManager.recordsAppended.Inc() }

// RecordBoundaryMarker counts a persisted blank row.
func RecordBoundaryMarker() { globalManager.boundaryMarkers.Inc() }

// RecordStoreError counts a failed store operation.
func RecordStoreError(op string) {
	globalManager.storeErrors.WithLabelValues(op).Inc()
}

// UpdateSensorReading sets the latest value for a sensor channel.
func UpdateSensorReading(channel string, value float64) {
	globalManager.sensorReading.WithLabelValues(channel).Set(value)
}

// RecordPublished counts a successful publish.
func RecordPublished(channel string) {
	globalManager.publishedTotal.WithLabelValues(channel).Inc()
}

// RecordPublishError counts a failed publish.
func RecordPublishError(channel string) {
	globalManager.publishErrors.WithLabelValues(channel).Inc()
}

// RecordAccessDecision counts a door controller decision (granted, denied, invalid...).
func RecordAccessDecision(decision string) {
	globalManager.accessDecisions.WithLabelValues(decision).Inc()
}

// RecordReportRun records a segmentation run.
func RecordReportRun(periods int, durationMs float64) {
	globalManager.reportRuns.Inc()
	globalManager.reportPeriods.Set(float64(periods))
	globalManager.reportDurationMs.Observe(durationMs)
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordHTTPError counts an error response.
func RecordHTTPError(endpoint, method, errorType string) {
	globalManager.httpErrors.WithLabelValues(endpoint, method, errorType).Inc()
}

// UpdateSystemMemoryUsage sets the heap gauge.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the goroutine gauge.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// GetRegistry returns the registry every package-level collector is registered on.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
