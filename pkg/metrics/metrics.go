// Package metrics provides Prometheus metrics for the scoretable service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns all Prometheus metrics for the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// Event log metrics.
	eventsAppended  prometheus.Counter
	eventsDuplicate prometheus.Counter
	eventsRejected  prometheus.Counter
	eventsStored    prometheus.Gauge
	streamCount     prometheus.Gauge

	// Replay pipeline metrics.
	replays       prometheus.Counter
	replayErrors  prometheus.Counter
	replayLatency prometheus.Histogram
	queueSize     prometheus.Gauge
	queueCapacity prometheus.Gauge
	queueDropped  prometheus.Counter
	workerCount   prometheus.Gauge

	// Live feed metrics.
	liveClients prometheus.Gauge
	framesSent  prometheus.Counter

	// HTTP metrics.
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
}

// Option applies a configuration option to the Manager.
type Option func(*Manager)

// WithNamespace sets the metrics namespace.
func WithNamespace(ns string) Option {
	return func(m *Manager) {
		if ns != "" {
			m.namespace = ns
		}
	}
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(sub string) Option {
	return func(m *Manager) {
		if sub != "" {
			m.subsystem = sub
		}
	}
}

// WithHistogramBuckets sets the latency histogram buckets.
func WithHistogramBuckets(buckets []float64) Option {
	return func(m *Manager) {
		if len(buckets) > 0 {
			m.histogramBuckets = buckets
		}
	}
}

// WithRegistry sets the Prometheus registerer.
func WithRegistry(r prometheus.Registerer) Option {
	return func(m *Manager) {
		if r != nil {
			m.registry = r
		}
	}
}

// Global manager on a custom registry, keeping default Go collectors out.
var (
	customRegistry = prometheus.NewRegistry()
	globalManager  = NewManager(WithRegistry(customRegistry))
)

// NewManager creates a metrics manager and registers its metrics.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "scoretable",
		subsystem:        "match",
		histogramBuckets: prometheus.DefBuckets,
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initialize()
	return m
}

func (m *Manager) initialize() {
	auto := promauto.With(m.registry)

	m.eventsAppended = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "events_appended_total",
		Help:      "Total number of events appended to a match log",
	})
	m.eventsDuplicate = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "events_duplicate_total",
		Help:      "Total number of duplicate event submissions detected",
	})
	m.eventsRejected = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "events_rejected_total",
		Help:      "Total number of event submissions rejected by validation",
	})
	m.eventsStored = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "events_stored",
		Help:      "Current number of events held across all match logs",
	})
	m.streamCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "streams",
		Help:      "Current number of match streams",
	})

	m.replays = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "replays_total",
		Help:      "Total number of snapshot replays completed",
	})
	m.replayErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "replay_errors_total",
		Help:      "Total number of replays that failed",
	})
	m.replayLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "replay_latency_milliseconds",
		Help:      "Histogram of full-log replay latency in milliseconds",
		Buckets:   m.histogramBuckets,
	})
	m.queueSize = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "replay_queue_size",
		Help:      "Current number of queued replay jobs",
	})
	m.queueCapacity = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "replay_queue_capacity",
		Help:      "Configured replay queue capacity",
	})
	m.queueDropped = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "replay_queue_dropped_total",
		Help:      "Total number of replay jobs dropped due to backpressure",
	})
	m.workerCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "replay_workers",
		Help:      "Configured number of replay workers",
	})

	m.liveClients = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "live_clients",
		Help:      "Current number of connected live-feed clients",
	})
	m.framesSent = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "live_frames_sent_total",
		Help:      "Total number of live-feed frames sent",
	})

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests by endpoint, method and status",
	}, []string{"endpoint", "method", "status"})
	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_request_duration_milliseconds",
		Help:      "Histogram of HTTP request duration in milliseconds",
		Buckets:   m.histogramBuckets,
	}, []string{"endpoint", "method", "status"})
}

// GetRegistry returns the registry backing the global manager.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}

// Package-level helpers recording on the global manager.

func RecordEventAppended() { globalManager.eventsAppended.Inc() }

func RecordEventDuplicate() { globalManager.eventsDuplicate.Inc() }

func RecordEventRejected() { globalManager.eventsRejected.Inc() }

func UpdateEventsStored(n int) { globalManager.eventsStored.Set(float64(n)) }

func UpdateStreamCount(n int) { globalManager.streamCount.Set(float64(n)) }

func RecordReplay() { globalManager.replays.Inc() }

func RecordReplayError() { globalManager.replayErrors.Inc() }

func RecordReplayLatency(ms float64) { globalManager.replayLatency.Observe(ms) }

func UpdateQueueSize(n int) { globalManager.queueSize.Set(float64(n)) }

func UpdateQueueCapacity(n int) { globalManager.queueCapacity.Set(float64(n)) }

func RecordQueueDropped() { globalManager.queueDropped.Inc() }

func UpdateWorkerCount(n int) { globalManager.workerCount.Set(float64(n)) }

func UpdateLiveClients(n int) { globalManager.liveClients.Set(float64(n)) }

func RecordFrameSent() { globalManager.framesSent.Inc() }

// RecordHTTPRequest counts one request on an endpoint.
func RecordHTTPRequest(endpoint, method, status string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, status).Inc()
}

// RecordHTTPRequestDuration observes one request's duration.
func RecordHTTPRequestDuration(endpoint, method, status string, ms float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, status).Observe(ms)
}
