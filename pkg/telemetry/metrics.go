package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/vango-dev/toyreact/internal/errors"
	"github.com/vango-dev/toyreact/pkg/ui"
)

// MetricsConfig configures the Prometheus collectors.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "toyreact").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are added to every metric.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for operation duration.
	// Default: prometheus.DefBuckets
	Buckets []float64

	// Registry receives the collectors.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// MetricsOption configures the Prometheus collectors.
type MetricsOption func(*MetricsConfig)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Namespace = namespace
	}
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Subsystem = subsystem
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) MetricsOption {
	return func(c *MetricsConfig) {
		c.ConstLabels = labels
	}
}

// WithBuckets sets the histogram buckets.
func WithBuckets(buckets []float64) MetricsOption {
	return func(c *MetricsConfig) {
		c.Buckets = buckets
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) MetricsOption {
	return func(c *MetricsConfig) {
		c.Registry = registry
	}
}

func defaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Namespace: "toyreact",
		Buckets:   prometheus.DefBuckets,
		Registry:  prometheus.DefaultRegisterer,
	}
}

// Metrics collects renderer and preview server metrics:
//   - toyreact_operations_total: operations by op, component and status
//   - toyreact_operation_duration_seconds: operation duration by op
//   - toyreact_operation_errors_total: failed operations by op and error code
//   - toyreact_events_dispatched_total: events delivered by type
//   - toyreact_listeners_invoked_total: listeners run by event type
//   - toyreact_preview_clients: connected live-reload clients
//   - toyreact_snapshots_published_total: uploads by status
type Metrics struct {
	opsTotal         *prometheus.CounterVec
	opDuration       *prometheus.HistogramVec
	opErrors         *prometheus.CounterVec
	eventsTotal      *prometheus.CounterVec
	listenersInvoked *prometheus.CounterVec
	clients          prometheus.Gauge
	published        *prometheus.CounterVec
}

var _ ui.Observer = (*Metrics)(nil)

// NewMetrics registers the collectors and returns them. Registering twice
// with the same registry panics, as promauto does.
func NewMetrics(opts ...MetricsOption) *Metrics {
	config := defaultMetricsConfig()
	for _, opt := range opts {
		opt(&config)
	}
	factory := promauto.With(config.Registry)

	return &Metrics{
		opsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "operations_total",
			Help:        "Total number of render operations",
			ConstLabels: config.ConstLabels,
		}, []string{"op", "component", "status"}),

		opDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "operation_duration_seconds",
			Help:        "Render operation duration in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}, []string{"op"}),

		opErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "operation_errors_total",
			Help:        "Total number of failed render operations by error code",
			ConstLabels: config.ConstLabels,
		}, []string{"op", "code"}),

		eventsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "events_dispatched_total",
			Help:        "Total number of events dispatched into documents",
			ConstLabels: config.ConstLabels,
		}, []string{"type"}),

		listenersInvoked: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "listeners_invoked_total",
			Help:        "Total number of event listeners invoked",
			ConstLabels: config.ConstLabels,
		}, []string{"type"}),

		clients: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "preview_clients",
			Help:        "Number of connected preview clients",
			ConstLabels: config.ConstLabels,
		}),

		published: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "snapshots_published_total",
			Help:        "Total number of snapshot uploads",
			ConstLabels: config.ConstLabels,
		}, []string{"status"}),
	}
}

// Begin implements ui.Observer. The recording methods of a nil *Metrics
// do nothing.
func (m *Metrics) Begin(op ui.Op, component string) func(error) {
	if m == nil {
		return func(error) {}
	}
	start := time.Now()
	return func(err error) {
		m.opDuration.WithLabelValues(string(op)).Observe(time.Since(start).Seconds())
		m.opsTotal.WithLabelValues(string(op), component, status(err)).Inc()
		if err != nil {
			m.opErrors.WithLabelValues(string(op), errorCode(err)).Inc()
		}
	}
}

// RecordDispatch records one dispatched event and the listeners it reached.
func (m *Metrics) RecordDispatch(eventType string, listeners int) {
	if m == nil {
		return
	}
	m.eventsTotal.WithLabelValues(eventType).Inc()
	m.listenersInvoked.WithLabelValues(eventType).Add(float64(listeners))
}

// ClientConnected increments the connected client gauge.
func (m *Metrics) ClientConnected() {
	if m == nil {
		return
	}
	m.clients.Inc()
}

// ClientDisconnected decrements the connected client gauge.
func (m *Metrics) ClientDisconnected() {
	if m == nil {
		return
	}
	m.clients.Dec()
}

// RecordPublish records the outcome of a snapshot upload.
func (m *Metrics) RecordPublish(err error) {
	if m == nil {
		return
	}
	m.published.WithLabelValues(status(err)).Inc()
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

func errorCode(err error) string {
	if code := errors.Code(err); code != "" {
		return code
	}
	return "unknown"
}
