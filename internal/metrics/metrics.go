package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics wraps Prometheus collectors for container-sentinel.
type Metrics struct {
	registry                  *prometheus.Registry
	cycleDurationSeconds      prometheus.Histogram
	containersTotal           *prometheus.GaugeVec
	alertsTotal               *prometheus.CounterVec
	engineErrorsTotal         prometheus.Counter
	notificationFailuresTotal *prometheus.CounterVec
	cyclePanicsTotal          prometheus.Counter
	lastSuccessfulCycleGauge  prometheus.Gauge
}

// New initializes a Metrics registry with all collectors registered.
func New() *Metrics {
	registry := prometheus.NewRegistry()
	m := &Metrics{
		registry: registry,
		cycleDurationSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "container_sentinel_cycle_duration_seconds",
			Help:    "Duration of poll cycles in seconds.",
			Buckets: prometheus.DefBuckets,
		}),
		containersTotal: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "container_sentinel_containers_total",
			Help: "Containers observed in the last cycle by status.",
		}, []string{"status"}),
		alertsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "container_sentinel_alerts_total",
			Help: "Total alerts dispatched by classification.",
		}, []string{"classification"}),
		engineErrorsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "container_sentinel_engine_errors_total",
			Help: "Total cycles skipped because the engine was unavailable.",
		}),
		notificationFailuresTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "container_sentinel_notification_failures_total",
			Help: "Total failed notification deliveries by backend.",
		}, []string{"backend"}),
		cyclePanicsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "container_sentinel_cycle_panics_total",
			Help: "Total panics recovered at the cycle boundary.",
		}),
		lastSuccessfulCycleGauge: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "container_sentinel_last_successful_cycle_timestamp",
			Help: "Unix timestamp of the last successful cycle.",
		}),
	}

	registry.MustRegister(
		m.cycleDurationSeconds,
		m.containersTotal,
		m.alertsTotal,
		m.engineErrorsTotal,
		m.notificationFailuresTotal,
		m.cyclePanicsTotal,
		m.lastSuccessfulCycleGauge,
	)

	return m
}

// Handler returns a Prometheus HTTP handler for this registry.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveCycleDuration records the duration of a completed cycle.
func (m *Metrics) ObserveCycleDuration(duration time.Duration) {
	if m == nil {
		return
	}
	m.cycleDurationSeconds.Observe(duration.Seconds())
}

// SetContainersByStatus replaces the containers gauge with the given counts.
// Statuses missing from counts drop out of the series.
func (m *Metrics) SetContainersByStatus(counts map[string]int) {
	if m == nil {
		return
	}
	m.containersTotal.Reset()
	for status, value := range counts {
		m.containersTotal.WithLabelValues(status).Set(float64(value))
	}
}

// IncAlertsTotal increments the alerts counter for the given classification.
func (m *Metrics) IncAlertsTotal(classification string) {
	if m == nil {
		return
	}
	m.alertsTotal.WithLabelValues(classification).Inc()
}

// IncEngineErrors increments the engine error counter.
func (m *Metrics) IncEngineErrors() {
	if m == nil {
		return
	}
	m.engineErrorsTotal.Inc()
}

// IncNotificationFailures increments the failure counter for a backend.
func (m *Metrics) IncNotificationFailures(backend string) {
	if m == nil {
		return
	}
	m.notificationFailuresTotal.WithLabelValues(backend).Inc()
}

// IncCyclePanics increments the recovered panic counter.
func (m *Metrics) IncCyclePanics() {
	if m == nil {
		return
	}
	m.cyclePanicsTotal.Inc()
}

// SetLastSuccessfulCycleTimestamp sets the last successful cycle time.
func (m *Metrics) SetLastSuccessfulCycleTimestamp(t time.Time) {
	if m == nil {
		return
	}
	m.lastSuccessfulCycleGauge.Set(float64(t.Unix()))
}
