// Package metrics exposes proctoring counters in the Prometheus format.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/JaimeStill/proctor/internal/proctor"
)

// Metrics holds the service collectors on a private registry.
// It implements proctor.Observer.
type Metrics struct {
	registry        *prometheus.Registry
	accepted        *prometheus.CounterVec
	suppressed      *prometheus.CounterVec
	captureFailures *prometheus.CounterVec
	active          prometheus.Gauge
}

// New creates and registers every collector.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		accepted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "proctor_violations_accepted_total",
			Help: "Violations that passed the cooldown gate.",
		}, []string{"kind"}),
		suppressed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "proctor_violations_suppressed_total",
			Help: "Violations dropped by the cooldown gate.",
		}, []string{"kind"}),
		captureFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "proctor_capture_failures_total",
			Help: "Evidence stills that could not be uploaded.",
		}, []string{"kind"}),
		active: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "proctor_active_sessions",
			Help: "Sessions currently being monitored.",
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.accepted,
		m.suppressed,
		m.captureFailures,
		m.active,
	)

	for _, k := range proctor.Kinds() {
		m.accepted.WithLabelValues(string(k))
		m.suppressed.WithLabelValues(string(k))
		m.captureFailures.WithLabelValues(string(k))
	}

	return m
}

// Accepted implements proctor.Observer.
func (m *Metrics) Accepted(kind proctor.Kind) {
	m.accepted.WithLabelValues(string(kind)).Inc()
}

// Suppressed implements proctor.Observer.
func (m *Metrics) Suppressed(kind proctor.Kind) {
	m.suppressed.WithLabelValues(string(kind)).Inc()
}

// CaptureFailed implements proctor.Observer.
func (m *Metrics) CaptureFailed(kind proctor.Kind) {
	m.captureFailures.WithLabelValues(string(kind)).Inc()
}

// ActiveSessions returns the monitored-sessions gauge.
func (m *Metrics) ActiveSessions() prometheus.Gauge {
	return m.active
}

// Handler serves the registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
