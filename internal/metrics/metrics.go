// Package metrics exposes Prometheus instrumentation for the monitor.
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/user/netguard/internal/model"
)

const namespace = "netguard"

// Metrics holds the collectors of one monitoring process. A nil *Metrics
// is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	ticks         prometheus.Counter
	events        *prometheus.CounterVec
	promotions    prometheus.Counter
	fetchFailures *prometheus.CounterVec
	active        prometheus.Gauge
	bufferSize    prometheus.Gauge
}

// New creates the collectors and registers them on a private registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		ticks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ticks_total",
			Help:      "Generator ticks processed.",
		}),
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_generated_total",
			Help:      "Synthetic traffic events generated, by verdict.",
		}, []string{"malicious"}),
		promotions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "alerts_promoted_total",
			Help:      "Events promoted into the alert list.",
		}),
		fetchFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetch_failures_total",
			Help:      "Failed upstream API calls, by endpoint.",
		}, []string{"endpoint"}),
		active: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "monitoring_active",
			Help:      "1 while the monitoring session is active.",
		}),
		bufferSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "buffer_events",
			Help:      "Events currently held in the rolling buffer.",
		}),
	}

	m.registry.MustRegister(
		m.ticks, m.events, m.promotions, m.fetchFailures, m.active, m.bufferSize,
		prometheus.NewGoCollector(),
	)
	return m
}

// Registry returns the registry backing these metrics.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ObserveTick records one generated event and the resulting buffer size.
func (m *Metrics) ObserveTick(ev model.TrafficEvent, bufferLen int) {
	if m == nil {
		return
	}
	m.ticks.Inc()
	m.events.WithLabelValues(strconv.FormatBool(ev.IsMalicious)).Inc()
	m.bufferSize.Set(float64(bufferLen))
}

// ObservePromotion records one alert promotion.
func (m *Metrics) ObservePromotion() {
	if m == nil {
		return
	}
	m.promotions.Inc()
}

// ObserveFetchFailure records a failed call to endpoint.
func (m *Metrics) ObserveFetchFailure(endpoint string) {
	if m == nil {
		return
	}
	m.fetchFailures.WithLabelValues(endpoint).Inc()
}

// SetActive records the session state.
func (m *Metrics) SetActive(active bool) {
	if m == nil {
		return
	}
	if active {
		m.active.Set(1)
	} else {
		m.active.Set(0)
	}
}

// SetBufferSize records the buffer length after a refresh.
func (m *Metrics) SetBufferSize(n int) {
	if m == nil {
		return
	}
	m.bufferSize.Set(float64(n))
}
