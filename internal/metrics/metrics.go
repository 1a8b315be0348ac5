// Package metrics exposes hub activity as Prometheus metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics implements core.Recorder on top of a private Prometheus registry.
type Metrics struct {
	registry         *prometheus.Registry
	connections      prometheus.Gauge
	connectionsTotal prometheus.Counter
	events           *prometheus.CounterVec
	reactionsApplied prometheus.Counter
	droppedDelivery  prometheus.Counter
	historySize      prometheus.Gauge
}

// New creates and registers the chat metrics along with Go runtime and
// process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		connections: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "nachochat_connections",
			Help: "Number of currently registered connections",
		}),
		connectionsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "nachochat_connections_total",
			Help: "Total number of connections registered",
		}),
		events: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "nachochat_events_total",
				Help: "Inbound payloads by routing outcome and drop reason",
			},
			[]string{"outcome", "reason"},
		),
		reactionsApplied: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "nachochat_reactions_applied_total",
			Help: "Reactions that incremented a retained message's counter",
		}),
		droppedDelivery: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "nachochat_deliveries_dropped_total",
			Help: "Deliveries abandoned because the recipient could not take them",
		}),
		historySize: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "nachochat_history_size",
			Help: "Number of events retained in history",
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.connections,
		m.connectionsTotal,
		m.events,
		m.reactionsApplied,
		m.droppedDelivery,
		m.historySize,
	)
	return m
}

// Handler serves the metrics in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) ClientConnected() {
	m.connections.Inc()
	m.connectionsTotal.Inc()
}

func (m *Metrics) ClientDisconnected() {
	m.connections.Dec()
}

func (m *Metrics) Routed(outcome, reason string) {
	m.events.WithLabelValues(outcome, reason).Inc()
}

func (m *Metrics) ReactionApplied() {
	m.reactionsApplied.Inc()
}

func (m *Metrics) DeliveryDropped() {
	m.droppedDelivery.Inc()
}

func (m *Metrics) HistorySize(n int) {
	m.historySize.Set(float64(n))
}
