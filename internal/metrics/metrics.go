package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics bundles the server's prometheus collectors. A nil *Metrics is
// valid and records nothing, which keeps tests free of registries.
type Metrics struct {
	registry    *prometheus.Registry
	commands    *prometheus.CounterVec
	connections prometheus.Gauge
}

// New creates a self-contained registry with the server collectors.
func New() *Metrics {
	registry := prometheus.NewRegistry()
	commands := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "avatar_commands_total",
			Help: "Processed control commands by overall status.",
		},
		[]string{"status"},
	)
	connections := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "avatar_connections_open",
		Help: "Currently open controller connections.",
	})
	registry.MustRegister(commands, connections)
	return &Metrics{
		registry:    registry,
		commands:    commands,
		connections: connections,
	}
}

// CommandProcessed counts one processed command with its status.
func (m *Metrics) CommandProcessed(status string) {
	if m == nil {
		return
	}
	m.commands.WithLabelValues(status).Inc()
}

// ConnectionOpened bumps the open-connection gauge.
func (m *Metrics) ConnectionOpened() {
	if m == nil {
		return
	}
	m.connections.Inc()
}

// ConnectionClosed drops the open-connection gauge.
func (m *Metrics) ConnectionClosed() {
	if m == nil {
		return
	}
	m.connections.Dec()
}

// Handler serves the registry in the prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
