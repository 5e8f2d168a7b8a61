package services

import (
	"github.com/benmeehan/fleet-agent/internal/models"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	resultSuccess = "success"
	resultFailure = "failure"
	resultSkipped = "skipped"
)

// AgentMetrics exposes the agent's own activity as Prometheus metrics.
// All methods are no-ops on a nil receiver.
type AgentMetrics struct {
	Handshakes           *prometheus.CounterVec
	Heartbeats           *prometheus.CounterVec
	CycleDuration        prometheus.Histogram
	GatewayLatency       prometheus.Gauge
	CPUUsage             prometheus.Gauge
	MemoryUsage          prometheus.Gauge
	SessionAuthenticated prometheus.Gauge

	gatherer prometheus.Gatherer
}

// NewAgentMetrics registers the agent metrics with reg, or with a private registry when reg is nil.
func NewAgentMetrics(reg *prometheus.Registry) *AgentMetrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	factory := promauto.With(reg)

	return &AgentMetrics{
		Handshakes: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "fleet_agent_handshakes_total",
			Help: "Handshake attempts by result.",
		}, []string{"result"}),

		Heartbeats: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "fleet_agent_heartbeats_total",
			Help: "Heartbeat cycles by result (success, failure, skipped).",
		}, []string{"result"}),

		CycleDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "fleet_agent_cycle_duration_seconds",
			Help:    "Wall-clock duration of heartbeat cycles.",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 20, 30},
		}),

		GatewayLatency: factory.NewGauge(prometheus.GaugeOpts{
			Name: "fleet_agent_gateway_latency_ms",
			Help: "Latency of the last gateway probe in milliseconds.",
		}),

		CPUUsage: factory.NewGauge(prometheus.GaugeOpts{
			Name: "fleet_agent_cpu_usage_percent",
			Help: "Host CPU utilization reported in the last heartbeat.",
		}),

		MemoryUsage: factory.NewGauge(prometheus.GaugeOpts{
			Name: "fleet_agent_memory_usage_percent",
			Help: "Host memory utilization reported in the last heartbeat.",
		}),

		SessionAuthenticated: factory.NewGauge(prometheus.GaugeOpts{
			Name: "fleet_agent_session_authenticated",
			Help: "1 when the agent holds a session token, 0 otherwise.",
		}),

		gatherer: reg,
	}
}

// Gatherer returns the registry the metrics were registered with.
func (m *AgentMetrics) Gatherer() prometheus.Gatherer {
	if m == nil {
		return prometheus.NewRegistry()
	}
	return m.gatherer
}

func (m *AgentMetrics) ObserveHandshake(ok bool) {
	if m == nil {
		return
	}
	if ok {
		m.Handshakes.WithLabelValues(resultSuccess).Inc()
		return
	}
	m.Handshakes.WithLabelValues(resultFailure).Inc()
}

func (m *AgentMetrics) SetAuthenticated(authenticated bool) {
	if m == nil {
		return
	}
	if authenticated {
		m.SessionAuthenticated.Set(1)
		return
	}
	m.SessionAuthenticated.Set(0)
}

// ObserveCycle records the outcome of one heartbeat cycle.
func (m *AgentMetrics) ObserveCycle(result models.CycleResult) {
	if m == nil {
		return
	}
	m.CycleDuration.Observe(result.Duration.Seconds())

	switch {
	case result.Sent:
		m.Heartbeats.WithLabelValues(resultSuccess).Inc()
	case result.Attempts == 0 || result.Gateway.Status == "":
		m.Heartbeats.WithLabelValues(resultSkipped).Inc()
		return
	default:
		m.Heartbeats.WithLabelValues(resultFailure).Inc()
	}

	m.GatewayLatency.Set(float64(result.Gateway.LatencyMs))
	m.CPUUsage.Set(float64(result.Metrics.CPUUsage))
	m.MemoryUsage.Set(float64(result.Metrics.MemoryUsage))
}
