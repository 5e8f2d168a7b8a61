package models

// HeartbeatReport is the body posted to the heartbeat endpoint.
type HeartbeatReport struct {
	AgentID string           `json:"agent_id"`
	Status  string           `json:"status"`
	Metrics HeartbeatMetrics `json:"metrics"`
}

// HeartbeatMetrics is the metrics object inside a HeartbeatReport.
type HeartbeatMetrics struct {
	CPUUsage    int `json:"cpu_usage"`
	MemoryUsage int `json:"memory_usage"`
	UptimeHours int `json:"uptime_hours"`
	LatencyMs   int `json:"latency_ms"`
}

// HeartbeatResponse is returned by the heartbeat endpoint on success.
type HeartbeatResponse struct {
	Message string  `json:"message,omitempty"`
	Status  string  `json:"status,omitempty"`
	Policy  *Policy `json:"policy,omitempty"`
}

// NewHeartbeatReport composes the outbound report for one cycle.
func NewHeartbeatReport(agentID string, gateway GatewayHealth, snapshot MetricSnapshot) HeartbeatReport {
	return HeartbeatReport{
		AgentID: agentID,
		Status:  gateway.Status,
		Metrics: HeartbeatMetrics{
			CPUUsage:    snapshot.CPUUsage,
			MemoryUsage: snapshot.MemoryUsage,
			UptimeHours: snapshot.UptimeHours,
			LatencyMs:   gateway.LatencyMs,
		},
	}
}
