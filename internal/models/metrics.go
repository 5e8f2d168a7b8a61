package models

// MetricSnapshot holds the host metrics sampled for a single heartbeat cycle.
type MetricSnapshot struct {
	CPUUsage    int `json:"cpu_usage"`    // 0-100
	MemoryUsage int `json:"memory_usage"` // 0-100
	UptimeHours int `json:"uptime_hours"`
}

// GatewayHealth is the outcome of probing the assigned gateway.
type GatewayHealth struct {
	Status    string `json:"status"`
	LatencyMs int    `json:"latency_ms"`
	URL       string `json:"url,omitempty"`
	Err       error  `json:"-"`
}
