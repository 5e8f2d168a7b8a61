package models

import "time"

// CycleResult describes the outcome of one heartbeat cycle.
type CycleResult struct {
	CycleID    string
	StartedAt  time.Time
	Duration   time.Duration
	Sent       bool
	Attempts   int
	Handshakes int
	Gateway    GatewayHealth
	Metrics    MetricSnapshot
	Err        error
}

// Status returns the reported health status, or "error" when nothing was probed.
func (r CycleResult) Status() string {
	if r.Gateway.Status == "" {
		return "error"
	}
	return r.Gateway.Status
}
