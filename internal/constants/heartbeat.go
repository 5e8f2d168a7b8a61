package constants

import "time"

// Health statuses reported in the heartbeat body.
const (
	// StatusHealthy indicates the assigned gateway answered (or none is assigned)
	StatusHealthy = "healthy"
	// StatusError indicates the gateway probe failed
	StatusError = "error"
)

// Service endpoints relative to the base service URL.
const (
	HandshakePath = "/api/agents/handshake"
	HeartbeatPath = "/api/heartbeat"
)

const (
	DefaultServiceURL       = "http://localhost:3000"
	DefaultInterval         = 300 * time.Second
	DefaultHandshakeTimeout = 10 * time.Second
	DefaultHeartbeatTimeout = 10 * time.Second
	DefaultProbeTimeout     = 5 * time.Second
	DefaultCommandTimeout   = 5 * time.Second

	// MaxCycleAttempts is the initial heartbeat attempt plus one retry after a 401.
	MaxCycleAttempts = 2

	// TokenExpirySkew renews a session slightly before its token expires.
	TokenExpirySkew = 30 * time.Second

	UserAgent = "fleet-agent/1.0"
)
