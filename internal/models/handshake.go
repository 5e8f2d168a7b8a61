package models

// SignedHandshakeRequest proves possession of the shared secret without sending it.
type SignedHandshakeRequest struct {
	AgentID   string `json:"agent_id"`
	Timestamp string `json:"timestamp"`
	Signature string `json:"signature"`
}

// LegacyHandshakeRequest carries the raw shared secret.
type LegacyHandshakeRequest struct {
	AgentID     string `json:"agent_id"`
	AgentSecret string `json:"agent_secret"`
}

// HandshakeResponse is returned by the handshake endpoint.
type HandshakeResponse struct {
	Token      string  `json:"token"`
	ExpiresIn  int64   `json:"expires_in,omitempty"`
	GatewayURL string  `json:"gateway_url,omitempty"`
	Policy     *Policy `json:"policy,omitempty"`
}

// Policy is the server-side policy profile attached to an agent.
type Policy struct {
	Label             string `json:"label,omitempty"`
	HeartbeatInterval int    `json:"heartbeat_interval,omitempty"` // seconds
}
