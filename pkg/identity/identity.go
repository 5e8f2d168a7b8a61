package identity

import (
	"errors"
)

var (
	ErrMissingAgentID     = errors.New("agent ID is required")
	ErrMissingAgentSecret = errors.New("agent secret is required")
)

// AgentIdentityInterface exposes the identity the agent authenticates with.
type AgentIdentityInterface interface {
	GetAgentID() string
	GetSecret() []byte
}

// AgentIdentity is the immutable (agent ID, shared secret) pair supplied at process start.
// The secret is only ever used to derive signatures, or in legacy mode sent in the handshake body.
type AgentIdentity struct {
	agentID string
	secret  []byte
}

// NewAgentIdentity validates and returns a new AgentIdentity.
func NewAgentIdentity(agentID string, secret []byte) (*AgentIdentity, error) {
	if agentID == "" {
		return nil, ErrMissingAgentID
	}
	if len(secret) == 0 {
		return nil, ErrMissingAgentSecret
	}

	s := make([]byte, len(secret))
	copy(s, secret)
	return &AgentIdentity{agentID: agentID, secret: s}, nil
}

// GetAgentID returns the agent identifier.
func (a *AgentIdentity) GetAgentID() string {
	return a.agentID
}

// GetSecret returns a copy of the shared secret.
func (a *AgentIdentity) GetSecret() []byte {
	s := make([]byte, len(a.secret))
	copy(s, a.secret)
	return s
}

// String redacts the secret so the identity can be logged safely.
func (a *AgentIdentity) String() string {
	return a.agentID + ":<redacted>"
}
