package services

import (
	"fmt"
	"strconv"
	"time"

	"github.com/benmeehan/fleet-agent/internal/constants"
	"github.com/benmeehan/fleet-agent/internal/models"
	"github.com/benmeehan/fleet-agent/pkg/encryption"
	"github.com/benmeehan/fleet-agent/pkg/identity"
)

// AuthStrategy builds the handshake request body for one authentication scheme.
type AuthStrategy interface {
	Name() string
	HandshakeRequest(now time.Time) any
}

// SignedStrategy proves possession of the shared secret with an HMAC over
// agent id and timestamp. The secret itself is never sent.
type SignedStrategy struct {
	identity identity.AgentIdentityInterface
}

func NewSignedStrategy(id identity.AgentIdentityInterface) *SignedStrategy {
	return &SignedStrategy{identity: id}
}

func (s *SignedStrategy) Name() string { return constants.AuthModeSigned }

// HandshakeRequest signs the same timestamp it places in the body; the server
// recomputes the signature from that field.
func (s *SignedStrategy) HandshakeRequest(now time.Time) any {
	ts := now.Unix()
	agentID := s.identity.GetAgentID()
	return models.SignedHandshakeRequest{
		AgentID:   agentID,
		Timestamp: strconv.FormatInt(ts, 10),
		Signature: encryption.Sign(agentID, ts, s.identity.GetSecret()),
	}
}

// LegacySecretStrategy sends the raw shared secret. Kept for servers that
// predate signed handshakes.
type LegacySecretStrategy struct {
	identity identity.AgentIdentityInterface
}

func NewLegacySecretStrategy(id identity.AgentIdentityInterface) *LegacySecretStrategy {
	return &LegacySecretStrategy{identity: id}
}

func (s *LegacySecretStrategy) Name() string { return constants.AuthModeLegacy }

func (s *LegacySecretStrategy) HandshakeRequest(time.Time) any {
	return models.LegacyHandshakeRequest{
		AgentID:     s.identity.GetAgentID(),
		AgentSecret: string(s.identity.GetSecret()),
	}
}

// NewAuthStrategy returns the strategy for mode. An empty mode selects the signed strategy.
func NewAuthStrategy(mode string, id identity.AgentIdentityInterface) (AuthStrategy, error) {
	switch mode {
	case "", constants.AuthModeSigned:
		return NewSignedStrategy(id), nil
	case constants.AuthModeLegacy:
		return NewLegacySecretStrategy(id), nil
	default:
		return nil, fmt.Errorf("unknown auth mode %q", mode)
	}
}
