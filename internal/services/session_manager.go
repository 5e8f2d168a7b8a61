package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/benmeehan/fleet-agent/internal/constants"
	"github.com/benmeehan/fleet-agent/internal/models"
	"github.com/benmeehan/fleet-agent/pkg/httpclient"
	"github.com/benmeehan/fleet-agent/pkg/jwt"
	"github.com/rs/zerolog"
)

// SessionManagerInterface owns the handshake and the resulting session state.
type SessionManagerInterface interface {
	Handshake(ctx context.Context) error
	EnsureSession(ctx context.Context) (handshook bool, err error)
	Invalidate()
	IsAuthenticated() bool
	State() models.SessionState
	Policy() *models.Policy
}

// SessionManager exchanges agent credentials for a session token and gateway assignment.
type SessionManager struct {
	serviceURL string
	timeout    time.Duration
	client     *httpclient.Client
	auth       AuthStrategy
	inspector  jwt.TokenInspectorInterface
	metrics    *AgentMetrics
	logger     zerolog.Logger
	now        func() time.Time

	mu     sync.RWMutex
	state  models.SessionState
	policy *models.Policy
}

// NewSessionManager creates a SessionManager in the unauthenticated state.
// metrics may be nil.
func NewSessionManager(
	serviceURL string,
	timeout time.Duration,
	client *httpclient.Client,
	auth AuthStrategy,
	inspector jwt.TokenInspectorInterface,
	metrics *AgentMetrics,
	logger zerolog.Logger,
) *SessionManager {
	if timeout <= 0 {
		timeout = constants.DefaultHandshakeTimeout
	}
	return &SessionManager{
		serviceURL: strings.TrimRight(serviceURL, "/"),
		timeout:    timeout,
		client:     client,
		auth:       auth,
		inspector:  inspector,
		metrics:    metrics,
		logger:     logger,
		now:        time.Now,
	}
}

// Handshake authenticates against the service. On failure the session is left absent.
func (s *SessionManager) Handshake(ctx context.Context) error {
	now := s.now()
	url := s.serviceURL + constants.HandshakePath

	var resp models.HandshakeResponse
	err := s.client.PostJSON(ctx, url, s.timeout, nil, s.auth.HandshakeRequest(now), &resp)
	if err == nil && resp.Token == "" {
		err = constants.ErrMissingToken
	}
	if err != nil {
		s.Invalidate()
		s.metrics.ObserveHandshake(false)
		s.logger.Error().Err(err).Str("url", url).Str("auth_mode", s.auth.Name()).Msg("Handshake failed")
		return fmt.Errorf("%w: %w", constants.ErrHandshakeFailed, err)
	}

	state := models.SessionState{
		Token:      resp.Token,
		GatewayURL: resp.GatewayURL,
		ExpiresAt:  s.expiry(resp, now),
	}

	s.mu.Lock()
	s.state = state
	s.policy = resp.Policy
	s.mu.Unlock()

	s.metrics.ObserveHandshake(true)
	s.metrics.SetAuthenticated(true)

	event := s.logger.Info().Str("gateway_url", state.GatewayURL)
	if !state.ExpiresAt.IsZero() {
		event = event.Time("expires_at", state.ExpiresAt)
	}
	event.Msg("Handshake successful")
	return nil
}

// expiry prefers the token's own exp claim, then expires_in. Zero means no local expiry.
func (s *SessionManager) expiry(resp models.HandshakeResponse, now time.Time) time.Time {
	if s.inspector != nil {
		if exp, err := s.inspector.ExpiresAt(resp.Token); err == nil {
			return exp
		}
	}
	if resp.ExpiresIn > 0 {
		return now.Add(time.Duration(resp.ExpiresIn) * time.Second)
	}
	return time.Time{}
}

// EnsureSession performs a handshake when no session is held or the held one has
// expired locally. It reports whether a handshake took place.
func (s *SessionManager) EnsureSession(ctx context.Context) (bool, error) {
	s.mu.RLock()
	state := s.state
	s.mu.RUnlock()

	if state.Active() {
		if !state.Expired(s.now(), constants.TokenExpirySkew) {
			return false, nil
		}
		s.logger.Info().Time("expires_at", state.ExpiresAt).Msg("Session token expiring, renewing")
		s.Invalidate()
	}

	return true, s.Handshake(ctx)
}

// Invalidate drops the token and gateway assignment.
func (s *SessionManager) Invalidate() {
	s.mu.Lock()
	s.state = models.SessionState{}
	s.mu.Unlock()

	s.metrics.SetAuthenticated(false)
}

func (s *SessionManager) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Active()
}

// State returns a copy of the current session.
func (s *SessionManager) State() models.SessionState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Policy returns the policy attached to the last successful handshake, if any.
func (s *SessionManager) Policy() *models.Policy {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.policy
}
