package models

import "time"

// SessionState is the token and gateway assignment obtained from a handshake.
// The zero value is the absent state.
type SessionState struct {
	Token      string
	GatewayURL string
	ExpiresAt  time.Time // zero when the token carries no expiry
}

// Active reports whether a session token is present.
func (s SessionState) Active() bool {
	return s.Token != ""
}

// Expired reports whether the session is past its expiry at now, allowing for skew.
func (s SessionState) Expired(now time.Time, skew time.Duration) bool {
	if s.ExpiresAt.IsZero() {
		return false
	}
	return !now.Add(skew).Before(s.ExpiresAt)
}
