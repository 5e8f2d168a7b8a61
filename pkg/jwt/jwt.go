package jwt

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// ErrNoExpiry is returned when a token carries no usable exp claim.
var ErrNoExpiry = errors.New("token has no expiration claim")

// TokenInspectorInterface reads metadata from session tokens issued by the management service.
type TokenInspectorInterface interface {
	ExpiresAt(token string) (time.Time, error)
}

// TokenInspector reads claims from session tokens without verifying them.
// The agent does not hold the server's signing key; the server remains the
// authority and answers 401 for any token it rejects.
type TokenInspector struct {
	parser *jwt.Parser
}

// NewTokenInspector initializes a new TokenInspector instance.
func NewTokenInspector() *TokenInspector {
	return &TokenInspector{parser: jwt.NewParser()}
}

// ExpiresAt returns the expiry encoded in the token's exp claim.
// Opaque (non-JWT) tokens and tokens without exp yield an error.
func (ti *TokenInspector) ExpiresAt(token string) (time.Time, error) {
	if token == "" {
		return time.Time{}, errors.New("empty token")
	}

	var claims jwt.RegisteredClaims
	if _, _, err := ti.parser.ParseUnverified(token, &claims); err != nil {
		return time.Time{}, err
	}

	if claims.ExpiresAt == nil {
		return time.Time{}, ErrNoExpiry
	}

	return claims.ExpiresAt.Time, nil
}
