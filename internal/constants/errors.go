package constants

import "errors"

var (
	ErrSessionExpired   = errors.New("session expired")
	ErrNotAuthenticated = errors.New("no active session")
	ErrHandshakeFailed  = errors.New("handshake failed")
	ErrMissingToken     = errors.New("handshake response has no token")
)
