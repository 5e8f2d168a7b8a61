package constants

// Authentication modes for the handshake.
const (
	// AuthModeSigned sends agent_id, timestamp and an HMAC signature; the secret never leaves the host
	AuthModeSigned = "signed"
	// AuthModeLegacy sends the raw shared secret
	AuthModeLegacy = "legacy"
)
