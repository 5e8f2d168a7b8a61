package encryption

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strconv"
)

// Sign generates an HMAC-SHA256 signature binding an agent ID to a Unix timestamp.
// The message is agentID followed by the decimal form of timestamp, keyed by secret,
// and the result is the lowercase hex digest.
//
// The server recomputes the signature from the timestamp field of the request body,
// so callers must send exactly the timestamp they signed.
func Sign(agentID string, timestamp int64, secret []byte) string {
	h := hmac.New(sha256.New, secret)
	h.Write([]byte(agentID + strconv.FormatInt(timestamp, 10)))
	return hex.EncodeToString(h.Sum(nil))
}
