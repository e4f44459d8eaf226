package utils // package utils provides helpers for password hashing and opaque tokens

import (
	"crypto/rand"  // secure random number generation
	"encoding/hex" // hex encoding of random bytes
)

// SessionTokenBytes is the amount of entropy in a session token.
const SessionTokenBytes = 32

// NewSessionToken returns an opaque, hex-encoded random session token.  The
// token carries no user data; it is only a key into the session store.
func NewSessionToken() (string, error) {
	return randomHex(SessionTokenBytes)
}

// randomHex returns a hex‑encoded string generated from n bytes of
// cryptographically secure random data.
func randomHex(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
