package util

import (
	"crypto/sha256"
	"encoding/hex"
)

// DigestBytes returns the hex-encoded SHA-256 digest of raw content.
// Equal inputs always map to the same digest; the digest is used as an
// opaque cache and lookup key, never decoded.
func DigestBytes(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// DigestText returns the content digest of a text input.
func DigestText(s string) string {
	return DigestBytes([]byte(s))
}

// HashUserKey returns a filesystem-safe identifier for a user ID.
func HashUserKey(s string) string {
	return DigestText(s)
}
