// Package cryptox collects the one-way primitives used by the auth core:
// SHA-256 digests for opaque secrets, adaptive password hashing and
// verification-code generation.
package cryptox

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
)

// DigestLen is the length of a Digest result.
const DigestLen = sha256.Size * 2

// Digest returns the lowercase hex SHA-256 of raw. Used for refresh tokens
// and verification codes, never for passwords.
func Digest(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// DigestEqual compares two digests in constant time.
func DigestEqual(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
