package auth

import (
	"crypto/sha256"
	"encoding/hex"
)

// QuickHash returns a truncated SHA256 hash of the input for cache keys.
// This is NOT for secret storage, only for key derivation: Redis never
// holds a raw API key.
func QuickHash(input string) string {
	hash := sha256.Sum256([]byte(input))
	return hex.EncodeToString(hash[:16]) // Use first 16 bytes (32 hex chars)
}
