// Package auth provides API key generation and request authentication context.
package auth

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"regexp"
)

// Keys are opaque random tokens: 16 bytes from a CSPRNG, rendered as 32
// lowercase hex characters. 128 bits of entropy makes collisions
// cryptographically negligible, so uniqueness needs no retry loop; the
// unique index on accounts.api_key is the backstop.
const KeyLen = 32

var (
	// ErrInvalidKeyFormat indicates the key format is invalid.
	ErrInvalidKeyFormat = errors.New("invalid API key format")
	// keyFormatRegex validates the key format.
	keyFormatRegex = regexp.MustCompile(`^[a-f0-9]{32}$`)
)

// GenerateAPIKey creates a new opaque API key.
func GenerateAPIKey() (string, error) {
	buf := make([]byte, KeyLen/2)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate key: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// ValidateKeyFormat checks if the key matches the expected format.
// Rejecting malformed keys early avoids a store lookup per bad request.
func ValidateKeyFormat(key string) bool {
	return keyFormatRegex.MatchString(key)
}
