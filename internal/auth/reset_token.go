package auth

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// DefaultResetTokenBytes yields a 32 character hex token.
const DefaultResetTokenBytes = 16

// GenerateResetToken returns size random bytes as a lowercase hex string.
func GenerateResetToken(size int) (string, error) {
	if size < DefaultResetTokenBytes {
		size = DefaultResetTokenBytes
	}
	b := make([]byte, size)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("rand: %w", err)
	}
	return hex.EncodeToString(b), nil
}
