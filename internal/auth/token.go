package auth

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

const resetTokenBytes = 32

// NewResetToken returns a 64-character hex token drawn from crypto/rand.
// The token is single-use: the credential store clears it the moment it is
// consumed or replaced.
func NewResetToken() (string, error) {
	buf := make([]byte, resetTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("auth: generating reset token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
