package utils

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// GenerateInviteCode generates a random 8-character hex invite code.
func GenerateInviteCode() (string, error) {
	bytes := make([]byte, 4)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}
	return hex.EncodeToString(bytes), nil
}
