package utils

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGenerateInviteCode(t *testing.T) {
	pattern := regexp.MustCompile(`^[0-9a-f]{8}$`)
	seen := make(map[string]bool)

	for i := 0; i < 100; i++ {
		code, err := GenerateInviteCode()
		require.NoError(t, err)
		require.Regexp(t, pattern, code)
		require.False(t, seen[code], "invite code collision: %s", code)
		seen[code] = true
	}
}
