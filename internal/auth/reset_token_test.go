package auth

import (
	"encoding/hex"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateResetToken_LowercaseHex(t *testing.T) {
	tok, err := GenerateResetToken(DefaultResetTokenBytes)
	require.NoError(t, err)

	assert.Len(t, tok, 32)
	assert.Equal(t, strings.ToLower(tok), tok)
	_, err = hex.DecodeString(tok)
	assert.NoError(t, err)
}

func TestGenerateResetToken_EnforcesMinimumEntropy(t *testing.T) {
	tok, err := GenerateResetToken(4)
	require.NoError(t, err)
	assert.Len(t, tok, 32)

	long, err := GenerateResetToken(32)
	require.NoError(t, err)
	assert.Len(t, long, 64)
}

func TestGenerateResetToken_Unique(t *testing.T) {
	seen := make(map[string]struct{}, 256)
	for i := 0; i < 256; i++ {
		tok, err := GenerateResetToken(DefaultResetTokenBytes)
		require.NoError(t, err)
		_, dup := seen[tok]
		require.False(t, dup, "duplicate token %s", tok)
		seen[tok] = struct{}{}
	}
}
