package security

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewShareToken(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 200; i++ {
		token, err := NewShareToken()
		require.NoError(t, err)
		require.Len(t, token, ShareTokenLength)
		for _, r := range token {
			require.True(t, strings.ContainsRune(alphabet, r), "unexpected rune %q", r)
		}
		_, dup := seen[token]
		require.False(t, dup)
		seen[token] = struct{}{}
	}
}

func TestRandomTokenInvalidLength(t *testing.T) {
	_, err := RandomToken(0)
	assert.Error(t, err)
}

func TestTokenMatches(t *testing.T) {
	assert.True(t, TokenMatches("abc", "abc"))
	assert.False(t, TokenMatches("abd", "abc"))
	assert.False(t, TokenMatches("ab", "abc"))
	assert.False(t, TokenMatches("", ""))
	assert.False(t, TokenMatches("abc", ""))
}
