package booking

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCode_Format(t *testing.T) {
	code, err := NewCode()
	require.NoError(t, err)

	parts := strings.Split(code, "-")
	require.Len(t, parts, 3)
	assert.Len(t, parts[0], 6)
	assert.Len(t, parts[1], 3)
	assert.Len(t, parts[2], 6)
}

func TestNewCode_NoAmbiguousCharacters(t *testing.T) {
	for i := 0; i < 200; i++ {
		code, err := NewCode()
		require.NoError(t, err)
		for _, c := range strings.ReplaceAll(code, "-", "") {
			assert.Contains(t, Alphabet, string(c), "code %s contains %q", code, c)
		}
		assert.NotContainsf(t, code, "0", "code %s", code)
		assert.NotContainsf(t, code, "O", "code %s", code)
		assert.NotContainsf(t, code, "1", "code %s", code)
		assert.NotContainsf(t, code, "I", "code %s", code)
	}
}

func TestNewCode_Varies(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		code, err := NewCode()
		require.NoError(t, err)
		seen[code] = true
	}
	// 100 draws from a ~32^15 space should never collide.
	assert.Len(t, seen, 100)
}
