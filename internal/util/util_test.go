package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRandomChars_Length(t *testing.T) {
	s, err := RandomChars(16)
	require.NoError(t, err)
	assert.Len(t, s, 16)
}

func TestRandomChars_Alphabet(t *testing.T) {
	s, err := RandomChars(256)
	require.NoError(t, err)
	for _, r := range s {
		assert.Contains(t, string(allowedRandomChars), string(r))
	}
}

func TestRandomIntn_Bounds(t *testing.T) {
	for i := 0; i < 100; i++ {
		n, err := RandomIntn(10)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, n, 0)
		assert.Less(t, n, 10)
	}
}
