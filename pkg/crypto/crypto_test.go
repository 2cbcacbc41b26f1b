package crypto

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("password123")
	require.NoError(t, err)
	require.NotEqual(t, "password123", hash)

	require.True(t, VerifyPassword(hash, "password123"))
	require.False(t, VerifyPassword(hash, "password124"))
	require.False(t, VerifyPassword("not-a-hash", "password123"))
}

func TestGenerateToken(t *testing.T) {
	first, err := GenerateToken(32)
	require.NoError(t, err)
	second, err := GenerateToken(32)
	require.NoError(t, err)

	require.NotEqual(t, first, second)
	require.Len(t, first, 43)
}

func TestHashTokenIsStable(t *testing.T) {
	require.Equal(t, HashToken("abc"), HashToken("abc"))
	require.NotEqual(t, HashToken("abc"), HashToken("abd"))
	require.Len(t, HashToken("abc"), 64)
}

func TestConstantTimeEqual(t *testing.T) {
	require.True(t, ConstantTimeEqual("123456", "123456"))
	require.False(t, ConstantTimeEqual("123456", "123457"))
	require.False(t, ConstantTimeEqual("123456", ""))
}
