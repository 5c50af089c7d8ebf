package passwordhasher

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHashAndValidate(t *testing.T) {
	hasher := NewBcrypt("test-secret", 4)

	hash, err := hasher.HashPassword("test-password")

	require.NoError(t, err)
	require.NotEqual(t, "test-password", string(hash))
	require.True(t, hasher.ValidatePassword("test-password", hash))
	require.False(t, hasher.ValidatePassword("other-password", hash))
}

func TestSecretParticipatesInHash(t *testing.T) {
	hasher := NewBcrypt("test-secret", 4)
	otherHasher := NewBcrypt("other-secret", 4)

	hash, err := hasher.HashPassword("test-password")

	require.NoError(t, err)
	require.False(t, otherHasher.ValidatePassword("test-password", hash))
}

func TestHashesAreSalted(t *testing.T) {
	hasher := NewBcrypt("test-secret", 4)

	first, err := hasher.HashPassword("test-password")
	require.NoError(t, err)
	second, err := hasher.HashPassword("test-password")
	require.NoError(t, err)

	require.NotEqual(t, first, second)
	require.True(t, hasher.ValidatePassword("test-password", first))
	require.True(t, hasher.ValidatePassword("test-password", second))
}
