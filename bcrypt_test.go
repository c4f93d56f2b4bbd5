package auth_test

import (
	"testing"

	auth "github.com/goliatone/go-auth-sessions"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashPassword(t *testing.T) {
	t.Run("hashes a password", func(t *testing.T) {
		hash, err := auth.HashPassword("Secret123!")

		require.NoError(t, err)
		assert.NotEmpty(t, hash)
		assert.NotEqual(t, "Secret123!", hash)
	})

	t.Run("rejects an empty password", func(t *testing.T) {
		_, err := auth.HashPassword("")
		assert.ErrorIs(t, err, auth.ErrNoEmptyString)
	})

	t.Run("two hashes of the same password differ", func(t *testing.T) {
		first, err := auth.HashPassword("Secret123!")
		require.NoError(t, err)

		second, err := auth.HashPassword("Secret123!")
		require.NoError(t, err)

		assert.NotEqual(t, first, second)
	})
}

func TestComparePasswordAndHash(t *testing.T) {
	hash, err := auth.HashPassword("Secret123!")
	require.NoError(t, err)

	t.Run("accepts the matching password", func(t *testing.T) {
		assert.NoError(t, auth.ComparePasswordAndHash("Secret123!", hash))
	})

	t.Run("rejects a wrong password", func(t *testing.T) {
		err := auth.ComparePasswordAndHash("wrong-password", hash)
		assert.ErrorIs(t, err, auth.ErrMismatchedHashAndPassword)
	})

	t.Run("rejects garbage hashes", func(t *testing.T) {
		assert.Error(t, auth.ComparePasswordAndHash("Secret123!", "not-a-hash"))
	})
}

func TestPasswordAuthenticator(t *testing.T) {
	authenticator := auth.NewPasswordAuthenticator()

	hash, err := authenticator.HashPassword("Secret123!")
	require.NoError(t, err)

	assert.NoError(t, authenticator.ComparePasswordAndHash("Secret123!", hash))
	assert.Error(t, authenticator.ComparePasswordAndHash("nope", hash))
}
