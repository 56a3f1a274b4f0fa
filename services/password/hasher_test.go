package password

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestNewHasher(t *testing.T) {
	t.Run("keeps valid cost", func(t *testing.T) {
		assert.Equal(t, bcrypt.MinCost, NewHasher(bcrypt.MinCost, nil).Cost())
	})

	t.Run("falls back on too low cost", func(t *testing.T) {
		assert.Equal(t, DefaultCost, NewHasher(1, nil).Cost())
	})

	t.Run("falls back on too high cost", func(t *testing.T) {
		assert.Equal(t, DefaultCost, NewHasher(bcrypt.MaxCost+1, nil).Cost())
	})
}

func TestHasher_HashAndVerify(t *testing.T) {
	hasher := NewHasher(bcrypt.MinCost, nil)

	t.Run("round trip", func(t *testing.T) {
		hash, err := hasher.Hash("secret1")
		require.NoError(t, err)
		assert.NotEqual(t, "secret1", hash)

		ok, err := hasher.Verify("secret1", hash)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("hash encodes configured cost", func(t *testing.T) {
		hash, err := hasher.Hash("secret1")
		require.NoError(t, err)

		cost, err := bcrypt.Cost([]byte(hash))
		require.NoError(t, err)
		assert.Equal(t, bcrypt.MinCost, cost)
	})

	t.Run("salted", func(t *testing.T) {
		first, err := hasher.Hash("secret1")
		require.NoError(t, err)
		second, err := hasher.Hash("secret1")
		require.NoError(t, err)

		assert.NotEqual(t, first, second)
	})

	t.Run("mismatch is false without error", func(t *testing.T) {
		hash, err := hasher.Hash("secret1")
		require.NoError(t, err)

		ok, err := hasher.Verify("secret2", hash)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("malformed hash is an error", func(t *testing.T) {
		ok, err := hasher.Verify("secret1", "not-a-bcrypt-hash")

		require.Error(t, err)
		assert.False(t, ok)
	})

	t.Run("overlong password is a mismatch", func(t *testing.T) {
		hash, err := hasher.Hash("secret1")
		require.NoError(t, err)

		ok, err := hasher.Verify(strings.Repeat("€", 25), hash)

		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("overlong password fails to hash", func(t *testing.T) {
		_, err := hasher.Hash(strings.Repeat("x", 73))

		assert.ErrorIs(t, err, ErrHashingFailed)
		assert.ErrorIs(t, err, bcrypt.ErrPasswordTooLong)
	})
}
