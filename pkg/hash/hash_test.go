package hash

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashPassword_RoundTrip(t *testing.T) {
	hashed, err := HashPassword("Secret1")
	require.NoError(t, err)

	assert.NotEqual(t, "Secret1", hashed)
	assert.True(t, CheckPasswordHash("Secret1", hashed))
	assert.False(t, CheckPasswordHash("wrong", hashed))
}

func TestHashPassword_Salted(t *testing.T) {
	a, err := HashPassword("same")
	require.NoError(t, err)
	b, err := HashPassword("same")
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}

func TestCheckPasswordHash_GarbageHash(t *testing.T) {
	assert.False(t, CheckPasswordHash("Secret1", "not-a-bcrypt-hash"))
}
