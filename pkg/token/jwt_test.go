package token

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndVerify(t *testing.T) {
	m := NewJWTManager("secret", 24, 2)
	tok, err := m.GenerateToken(CustomClaims{
		SessionID: "sid-1",
		Username:  "alice",
		UserInfo:  "username:alice",
		Role:      "USER",
	}, time.Now())
	require.NoError(t, err)

	claims, err := m.VerifyToken(tok)
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.Username)
	assert.Equal(t, "sid-1", claims.SessionID)
	assert.Equal(t, "username:alice", claims.UserInfo)
	assert.WithinDuration(t, time.Now().Add(24*time.Hour), claims.ExpiresAt.Time, time.Minute)
}

func TestGuestDuration(t *testing.T) {
	m := NewJWTManager("secret", 24, 2)
	tok, err := m.GenerateToken(CustomClaims{Username: "Khách", IsGuest: true}, time.Now())
	require.NoError(t, err)

	claims, err := m.VerifyToken(tok)
	require.NoError(t, err)
	assert.True(t, claims.IsGuest)
	assert.WithinDuration(t, time.Now().Add(2*time.Hour), claims.ExpiresAt.Time, time.Minute)
}

func TestVerify_Rejects(t *testing.T) {
	m := NewJWTManager("secret", 1, 1)
	other := NewJWTManager("other", 1, 1)

	tok, err := other.GenerateToken(CustomClaims{Username: "alice"}, time.Now())
	require.NoError(t, err)
	_, err = m.VerifyToken(tok)
	assert.Error(t, err)

	expired, err := m.GenerateToken(CustomClaims{Username: "alice"}, time.Now().Add(-2*time.Hour))
	require.NoError(t, err)
	_, err = m.VerifyToken(expired)
	assert.Error(t, err)

	_, err = m.VerifyToken("garbage")
	assert.Error(t, err)
}
