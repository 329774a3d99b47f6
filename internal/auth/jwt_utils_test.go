package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	m := NewTokenManager("test-secret", time.Hour)
	token, err := m.GenerateToken(3, "Somchai", "owner")
	require.NoError(t, err)

	claims, err := m.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, uint(3), claims.UserID)
	assert.Equal(t, "Somchai", claims.Name)
	assert.Equal(t, "owner", claims.Role)
}

func TestTokenRejected(t *testing.T) {
	signer := NewTokenManager("one", time.Hour)
	token, err := signer.GenerateToken(1, "a", "staff")
	require.NoError(t, err)

	_, err = NewTokenManager("two", time.Hour).ValidateToken(token)
	assert.Error(t, err, "other secret")

	expired := NewTokenManager("one", time.Hour)
	expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	old, err := expired.GenerateToken(1, "a", "staff")
	require.NoError(t, err)
	_, err = signer.ValidateToken(old)
	assert.Error(t, err, "expired")

	_, err = NewTokenManager("", time.Hour).GenerateToken(1, "a", "staff")
	assert.Error(t, err, "no secret")
}

func TestPIN(t *testing.T) {
	h, err := HashPIN("4321")
	require.NoError(t, err)
	assert.True(t, CheckPIN(h, "4321"))
	assert.False(t, CheckPIN(h, "1234"))
}
