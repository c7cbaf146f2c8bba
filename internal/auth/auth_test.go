package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sundayschool-dev/sundayschool/internal/models"
)

func TestTokens_RoundTrip(t *testing.T) {
	secret, err := GenerateSecret()
	require.NoError(t, err)
	assert.Len(t, secret, 64)

	tokens, err := NewTokens(secret)
	require.NoError(t, err)

	token, err := tokens.Issue("user-1", "sess-1", models.RoleAdmin, time.Now().Add(time.Hour))
	require.NoError(t, err)

	claims, err := tokens.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "sess-1", claims.SessionID())
	assert.Equal(t, models.RoleAdmin, claims.Role)
}

func TestTokens_RejectsExpired(t *testing.T) {
	tokens, err := NewTokens("test-secret")
	require.NoError(t, err)

	token, err := tokens.Issue("user-1", "sess-1", models.RoleUser, time.Now().Add(-time.Minute))
	require.NoError(t, err)

	_, err = tokens.Validate(token)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestTokens_RejectsForeignSecret(t *testing.T) {
	a, _ := NewTokens("secret-a")
	b, _ := NewTokens("secret-b")

	token, err := a.Issue("user-1", "sess-1", models.RoleUser, time.Now().Add(time.Hour))
	require.NoError(t, err)

	_, err = b.Validate(token)
	assert.Error(t, err)
}

func TestNewTokens_RequiresSecret(t *testing.T) {
	_, err := NewTokens("")
	assert.Error(t, err)
}

func TestPassword(t *testing.T) {
	hash, err := HashPassword("secret1")
	require.NoError(t, err)
	assert.NotEqual(t, "secret1", hash)

	assert.NoError(t, VerifyPassword("secret1", hash))
	assert.Error(t, VerifyPassword("secret2", hash))
}

func TestSessionData_IsAdmin(t *testing.T) {
	var nilSession *SessionData
	assert.False(t, nilSession.IsAdmin())
	assert.True(t, (&SessionData{Role: models.RoleAdmin}).IsAdmin())
	assert.False(t, (&SessionData{Role: models.RoleUser}).IsAdmin())
}
