package helpers

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateToken_RoundTrip(t *testing.T) {
	SetJWTKey("test-secret")

	token, err := SignToken("user-1", "a@example.com", "USER", time.Hour)
	require.NoError(t, err)

	claims, err := ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "USER", claims.Role)
}

func TestValidateToken_Expired(t *testing.T) {
	SetJWTKey("test-secret")

	token, err := SignToken("user-1", "", "USER", -time.Minute)
	require.NoError(t, err)

	_, err = ValidateToken(token)
	require.Error(t, err)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestValidateToken_WrongKey(t *testing.T) {
	SetJWTKey("key-a")
	token, err := SignToken("user-1", "", "USER", time.Hour)
	require.NoError(t, err)

	SetJWTKey("key-b")
	_, err = ValidateToken(token)
	assert.Error(t, err)
}

func TestValidateToken_MissingUserID(t *testing.T) {
	SetJWTKey("test-secret")
	token, err := SignToken("", "", "USER", time.Hour)
	require.NoError(t, err)

	_, err = ValidateToken(token)
	assert.Error(t, err)
}
