package utils

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndValidateTokenPair(t *testing.T) {
	userID := uuid.New()

	pair, err := GenerateTokenPair(userID, "+971501234567", "user", false)
	require.NoError(t, err)
	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEmpty(t, pair.RefreshToken)
	assert.Equal(t, "Bearer", pair.TokenType)
	assert.Greater(t, pair.ExpiresIn, int64(0))

	claims, err := ValidateToken(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, "+971501234567", claims.Phone)
	assert.Equal(t, "user", claims.Role)
	assert.False(t, claims.IsStaff)

	refreshClaims, err := ValidateToken(pair.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, userID, refreshClaims.UserID)
	assert.Greater(t, refreshClaims.ExpiresAt, claims.ExpiresAt)
}

func TestValidateTokenRejectsGarbage(t *testing.T) {
	_, err := ValidateToken("not.a.token")
	assert.Error(t, err)

	_, err = ValidateToken("")
	assert.Error(t, err)
}

func TestValidateTokenRejectsTamperedToken(t *testing.T) {
	pair, err := GenerateTokenPair(uuid.New(), "+971501234567", "admin", true)
	require.NoError(t, err)

	tampered := pair.AccessToken[:len(pair.AccessToken)-2] + "xx"
	_, err = ValidateToken(tampered)
	assert.Error(t, err)
}
