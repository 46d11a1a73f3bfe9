package jwthelper

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testKey = []byte("test-signing-key")

func TestGenerateAndParseToken(t *testing.T) {
	token, err := GenerateToken(testKey, 42, "curl/8.0", time.Hour)
	require.NoError(t, err)

	claims, err := ParseToken(testKey, token)
	require.NoError(t, err)

	assert.Equal(t, uint(42), claims.UserID)
	assert.Equal(t, "curl/8.0", claims.UserAgent)
	assert.Equal(t, "42", claims.Subject)
	assert.Equal(t, issuer, claims.Issuer)
}

func TestParseToken_Rejects(t *testing.T) {
	valid, err := GenerateToken(testKey, 1, "", time.Hour)
	require.NoError(t, err)

	expired, err := GenerateToken(testKey, 1, "", -time.Minute)
	require.NoError(t, err)

	foreignIssuer, err := jwt.NewWithClaims(jwt.SigningMethodHS256, UserClaims{
		UserID: 1,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "someone-else",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString(testKey)
	require.NoError(t, err)

	noUser, err := jwt.NewWithClaims(jwt.SigningMethodHS256, UserClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString(testKey)
	require.NoError(t, err)

	tests := []struct {
		name  string
		key   []byte
		token string
	}{
		{name: "wrong key", key: []byte("other"), token: valid},
		{name: "expired", key: testKey, token: expired},
		{name: "foreign issuer", key: testKey, token: foreignIssuer},
		{name: "missing user id", key: testKey, token: noUser},
		{name: "garbage", key: testKey, token: "not-a-token"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseToken(tt.key, tt.token)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}
