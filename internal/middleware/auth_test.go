package middleware

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	auth := NewJWTAuth("secret")
	token, err := auth.GenerateAccessToken(7, "ana@example.com")
	require.NoError(t, err)

	id, err := auth.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, int64(7), id)
}

func TestParseTokenRejects(t *testing.T) {
	auth := NewJWTAuth("secret")
	other := NewJWTAuth("other")
	foreign, err := other.GenerateAccessToken(7, "ana@example.com")
	require.NoError(t, err)

	expiredAuth := NewJWTAuth("secret")
	expiredAuth.now = func() time.Time { return time.Now().Add(-48 * time.Hour) }
	expired, err := expiredAuth.GenerateAccessToken(7, "ana@example.com")
	require.NoError(t, err)

	for name, token := range map[string]string{
		"garbage":      "not-a-token",
		"wrong secret": foreign,
		"expired":      expired,
		"empty":        "",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := auth.ParseToken(token)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}

	_, err = auth.ParseToken(expired)
	assert.True(t, errors.Is(err, jwt.ErrTokenExpired))
}
