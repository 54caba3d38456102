package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func signedToken(t *testing.T, expiresAt time.Time) string {
	claims := jwt.RegisteredClaims{
		Subject:   "consultant-1",
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return signed
}

func TestTokenSource_JWTClaims(t *testing.T) {
	ts := NewTokenSource(signedToken(t, time.Now().Add(time.Hour)), zap.NewNop())

	assert.Equal(t, "consultant-1", ts.Subject())
	assert.False(t, ts.ExpiresWithin(30*time.Minute))
	assert.True(t, ts.ExpiresWithin(2*time.Hour))
}

func TestTokenSource_OpaqueToken(t *testing.T) {
	ts := NewTokenSource("not-a-jwt", zap.NewNop())

	assert.Equal(t, "not-a-jwt", ts.Token())
	assert.Empty(t, ts.Subject())
	assert.False(t, ts.ExpiresWithin(24*time.Hour))
}

func TestTokenSource_Replace(t *testing.T) {
	ts := NewTokenSource("opaque", zap.NewNop())

	refreshed := signedToken(t, time.Now().Add(time.Minute))
	ts.Replace(refreshed)

	assert.Equal(t, refreshed, ts.Token())
	assert.True(t, ts.ExpiresWithin(time.Hour))
}
