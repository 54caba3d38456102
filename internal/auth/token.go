// Package auth holds the bearer token used against the remote FixFinanz
// API. The token is issued by the platform's auth service; this layer
// never validates signatures, it only inspects the expiry claim so an
// expiring session can be flagged before requests start failing.
package auth

import (
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

// TokenSource provides the bearer token for remote API calls.
type TokenSource struct {
	mu     sync.RWMutex
	token  string
	claims *jwt.RegisteredClaims
	logger *zap.Logger
}

// NewTokenSource parses the token's registered claims if it is a JWT.
// Opaque tokens are accepted as-is; in that case expiry checks report
// nothing.
func NewTokenSource(token string, logger *zap.Logger) *TokenSource {
	ts := &TokenSource{token: token, logger: logger}
	ts.claims = parseClaims(token, logger)
	return ts
}

// Token returns the current bearer token.
func (t *TokenSource) Token() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.token
}

// Replace swaps in a refreshed token.
func (t *TokenSource) Replace(token string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.token = token
	t.claims = parseClaims(token, t.logger)
}

// ExpiresWithin reports whether the token's exp claim falls inside the
// given window. Tokens without a parseable exp claim report false.
func (t *TokenSource) ExpiresWithin(window time.Duration) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.claims == nil || t.claims.ExpiresAt == nil {
		return false
	}
	return time.Until(t.claims.ExpiresAt.Time) < window
}

// Subject returns the token's sub claim, if any. Used for log context.
func (t *TokenSource) Subject() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.claims == nil {
		return ""
	}
	return t.claims.Subject
}

func parseClaims(token string, logger *zap.Logger) *jwt.RegisteredClaims {
	claims := &jwt.RegisteredClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		logger.Debug("API token is not a JWT, expiry tracking disabled", zap.Error(err))
		return nil
	}
	if claims.ExpiresAt != nil && time.Now().After(claims.ExpiresAt.Time) {
		logger.Warn("API token is already expired",
			zap.Time("expired_at", claims.ExpiresAt.Time),
		)
	}
	return claims
}
