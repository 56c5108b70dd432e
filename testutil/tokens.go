package testutil

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const signingSecret = "testutil-secret"

// SignedToken returns an HS256 token carrying claims
func SignedToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(signingSecret))
	if err != nil {
		t.Fatalf("Failed to sign token: %v", err)
	}
	return token
}

// TokenExpiringAt returns a token for sub whose exp is at
func TokenExpiringAt(t *testing.T, sub string, at time.Time) string {
	t.Helper()
	return SignedToken(t, jwt.MapClaims{"sub": sub, "exp": at.Unix()})
}

// UsableToken returns a token that stays valid for an hour
func UsableToken(t *testing.T) string {
	t.Helper()
	return TokenExpiringAt(t, "alice", time.Now().Add(time.Hour))
}

// ExpiredToken returns a token that expired an hour ago
func ExpiredToken(t *testing.T) string {
	t.Helper()
	return TokenExpiringAt(t, "alice", time.Now().Add(-time.Hour))
}
