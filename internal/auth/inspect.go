package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenInfo describes a stored token for display purposes.
type TokenInfo struct {
	Set       bool
	JWT       bool
	Subject   string
	ExpiresAt time.Time
}

// Expired reports whether the token carries an expiry that lies before now.
func (i TokenInfo) Expired(now time.Time) bool {
	return !i.ExpiresAt.IsZero() && now.After(i.ExpiresAt)
}

// Inspect reads the claims of a JWT without verifying its signature.
// Tokens that are not JWTs are reported as opaque.
func Inspect(token string) TokenInfo {
	info := TokenInfo{Set: token != ""}
	if !info.Set {
		return info
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return info
	}

	info.JWT = true
	if sub, err := claims.GetSubject(); err == nil {
		info.Subject = sub
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		info.ExpiresAt = exp.Time
	}

	return info
}
