package auth

import (
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Scope distinguishes access tokens from refresh tokens.
type Scope string

const (
	ScopeAccess  Scope = "access_token"
	ScopeRefresh Scope = "refresh_token"
)

func (s Scope) valid() bool {
	return s == ScopeAccess || s == ScopeRefresh
}

// Claim names. ClaimExpire and ClaimScope are managed by the Codec and
// overwrite any caller-supplied value.
const (
	ClaimSubject = "sub"
	ClaimExpire  = "exp"
	ClaimScope   = "scope"
	ClaimFresh   = "fresh"
)

// Claims is the payload carried by a token: arbitrary caller data plus the
// system-managed expiry and scope.
type Claims map[string]any

// Clone returns a shallow copy of c.
func (c Claims) Clone() Claims {
	out := make(Claims, len(c))
	for k, v := range c {
		out[k] = v
	}
	return out
}

// Subject returns the "sub" claim, or "" when it is absent or not a string.
func (c Claims) Subject() string {
	s, _ := c[ClaimSubject].(string)
	return s
}

// Scope returns the "scope" claim, or "" when it is absent.
func (c Claims) Scope() Scope {
	s, _ := c[ClaimScope].(string)
	return Scope(s)
}

// Fresh reports whether the token carries a truthy "fresh" marker.
func (c Claims) Fresh() bool {
	switch v := c[ClaimFresh].(type) {
	case bool:
		return v
	case float64:
		return v != 0
	case int:
		return v != 0
	case string:
		b, err := strconv.ParseBool(v)
		return err == nil && b
	default:
		return false
	}
}

// ExpiresAt returns the expiry time when the claim is present and well formed.
func (c Claims) ExpiresAt() (time.Time, bool) {
	exp, err := jwt.MapClaims(c).GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}
