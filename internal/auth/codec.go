package auth

import (
	"errors"
	"fmt"
	"time"

	"dundie-api/internal/config"

	"github.com/golang-jwt/jwt/v5"
)

// Codec issues and verifies signed, expiring tokens with a single shared
// secret and algorithm. It holds no mutable state and is safe for concurrent use.
type Codec struct {
	secret     []byte
	method     jwt.SigningMethod
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

func NewCodec(cfg config.AuthConfig) (*Codec, error) {
	if cfg.SecretKey == "" {
		return nil, errors.New("JWT_SECRET is required")
	}
	alg := cfg.Algorithm
	if alg == "" {
		alg = config.DefaultAlgorithm
	}
	method, ok := jwt.GetSigningMethod(alg).(*jwt.SigningMethodHMAC)
	if !ok {
		return nil, fmt.Errorf("unsupported signing algorithm %q", alg)
	}

	accessTTL := cfg.AccessTokenTTL
	if accessTTL <= 0 {
		accessTTL = config.DefaultAccessTokenTTL
	}
	refreshTTL := cfg.RefreshTokenTTL
	if refreshTTL <= 0 {
		refreshTTL = config.DefaultRefreshTokenTTL
	}

	return &Codec{
		secret:     []byte(cfg.SecretKey),
		method:     method,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}, nil
}

// WithClock returns a copy of the codec that reads time from now.
func (c *Codec) WithClock(now func() time.Time) *Codec {
	cp := *c
	cp.now = now
	return &cp
}

// Algorithm returns the configured signing algorithm identifier.
func (c *Codec) Algorithm() string { return c.method.Alg() }

type issueOptions struct {
	ttl    time.Duration
	hasTTL bool
}

type IssueOption func(*issueOptions)

// WithTTL sets the token lifetime. A zero or negative ttl yields a token that
// is already expired.
func WithTTL(ttl time.Duration) IssueOption {
	return func(o *issueOptions) {
		o.ttl = ttl
		o.hasTTL = true
	}
}

// Issue signs a copy of claims with exp = now + ttl and the given scope.
// Without WithTTL the configured access TTL is used.
func (c *Codec) Issue(claims Claims, scope Scope, opts ...IssueOption) (string, error) {
	return c.issue(claims, scope, c.accessTTL, opts)
}

// IssueAccess is Issue with scope access_token.
func (c *Codec) IssueAccess(claims Claims, opts ...IssueOption) (string, error) {
	return c.issue(claims, ScopeAccess, c.accessTTL, opts)
}

// IssueRefresh is Issue with scope refresh_token; without WithTTL the
// configured refresh TTL is used.
func (c *Codec) IssueRefresh(claims Claims, opts ...IssueOption) (string, error) {
	return c.issue(claims, ScopeRefresh, c.refreshTTL, opts)
}

func (c *Codec) issue(claims Claims, scope Scope, defaultTTL time.Duration, opts []IssueOption) (string, error) {
	if !scope.valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidScope, scope)
	}
	o := issueOptions{ttl: defaultTTL}
	for _, opt := range opts {
		opt(&o)
	}

	payload := make(jwt.MapClaims, len(claims)+2)
	for k, v := range claims {
		payload[k] = v
	}
	payload[ClaimExpire] = jwt.NewNumericDate(c.now().Add(o.ttl))
	payload[ClaimScope] = string(scope)

	return jwt.NewWithClaims(c.method, payload).SignedString(c.secret)
}

// Decode verifies signature, algorithm and expiry and returns the claims.
// Every failure is reported as ErrInvalidToken.
func (c *Codec) Decode(token string) (Claims, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{c.method.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	)

	payload := jwt.MapClaims{}
	parsed, err := parser.ParseWithClaims(token, payload, func(*jwt.Token) (any, error) {
		return c.secret, nil
	})
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	return Claims(payload), nil
}

// DecodeScope is Decode that also rejects tokens whose scope differs from expected.
func (c *Codec) DecodeScope(token string, expected Scope) (Claims, error) {
	claims, err := c.Decode(token)
	if err != nil {
		return nil, err
	}
	if claims.Scope() != expected {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
