package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"dundie-api/internal/users"
)

const (
	authorizationHeader = "Authorization"
	bearerScheme        = "Bearer"
)

// Identity is the outcome of a successful resolution: the live user record
// and the verified claims it was resolved from.
type Identity struct {
	User   users.User
	Claims Claims
}

// ResolveRequest describes where to find the bearer token and what to demand of it.
type ResolveRequest struct {
	// Token is used when Header carries no Authorization value.
	Token  string
	Header http.Header

	// RequireFresh demands a truthy "fresh" claim unless the user is a superuser.
	RequireFresh bool

	// Scope is the expected token scope; empty means ScopeAccess.
	Scope Scope
}

// Resolver turns a bearer token into the identity of a live user.
// It is stateless apart from its collaborators and safe for concurrent use.
type Resolver struct {
	codec *Codec
	users users.Lookup
}

func NewResolver(codec *Codec, lookup users.Lookup) *Resolver {
	return &Resolver{codec: codec, users: lookup}
}

// Resolve extracts, decodes and checks the token in req and re-reads the user
// it names. Rejections wrap ErrUnauthenticated; lookup infrastructure failures
// are returned wrapped and are not rejections.
func (r *Resolver) Resolve(ctx context.Context, req ResolveRequest) (Identity, error) {
	token := req.Token
	if req.Header != nil {
		if raw := req.Header.Get(authorizationHeader); raw != "" {
			t, err := BearerToken(raw)
			if err != nil {
				return Identity{}, fmt.Errorf("%w: %w", ErrUnauthenticated, err)
			}
			token = t
		}
	}
	if token == "" {
		return Identity{}, ErrUnauthenticated
	}

	scope := req.Scope
	if scope == "" {
		scope = ScopeAccess
	}
	claims, err := r.codec.DecodeScope(token, scope)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %w", ErrUnauthenticated, err)
	}

	username := claims.Subject()
	if username == "" {
		return Identity{}, fmt.Errorf("%w: missing subject", ErrUnauthenticated)
	}

	u, err := r.users.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			return Identity{}, fmt.Errorf("%w: unknown subject", ErrUnauthenticated)
		}
		return Identity{}, fmt.Errorf("auth: lookup user: %w", err)
	}

	if req.RequireFresh && !claims.Fresh() && !u.Superuser {
		return Identity{}, fmt.Errorf("%w: fresh token required", ErrUnauthenticated)
	}

	return Identity{User: u, Claims: claims}, nil
}

// BearerToken parses an Authorization header value of the form "Bearer <token>".
func BearerToken(header string) (string, error) {
	fields := strings.Fields(header)
	if len(fields) != 2 || !strings.EqualFold(fields[0], bearerScheme) {
		return "", ErrMalformedAuthorization
	}
	return fields[1], nil
}
