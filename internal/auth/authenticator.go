package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"dundie-api/internal/security"
	"dundie-api/internal/users"
)

// Authenticator validates a username/password pair against stored users.
type Authenticator struct {
	users users.Lookup

	// dummyHash is compared against when the username is unknown so that
	// both failure paths of Authenticate do the same bcrypt work. It is
	// built at the cost real passwords are hashed with.
	dummyHash func() string
}

// NewAuthenticator returns an Authenticator over lookup. cost must match the
// bcrypt cost used to store passwords; zero means bcrypt.DefaultCost.
func NewAuthenticator(lookup users.Lookup, cost int) *Authenticator {
	return &Authenticator{
		users: lookup,
		dummyHash: sync.OnceValue(func() string {
			h, err := security.HashPassword("dundie-mifflin-placeholder", cost)
			if err != nil {
				return ""
			}
			return h
		}),
	}
}

// Authenticate returns the user when username exists and password matches
// its stored hash. Both failure cases return ErrInvalidCredentials. Lookup
// failures other than users.ErrNotFound are returned wrapped.
func (a *Authenticator) Authenticate(ctx context.Context, username, password string) (users.User, error) {
	u, err := a.users.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			security.VerifyPassword(password, a.dummyHash())
			return users.User{}, ErrInvalidCredentials
		}
		return users.User{}, fmt.Errorf("auth: lookup user: %w", err)
	}

	if !security.VerifyPassword(password, u.PasswordHash) {
		return users.User{}, ErrInvalidCredentials
	}
	return u, nil
}
