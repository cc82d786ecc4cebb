package users

import "context"

// Lookup resolves a username to at most one user.
// Implementations return ErrNotFound when no user exists; any other error is
// an infrastructure failure.
type Lookup interface {
	FindByUsername(ctx context.Context, username string) (User, error)
}

// Store is the full persistence contract used by the HTTP API.
type Store interface {
	Lookup
	List(ctx context.Context) ([]User, error)
	Create(ctx context.Context, u User) (User, error)
	UpdatePassword(ctx context.Context, username, passwordHash string) error
}
