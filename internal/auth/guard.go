package auth

import (
	"context"
	"errors"
)

// Guard is a precondition attached to a protected operation. It either
// yields the caller's identity or an error that Classify maps to a decision.
type Guard func(ctx context.Context, req ResolveRequest) (Identity, error)

// Outcome is the per-request authorization decision.
type Outcome int

const (
	OutcomeAuthorized Outcome = iota
	OutcomeUnauthenticated
	OutcomeForbidden
	// OutcomeFailed is an infrastructure failure, not a rejection.
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeAuthorized:
		return "authorized"
	case OutcomeUnauthenticated:
		return "unauthenticated"
	case OutcomeForbidden:
		return "forbidden"
	default:
		return "failed"
	}
}

// Classify maps a guard error to an Outcome.
func Classify(err error) Outcome {
	switch {
	case err == nil:
		return OutcomeAuthorized
	case errors.Is(err, ErrForbidden):
		return OutcomeForbidden
	case errors.Is(err, ErrUnauthenticated),
		errors.Is(err, ErrInvalidToken),
		errors.Is(err, ErrMalformedAuthorization),
		errors.Is(err, ErrInvalidCredentials):
		return OutcomeUnauthenticated
	default:
		return OutcomeFailed
	}
}

// AuthenticatedGuard admits any caller presenting a valid access token for a
// live user.
func AuthenticatedGuard(r *Resolver) Guard {
	return func(ctx context.Context, req ResolveRequest) (Identity, error) {
		req.RequireFresh = false
		req.Scope = ScopeAccess
		return r.Resolve(ctx, req)
	}
}

// FreshGuard is AuthenticatedGuard that also demands a token obtained by a
// direct login, unless the caller is a superuser.
func FreshGuard(r *Resolver) Guard {
	return func(ctx context.Context, req ResolveRequest) (Identity, error) {
		req.RequireFresh = true
		req.Scope = ScopeAccess
		return r.Resolve(ctx, req)
	}
}
