package auth

import "errors"

var (
	// ErrInvalidToken covers every decode failure: malformed input, bad
	// signature, unexpected algorithm, expiry or scope mismatch.
	ErrInvalidToken = errors.New("invalid token")

	// ErrInvalidCredentials is returned for an unknown username and for a
	// wrong password alike.
	ErrInvalidCredentials = errors.New("incorrect username or password")

	ErrMalformedAuthorization = errors.New("malformed authorization header")
	ErrUnauthenticated        = errors.New("could not validate credentials")
	ErrForbidden              = errors.New("not a superuser")

	ErrInvalidScope = errors.New("invalid token scope")
)
