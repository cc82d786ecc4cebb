package auth

import (
	"context"
	"errors"

	"github.com/gin-gonic/gin"
)

type ctxKey int

const ctxIdentity ctxKey = iota

const ginIdentityKey = "identity"

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, ctxIdentity, id)
}

func IdentityFrom(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(ctxIdentity).(Identity)
	return id, ok && id.User.Username != ""
}

// Username returns the authenticated username stored in ctx.
func Username(ctx context.Context) (string, error) {
	if id, ok := IdentityFrom(ctx); ok {
		return id.User.Username, nil
	}
	return "", errors.New("identity not in context")
}

// CurrentIdentity returns the identity a guard stored on the gin context.
func CurrentIdentity(c *gin.Context) (Identity, bool) {
	if v, ok := c.Get(ginIdentityKey); ok {
		if id, ok := v.(Identity); ok {
			return id, true
		}
	}
	return IdentityFrom(c.Request.Context())
}
