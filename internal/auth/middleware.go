package auth

import (
	"net/http"

	"dundie-api/pkg/logger"

	"github.com/gin-gonic/gin"
)

// Require runs g against the request's Authorization header and aborts the
// chain unless it authorizes the caller. On success the identity is stored
// in both the request context and the gin context.
func Require(g Guard) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := g(c.Request.Context(), ResolveRequest{Header: c.Request.Header})

		switch Classify(err) {
		case OutcomeUnauthenticated:
			c.Header("WWW-Authenticate", bearerScheme)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": ErrUnauthenticated.Error()})
			return
		case OutcomeForbidden:
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": ErrForbidden.Error()})
			return
		case OutcomeFailed:
			logger.FromGin(c).Error("identity resolution failed", "err", err)
			_ = c.Error(err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}

		c.Request = c.Request.WithContext(WithIdentity(c.Request.Context(), id))
		c.Set(ginIdentityKey, id)
		logger.Annotate(c, "username", id.User.Username)

		c.Next()
	}
}

// RequireAuthenticated guards a route with AuthenticatedGuard.
func RequireAuthenticated(r *Resolver) gin.HandlerFunc {
	return Require(AuthenticatedGuard(r))
}

// RequireFresh guards a route with FreshGuard.
func RequireFresh(r *Resolver) gin.HandlerFunc {
	return Require(FreshGuard(r))
}
