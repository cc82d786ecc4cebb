package rbac

import (
	"net/http"

	"dundie-api/internal/auth"

	"github.com/gin-gonic/gin"
)

// RequireSuperuser authenticates the caller and admits only superusers.
func RequireSuperuser(r *auth.Resolver) gin.HandlerFunc {
	return auth.Require(SuperuserGuard(auth.AuthenticatedGuard(r)))
}

// RequireSelfOrSuperuser allows a request only when the authenticated user is
// the one named by the route parameter, or is a superuser.
// Must run after an auth guard has stored the identity.
func RequireSelfOrSuperuser(param string) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := auth.CurrentIdentity(c)
		if !ok {
			c.Header("WWW-Authenticate", "Bearer")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": auth.ErrUnauthenticated.Error()})
			return
		}

		if id.User.Superuser || id.User.Username == c.Param(param) {
			c.Next()
			return
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
	}
}
