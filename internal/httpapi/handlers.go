package httpapi

import (
	"context"
	"errors"
	"net/http"

	"dundie-api/internal/audit"
	"dundie-api/internal/auth"
	"dundie-api/internal/rbac"
	"dundie-api/internal/users"
	"dundie-api/pkg/logger"

	"github.com/gin-gonic/gin"
)

// tokenType is the scheme clients must use when presenting the access token.
const tokenType = "bearer"

// LoginLimiter throttles login attempts. A nil limiter disables throttling.
type LoginLimiter interface {
	Allow(ctx context.Context, key string) (bool, error)
	Reset(ctx context.Context, key string) error
}

// Handlers groups HTTP handlers for dependency injection.
// Keep these thin: parse/validate input, call internal services, return JSON.
type Handlers struct {
	Authenticator *auth.Authenticator
	Codec         *auth.Codec
	Resolver      *auth.Resolver
	Users         users.Store
	Audit         *audit.Service
	Limiter       LoginLimiter
	BcryptCost    int
}

// Register mounts the authentication and user routes on r.
func (h Handlers) Register(r gin.IRouter) {
	r.POST("/token", h.Login)
	r.POST("/refresh_token", h.Refresh)

	u := r.Group("/user")
	u.GET("/", auth.RequireAuthenticated(h.Resolver), h.ListUsers)
	u.GET("/me", auth.RequireAuthenticated(h.Resolver), h.Me)
	u.POST("/", rbac.RequireSuperuser(h.Resolver), h.CreateUser)
	u.POST("/:username/password",
		auth.RequireFresh(h.Resolver),
		rbac.RequireSelfOrSuperuser("username"),
		h.ChangePassword,
	)
}

// --- Auth ---

type loginRequest struct {
	Username string `form:"username" json:"username"`
	Password string `form:"password" json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	RefreshToken string `json:"refresh_token"`
}

// Login exchanges a username and password for an access/refresh token pair.
// Accepts the OAuth2 password form encoding as well as JSON.
func (h Handlers) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBind(&req); err != nil || req.Username == "" || req.Password == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "username and password required"})
		return
	}

	ctx := c.Request.Context()
	log := logger.FromGin(c)
	throttleKey := req.Username + "|" + c.ClientIP()

	if h.Limiter != nil {
		ok, err := h.Limiter.Allow(ctx, throttleKey)
		if err != nil {
			log.Warn("login throttle unavailable", "err", err)
		} else if !ok {
			h.record(c, audit.EventLoginThrottled, req.Username, "", "")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "too many login attempts"})
			return
		}
	}

	user, err := h.Authenticator.Authenticate(ctx, req.Username, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			h.record(c, audit.EventLoginFailed, req.Username, "", "")
			c.Header("WWW-Authenticate", "Bearer")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": auth.ErrInvalidCredentials.Error()})
			return
		}
		log.Error("login failed", "err", err)
		_ = c.Error(err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	resp, err := h.issuePair(user.Username, true)
	if err != nil {
		log.Error("token issuance failed", "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "token issuance failed"})
		return
	}

	if h.Limiter != nil {
		if err := h.Limiter.Reset(ctx, throttleKey); err != nil {
			log.Warn("login throttle reset failed", "err", err)
		}
	}
	h.record(c, audit.EventLoginSucceeded, user.Username, "", "")
	c.JSON(http.StatusOK, resp)
}

// Refresh exchanges a refresh token for a new token pair. The new access
// token is not fresh.
func (h Handlers) Refresh(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.RefreshToken == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "refresh_token required"})
		return
	}

	id, err := h.Resolver.Resolve(c.Request.Context(), auth.ResolveRequest{
		Token: req.RefreshToken,
		Scope: auth.ScopeRefresh,
	})
	switch auth.Classify(err) {
	case auth.OutcomeAuthorized:
	case auth.OutcomeUnauthenticated:
		c.Header("WWW-Authenticate", "Bearer")
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": auth.ErrUnauthenticated.Error()})
		return
	default:
		logger.FromGin(c).Error("refresh failed", "err", err)
		_ = c.Error(err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	resp, err := h.issuePair(id.User.Username, false)
	if err != nil {
		logger.FromGin(c).Error("token issuance failed", "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "token issuance failed"})
		return
	}
	h.record(c, audit.EventTokenRefreshed, id.User.Username, "", "")
	c.JSON(http.StatusOK, resp)
}

func (h Handlers) issuePair(username string, fresh bool) (tokenResponse, error) {
	access, err := h.Codec.IssueAccess(auth.Claims{auth.ClaimSubject: username, auth.ClaimFresh: fresh})
	if err != nil {
		return tokenResponse{}, err
	}
	refresh, err := h.Codec.IssueRefresh(auth.Claims{auth.ClaimSubject: username})
	if err != nil {
		return tokenResponse{}, err
	}
	return tokenResponse{AccessToken: access, TokenType: tokenType, RefreshToken: refresh}, nil
}

// record appends an audit event; failures are logged and otherwise ignored.
func (h Handlers) record(c *gin.Context, typ audit.EventType, username, actor, message string) {
	if h.Audit == nil {
		return
	}
	if err := h.Audit.Record(c.Request.Context(), typ, username, actor, c.ClientIP(), message); err != nil {
		logger.FromGin(c).Warn("audit append failed", "type", typ, "err", err)
	}
}
