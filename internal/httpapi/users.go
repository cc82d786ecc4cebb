package httpapi

import (
	"errors"
	"net/http"

	"dundie-api/internal/audit"
	"dundie-api/internal/auth"
	"dundie-api/internal/security"
	"dundie-api/internal/users"
	"dundie-api/pkg/logger"

	"github.com/gin-gonic/gin"
)

type userResponse struct {
	Name      string `json:"name"`
	Username  string `json:"username"`
	Dept      string `json:"dept"`
	Avatar    string `json:"avatar,omitempty"`
	Bio       string `json:"bio,omitempty"`
	Currency  string `json:"currency"`
	Superuser bool   `json:"superuser"`
}

func toUserResponse(u users.User) userResponse {
	return userResponse{
		Name:      u.Name,
		Username:  u.Username,
		Dept:      u.Dept,
		Avatar:    u.Avatar,
		Bio:       u.Bio,
		Currency:  u.Currency,
		Superuser: u.Superuser,
	}
}

type userCreateRequest struct {
	Email    string `json:"email"`
	Username string `json:"username,omitempty"`
	Name     string `json:"name"`
	Dept     string `json:"dept"`
	Currency string `json:"currency"`
	Password string `json:"password"`
	Avatar   string `json:"avatar,omitempty"`
	Bio      string `json:"bio,omitempty"`
}

type passwordChangeRequest struct {
	Password        string `json:"password"`
	PasswordConfirm string `json:"password_confirm"`
}

// ListUsers returns every registered user.
func (h Handlers) ListUsers(c *gin.Context) {
	all, err := h.Users.List(c.Request.Context())
	if err != nil {
		logger.FromGin(c).Error("list users failed", "err", err)
		_ = c.Error(err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	out := make([]userResponse, 0, len(all))
	for _, u := range all {
		out = append(out, toUserResponse(u))
	}
	c.JSON(http.StatusOK, out)
}

// Me returns the authenticated user.
func (h Handlers) Me(c *gin.Context) {
	id, ok := auth.CurrentIdentity(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": auth.ErrUnauthenticated.Error()})
		return
	}
	c.JSON(http.StatusOK, toUserResponse(id.User))
}

// CreateUser registers a new user. Superuser only.
func (h Handlers) CreateUser(c *gin.Context) {
	var req userCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	hash, err := security.HashPassword(req.Password, h.BcryptCost)
	if err != nil {
		if errors.Is(err, security.ErrEmptyPassword) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "password required"})
			return
		}
		logger.FromGin(c).Error("password hashing failed", "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	u, err := users.New(users.NewUser{
		Email:        req.Email,
		Username:     req.Username,
		Avatar:       req.Avatar,
		Bio:          req.Bio,
		PasswordHash: hash,
		Name:         req.Name,
		Dept:         req.Dept,
		Currency:     req.Currency,
	})
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "email, name, dept, currency, password required"})
		return
	}

	created, err := h.Users.Create(c.Request.Context(), u)
	if err != nil {
		if errors.Is(err, users.ErrAlreadyExists) {
			c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": "username or email already registered"})
			return
		}
		logger.FromGin(c).Error("create user failed", "err", err)
		_ = c.Error(err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	actor, _ := auth.Username(c.Request.Context())
	h.record(c, audit.EventUserCreated, created.Username, actor, "")
	c.JSON(http.StatusCreated, toUserResponse(created))
}

// ChangePassword replaces a user's password. Requires a fresh token; only
// the user themself or a superuser may call it.
func (h Handlers) ChangePassword(c *gin.Context) {
	var req passwordChangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if req.Password == "" || req.Password != req.PasswordConfirm {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "passwords do not match"})
		return
	}

	hash, err := security.HashPassword(req.Password, h.BcryptCost)
	if err != nil {
		logger.FromGin(c).Error("password hashing failed", "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	username := c.Param("username")
	if err := h.Users.UpdatePassword(c.Request.Context(), username, hash); err != nil {
		if errors.Is(err, users.ErrNotFound) {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		logger.FromGin(c).Error("password update failed", "err", err)
		_ = c.Error(err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	actor, _ := auth.Username(c.Request.Context())
	h.record(c, audit.EventPasswordChanged, username, actor, "")
	c.JSON(http.StatusOK, gin.H{"message": "password updated"})
}
