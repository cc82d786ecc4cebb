package rbac

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"dundie-api/internal/auth"
	"dundie-api/internal/config"
	"dundie-api/internal/users"

	"github.com/gin-gonic/gin"
)

func newResolver(t *testing.T) (*auth.Resolver, *auth.Codec) {
	t.Helper()
	codec, err := auth.NewCodec(config.AuthConfig{SecretKey: "secret", AccessTokenTTL: 15 * time.Minute, RefreshTokenTTL: time.Hour})
	if err != nil {
		t.Fatalf("codec: %v", err)
	}
	repo := users.NewMemoryRepo(
		users.User{Username: "dwight", Dept: "sales"},
		users.User{Username: "michael", Dept: users.DeptManagement, Superuser: true},
	)
	return auth.NewResolver(codec, repo), codec
}

func issue(t *testing.T, c *auth.Codec, sub string) string {
	t.Helper()
	tok, err := c.IssueAccess(auth.Claims{"sub": sub})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	return tok
}

func TestSuperuserGuard_Outcomes(t *testing.T) {
	res, codec := newResolver(t)
	g := SuperuserGuard(auth.AuthenticatedGuard(res))

	header := func(tok string) http.Header {
		h := http.Header{}
		h.Set("Authorization", "Bearer "+tok)
		return h
	}

	_, err := g(context.Background(), auth.ResolveRequest{Header: header(issue(t, codec, "dwight"))})
	if !errors.Is(err, auth.ErrForbidden) || errors.Is(err, auth.ErrUnauthenticated) {
		t.Fatalf("expected forbidden (not unauthenticated), got %v", err)
	}
	if auth.Classify(err) != auth.OutcomeForbidden {
		t.Fatalf("expected OutcomeForbidden, got %s", auth.Classify(err))
	}

	_, err = g(context.Background(), auth.ResolveRequest{Header: header("garbage")})
	if auth.Classify(err) != auth.OutcomeUnauthenticated {
		t.Fatalf("expected OutcomeUnauthenticated, got %s", auth.Classify(err))
	}

	id, err := g(context.Background(), auth.ResolveRequest{Header: header(issue(t, codec, "michael"))})
	if err != nil || id.User.Username != "michael" {
		t.Fatalf("expected michael authorized, got %v", err)
	}
}

func TestRequireSuperuser_HTTP(t *testing.T) {
	gin.SetMode(gin.TestMode)
	res, codec := newResolver(t)

	reached := false
	r := gin.New()
	r.GET("/admin", RequireSuperuser(res), func(c *gin.Context) {
		reached = true
		c.Status(http.StatusOK)
	})

	cases := []struct {
		name   string
		authz  string
		status int
	}{
		{"superuser", "Bearer " + issue(t, codec, "michael"), http.StatusOK},
		{"regular user", "Bearer " + issue(t, codec, "dwight"), http.StatusForbidden},
		{"no token", "", http.StatusUnauthorized},
		{"bad token", "Bearer nope", http.StatusUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			reached = false
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/admin", nil)
			if tc.authz != "" {
				req.Header.Set("Authorization", tc.authz)
			}
			r.ServeHTTP(w, req)
			if w.Code != tc.status {
				t.Fatalf("expected %d, got %d", tc.status, w.Code)
			}
			if reached != (tc.status == http.StatusOK) {
				t.Fatalf("handler reached=%v for status %d", reached, w.Code)
			}
		})
	}
}

func TestRequireSelfOrSuperuser(t *testing.T) {
	gin.SetMode(gin.TestMode)
	res, codec := newResolver(t)

	r := gin.New()
	r.POST("/user/:username/password", auth.RequireAuthenticated(res), RequireSelfOrSuperuser("username"), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	do := func(path, sub string) int {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, path, nil)
		req.Header.Set("Authorization", "Bearer "+issue(t, codec, sub))
		r.ServeHTTP(w, req)
		return w.Code
	}

	if code := do("/user/dwight/password", "dwight"); code != http.StatusOK {
		t.Fatalf("self: expected 200, got %d", code)
	}
	if code := do("/user/michael/password", "dwight"); code != http.StatusForbidden {
		t.Fatalf("other: expected 403, got %d", code)
	}
	if code := do("/user/dwight/password", "michael"); code != http.StatusOK {
		t.Fatalf("superuser: expected 200, got %d", code)
	}
}

func TestRequireSelfOrSuperuser_WithoutIdentity(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.GET("/u/:username", RequireSelfOrSuperuser("username"), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/u/dwight", nil))
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}
