package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"dundie-api/internal/audit"
	"dundie-api/internal/auth"
	"dundie-api/internal/config"
	"dundie-api/internal/security"
	"dundie-api/internal/throttle"
	"dundie-api/internal/users"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type testAPI struct {
	router *gin.Engine
	codec  *auth.Codec
	users  *users.MemoryRepo
	events *audit.MemoryRepo
}

func mustHash(t *testing.T, pw string) string {
	t.Helper()
	h, err := security.HashPassword(pw, bcrypt.MinCost)
	require.NoError(t, err)
	return h
}

func newTestAPI(t *testing.T, limiter LoginLimiter) *testAPI {
	t.Helper()
	gin.SetMode(gin.TestMode)

	codec, err := auth.NewCodec(config.AuthConfig{SecretKey: "handler-test-secret"})
	require.NoError(t, err)

	store := users.NewMemoryRepo(
		users.User{Username: "jim", Email: "jim@dm.com", Name: "Jim Halpert", Dept: "sales", Currency: "USD", PasswordHash: mustHash(t, "jim-pw")},
		users.User{Username: "dwight", Email: "dwight@dm.com", Name: "Dwight Schrute", Dept: "sales", Currency: "USD", PasswordHash: mustHash(t, "beets")},
		users.User{Username: "michael", Email: "michael@dm.com", Name: "Michael Scott", Dept: users.DeptManagement, Currency: "USD", PasswordHash: mustHash(t, "boss-pw"), Superuser: true},
	)
	events := audit.NewMemoryRepo()

	h := Handlers{
		Authenticator: auth.NewAuthenticator(store, bcrypt.MinCost),
		Codec:         codec,
		Resolver:      auth.NewResolver(codec, store),
		Users:         store,
		Audit:         audit.NewService(events),
		Limiter:       limiter,
		BcryptCost:    bcrypt.MinCost,
	}

	r := gin.New()
	h.Register(r)
	return &testAPI{router: r, codec: codec, users: store, events: events}
}

func (a *testAPI) do(method, path, bearer string, body any) *httptest.ResponseRecorder {
	var rdr *bytes.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		rdr = bytes.NewReader(b)
	} else {
		rdr = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, rdr)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func (a *testAPI) loginForm(username, password string) *httptest.ResponseRecorder {
	form := url.Values{"username": {username}, "password": {password}}
	req := httptest.NewRequest(http.MethodPost, "/token", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func (a *testAPI) login(t *testing.T, username, password string) tokenResponse {
	t.Helper()
	w := a.loginForm(username, password)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var out tokenResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func (a *testAPI) eventTypes() []audit.EventType {
	var out []audit.EventType
	for _, e := range a.events.Events() {
		out = append(out, e.Type)
	}
	return out
}

func TestLogin_IssuesFreshTokenPair(t *testing.T) {
	api := newTestAPI(t, nil)

	pair := api.login(t, "jim", "jim-pw")
	require.Equal(t, "bearer", pair.TokenType)

	access, err := api.codec.DecodeScope(pair.AccessToken, auth.ScopeAccess)
	require.NoError(t, err)
	require.Equal(t, "jim", access.Subject())
	require.True(t, access.Fresh())

	refresh, err := api.codec.DecodeScope(pair.RefreshToken, auth.ScopeRefresh)
	require.NoError(t, err)
	require.Equal(t, "jim", refresh.Subject())

	require.Equal(t, []audit.EventType{audit.EventLoginSucceeded}, api.eventTypes())
}

func TestLogin_AcceptsJSON(t *testing.T) {
	api := newTestAPI(t, nil)
	w := api.do(http.MethodPost, "/token", "", map[string]string{"username": "jim", "password": "jim-pw"})
	require.Equal(t, http.StatusOK, w.Code)
}

func TestLogin_RejectsBadCredentials(t *testing.T) {
	api := newTestAPI(t, nil)

	for _, tc := range []struct{ user, pw string }{
		{"jim", "wrong"},
		{"ghost", "jim-pw"},
	} {
		w := api.loginForm(tc.user, tc.pw)
		require.Equal(t, http.StatusUnauthorized, w.Code)
		require.Equal(t, "Bearer", w.Header().Get("WWW-Authenticate"))
		require.Contains(t, w.Body.String(), "incorrect username or password")
	}
	require.Equal(t, []audit.EventType{audit.EventLoginFailed, audit.EventLoginFailed}, api.eventTypes())
}

func TestLogin_MissingFields(t *testing.T) {
	api := newTestAPI(t, nil)
	w := api.loginForm("jim", "")
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLogin_Throttled(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	api := newTestAPI(t, throttle.NewLimiter(rdb, config.LoginConfig{MaxAttempts: 2, Window: time.Minute}))

	require.Equal(t, http.StatusUnauthorized, api.loginForm("jim", "x").Code)
	require.Equal(t, http.StatusUnauthorized, api.loginForm("jim", "y").Code)

	// Correct password no longer helps once the window is exhausted.
	w := api.loginForm("jim", "jim-pw")
	require.Equal(t, http.StatusTooManyRequests, w.Code)
	require.Contains(t, api.eventTypes(), audit.EventLoginThrottled)

	// Other users are unaffected.
	require.Equal(t, http.StatusOK, api.loginForm("dwight", "beets").Code)

	mr.FastForward(2 * time.Minute)
	require.Equal(t, http.StatusOK, api.loginForm("jim", "jim-pw").Code)
}

func TestLogin_SuccessResetsThrottle(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	api := newTestAPI(t, throttle.NewLimiter(rdb, config.LoginConfig{MaxAttempts: 2, Window: time.Minute}))

	require.Equal(t, http.StatusUnauthorized, api.loginForm("jim", "x").Code)
	require.Equal(t, http.StatusOK, api.loginForm("jim", "jim-pw").Code)
	require.Equal(t, http.StatusUnauthorized, api.loginForm("jim", "x").Code)
	require.Equal(t, http.StatusOK, api.loginForm("jim", "jim-pw").Code)
}

type brokenLimiter struct{}

func (brokenLimiter) Allow(ctx context.Context, key string) (bool, error) {
	return false, errors.New("redis down")
}

func (brokenLimiter) Reset(ctx context.Context, key string) error {
	return errors.New("redis down")
}

func TestLogin_LimiterFailureFailsOpen(t *testing.T) {
	api := newTestAPI(t, brokenLimiter{})
	api.login(t, "jim", "jim-pw")
}

func TestRefresh_IssuesStalePair(t *testing.T) {
	api := newTestAPI(t, nil)
	pair := api.login(t, "jim", "jim-pw")

	w := api.do(http.MethodPost, "/refresh_token", "", map[string]string{"refresh_token": pair.RefreshToken})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var out tokenResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	claims, err := api.codec.DecodeScope(out.AccessToken, auth.ScopeAccess)
	require.NoError(t, err)
	require.Equal(t, "jim", claims.Subject())
	require.False(t, claims.Fresh())
	require.Contains(t, api.eventTypes(), audit.EventTokenRefreshed)
}

func TestRefresh_RejectsAccessToken(t *testing.T) {
	api := newTestAPI(t, nil)
	pair := api.login(t, "jim", "jim-pw")

	w := api.do(http.MethodPost, "/refresh_token", "", map[string]string{"refresh_token": pair.AccessToken})
	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.Equal(t, "Bearer", w.Header().Get("WWW-Authenticate"))
}

func TestRefresh_MissingToken(t *testing.T) {
	api := newTestAPI(t, nil)
	w := api.do(http.MethodPost, "/refresh_token", "", map[string]string{})
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestProtectedRoutes_RejectRefreshToken(t *testing.T) {
	api := newTestAPI(t, nil)
	pair := api.login(t, "jim", "jim-pw")

	w := api.do(http.MethodGet, "/user/me", pair.RefreshToken, nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}
