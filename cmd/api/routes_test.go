package main

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"dundie-api/internal/httpapi"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

func newHealthRouter(t *testing.T, rdb *redis.Client) (*gin.Engine, sqlmock.Sqlmock) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	t.Cleanup(func() { _ = rdb.Close() })

	r := gin.New()
	registerRoutes(r, httpapi.Handlers{}, db, rdb)
	return r, mock
}

func reachableRedis(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	return redis.NewClient(&redis.Options{Addr: mr.Addr()})
}

func unreachableRedis() *redis.Client {
	return redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", MaxRetries: -1, DialTimeout: 200 * time.Millisecond})
}

func get(r *gin.Engine, path string) (*httptest.ResponseRecorder, map[string]any) {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	body := map[string]any{}
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	return w, body
}

func TestHealthz(t *testing.T) {
	r, _ := newHealthRouter(t, unreachableRedis())

	w, body := get(r, "/healthz")
	if w.Code != http.StatusOK || body["status"] != "ok" {
		t.Fatalf("expected 200 ok, got %d %v", w.Code, body)
	}
}

func TestReadyz_AllUp(t *testing.T) {
	r, mock := newHealthRouter(t, reachableRedis(t))
	mock.ExpectPing()

	w, body := get(r, "/readyz")
	if w.Code != http.StatusOK || body["redis"] != "ok" {
		t.Fatalf("expected 200 with redis ok, got %d %v", w.Code, body)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestReadyz_PostgresDown(t *testing.T) {
	r, mock := newHealthRouter(t, reachableRedis(t))
	mock.ExpectPing().WillReturnError(errors.New("connection refused"))

	w, body := get(r, "/readyz")
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", w.Code)
	}
	if body["component"] != "postgres" {
		t.Fatalf("expected postgres component, got %v", body)
	}
}

func TestReadyz_RedisDownIsDegraded(t *testing.T) {
	r, mock := newHealthRouter(t, unreachableRedis())
	mock.ExpectPing()

	w, body := get(r, "/readyz")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if body["status"] != "ok" || body["redis"] != "degraded" {
		t.Fatalf("expected degraded redis, got %v", body)
	}
}
