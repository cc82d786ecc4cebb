package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"dundie-api/internal/audit"
	"dundie-api/internal/auth"
	"dundie-api/internal/config"
	"dundie-api/internal/httpapi"
	"dundie-api/internal/throttle"
	"dundie-api/internal/users"
	"dundie-api/pkg/logger"
	"dundie-api/pkg/utils"

	"github.com/gin-gonic/gin"
	_ "github.com/jackc/pgx/v5/stdlib"
)

func main() {
	// Root context that cancels on shutdown
	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", "err", err)
		os.Exit(1)
	}

	log := logger.New(cfg.App.Env)
	slog.SetDefault(log)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	codec, err := auth.NewCodec(cfg.Auth)
	if err != nil {
		log.Error("auth init failed", "err", err)
		os.Exit(1)
	}

	db, err := utils.OpenPostgres(rootCtx, "pgx", cfg.PostgresDSN(), utils.PostgresPoolConfig{})
	if err != nil {
		log.Error("postgres init failed", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	// Redis only backs login throttling, which fails open, so an unreachable
	// server at boot is not fatal.
	redisCfg := utils.RedisConfig{Addr: cfg.RedisAddr()}
	rdb, err := utils.OpenRedis(rootCtx, redisCfg)
	if err != nil {
		log.Warn("redis unavailable, login throttling disabled until it recovers", "err", err)
		rdb, err = utils.NewRedis(redisCfg)
		if err != nil {
			log.Error("redis init failed", "err", err)
			os.Exit(1)
		}
	}
	defer rdb.Close()

	userRepo := users.NewPostgresRepo(db)
	resolver := auth.NewResolver(codec, userRepo)

	h := httpapi.Handlers{
		Authenticator: auth.NewAuthenticator(userRepo, cfg.Auth.BcryptCost),
		Codec:         codec,
		Resolver:      resolver,
		Users:         userRepo,
		Audit:         audit.NewService(audit.NewPostgresRepo(db)),
		Limiter:       throttle.NewLimiter(rdb, cfg.Login),
		BcryptCost:    cfg.Auth.BcryptCost,
	}

	// Gin router
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.Middleware(log))

	registerRoutes(r, h, db, rdb)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("api listening", "addr", srv.Addr, "env", cfg.App.Env, "alg", codec.Algorithm())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server failed", "err", err)
			stop()
		}
	}()

	<-rootCtx.Done()
	log.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown failed", "err", err)
	}
}
