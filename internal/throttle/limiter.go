package throttle

import (
	"context"
	"time"

	"dundie-api/internal/config"
	"dundie-api/pkg/utils"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "dundie:login:"

// Limiter caps attempts per key within a fixed window using Redis.
type Limiter struct {
	rdb    *redis.Client
	limit  int
	window time.Duration
}

func NewLimiter(rdb *redis.Client, cfg config.LoginConfig) *Limiter {
	return &Limiter{rdb: rdb, limit: cfg.MaxAttempts, window: cfg.Window}
}

// Allow records an attempt for key and reports whether it is within the limit.
func (l *Limiter) Allow(ctx context.Context, key string) (bool, error) {
	return utils.HitFixedWindow(ctx, l.rdb, keyPrefix+key, l.limit, l.window)
}

// Reset forgets previous attempts for key.
func (l *Limiter) Reset(ctx context.Context, key string) error {
	return utils.ResetFixedWindow(ctx, l.rdb, keyPrefix+key)
}
