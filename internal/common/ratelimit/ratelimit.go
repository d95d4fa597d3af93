// Package ratelimit caps scenario generation per caller. Counts are shared
// through Redis when it is configured and kept in process otherwise.
package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"worldbuilder/internal/common/config"
	"worldbuilder/internal/common/database"
	"worldbuilder/internal/common/errors"
	"worldbuilder/internal/common/logger"
	"worldbuilder/internal/common/metrics"
)

const keyPrefix = "worldbuilder:ratelimit:"

// Limiter admits or rejects a request for a caller key.
type Limiter interface {
	Allow(ctx context.Context, key string) error
}

// New picks the limiter for cfg. rdb may be nil.
func New(cfg config.RateLimitConfig, rdb *database.RedisClient, log logger.Logger) Limiter {
	if !cfg.Enabled || cfg.RequestsPerMinute == 0 {
		return Unlimited{}
	}
	local := NewLocal(cfg.RequestsPerMinute, cfg.Burst)
	if rdb == nil {
		return local
	}
	return NewRedis(rdb, cfg.RequestsPerMinute, time.Minute, local, log)
}

// Unlimited admits everything.
type Unlimited struct{}

func (Unlimited) Allow(context.Context, string) error { return nil }

// Local is a token bucket per key.
type Local struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	limit    rate.Limit
	burst    int
}

func NewLocal(perMinute, burst int) *Local {
	if burst < 1 {
		burst = 1
	}
	return &Local{
		limiters: make(map[string]*rate.Limiter),
		limit:    rate.Limit(float64(perMinute) / 60),
		burst:    burst,
	}
}

func (l *Local) Allow(_ context.Context, key string) error {
	l.mu.Lock()
	lim, ok := l.limiters[key]
	if !ok {
		lim = rate.NewLimiter(l.limit, l.burst)
		l.limiters[key] = lim
	}
	l.mu.Unlock()

	if !lim.Allow() {
		metrics.RateLimitRejections.WithLabelValues("local").Inc()
		return errors.NewRateLimitedError(key)
	}
	return nil
}

// Redis is a fixed window counter in Redis. When Redis is unreachable the
// request is judged by the local fallback instead.
type Redis struct {
	client   *database.RedisClient
	limit    int64
	window   time.Duration
	fallback Limiter
	logger   logger.Logger
	now      func() time.Time
}

func NewRedis(client *database.RedisClient, limit int, window time.Duration, fallback Limiter, log logger.Logger) *Redis {
	return &Redis{
		client:   client,
		limit:    int64(limit),
		window:   window,
		fallback: fallback,
		logger:   log,
		now:      time.Now,
	}
}

// WindowKey is the Redis key holding key's counter for the window containing now.
func (r *Redis) WindowKey(key string, now time.Time) string {
	return fmt.Sprintf("%s%s:%d", keyPrefix, key, now.Unix()/int64(r.window.Seconds()))
}

func (r *Redis) Allow(ctx context.Context, key string) error {
	count, err := r.client.IncrWindow(ctx, r.WindowKey(key, r.now()), r.window)
	if err != nil {
		r.logger.Warn("Rate limit store unavailable, using local limiter", map[string]interface{}{
			"error": err.Error(),
		})
		if r.fallback == nil {
			return nil
		}
		return r.fallback.Allow(ctx, key)
	}
	if count > r.limit {
		metrics.RateLimitRejections.WithLabelValues("redis").Inc()
		return errors.NewRateLimitedError(key)
	}
	return nil
}
