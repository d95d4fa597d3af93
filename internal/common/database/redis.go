// internal/common/database/redis.go
package database

import (
	"context"
	"fmt"
	"time"

	"worldbuilder/internal/common/config"

	"github.com/redis/go-redis/v9"
)

// RedisClient wraps the Redis client used for shared rate-limit windows.
type RedisClient struct {
	Client *redis.Client
}

// NewRedis creates a new Redis client. No connection is made until first use.
func NewRedis(cfg config.RedisConfig) *RedisClient {
	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Address,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 2,
	})

	return &RedisClient{Client: rdb}
}

// NewRedisFromClient wraps an existing client (tests pass a redismock client).
func NewRedisFromClient(rdb *redis.Client) *RedisClient {
	return &RedisClient{Client: rdb}
}

func (c *RedisClient) Ping(ctx context.Context) error {
	if err := c.Client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

func (c *RedisClient) Close() error {
	if c.Client != nil {
		return c.Client.Close()
	}
	return nil
}

// IncrWindow increments key and starts its expiry when the counter is new,
// giving a fixed window counter. It returns the count inside the window.
func (c *RedisClient) IncrWindow(ctx context.Context, key string, window time.Duration) (int64, error) {
	count, err := c.Client.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("redis incr %s: %w", key, err)
	}
	if count == 1 {
		if err := c.Client.Expire(ctx, key, window).Err(); err != nil {
			return count, fmt.Errorf("redis expire %s: %w", key, err)
		}
	}
	return count, nil
}

// TTL reports how long until key expires.
func (c *RedisClient) TTL(ctx context.Context, key string) (time.Duration, error) {
	return c.Client.TTL(ctx, key).Result()
}
