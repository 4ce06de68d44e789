package redisinfra

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-journal/internal/config"
	"github.com/redis/go-redis/v9"
)

// NewClient connects to Redis. REDIS_URL (e.g. a hosted rediss:// URL with
// the token as password) wins over REDIS_ADDR/REDIS_PASSWORD.
func NewClient(cfg *config.Config) (*redis.Client, error) {
	var opts *redis.Options
	if cfg.RedisURL != "" {
		parsed, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("parse REDIS_URL: %w", err)
		}
		opts = parsed
	} else {
		opts = &redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword}
	}
	opts.PoolTimeout = 4 * time.Second
	opts.ConnMaxIdleTime = 5 * time.Minute
	opts.MaxRetries = 3

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	slog.Info("redis connected", "addr", opts.Addr)
	return client, nil
}
