package redis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"ragdash/internal/config"
)

// New opens the transcript/token redis and fails fast when it is unreachable.
func New(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	timeout := cfg.Timeout()
	opts := &redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		DialTimeout:  timeout + timeout/2,
		ReadTimeout:  timeout,
		WriteTimeout: timeout,
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, opts.DialTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis %s db %d unreachable: %w", cfg.Addr, cfg.DB, err)
	}
	return client, nil
}
