package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/tastefull/backend/pkg/config"
	"github.com/tastefull/backend/pkg/retry"
)

// Client owns the shared go-redis connection pool used for caching, rate limiting and
// pub/sub
type Client struct {
	rdb *redis.Client
}

// NewClient connects to Redis, giving it a few seconds to come up
func NewClient(ctx context.Context, cfg *config.RedisConfig) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	policy := retry.DefaultConfig()
	policy.MaxAttempts = 5
	policy.MaxTotalTimeout = 15 * time.Second

	ping := func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
	if err := retry.WaitReady(ctx, policy, "Redis", 2*time.Second, ping); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("connect to Redis at %s: %w", cfg.RedisAddr(), err)
	}

	log.Info().Str("addr", cfg.RedisAddr()).Int("db", cfg.DB).Msg("Connected to Redis")
	return &Client{rdb: rdb}, nil
}

func (c *Client) Client() *redis.Client {
	return c.rdb
}

func (c *Client) Close() error {
	return c.rdb.Close()
}
