package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/tastefull/backend/internal/domain/providers"
	redisclient "github.com/tastefull/backend/internal/infrastructure/clients/redis"
)

const scanBatchSize = 200

// RedisAdapter is the Redis backed CacheProvider
type RedisAdapter struct {
	rdb redis.Cmdable
}

func NewRedisAdapter(client *redisclient.Client) providers.CacheProvider {
	return &RedisAdapter{rdb: client.Client()}
}

func ttl(seconds int) time.Duration {
	return time.Duration(seconds) * time.Second
}

func (a *RedisAdapter) Get(ctx context.Context, key string) ([]byte, error) {
	value, err := a.rdb.Get(ctx, key).Bytes()
	switch {
	case errors.Is(err, redis.Nil):
		return nil, fmt.Errorf("%w: %s", providers.ErrCacheMiss, key)
	case err != nil:
		return nil, fmt.Errorf("cache get %s: %w", key, err)
	}
	return value, nil
}

func (a *RedisAdapter) Set(ctx context.Context, key string, value []byte, expirationSeconds int) error {
	if err := a.rdb.Set(ctx, key, value, ttl(expirationSeconds)).Err(); err != nil {
		return fmt.Errorf("cache set %s: %w", key, err)
	}
	return nil
}

func (a *RedisAdapter) Delete(ctx context.Context, key string) error {
	if err := a.rdb.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("cache delete %s: %w", key, err)
	}
	return nil
}

func (a *RedisAdapter) Exists(ctx context.Context, key string) (bool, error) {
	n, err := a.rdb.Exists(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("cache exists %s: %w", key, err)
	}
	return n > 0, nil
}

// GetMulti fetches keys with a single MGET
func (a *RedisAdapter) GetMulti(ctx context.Context, keys []string) (map[string][]byte, error) {
	found := make(map[string][]byte, len(keys))
	if len(keys) == 0 {
		return found, nil
	}

	values, err := a.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("cache mget: %w", err)
	}
	for i, v := range values {
		if s, ok := v.(string); ok {
			found[keys[i]] = []byte(s)
		}
	}
	return found, nil
}

// SetMulti writes every item in one pipeline round trip
func (a *RedisAdapter) SetMulti(ctx context.Context, items map[string][]byte, expirationSeconds int) error {
	if len(items) == 0 {
		return nil
	}
	_, err := a.rdb.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for key, value := range items {
			pipe.Set(ctx, key, value, ttl(expirationSeconds))
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("cache mset: %w", err)
	}
	return nil
}

// DeletePattern walks the keyspace with SCAN, deleting each matching batch
func (a *RedisAdapter) DeletePattern(ctx context.Context, pattern string) error {
	deleted := 0
	iter := a.rdb.Scan(ctx, 0, pattern, scanBatchSize).Iterator()
	batch := make([]string, 0, scanBatchSize)

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := a.rdb.Del(ctx, batch...).Err(); err != nil {
			return fmt.Errorf("cache delete %s: %w", pattern, err)
		}
		deleted += len(batch)
		batch = batch[:0]
		return nil
	}

	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == scanBatchSize {
			if err := flush(); err != nil {
				return err
			}
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("cache scan %s: %w", pattern, err)
	}
	if err := flush(); err != nil {
		return err
	}

	log.Debug().Str("pattern", pattern).Int("deleted", deleted).Msg("Invalidated cache keys")
	return nil
}

// TTL maps Redis' negative replies for missing or persistent keys to zero
func (a *RedisAdapter) TTL(ctx context.Context, key string) (time.Duration, error) {
	d, err := a.rdb.TTL(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("cache ttl %s: %w", key, err)
	}
	if d < 0 {
		return 0, nil
	}
	return d, nil
}

// Incr runs INCR and EXPIRE NX in one transaction so a counter never outlives its window
func (a *RedisAdapter) Incr(ctx context.Context, key string, expirationSeconds int) (int64, error) {
	var incr *redis.IntCmd
	_, err := a.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, key)
		if expirationSeconds > 0 {
			pipe.ExpireNX(ctx, key, ttl(expirationSeconds))
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("cache incr %s: %w", key, err)
	}
	return incr.Val(), nil
}
