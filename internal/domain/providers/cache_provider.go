package providers

import (
	"context"
	"errors"
	"time"
)

// ErrCacheMiss is returned by Get for absent or expired keys
var ErrCacheMiss = errors.New("cache miss")

// CacheProvider is the shared key/value cache. Expirations are in seconds; zero means the
// entry does not expire.
type CacheProvider interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, expirationSeconds int) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)

	// GetMulti omits missing keys from the result
	GetMulti(ctx context.Context, keys []string) (map[string][]byte, error)
	SetMulti(ctx context.Context, items map[string][]byte, expirationSeconds int) error

	// DeletePattern removes every key matching a glob pattern
	DeletePattern(ctx context.Context, pattern string) error

	// Incr increments a counter; the expiration applies from the first increment
	Incr(ctx context.Context, key string, expirationSeconds int) (int64, error)

	// TTL is the time left before key expires, zero when it has no expiry or is absent
	TTL(ctx context.Context, key string) (time.Duration, error)
}
