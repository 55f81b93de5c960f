package middleware

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/tastefull/backend/internal/domain/providers"
	"github.com/tastefull/backend/internal/infrastructure/observability"
	"golang.org/x/time/rate"
)

// RateLimiter caps requests per signed-in viewer in fixed windows. Counters live in the
// shared cache so the cap holds across instances. Without a cache, or while it fails,
// each process limits on its own with token buckets.
type RateLimiter struct {
	cache   providers.CacheProvider
	local   *localLimiters
	limit   int
	window  time.Duration
	prefix  string
	metrics *observability.DomainMetrics
}

// NewRateLimiter allows limit requests per window for each viewer, keyed prefix+viewerID
func NewRateLimiter(cache providers.CacheProvider, limit int, window time.Duration, prefix string, metrics *observability.DomainMetrics) *RateLimiter {
	return &RateLimiter{
		cache:   cache,
		local:   newLocalLimiters(time.Now),
		limit:   limit,
		window:  window,
		prefix:  prefix,
		metrics: metrics,
	}
}

// Middleware answers over-limit requests with 429. Signed-out requests are not counted.
func (l *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		viewerID := ViewerID(r.Context())
		if viewerID == "" || l.limit <= 0 {
			next.ServeHTTP(w, r)
			return
		}

		ok, retryAfter := l.Allow(r.Context(), viewerID)
		if !ok {
			l.metrics.IncRateLimited()
			w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(retryAfter.Seconds()))))
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			w.Write([]byte(`{"error":"rate limit exceeded"}`))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Allow counts one request for viewerID. When it is over the limit the second value is
// how long the caller should wait.
func (l *RateLimiter) Allow(ctx context.Context, viewerID string) (bool, time.Duration) {
	if l.cache == nil {
		return l.local.allow(viewerID, l.limit, l.window)
	}

	key := l.prefix + viewerID
	count, err := l.cache.Incr(ctx, key, int(l.window.Seconds()))
	if err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Msg("Rate limit counter unavailable, using local limiter")
		return l.local.allow(viewerID, l.limit, l.window)
	}
	if count <= int64(l.limit) {
		return true, 0
	}

	left, err := l.cache.TTL(ctx, key)
	if err != nil || left <= 0 {
		return false, l.window
	}
	return false, left
}

// localLimiters is the in-process fallback: a token bucket per viewer refilling limit
// tokens per window. Buckets idle for a whole window are full again and get swept.
type localLimiters struct {
	mu        sync.Mutex
	now       func() time.Time
	viewers   map[string]*viewerLimiter
	nextSweep time.Time
}

type viewerLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func newLocalLimiters(now func() time.Time) *localLimiters {
	return &localLimiters{now: now, viewers: make(map[string]*viewerLimiter)}
}

func (c *localLimiters) allow(key string, limit int, window time.Duration) (bool, time.Duration) {
	if limit <= 0 {
		return true, 0
	}
	now := c.now()

	c.mu.Lock()
	defer c.mu.Unlock()

	if !now.Before(c.nextSweep) {
		c.sweep(now, window)
	}

	v, ok := c.viewers[key]
	if !ok {
		v = &viewerLimiter{limiter: rate.NewLimiter(rate.Every(window/time.Duration(limit)), limit)}
		c.viewers[key] = v
	}
	v.lastSeen = now

	if v.limiter.AllowN(now, 1) {
		return true, 0
	}
	missing := 1 - v.limiter.TokensAt(now)
	return false, time.Duration(missing / float64(v.limiter.Limit()) * float64(time.Second))
}

func (c *localLimiters) sweep(now time.Time, window time.Duration) {
	for k, v := range c.viewers {
		if now.Sub(v.lastSeen) >= window {
			delete(c.viewers, k)
		}
	}
	c.nextSweep = now.Add(window)
}
