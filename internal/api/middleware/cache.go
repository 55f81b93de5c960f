package middleware

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"strings"

	"github.com/rs/zerolog"
	"github.com/tastefull/backend/internal/domain/providers"
	"github.com/tastefull/backend/internal/infrastructure/observability"
)

const responseCachePrefix = "http:cache:"

// CacheRoute configures response caching for every path under Prefix
type CacheRoute struct {
	Prefix string
	// Group is embedded in the key so writes can drop a whole group by pattern
	Group      string
	TTLSeconds int
}

var defaultCacheRoutes = []CacheRoute{
	{Prefix: "/api/restaurants", Group: "restaurants", TTLSeconds: 60},
	{Prefix: "/api/feed", Group: "feed", TTLSeconds: 30},
	{Prefix: "/api/organisations", Group: "organisations", TTLSeconds: 60},
}

// CacheMiddleware serves anonymous GETs from the response cache. Signed-in responses are
// redacted per viewer, so they always reach the handler.
type CacheMiddleware struct {
	cache   providers.CacheProvider
	routes  []CacheRoute
	metrics *observability.Metrics
}

func NewCacheMiddleware(cache providers.CacheProvider) *CacheMiddleware {
	return &CacheMiddleware{cache: cache, routes: defaultCacheRoutes}
}

// WithMetrics records hits and misses per cache group
func (m *CacheMiddleware) WithMetrics(metrics *observability.Metrics) *CacheMiddleware {
	m.metrics = metrics
	return m
}

func (m *CacheMiddleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		route, ok := m.cacheable(r)
		if !ok {
			next.ServeHTTP(w, r)
			return
		}

		ctx := r.Context()
		key := CacheKey(route.Group, r)

		if body, err := m.cache.Get(ctx, key); err == nil {
			observability.RecordCacheHit(ctx, m.metrics, route.Group)
			h := w.Header()
			h.Set("X-Cache", "HIT")
			h.Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			w.Write(body)
			return
		}

		observability.RecordCacheMiss(ctx, m.metrics, route.Group)
		w.Header().Set("X-Cache", "MISS")
		tee := &teeResponse{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(tee, r)

		if tee.status != http.StatusOK || tee.body.Len() == 0 {
			return
		}
		if err := m.cache.Set(ctx, key, tee.body.Bytes(), route.TTLSeconds); err != nil {
			zerolog.Ctx(ctx).Warn().Err(err).Str("key", key).Msg("Failed to cache response")
		}
	})
}

// cacheable returns the longest configured route covering an anonymous GET
func (m *CacheMiddleware) cacheable(r *http.Request) (CacheRoute, bool) {
	if m.cache == nil || r.Method != http.MethodGet || r.Header.Get("Authorization") != "" {
		return CacheRoute{}, false
	}
	if strings.HasPrefix(r.URL.Path, "/api/stream/") {
		return CacheRoute{}, false
	}

	var best CacheRoute
	for _, route := range m.routes {
		covers := r.URL.Path == route.Prefix || strings.HasPrefix(r.URL.Path, route.Prefix+"/")
		if covers && len(route.Prefix) > len(best.Prefix) {
			best = route
		}
	}
	return best, best.Prefix != ""
}

// CacheKey is "http:cache:<group>:<sha256 of method, path and query>"
func CacheKey(group string, r *http.Request) string {
	target := r.Method + ":" + r.URL.Path
	if r.URL.RawQuery != "" {
		target += "?" + r.URL.RawQuery
	}
	sum := sha256.Sum256([]byte(target))
	return responseCachePrefix + group + ":" + hex.EncodeToString(sum[:])
}

// teeResponse writes through to the client while keeping a copy of the body
type teeResponse struct {
	http.ResponseWriter
	status      int
	body        bytes.Buffer
	wroteHeader bool
}

func (t *teeResponse) WriteHeader(status int) {
	if t.wroteHeader {
		return
	}
	t.wroteHeader = true
	t.status = status
	t.ResponseWriter.WriteHeader(status)
}

func (t *teeResponse) Write(p []byte) (int, error) {
	t.WriteHeader(http.StatusOK)
	t.body.Write(p)
	return t.ResponseWriter.Write(p)
}
