package middleware

import (
	"bufio"
	"bytes"
	"compress/gzip"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"net"
	"net/http"
	"strings"
	"sync"
)

const privateNoStore = "private, no-cache, must-revalidate"

// Shared caches may hold anonymous responses for these prefixes; first match wins
var publicCachePolicies = []struct {
	prefix string
	value  string
}{
	{"/api/restaurants/search", "public, max-age=120, must-revalidate"},
	{"/api/restaurants", "public, max-age=60, must-revalidate"},
	{"/api/organisations", "public, max-age=300, must-revalidate"},
}

// Paths that stream or are scraped and must reach the client unbuffered
var unoptimizedPrefixes = []string{"/api/stream/", "/metrics"}

var gzipWriterPool = sync.Pool{
	New: func() interface{} {
		gz, _ := gzip.NewWriterLevel(io.Discard, gzip.DefaultCompression)
		return gz
	},
}

// Compression gzips responses for clients that accept it. The encoder starts on the first
// body write so bodiless responses stay bodiless.
func Compression(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodHead || !acceptsGzip(r) {
			next.ServeHTTP(w, r)
			return
		}

		gzw := &gzipResponseWriter{ResponseWriter: w}
		defer gzw.close()
		next.ServeHTTP(gzw, r)
	})
}

func acceptsGzip(r *http.Request) bool {
	for _, part := range strings.Split(r.Header.Get("Accept-Encoding"), ",") {
		coding, _, _ := strings.Cut(strings.TrimSpace(part), ";")
		if strings.EqualFold(coding, "gzip") {
			return true
		}
	}
	return false
}

type gzipResponseWriter struct {
	http.ResponseWriter
	gz *gzip.Writer
}

func (w *gzipResponseWriter) WriteHeader(status int) {
	if status != http.StatusNoContent && status != http.StatusNotModified {
		w.start()
	}
	w.ResponseWriter.WriteHeader(status)
}

func (w *gzipResponseWriter) Write(b []byte) (int, error) {
	w.start()
	return w.gz.Write(b)
}

func (w *gzipResponseWriter) start() {
	if w.gz != nil {
		return
	}
	h := w.Header()
	h.Set("Content-Encoding", "gzip")
	h.Add("Vary", "Accept-Encoding")
	h.Del("Content-Length")

	w.gz = gzipWriterPool.Get().(*gzip.Writer)
	w.gz.Reset(w.ResponseWriter)
}

func (w *gzipResponseWriter) close() {
	if w.gz == nil {
		return
	}
	w.gz.Close()
	gzipWriterPool.Put(w.gz)
}

func (w *gzipResponseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	if hj, ok := w.ResponseWriter.(http.Hijacker); ok {
		return hj.Hijack()
	}
	return nil, nil, errors.New("hijack not supported")
}

// ETag buffers successful GET/HEAD responses, tags them with a content hash and answers
// matching If-None-Match requests with 304
func ETag(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			next.ServeHTTP(w, r)
			return
		}

		rec := &bufferedResponse{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		if rec.status != http.StatusOK {
			rec.flush()
			return
		}

		sum := sha256.Sum256(rec.body.Bytes())
		etag := `"` + hex.EncodeToString(sum[:16]) + `"`
		w.Header().Set("ETag", etag)
		if w.Header().Get("Cache-Control") == "" {
			w.Header().Set("Cache-Control", "private, must-revalidate")
		}

		if etagMatches(r.Header.Get("If-None-Match"), etag) {
			w.WriteHeader(http.StatusNotModified)
			return
		}
		rec.flush()
	})
}

// etagMatches implements the weak comparison used for If-None-Match
func etagMatches(header, etag string) bool {
	for _, candidate := range strings.Split(header, ",") {
		candidate = strings.TrimPrefix(strings.TrimSpace(candidate), "W/")
		if candidate == "*" || candidate == etag {
			return true
		}
	}
	return false
}

type bufferedResponse struct {
	http.ResponseWriter
	body   bytes.Buffer
	status int
}

func (b *bufferedResponse) Write(p []byte) (int, error) {
	return b.body.Write(p)
}

func (b *bufferedResponse) WriteHeader(status int) {
	b.status = status
}

func (b *bufferedResponse) flush() {
	b.ResponseWriter.WriteHeader(b.status)
	b.ResponseWriter.Write(b.body.Bytes())
}

// CacheControl sets the caching policy. Signed-in responses are redacted per viewer, so
// they are always private.
func CacheControl(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", cachePolicy(r))
		next.ServeHTTP(w, r)
	})
}

func cachePolicy(r *http.Request) string {
	if r.Header.Get("Authorization") != "" || r.Method != http.MethodGet {
		return privateNoStore
	}
	for _, p := range publicCachePolicies {
		if strings.HasPrefix(r.URL.Path, p.prefix) {
			return p.value
		}
	}
	return privateNoStore
}

// ResponseOptimization combines cache headers, ETags and compression
func ResponseOptimization(next http.Handler) http.Handler {
	optimized := CacheControl(ETag(Compression(next)))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		for _, prefix := range unoptimizedPrefixes {
			if strings.HasPrefix(r.URL.Path, prefix) {
				next.ServeHTTP(w, r)
				return
			}
		}
		optimized.ServeHTTP(w, r)
	})
}
