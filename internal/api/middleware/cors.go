package middleware

import (
	"net/http"
	"strings"
)

const (
	corsAllowMethods = "GET, POST, PUT, PATCH, DELETE, OPTIONS"
	corsAllowHeaders = "Content-Type, Authorization, If-None-Match"
	corsMaxAge       = "600"
)

// originPolicy answers which Access-Control-Allow-Origin value, if any, an origin gets
type originPolicy struct {
	any     bool
	origins map[string]struct{}
}

// newOriginPolicy parses a comma separated origin list. "*" or an empty list allows every
// origin.
func newOriginPolicy(list string) originPolicy {
	p := originPolicy{origins: make(map[string]struct{})}
	for _, o := range strings.Split(list, ",") {
		switch o = strings.TrimSpace(o); o {
		case "":
		case "*":
			p.any = true
		default:
			p.origins[o] = struct{}{}
		}
	}
	if len(p.origins) == 0 {
		p.any = true
	}
	return p
}

func (p originPolicy) allowOrigin(origin string) (string, bool) {
	if origin == "" {
		return "", false
	}
	if p.any {
		return "*", true
	}
	if _, ok := p.origins[origin]; ok {
		return origin, true
	}
	return "", false
}

// CORSMiddleware answers preflights with 204 and tags responses for allowed origins
func CORSMiddleware(allowed string) func(http.Handler) http.Handler {
	policy := newOriginPolicy(allowed)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			if value, ok := policy.allowOrigin(r.Header.Get("Origin")); ok {
				h.Set("Access-Control-Allow-Origin", value)
				if value != "*" {
					h.Add("Vary", "Origin")
				}
			}

			if r.Method == http.MethodOptions {
				h.Set("Access-Control-Allow-Methods", corsAllowMethods)
				h.Set("Access-Control-Allow-Headers", corsAllowHeaders)
				h.Set("Access-Control-Max-Age", corsMaxAge)
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
