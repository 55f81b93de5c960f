package middleware

import (
	"net/http"
	"time"

	"github.com/tastefull/backend/internal/infrastructure/observability"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// RouteResolver maps a request to its registered route pattern; *http.ServeMux satisfies it
type RouteResolver interface {
	Handler(r *http.Request) (http.Handler, string)
}

// ObservabilityMiddleware traces each request and records request metrics under the
// matched route pattern, keeping IDs out of span names and metric labels
func ObservabilityMiddleware(metrics *observability.Metrics, routes RouteResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			route := routeLabel(routes, r)

			ctx, span := observability.StartSpan(r.Context(), route)
			defer span.End()

			observability.SetSpanAttributes(span,
				attribute.String("http.method", r.Method),
				attribute.String("http.route", route),
				attribute.Bool("tastefull.signed_in", r.Header.Get("Authorization") != ""),
			)

			rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
			start := time.Now()

			next.ServeHTTP(rw, r.WithContext(ctx))

			if metrics != nil {
				observability.RecordRequestMetric(ctx, metrics, r.Method, route, rw.statusCode, time.Since(start))
			}
			observability.SetSpanAttributes(span, attribute.Int("http.status_code", rw.statusCode))
			if rw.statusCode >= http.StatusInternalServerError {
				span.SetStatus(codes.Error, http.StatusText(rw.statusCode))
			}
		})
	}
}

func routeLabel(routes RouteResolver, r *http.Request) string {
	if routes == nil {
		return r.Method + " " + r.URL.Path
	}
	if _, pattern := routes.Handler(r); pattern != "" {
		return pattern
	}
	return "unmatched"
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(statusCode int) {
	rw.statusCode = statusCode
	rw.ResponseWriter.WriteHeader(statusCode)
}

func (rw *responseWriter) Flush() {
	if flusher, ok := rw.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}
