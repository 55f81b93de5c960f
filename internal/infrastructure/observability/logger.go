package observability

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/trace"
)

// InitLogger configures the global logger. LOG_LEVEL overrides the info default and
// development writes console output instead of JSON.
func InitLogger(serviceName, env string) {
	zerolog.TimeFieldFormat = time.RFC3339Nano
	zerolog.SetGlobalLevel(levelFromEnv())

	var out io.Writer = os.Stdout
	if env == "development" {
		out = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.Kitchen}
	}

	fields := zerolog.New(out).With().Timestamp().Str("service", serviceName)
	if env != "development" {
		fields = fields.Caller()
	}
	log.Logger = fields.Logger()
}

func levelFromEnv() zerolog.Level {
	level, err := zerolog.ParseLevel(os.Getenv("LOG_LEVEL"))
	if err != nil || level == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return level
}

// LoggerFromContext returns the request logger in ctx (or the global logger) tagged with
// the active trace and span IDs
func LoggerFromContext(ctx context.Context) *zerolog.Logger {
	logger := zerolog.Ctx(ctx)
	if logger.GetLevel() == zerolog.Disabled {
		logger = &log.Logger
	}

	sc := trace.SpanFromContext(ctx).SpanContext()
	if !sc.IsValid() {
		return logger
	}
	traced := logger.With().
		Str("trace_id", sc.TraceID().String()).
		Str("span_id", sc.SpanID().String()).
		Logger()
	return &traced
}

// AnnotateViewer adds the viewer ID to the request logger in ctx. Contexts without a
// request logger are left alone.
func AnnotateViewer(ctx context.Context, viewerID string) {
	logger := zerolog.Ctx(ctx)
	if logger.GetLevel() == zerolog.Disabled || viewerID == "" {
		return
	}
	logger.UpdateContext(func(c zerolog.Context) zerolog.Context {
		return c.Str("viewer_id", viewerID)
	})
}
