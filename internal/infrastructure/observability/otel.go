package observability

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/runtime"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
)

const (
	instrumentationName = "github.com/tastefull/backend"
	metricExportEvery   = 30 * time.Second
)

// Metrics are the OTLP instruments. A nil *Metrics records nothing.
type Metrics struct {
	RequestCount       metric.Int64Counter
	RequestDuration    metric.Float64Histogram
	DBQueryDuration    metric.Float64Histogram
	CacheHitCount      metric.Int64Counter
	CacheMissCount     metric.Int64Counter
	FilterEvalDuration metric.Float64Histogram
}

// Setup installs global trace and meter providers exporting over OTLP/gRPC to endpoint,
// starts Go runtime instrumentation and returns a shutdown func flushing both providers.
func Setup(ctx context.Context, serviceName, serviceVersion, endpoint string) (func(context.Context) error, error) {
	res, err := resource.New(ctx, resource.WithAttributes(
		semconv.ServiceName(serviceName),
		semconv.ServiceVersion(serviceVersion),
	))
	if err != nil {
		return nil, err
	}

	spans, err := otlptracegrpc.New(ctx, otlptracegrpc.WithEndpoint(endpoint), otlptracegrpc.WithInsecure())
	if err != nil {
		return nil, err
	}
	points, err := otlpmetricgrpc.New(ctx, otlpmetricgrpc.WithEndpoint(endpoint), otlpmetricgrpc.WithInsecure())
	if err != nil {
		return nil, err
	}

	tp := sdktrace.NewTracerProvider(sdktrace.WithBatcher(spans), sdktrace.WithResource(res))
	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(points, sdkmetric.WithInterval(metricExportEvery))),
		sdkmetric.WithResource(res),
	)

	otel.SetTracerProvider(tp)
	otel.SetMeterProvider(mp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))

	if err := runtime.Start(runtime.WithMeterProvider(mp)); err != nil {
		return nil, err
	}

	return func(ctx context.Context) error {
		return errors.Join(mp.Shutdown(ctx), tp.Shutdown(ctx))
	}, nil
}

// InitMetrics creates the instruments on the global meter provider
func InitMetrics() (*Metrics, error) {
	meter := otel.Meter(instrumentationName)
	m := &Metrics{}

	counters := []struct {
		target *metric.Int64Counter
		name   string
		desc   string
	}{
		{&m.RequestCount, "http.server.request.count", "Number of HTTP requests"},
		{&m.CacheHitCount, "cache.hit.count", "Response cache hits"},
		{&m.CacheMissCount, "cache.miss.count", "Response cache misses"},
	}
	for _, c := range counters {
		inst, err := meter.Int64Counter(c.name, metric.WithDescription(c.desc))
		if err != nil {
			return nil, err
		}
		*c.target = inst
	}

	histograms := []struct {
		target *metric.Float64Histogram
		name   string
		desc   string
	}{
		{&m.RequestDuration, "http.server.request.duration", "HTTP request duration"},
		{&m.DBQueryDuration, "db.query.duration", "Snapshot load duration per repository call"},
		{&m.FilterEvalDuration, "filter.evaluation.duration", "Filter engine evaluation time"},
	}
	for _, h := range histograms {
		inst, err := meter.Float64Histogram(h.name, metric.WithDescription(h.desc), metric.WithUnit("ms"))
		if err != nil {
			return nil, err
		}
		*h.target = inst
	}

	return m, nil
}

// StartSpan starts a span on the service tracer
func StartSpan(ctx context.Context, spanName string) (context.Context, trace.Span) {
	return otel.Tracer(instrumentationName).Start(ctx, spanName)
}

func SetSpanAttributes(span trace.Span, attrs ...attribute.KeyValue) {
	span.SetAttributes(attrs...)
}

func millis(d time.Duration) float64 {
	return float64(d.Microseconds()) / 1000
}

// RecordRequestMetric records one served request under its route pattern
func RecordRequestMetric(ctx context.Context, metrics *Metrics, method, route string, statusCode int, duration time.Duration) {
	if metrics == nil {
		return
	}
	set := metric.WithAttributes(
		attribute.String("http.method", method),
		attribute.String("http.route", route),
		attribute.Int("http.status_code", statusCode),
	)
	metrics.RequestCount.Add(ctx, 1, set)
	metrics.RequestDuration.Record(ctx, millis(duration), set)
}

func RecordDBMetric(ctx context.Context, metrics *Metrics, operation string, duration time.Duration) {
	if metrics == nil {
		return
	}
	metrics.DBQueryDuration.Record(ctx, millis(duration), metric.WithAttributes(attribute.String("db.operation", operation)))
}

// RecordCacheHit counts a hit for a cache group. Groups, not keys, keep the label set bounded.
func RecordCacheHit(ctx context.Context, metrics *Metrics, group string) {
	if metrics == nil {
		return
	}
	metrics.CacheHitCount.Add(ctx, 1, metric.WithAttributes(attribute.String("cache.group", group)))
}

func RecordCacheMiss(ctx context.Context, metrics *Metrics, group string) {
	if metrics == nil {
		return
	}
	metrics.CacheMissCount.Add(ctx, 1, metric.WithAttributes(attribute.String("cache.group", group)))
}

// RecordFilterEvaluation records one filter engine pass over a snapshot
func RecordFilterEvaluation(ctx context.Context, metrics *Metrics, social string, restaurants int, duration time.Duration) {
	if metrics == nil {
		return
	}
	metrics.FilterEvalDuration.Record(ctx, millis(duration), metric.WithAttributes(
		attribute.String("filter.social", social),
		attribute.Int("filter.restaurants", restaurants),
	))
}
