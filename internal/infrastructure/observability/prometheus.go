package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// DomainMetrics are the business counters exported at /metrics
type DomainMetrics struct {
	registry *prometheus.Registry

	ReviewsWritten    *prometheus.CounterVec
	FollowTransitions *prometheus.CounterVec
	FilterEvaluations *prometheus.CounterVec
	RateLimited       prometheus.Counter
}

// NewDomainMetrics registers the domain counters on a fresh registry
func NewDomainMetrics() *DomainMetrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &DomainMetrics{
		registry: registry,
		ReviewsWritten: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tastefull",
			Name:      "reviews_written_total",
			Help:      "Review mutations by operation.",
		}, []string{"operation"}),
		FollowTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tastefull",
			Name:      "follow_transitions_total",
			Help:      "Follow state transitions by kind.",
		}, []string{"kind"}),
		FilterEvaluations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tastefull",
			Name:      "filter_evaluations_total",
			Help:      "Filter engine evaluations by social scope.",
		}, []string{"social"}),
		RateLimited: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "tastefull",
			Name:      "review_writes_rate_limited_total",
			Help:      "Review writes rejected by the rate limiter.",
		}),
	}

	registry.MustRegister(m.ReviewsWritten, m.FollowTransitions, m.FilterEvaluations, m.RateLimited)
	return m
}

// Handler serves the registry in the Prometheus exposition format
func (m *DomainMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry exposes the underlying registry
func (m *DomainMetrics) Registry() *prometheus.Registry {
	return m.registry
}

// IncReviewWritten counts a review create, update or delete. Nil receivers are ignored.
func (m *DomainMetrics) IncReviewWritten(operation string) {
	if m == nil {
		return
	}
	m.ReviewsWritten.WithLabelValues(operation).Inc()
}

// IncFollowTransition counts a follow graph transition
func (m *DomainMetrics) IncFollowTransition(kind string) {
	if m == nil {
		return
	}
	m.FollowTransitions.WithLabelValues(kind).Inc()
}

// IncFilterEvaluation counts a filter evaluation
func (m *DomainMetrics) IncFilterEvaluation(social string) {
	if m == nil {
		return
	}
	m.FilterEvaluations.WithLabelValues(social).Inc()
}

// IncRateLimited counts a rejected review write
func (m *DomainMetrics) IncRateLimited() {
	if m == nil {
		return
	}
	m.RateLimited.Inc()
}
