// Package metrics holds the Prometheus collectors exported by questgen.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics groups every collector. A nil *Metrics is valid and records nothing.
type Metrics struct {
	generations        *prometheus.CounterVec
	generationDuration *prometheus.HistogramVec
	relevanceLookups   *prometheus.CounterVec
	typeFallbacks      *prometheus.CounterVec
	questions          *prometheus.CounterVec
	httpRequests       *prometheus.CounterVec
}

// New registers the questgen collectors on reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		generations: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "questgen_generations_total",
				Help: "Total number of generation requests",
			},
			[]string{"outcome"}, // completed, invalid, cancelled
		),
		generationDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "questgen_generation_duration_seconds",
				Help:    "Time spent orchestrating a generation request",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"outcome"},
		),
		relevanceLookups: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "questgen_relevance_lookups_total",
				Help: "Relevance lookups by the source that produced the signal",
			},
			[]string{"source"}, // search, fallback
		),
		typeFallbacks: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "questgen_type_fallbacks_total",
				Help: "Question types whose content was replaced by template output",
			},
			[]string{"type"},
		),
		questions: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "questgen_questions_total",
				Help: "Questions returned, by presentation format",
			},
			[]string{"format"},
		),
		httpRequests: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "questgen_http_requests_total",
				Help: "HTTP requests handled by the API",
			},
			[]string{"method", "route", "status"},
		),
	}
}

// ObserveGeneration records one orchestration outcome and its duration.
func (m *Metrics) ObserveGeneration(outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.generations.WithLabelValues(outcome).Inc()
	m.generationDuration.WithLabelValues(outcome).Observe(d.Seconds())
}

// ObserveRelevance counts a relevance lookup answered by source.
func (m *Metrics) ObserveRelevance(source string) {
	if m == nil {
		return
	}
	m.relevanceLookups.WithLabelValues(source).Inc()
}

// ObserveTypeFallback counts a question type that degraded to template content.
func (m *Metrics) ObserveTypeFallback(typeID string) {
	if m == nil {
		return
	}
	m.typeFallbacks.WithLabelValues(typeID).Inc()
}

// ObserveQuestions adds n returned questions of the given format.
func (m *Metrics) ObserveQuestions(format string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.questions.WithLabelValues(format).Add(float64(n))
}

// ObserveHTTP counts one handled HTTP request.
func (m *Metrics) ObserveHTTP(method, route, status string) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, route, status).Inc()
}
