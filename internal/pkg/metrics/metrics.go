// Package metrics holds the engine's Prometheus instrumentation. Counters
// are package-level so any component can record without plumbing a registry.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	ReviewsGenerated = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "insight_reviews_generated_total",
		Help: "Monthly reviews produced by the AI generator",
	})
	ReviewsFallback = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "insight_reviews_fallback_total",
		Help: "Monthly reviews degraded to the deterministic fallback",
	})
	QuotaDenials = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "insight_quota_denials_total",
		Help: "AI usage consume attempts denied by the monthly quota",
	}, []string{"feature"})
	LLMDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "insight_llm_call_duration_seconds",
		Help:    "Wall time of LLM completion calls",
		Buckets: prometheus.DefBuckets,
	})
	DashboardBuilds = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "insight_dashboard_builds_total",
		Help: "Dashboard payloads assembled",
	})
)

func init() {
	prometheus.MustRegister(ReviewsGenerated, ReviewsFallback, QuotaDenials, LLMDuration, DashboardBuilds)
}

// ObserveLLMDuration records one completion call's wall time.
func ObserveLLMDuration(start time.Time) {
	LLMDuration.Observe(time.Since(start).Seconds())
}
