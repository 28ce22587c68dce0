// Package metrics exposes planner and agent counters to Prometheus.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder owns the nightlife collectors. A nil *Recorder is a valid no-op,
// so callers never need to check before observing.
type Recorder struct {
	agentRequests *prometheus.CounterVec
	fallbacks     *prometheus.CounterVec
	stops         *prometheus.CounterVec
	groupPlans    prometheus.Gauge
	completions   *prometheus.HistogramVec
}

// New registers the collectors with reg. Pass prometheus.NewRegistry() in
// tests to keep them isolated.
func New(reg prometheus.Registerer) *Recorder {
	f := promauto.With(reg)
	return &Recorder{
		agentRequests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "nightlife_agent_requests_total",
			Help: "Concierge agent calls by outcome (ok, error, stale).",
		}, []string{"outcome"}),
		fallbacks: f.NewCounterVec(prometheus.CounterOpts{
			Name: "nightlife_interpreter_fallbacks_total",
			Help: "Agent replies that needed an interpreter fallback, by reason.",
		}, []string{"reason"}),
		stops: f.NewCounterVec(prometheus.CounterOpts{
			Name: "nightlife_itinerary_stops_total",
			Help: "Itinerary stops added, by path (bulk, incremental).",
		}, []string{"path"}),
		groupPlans: f.NewGauge(prometheus.GaugeOpts{
			Name: "nightlife_group_plans_active",
			Help: "Group plans currently in the registry.",
		}),
		completions: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "nightlife_llm_request_duration_seconds",
			Help:    "LLM completion latency by capability and result.",
			Buckets: prometheus.ExponentialBuckets(0.25, 2, 8),
		}, []string{"capability", "result"}),
	}
}

// ObserveAgentReply counts one concierge call.
func (r *Recorder) ObserveAgentReply(outcome string) {
	if r == nil {
		return
	}
	r.agentRequests.WithLabelValues(outcome).Inc()
}

// ObserveFallback counts one interpreter fallback.
func (r *Recorder) ObserveFallback(reason string) {
	if r == nil {
		return
	}
	r.fallbacks.WithLabelValues(reason).Inc()
}

// ObserveStops counts n stops added through path.
func (r *Recorder) ObserveStops(path string, n int) {
	if r == nil || n <= 0 {
		return
	}
	r.stops.WithLabelValues(path).Add(float64(n))
}

// SetActivePlans records the group plan count.
func (r *Recorder) SetActivePlans(n int) {
	if r == nil {
		return
	}
	r.groupPlans.Set(float64(n))
}

// ObserveCompletion records one finished LLM call.
func (r *Recorder) ObserveCompletion(capability, _ string, elapsed time.Duration, err error) {
	if r == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	r.completions.WithLabelValues(capability, result).Observe(elapsed.Seconds())
}
