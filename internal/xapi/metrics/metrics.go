// Package metrics provides Prometheus metrics for outbound X API traffic.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains the outbound call and handle cache metrics.
type Metrics struct {
	// Call metrics
	CallsTotal          *prometheus.CounterVec   // Calls by op and result category ("ok" on success)
	CallDurationSeconds *prometheus.HistogramVec // Per-attempt latency by op
	RetriesTotal        *prometheus.CounterVec   // Retries by op
	CircuitRejections   prometheus.Counter       // Calls refused while the breaker is open
	CircuitOpen         prometheus.Gauge         // 1 while the breaker is open

	// Rate limit
	RateLimitRemaining *prometheus.GaugeVec // Last seen x-rate-limit-remaining by op

	// Handle cache
	CacheHitsTotal   prometheus.Counter
	CacheMissesTotal prometheus.Counter
	CacheErrorsTotal prometheus.Counter
}

// New registers the metrics with reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		CallsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "xverify_xapi_calls_total",
			Help: "Total number of X API call attempts by operation and result",
		}, []string{"op", "result"}),

		CallDurationSeconds: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "xverify_xapi_call_duration_seconds",
			Help:    "Duration of X API call attempts by operation",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		}, []string{"op"}),

		RetriesTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "xverify_xapi_retries_total",
			Help: "Total number of X API retries by operation",
		}, []string{"op"}),

		CircuitRejections: f.NewCounter(prometheus.CounterOpts{
			Name: "xverify_xapi_circuit_rejections_total",
			Help: "Total number of X API calls rejected by the open circuit",
		}),

		CircuitOpen: f.NewGauge(prometheus.GaugeOpts{
			Name: "xverify_xapi_circuit_open",
			Help: "Whether the X API circuit breaker is open (1) or not (0)",
		}),

		RateLimitRemaining: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "xverify_xapi_rate_limit_remaining",
			Help: "Last observed remaining X API quota by operation",
		}, []string{"op"}),

		CacheHitsTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "xverify_handle_cache_hits_total",
			Help: "Total number of handle cache hits",
		}),

		CacheMissesTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "xverify_handle_cache_misses_total",
			Help: "Total number of handle cache misses",
		}),

		CacheErrorsTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "xverify_handle_cache_errors_total",
			Help: "Total number of handle cache read or write failures",
		}),
	}
}

// ObserveCall records one attempt. result is "ok" or an error category.
func (m *Metrics) ObserveCall(op, result string, durationSeconds float64) {
	m.CallsTotal.WithLabelValues(op, result).Inc()
	m.CallDurationSeconds.WithLabelValues(op).Observe(durationSeconds)
}

func (m *Metrics) IncRetry(op string) {
	m.RetriesTotal.WithLabelValues(op).Inc()
}

func (m *Metrics) IncCircuitRejection() {
	m.CircuitRejections.Inc()
}

func (m *Metrics) SetCircuitOpen(open bool) {
	if open {
		m.CircuitOpen.Set(1)
		return
	}
	m.CircuitOpen.Set(0)
}

func (m *Metrics) SetRateLimitRemaining(op string, remaining int) {
	m.RateLimitRemaining.WithLabelValues(op).Set(float64(remaining))
}

func (m *Metrics) RecordCacheHit() {
	m.CacheHitsTotal.Inc()
}

func (m *Metrics) RecordCacheMiss() {
	m.CacheMissesTotal.Inc()
}

func (m *Metrics) RecordCacheError() {
	m.CacheErrorsTotal.Inc()
}
