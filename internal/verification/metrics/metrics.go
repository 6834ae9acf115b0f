// Package metrics provides Prometheus metrics for verification decisions.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	VerificationsTotal *prometheus.CounterVec   // by action and outcome
	DurationSeconds    *prometheus.HistogramVec // end-to-end verify latency by action
	PagesWalked        *prometheus.HistogramVec // pages fetched per check by action
	PanicsTotal        prometheus.Counter       // recovered checker panics
}

// New registers the metrics with reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		VerificationsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "xverify_verifications_total",
			Help: "Total number of verification attempts by action and outcome",
		}, []string{"action", "outcome"}),

		DurationSeconds: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "xverify_verification_duration_seconds",
			Help:    "Duration of verification attempts by action",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"action"}),

		PagesWalked: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "xverify_verification_pages_walked",
			Help:    "Number of evidence pages fetched per check by action",
			Buckets: []float64{1, 2, 3, 5, 10, 20, 50},
		}, []string{"action"}),

		PanicsTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "xverify_checker_panics_total",
			Help: "Total number of recovered checker panics",
		}),
	}
}

func (m *Metrics) ObserveVerification(action, outcome string, durationSeconds float64) {
	m.VerificationsTotal.WithLabelValues(action, outcome).Inc()
	m.DurationSeconds.WithLabelValues(action).Observe(durationSeconds)
}

func (m *Metrics) ObservePages(action string, pages int) {
	m.PagesWalked.WithLabelValues(action).Observe(float64(pages))
}

func (m *Metrics) IncPanic() {
	m.PanicsTotal.Inc()
}
