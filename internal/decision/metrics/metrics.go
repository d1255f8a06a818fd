package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks decision outcomes and evaluation latency.
type Metrics struct {
	Decisions *prometheus.CounterVec
	Latency   prometheus.Histogram
}

func New() *Metrics {
	return &Metrics{
		Decisions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "verilist_decisions_total",
			Help: "Total verification decisions by outcome",
		}, []string{"outcome"}),
		Latency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "verilist_decision_duration_seconds",
			Help:    "Time spent evaluating and committing a decision",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
	}
}

// RecordDecision counts one committed decision.
func (m *Metrics) RecordDecision(outcome string) {
	if m != nil {
		m.Decisions.WithLabelValues(outcome).Inc()
	}
}

// ObserveLatency records the wall time of a decision attempt.
func (m *Metrics) ObserveLatency(seconds float64) {
	if m != nil {
		m.Latency.Observe(seconds)
	}
}
