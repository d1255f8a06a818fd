package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds process-wide Prometheus metrics. Feature modules keep their
// own metric sets next to their services.
type Metrics struct {
	RequestsSubmitted prometheus.Counter
	HTTPLatency       *prometheus.HistogramVec
}

// New creates and registers all application-level metrics.
func New() *Metrics {
	return &Metrics{
		RequestsSubmitted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "verilist_requests_submitted_total",
			Help: "Total number of verification requests submitted",
		}),
		HTTPLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "verilist_http_request_duration_seconds",
			Help:    "HTTP request latency by route and status",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"route", "status"}),
	}
}

// IncrementRequestsSubmitted increments the submitted requests counter by 1.
func (m *Metrics) IncrementRequestsSubmitted() {
	if m != nil {
		m.RequestsSubmitted.Inc()
	}
}

// ObserveHTTPLatency records a completed request.
func (m *Metrics) ObserveHTTPLatency(route, status string, seconds float64) {
	if m != nil {
		m.HTTPLatency.WithLabelValues(route, status).Observe(seconds)
	}
}
