package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// RemoteMetrics records calls made to the storefront API.
type RemoteMetrics struct {
	duration *prometheus.HistogramVec
	results  *prometheus.CounterVec
}

// NewRemoteMetrics registers the remote call metrics on the provided registerer.
func NewRemoteMetrics(reg prometheus.Registerer) *RemoteMetrics {
	if reg == nil {
		return &RemoteMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "storefront_remote_request_duration_seconds",
		Help:    "Duration of storefront API calls in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})
	results := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_remote_requests_total",
		Help: "Storefront API calls by operation and outcome.",
	}, []string{"operation", "outcome"})
	reg.MustRegister(duration, results)
	return &RemoteMetrics{
		duration: duration,
		results:  results,
	}
}

// Observe records one finished call. outcome is "ok" or an error code.
func (m *RemoteMetrics) Observe(operation, outcome string, elapsed time.Duration) {
	if m == nil || m.duration == nil {
		return
	}
	op := normalizeLabel(operation)
	m.duration.WithLabelValues(op).Observe(elapsed.Seconds())
	m.results.WithLabelValues(op, normalizeLabel(outcome)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
