// internal/transfer/metrics.go
package transfer

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics tracks pipeline outcomes and per-endpoint broadcast attempts.
type Metrics struct {
	successCounter    prometheus.Counter
	failureCounter    prometheus.Counter
	durationHistogram prometheus.Histogram
	attemptCounter    *prometheus.CounterVec
}

// NewMetrics registers the pipeline collectors on reg; a nil reg uses the
// default registerer. Tests pass a private registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		successCounter: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sparksol_transfer_success_total",
			Help: "Total number of transfers that reached a signature",
		}),
		failureCounter: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sparksol_transfer_failure_total",
			Help: "Total number of transfers that exhausted all endpoints or aborted",
		}),
		durationHistogram: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "sparksol_transfer_duration_seconds",
			Help:    "End-to-end transfer pipeline duration in seconds",
			Buckets: prometheus.LinearBuckets(0, 0.5, 12),
		}),
		attemptCounter: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sparksol_broadcast_attempts_total",
			Help: "Broadcast attempts by endpoint and outcome",
		}, []string{"endpoint", "outcome"}),
	}

	reg.MustRegister(m.successCounter, m.failureCounter, m.durationHistogram, m.attemptCounter)
	return m
}

// TrackPipeline observes the duration of one pipeline run.
func (m *Metrics) TrackPipeline(start time.Time) {
	m.durationHistogram.Observe(time.Since(start).Seconds())
}

func (m *Metrics) observeAttempt(endpoint string, success bool) {
	outcome := "failure"
	if success {
		outcome = "success"
	}
	m.attemptCounter.WithLabelValues(endpoint, outcome).Inc()
}
