// Package metrics exposes prometheus metrics for guest token issuance.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Label values for results.
const (
	ResultSuccess = "success"
	ResultError   = "error"
)

// Upstream steps.
const (
	StepLogin      = "login"
	StepGuestToken = "guest_token"
)

var (
	// issuanceTotal counts issuance requests by mode and outcome.
	// The outcome is "success" or the error kind.
	issuanceTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "guestgate",
			Subsystem: "issuance",
			Name:      "total",
			Help:      "Total number of guest token issuance requests",
		},
		[]string{"mode", "outcome"},
	)

	// upstreamDurationSeconds measures calls to the analytics platform.
	upstreamDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "guestgate",
			Subsystem: "upstream",
			Name:      "request_duration_seconds",
			Help:      "Duration of requests to the analytics platform in seconds",
			Buckets:   []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"step", "result"},
	)
)

// RecordIssuance records the outcome of one issuance request.
func RecordIssuance(mode, outcome string) {
	issuanceTotal.WithLabelValues(mode, outcome).Inc()
}

// ObserveUpstream records the duration of a single call to the analytics platform.
func ObserveUpstream(step string, success bool, d time.Duration) {
	result := ResultSuccess
	if !success {
		result = ResultError
	}
	upstreamDurationSeconds.WithLabelValues(step, result).Observe(d.Seconds())
}
