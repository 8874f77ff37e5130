// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "roommate_api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "route", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "roommate_api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	CandidatesRanked = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "roommate_candidates_ranked",
			Help:    "Number of candidates scored per ranking request",
			Buckets: prometheus.ExponentialBuckets(1, 4, 8),
		},
	)

	ProfilesPurged = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "roommate_profiles_purged_total",
			Help: "Profiles retired after a match",
		},
	)

	SweepErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "roommate_sweep_errors_total",
			Help: "Failed profile retirement sweeps",
		},
	)
)

// RecordAPIRequest records one finished request.
func RecordAPIRequest(method, route, status string, d time.Duration) {
	APIRequestsTotal.WithLabelValues(method, route, status).Inc()
	APIRequestDuration.WithLabelValues(method, route).Observe(d.Seconds())
}
