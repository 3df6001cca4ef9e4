package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Buckets sized for backend calls that can legitimately take up to the
	// 30s submission deadline
	BackendCallBuckets = []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 3, 5, 8, 13, 21, 30}

	// Backend call metrics
	BackendRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "registration_backend_request_duration_seconds",
			Help:    "Registration backend request duration in seconds",
			Buckets: BackendCallBuckets,
		},
		[]string{"operation", "status"},
	)

	BackendRequestTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "registration_backend_request_total",
			Help: "Total number of registration backend requests",
		},
		[]string{"operation", "status"},
	)

	// Workflow metrics
	Submissions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "registration_submissions_total",
			Help: "Registration submissions by normalized outcome",
		},
		[]string{"outcome"},
	)

	Verifications = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "registration_verifications_total",
			Help: "Email verification attempts by result",
		},
		[]string{"result"},
	)

	ResendRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "registration_resend_requests_total",
			Help: "Resend-code requests by result (cooldown rejections included)",
		},
		[]string{"result"},
	)

	StageTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "registration_stage_transitions_total",
			Help: "Workflow stage transitions",
		},
		[]string{"from", "to"},
	)

	// Attachment metrics
	AttachmentValidations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "registration_attachment_validations_total",
			Help: "Attachment acceptance checks by slot and status",
		},
		[]string{"slot", "status"},
	)

	// Lookup cache metrics
	LookupCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "registration_userid_cache_hits_total",
			Help: "User-id lookup cache hits",
		},
	)

	LookupCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "registration_userid_cache_misses_total",
			Help: "User-id lookup cache misses",
		},
	)
)

// MeasureDuration returns the elapsed seconds since start
func MeasureDuration(start time.Time) float64 {
	return time.Since(start).Seconds()
}
