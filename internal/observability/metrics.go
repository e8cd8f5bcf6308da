package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce        sync.Once
	adminRequestsTotal  *prometheus.CounterVec
	adminLatencySeconds *prometheus.HistogramVec
	adminErrorsTotal    *prometheus.CounterVec

	submissionsCreatedTotal   prometheus.Counter
	evaluationsTotal          prometheus.Counter
	challengesFiledTotal      prometheus.Counter
	challengeResponsesTotal   *prometheus.CounterVec
	notificationsPublishedVec *prometheus.CounterVec
	sseClientsActive          prometheus.Gauge
)

// RegisterMetrics initialises the Prometheus collectors.
func RegisterMetrics() {
	registerOnce.Do(func() {
		adminRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "admin_requests_total",
			Help: "Total number of admin API requests served.",
		}, []string{"method", "route", "status"})

		adminLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "admin_latency_seconds",
			Help:    "Latency distribution for admin API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		adminErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "admin_errors_total",
			Help: "Total number of error responses returned by admin endpoints.",
		}, []string{"method", "route", "status"})

		submissionsCreatedTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "submissions_created_total",
			Help: "Total number of submissions accepted.",
		})

		evaluationsTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "evaluations_total",
			Help: "Total number of evaluations recorded, re-evaluations included.",
		})

		challengesFiledTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "challenges_filed_total",
			Help: "Total number of grade challenges filed by students.",
		})

		challengeResponsesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "challenge_responses_total",
			Help: "Total number of admin challenge responses by outcome.",
		}, []string{"outcome"})

		notificationsPublishedVec = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "notifications_published_total",
			Help: "Total number of notifications published by type.",
		}, []string{"type"})

		sseClientsActive = prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "sse_clients_active",
			Help: "Number of currently connected notification stream clients.",
		})

		prometheus.MustRegister(
			adminRequestsTotal,
			adminLatencySeconds,
			adminErrorsTotal,
			submissionsCreatedTotal,
			evaluationsTotal,
			challengesFiledTotal,
			challengeResponsesTotal,
			notificationsPublishedVec,
			sseClientsActive,
		)
	})
}

// AdminRequests exposes the counter for admin requests.
func AdminRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return adminRequestsTotal
}

// AdminLatency exposes the latency histogram for admin requests.
func AdminLatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return adminLatencySeconds
}

// AdminErrors exposes the counter for admin error responses.
func AdminErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return adminErrorsTotal
}

// SubmissionsCreatedTotal exposes the submission creation counter.
func SubmissionsCreatedTotal() prometheus.Counter {
	RegisterMetrics()
	return submissionsCreatedTotal
}

// EvaluationsTotal exposes the evaluation counter.
func EvaluationsTotal() prometheus.Counter {
	RegisterMetrics()
	return evaluationsTotal
}

// ChallengesFiledTotal exposes the filed challenge counter.
func ChallengesFiledTotal() prometheus.Counter {
	RegisterMetrics()
	return challengesFiledTotal
}

// ChallengeResponsesTotal exposes the challenge outcome counter.
func ChallengeResponsesTotal() *prometheus.CounterVec {
	RegisterMetrics()
	return challengeResponsesTotal
}

// NotificationsPublishedTotal exposes the notification counter by type.
func NotificationsPublishedTotal() *prometheus.CounterVec {
	RegisterMetrics()
	return notificationsPublishedVec
}

// SSEClientsActive exposes the active stream client gauge.
func SSEClientsActive() prometheus.Gauge {
	RegisterMetrics()
	return sseClientsActive
}
