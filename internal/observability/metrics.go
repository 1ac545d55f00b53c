package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce           sync.Once
	httpRequestsTotal      *prometheus.CounterVec
	httpRequestDuration    *prometheus.HistogramVec
	contactSubmissionTotal *prometheus.CounterVec
	contactDeliveryTotal   *prometheus.CounterVec
	contactVerifyTotal     *prometheus.CounterVec
	contactEventsTotal     *prometheus.CounterVec
)

// RegisterMetrics initialises the Prometheus collectors used by the relay.
func RegisterMetrics() {
	registerOnce.Do(func() {
		httpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of API requests served.",
		}, []string{"method", "route", "status"})

		httpRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Latency distribution for API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0},
		}, []string{"method", "route"})

		contactSubmissionTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "contact_submissions_total",
			Help: "Contact submissions by final outcome.",
		}, []string{"outcome"})

		contactDeliveryTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "contact_deliveries_total",
			Help: "Delivery attempts by channel and result.",
		}, []string{"channel", "result"})

		contactVerifyTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "contact_verifications_total",
			Help: "Human verification checks by result.",
		}, []string{"result"})

		contactEventsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "contact_events_total",
			Help: "Submission events published by sink and result.",
		}, []string{"sink", "result"})

		prometheus.MustRegister(
			httpRequestsTotal,
			httpRequestDuration,
			contactSubmissionTotal,
			contactDeliveryTotal,
			contactVerifyTotal,
			contactEventsTotal,
		)
	})
}

// HTTPRequests exposes the request counter.
func HTTPRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return httpRequestsTotal
}

// HTTPLatency exposes the request latency histogram.
func HTTPLatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return httpRequestDuration
}

// ContactSubmissions counts relay outcomes: delivered, partial, failed, rejected, misconfigured.
func ContactSubmissions() *prometheus.CounterVec {
	RegisterMetrics()
	return contactSubmissionTotal
}

// ContactDeliveries counts per-channel delivery results.
func ContactDeliveries() *prometheus.CounterVec {
	RegisterMetrics()
	return contactDeliveryTotal
}

// ContactVerifications counts verification results: passed, skipped, rejected.
func ContactVerifications() *prometheus.CounterVec {
	RegisterMetrics()
	return contactVerifyTotal
}

// ContactEvents counts published submission events.
func ContactEvents() *prometheus.CounterVec {
	RegisterMetrics()
	return contactEventsTotal
}
