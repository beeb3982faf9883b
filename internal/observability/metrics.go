package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	requestsTotal  *prometheus.CounterVec
	latencySeconds *prometheus.HistogramVec
	errorsTotal    *prometheus.CounterVec

	applicationsSubmittedTotal prometheus.Counter
	applicationsDecidedTotal   *prometheus.CounterVec
	notificationsFanoutTotal   *prometheus.CounterVec
	auditDroppedTotal          prometheus.Counter
	sseClientsActive           prometheus.Gauge
)

// RegisterMetrics initialises the Prometheus collectors used across the API.
func RegisterMetrics() {
	registerOnce.Do(func() {
		requestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "activity_api_requests_total",
			Help: "Total number of API requests served.",
		}, []string{"method", "route", "status"})

		latencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "activity_api_latency_seconds",
			Help:    "Latency distribution for API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		errorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "activity_api_errors_total",
			Help: "Total number of error responses returned.",
		}, []string{"method", "route", "status"})

		applicationsSubmittedTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "activity_api_applications_submitted_total",
			Help: "Total number of applications submitted.",
		})

		applicationsDecidedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "activity_api_applications_decided_total",
			Help: "Total number of application status decisions.",
		}, []string{"status"})

		notificationsFanoutTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "activity_api_notifications_fanout_total",
			Help: "Total number of notifications created by fanout.",
		}, []string{"type"})

		auditDroppedTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "activity_api_audit_dropped_total",
			Help: "Total number of audit entries dropped due to store failures.",
		})

		sseClientsActive = prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "activity_api_sse_clients_active",
			Help: "Number of connected notification stream clients.",
		})

		prometheus.MustRegister(
			requestsTotal, latencySeconds, errorsTotal,
			applicationsSubmittedTotal, applicationsDecidedTotal,
			notificationsFanoutTotal, auditDroppedTotal, sseClientsActive,
		)
	})
}

// Requests exposes the request counter.
func Requests() *prometheus.CounterVec {
	RegisterMetrics()
	return requestsTotal
}

// Latency exposes the latency histogram.
func Latency() *prometheus.HistogramVec {
	RegisterMetrics()
	return latencySeconds
}

// Errors exposes the error counter.
func Errors() *prometheus.CounterVec {
	RegisterMetrics()
	return errorsTotal
}

// ApplicationsSubmitted exposes the submission counter.
func ApplicationsSubmitted() prometheus.Counter {
	RegisterMetrics()
	return applicationsSubmittedTotal
}

// ApplicationsDecided exposes the decision counter.
func ApplicationsDecided() *prometheus.CounterVec {
	RegisterMetrics()
	return applicationsDecidedTotal
}

// NotificationsFanout exposes the fanout counter.
func NotificationsFanout() *prometheus.CounterVec {
	RegisterMetrics()
	return notificationsFanoutTotal
}

// AuditDropped exposes the dropped-audit counter.
func AuditDropped() prometheus.Counter {
	RegisterMetrics()
	return auditDroppedTotal
}

// SSEClientsActive exposes the connected stream client gauge.
func SSEClientsActive() prometheus.Gauge {
	RegisterMetrics()
	return sseClientsActive
}
