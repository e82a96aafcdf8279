package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HttpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "library_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	HttpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "library_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	DatabaseTransactionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "library_database_transactions_total",
			Help: "Database transactions by unit of work and outcome",
		},
		[]string{"unit", "status"},
	)

	DatabaseTransactionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "library_database_transaction_duration_seconds",
			Help:    "Database transaction duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"unit"},
	)

	LendingOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "library_lending_operations_total",
			Help: "Borrow, return and pay-fine operations by outcome",
		},
		[]string{"operation", "outcome"},
	)

	FinesAssessedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "library_fines_assessed_total",
			Help: "Sum of overdue fines assessed at return time",
		},
	)

	FinesPaidTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "library_fines_paid_total",
			Help: "Sum of overdue fines paid",
		},
	)

	AuthAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "library_auth_attempts_total",
			Help: "Login attempts by outcome",
		},
		[]string{"outcome"},
	)
)

func RecordHttpRequest(method, route string, status int, duration time.Duration) {
	HttpRequestsTotal.WithLabelValues(method, route, statusClass(status)).Inc()
	HttpRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

func RecordTransaction(unit, status string, duration time.Duration) {
	DatabaseTransactionsTotal.WithLabelValues(unit, status).Inc()
	DatabaseTransactionDuration.WithLabelValues(unit).Observe(duration.Seconds())
}

func RecordLending(operation, outcome string) {
	LendingOperationsTotal.WithLabelValues(operation, outcome).Inc()
}

func RecordFineAssessed(amount float64) {
	if amount > 0 {
		FinesAssessedTotal.Add(amount)
	}
}

func RecordFinePaid(amount float64) {
	if amount > 0 {
		FinesPaidTotal.Add(amount)
	}
}

func RecordAuthAttempt(outcome string) {
	AuthAttemptsTotal.WithLabelValues(outcome).Inc()
}

func statusClass(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
