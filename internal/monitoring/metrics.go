package monitoring

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Retry outcomes
const (
	OutcomeSuccess      = "success"
	OutcomeExhausted    = "exhausted"
	OutcomeNonRetryable = "non_retryable"
	OutcomeCancelled    = "cancelled"
)

var (
	retryAttemptsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "network_retry_attempts_total",
			Help: "Total number of attempts made by the retry executor",
		},
		[]string{"function"},
	)

	retryOutcomesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "network_retry_outcomes_total",
			Help: "Final outcome of retried calls",
		},
		[]string{"function", "outcome"},
	)

	retryDelaySeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "network_retry_delay_seconds",
			Help:    "Backoff delay slept before a retry",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120, 300},
		},
		[]string{"function"},
	)

	stateStoreErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "network_state_store_errors_total",
			Help: "State persistence failures, by action",
		},
		[]string{"action"},
	)

	errorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "network_errors_total",
			Help: "Total number of errors",
		},
		[]string{"type"},
	)
)

func init() {
	prometheus.MustRegister(retryAttemptsTotal)
	prometheus.MustRegister(retryOutcomesTotal)
	prometheus.MustRegister(retryDelaySeconds)
	prometheus.MustRegister(stateStoreErrorsTotal)
	prometheus.MustRegister(errorsTotal)
}

// MetricsHandler handles Prometheus metrics endpoint
type MetricsHandler struct{}

// NewMetricsHandler creates a new metrics handler
func NewMetricsHandler() *MetricsHandler {
	return &MetricsHandler{}
}

// ServeHTTP serves the Prometheus metrics endpoint
func (m *MetricsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

// RecordAttempt counts one invocation of a retried function
func RecordAttempt(function string) {
	retryAttemptsTotal.WithLabelValues(function).Inc()
}

// RecordOutcome counts the final outcome of a retried call
func RecordOutcome(function, outcome string) {
	retryOutcomesTotal.WithLabelValues(function, outcome).Inc()
}

// ObserveRetryDelay records a backoff delay
func ObserveRetryDelay(function string, delay time.Duration) {
	retryDelaySeconds.WithLabelValues(function).Observe(delay.Seconds())
}

// RecordStateError counts a swallowed state persistence failure
func RecordStateError(action string) {
	stateStoreErrorsTotal.WithLabelValues(action).Inc()
}

// RecordError records an error metric
func RecordError(errorType string) {
	errorsTotal.WithLabelValues(errorType).Inc()
}
