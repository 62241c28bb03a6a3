package monitoring

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeInspector map[string]string

func (f fakeInspector) ListOperations() []string {
	ops := make([]string, 0, len(f))
	for op := range f {
		ops = append(ops, op)
	}
	return ops
}

func (f fakeInspector) Status(operation string) string {
	return f[operation]
}

func TestRecordAttemptAndOutcome(t *testing.T) {
	before := testutil.ToFloat64(retryAttemptsTotal.WithLabelValues("monitoring_test_fn"))
	RecordAttempt("monitoring_test_fn")
	RecordAttempt("monitoring_test_fn")
	assert.Equal(t, before+2, testutil.ToFloat64(retryAttemptsTotal.WithLabelValues("monitoring_test_fn")))

	RecordOutcome("monitoring_test_fn", OutcomeExhausted)
	assert.Equal(t, 1.0, testutil.ToFloat64(retryOutcomesTotal.WithLabelValues("monitoring_test_fn", OutcomeExhausted)))

	RecordStateError("monitoring_test_save")
	assert.Equal(t, 1.0, testutil.ToFloat64(stateStoreErrorsTotal.WithLabelValues("monitoring_test_save")))
}

func TestMetricsHandler_Exposes(t *testing.T) {
	ObserveRetryDelay("monitoring_test_delay", 1500*time.Millisecond)

	rec := httptest.NewRecorder()
	NewMetricsHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, "network_retry_delay_seconds"))
	assert.True(t, strings.Contains(body, `function="monitoring_test_delay"`))
}

func TestHealthChecker_Healthy(t *testing.T) {
	h := NewHealthChecker(fakeInspector{"op1": "completed", "op2": "started"})
	h.RecordSuccess()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)

	var status HealthStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Equal(t, "healthy", status.Status)
	assert.Equal(t, 2, status.Operations)
	assert.Empty(t, status.FailedOperations)
}

func TestHealthChecker_DegradedOnFailedOperations(t *testing.T) {
	h := NewHealthChecker(fakeInspector{"b": "failed", "a": "failed", "c": "completed"})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var status HealthStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Equal(t, "degraded", status.Status)
	assert.Equal(t, []string{"a", "b"}, status.FailedOperations)
}

func TestHealthChecker_LastError(t *testing.T) {
	h := NewHealthChecker(nil)

	h.RecordFailure(assert.AnError)
	assert.Equal(t, "degraded", h.Check().Status)
	assert.Equal(t, assert.AnError.Error(), h.Check().LastError)

	h.RecordSuccess()
	assert.Equal(t, "healthy", h.Check().Status)
}
