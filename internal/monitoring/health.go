package monitoring

import (
	"encoding/json"
	"net/http"
	"sort"
	"sync"
	"time"
)

var startTime = time.Now()

// StateInspector exposes the operation checkpoints the health endpoint reports on
type StateInspector interface {
	ListOperations() []string
	Status(operation string) string
}

type HealthChecker struct {
	mu          sync.RWMutex
	inspector   StateInspector
	lastSuccess time.Time
	lastError   string
}

type HealthStatus struct {
	Status           string    `json:"status"`
	Timestamp        time.Time `json:"timestamp"`
	Uptime           string    `json:"uptime"`
	Operations       int       `json:"operations"`
	FailedOperations []string  `json:"failed_operations,omitempty"`
	LastSuccess      time.Time `json:"last_success,omitempty"`
	LastError        string    `json:"last_error,omitempty"`
}

func NewHealthChecker(inspector StateInspector) *HealthChecker {
	return &HealthChecker{inspector: inspector}
}

// RecordSuccess marks a successful network call
func (h *HealthChecker) RecordSuccess() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.lastSuccess = time.Now()
	h.lastError = ""
}

// RecordFailure remembers the last terminal network failure
func (h *HealthChecker) RecordFailure(err error) {
	if err == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.lastError = err.Error()
}

// Check builds the current health snapshot
func (h *HealthChecker) Check() HealthStatus {
	h.mu.RLock()
	defer h.mu.RUnlock()

	health := HealthStatus{
		Status:      "healthy",
		Timestamp:   time.Now(),
		Uptime:      time.Since(startTime).String(),
		LastSuccess: h.lastSuccess,
		LastError:   h.lastError,
	}

	if h.inspector != nil {
		ops := h.inspector.ListOperations()
		health.Operations = len(ops)
		for _, op := range ops {
			if h.inspector.Status(op) == "failed" {
				health.FailedOperations = append(health.FailedOperations, op)
			}
		}
		sort.Strings(health.FailedOperations)
	}

	if len(health.FailedOperations) > 0 || h.lastError != "" {
		health.Status = "degraded"
	}

	return health
}

func (h *HealthChecker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	health := h.Check()

	w.Header().Set("Content-Type", "application/json")
	if health.Status != "healthy" {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	json.NewEncoder(w).Encode(health)
}
