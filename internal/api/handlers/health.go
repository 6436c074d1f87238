package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/dmarchetti/vetrina/internal/logger"
)

// HealthChecker verifies one backing dependency is reachable.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// HealthHandler serves the liveness and readiness probes.
type HealthHandler struct {
	checks map[string]HealthChecker
}

// NewHealthHandler creates a health handler over named dependency checks.
// A nil checker is skipped, so optional dependencies can be passed directly.
func NewHealthHandler(checks map[string]HealthChecker) *HealthHandler {
	filtered := make(map[string]HealthChecker, len(checks))
	for name, check := range checks {
		if check != nil {
			filtered[name] = check
		}
	}
	return &HealthHandler{checks: filtered}
}

// Liveness handles GET /health. It only confirms the process is serving.
func (h *HealthHandler) Liveness(w http.ResponseWriter, r *http.Request) {
	WriteJSONOK(w, map[string]string{"status": "ok"})
}

// Readiness handles GET /health/ready. It probes every dependency with a
// short timeout and reports per-dependency status.
func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := make(map[string]string, len(h.checks))
	healthy := true

	for name, check := range h.checks {
		if err := check.HealthCheck(ctx); err != nil {
			logger.Warn("readiness check failed", "dependency", name, "error", err)
			status[name] = err.Error()
			healthy = false
			continue
		}
		status[name] = "ok"
	}

	code := http.StatusOK
	overall := "ready"
	if !healthy {
		code = http.StatusServiceUnavailable
		overall = "unavailable"
	}
	WriteJSON(w, code, map[string]any{
		"status":       overall,
		"dependencies": status,
	})
}
