package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"
)

const (
	healthStatusHealthy = "healthy"
	healthStatusOK      = "ok"
)

// HealthResponse represents the health check response
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// healthzHandler handles liveness probes (/healthz)
// Returns 200 if the application is running
func (h *Handler) healthzHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	_ = json.NewEncoder(w).Encode(HealthResponse{Status: healthStatusOK}) //nolint:errcheck // Best effort response
}

// readyzHandler handles readiness probes (/readyz)
// Returns 200 if the application is ready to serve traffic. Checks the
// liked-set store when it is Redis-backed; the feed is not probed, a slow
// feed must not flap readiness.
func (h *Handler) readyzHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	checks := make(map[string]string)
	allHealthy := true

	if h.container != nil {
		if err := h.container.LikeStoreHealth(ctx); err != nil {
			checks["likes_store"] = "unhealthy: " + err.Error()
			allHealthy = false
		} else {
			checks["likes_store"] = healthStatusHealthy
		}
	}

	w.Header().Set("Content-Type", "application/json")

	response := HealthResponse{
		Status: healthStatusOK,
		Checks: checks,
	}

	if allHealthy {
		w.WriteHeader(http.StatusOK)
	} else {
		w.WriteHeader(http.StatusServiceUnavailable)
		response.Status = "unhealthy"
	}

	_ = json.NewEncoder(w).Encode(response) //nolint:errcheck // Best effort response
}
