package handlers

import (
	"net/http"
	"time"

	"soundgraph-backend/pkg/api"
)

const (
	StatusHealthy = "healthy"
	StatusReady   = "ready"
)

// HealthResponse is the body of /health and /ready.
type HealthResponse struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Version   string                 `json:"version,omitempty"`
	Uptime    string                 `json:"uptime,omitempty"`
	Checks    map[string]interface{} `json:"checks,omitempty"`
}

// SessionCounter reports live sessions for the readiness probe.
type SessionCounter interface {
	Len() int
}

// HealthHandler serves the liveness and readiness probes.
type HealthHandler struct {
	version  string
	started  time.Time
	sessions SessionCounter
}

// NewHealthHandler creates the handler.
func NewHealthHandler(version string, sessions SessionCounter) *HealthHandler {
	return &HealthHandler{version: version, started: time.Now(), sessions: sessions}
}

// Liveness handles GET /health
func (h *HealthHandler) Liveness(w http.ResponseWriter, r *http.Request) {
	api.Success(w, http.StatusOK, HealthResponse{
		Status:    StatusHealthy,
		Timestamp: time.Now().UTC(),
		Version:   h.version,
		Uptime:    time.Since(h.started).Round(time.Second).String(),
	})
}

// Readiness handles GET /ready
func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	api.Success(w, http.StatusOK, HealthResponse{
		Status:    StatusReady,
		Timestamp: time.Now().UTC(),
		Version:   h.version,
		Checks: map[string]interface{}{
			"sessions": h.sessions.Len(),
		},
	})
}
