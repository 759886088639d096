package api

import (
	"net/http"
	"time"
)

type HealthResponse struct {
	Status        string `json:"status"`
	Timestamp     string `json:"timestamp"`
	Environment   string `json:"environment"`
	Version       string `json:"version"`
	PendingStates int    `json:"pending_states"`
}

// HealthHandler reports liveness plus the size of the state table.
type HealthHandler struct {
	environment   string
	version       string
	pendingStates func() int
}

func NewHealthHandler(environment, version string, pendingStates func() int) *HealthHandler {
	return &HealthHandler{environment: environment, version: version, pendingStates: pendingStates}
}

func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		Status:      "OK",
		Timestamp:   time.Now().UTC().Format(time.RFC3339),
		Environment: h.environment,
		Version:     h.version,
	}
	if h.pendingStates != nil {
		resp.PendingStates = h.pendingStates()
	}
	writeJSON(w, http.StatusOK, resp)
}
