package handler

import (
	"encoding/json"
	"nagrikrakshak/service"
	"net/http"
)

// KeepAliveMessage is the static body served to health checks
const KeepAliveMessage = "AI Complaint Listener is Running!"

// HealthHandler serves the keep-alive and health endpoints. It only reads
// the lock-guarded triage metrics and never touches the change feed.
type HealthHandler struct {
	metrics *service.TriageMetrics
}

// NewHealthHandler creates a health handler
func NewHealthHandler(metrics *service.TriageMetrics) *HealthHandler {
	return &HealthHandler{metrics: metrics}
}

// KeepAlive handles GET / for hosting-platform health checks
func (h *HealthHandler) KeepAlive(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(KeepAliveMessage))
}

// Health handles GET /health with uptime and triage counters
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"status": "healthy",
	}
	if h.metrics != nil {
		response["triage"] = h.metrics.Snapshot()
	}
	respondWithJSON(w, http.StatusOK, response)
}

// respondWithJSON sends a JSON response
func respondWithJSON(w http.ResponseWriter, statusCode int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(payload)
}
