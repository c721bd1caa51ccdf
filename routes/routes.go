package routes

import (
	"nagrikrakshak/handler"
	"nagrikrakshak/service"

	"github.com/gorilla/mux"
)

// SetupRoutes configures the keep-alive server routes
func SetupRoutes(metrics *service.TriageMetrics) *mux.Router {
	router := mux.NewRouter()

	healthHandler := handler.NewHealthHandler(metrics)

	// GET / - static confirmation for the hosting platform's health check
	router.HandleFunc("/", healthHandler.KeepAlive).Methods("GET", "HEAD")

	// GET /health - uptime and triage counters
	router.HandleFunc("/health", healthHandler.Health).Methods("GET")

	return router
}
