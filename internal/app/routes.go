package app

import (
	"github.com/gorilla/mux"
	"github.com/weekstatus/weekstatus/internal/rest"
)

// RegisterRoutes registers all API endpoints.
func RegisterRoutes(r *mux.Router, deps *Dependencies) {
	// Telegram
	r.Handle("/webhook", deps.WebhookHandler).Methods("POST")

	// Operations
	r.HandleFunc("/health", rest.Health).Methods("GET")
	r.Handle("/metrics", deps.Metrics.Handler()).Methods("GET")
}
