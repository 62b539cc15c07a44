package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
)

// SetupRoutes registers the versioned API and the metrics endpoint
func SetupRoutes(router *mux.Router, handlers *Handlers) {
	// API version prefix
	api := router.PathPrefix("/api/v1").Subrouter()

	// Provider endpoints
	api.HandleFunc("/sources", handlers.ListSources).Methods("GET")
	api.HandleFunc("/interactions", handlers.GetInteractions).Methods("GET")

	// Network analysis endpoints
	networks := api.PathPrefix("/networks").Subrouter()
	networks.HandleFunc("/analysis", handlers.AnalyzeNetwork).Methods("GET", "POST")
	networks.HandleFunc("/centrality", handlers.ComputeCentrality).Methods("POST")

	// Health check endpoint
	api.HandleFunc("/health", handlers.HealthCheck).Methods("GET")

	router.Handle("/metrics", promhttp.Handler()).Methods("GET")
}

// NewRouter assembles routes, middleware and CORS into one handler
func NewRouter(handlers *Handlers, allowedOrigins []string) http.Handler {
	router := mux.NewRouter()
	SetupRoutes(router, handlers)

	router.Use(RequestIDMiddleware)
	router.Use(LoggingMiddleware)
	router.Use(MetricsMiddleware)
	router.Use(RecoveryMiddleware)

	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}
	c := cors.New(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "Authorization", RequestIDHeader},
		ExposedHeaders: []string{RequestIDHeader},
		MaxAge:         86400,
	})
	return c.Handler(router)
}
