package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SetupRoutes configures all API routes.
func SetupRoutes(h *Handlers, health *HealthChecker) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestID)

	// CORS - the dashboard frontend runs on a different origin in dev
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://app.lumera.io", "http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-User-ID", "X-Plan-Tier"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Operational endpoints (no identity required)
	r.Get("/health", health.HandleHealth)
	r.Get("/health/ready", health.HandleReadiness)
	r.Handle("/metrics", promhttp.Handler())

	// API routes
	r.Route("/api", func(r chi.Router) {
		r.Route("/insights", func(r chi.Router) {
			r.Get("/dashboard", h.GetDashboard)
		})

		r.Route("/review", func(r chi.Router) {
			r.Get("/{month}", h.GetReview)
			r.Post("/{month}/generate", h.GenerateReview)
		})

		r.Get("/usage", h.GetUsage)
	})

	return r
}
