package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/iho/atmcore/internal/adapter/http/handler"
	"github.com/iho/atmcore/internal/adapter/http/middleware"
	"github.com/iho/atmcore/internal/infrastructure/metrics"
)

// RouterConfig holds dependencies for the router.
type RouterConfig struct {
	AuthHandler   *handler.AuthHandler
	LedgerHandler *handler.LedgerHandler
	HealthHandler *handler.HealthHandler
	SessionAuth   *middleware.SessionAuth
	Metrics       *metrics.Metrics
	Logger        zerolog.Logger
}

// NewRouter creates a new HTTP router.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewLoggingMiddleware(cfg.Logger).Wrap)
	r.Use(middleware.NewMetricsMiddleware(cfg.Metrics).Wrap)
	r.Use(middleware.Recovery)

	// Health and metrics endpoints
	r.Get("/health", cfg.HealthHandler.Liveness)
	r.Get("/ready", cfg.HealthHandler.Readiness)
	r.Handle("/metrics", promhttp.Handler())

	// API v1
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/login", cfg.AuthHandler.Login)

		// Session-authenticated routes
		r.Group(func(r chi.Router) {
			r.Use(cfg.SessionAuth.Wrap)

			r.Post("/logout", cfg.AuthHandler.Logout)

			r.Route("/accounts/{id}", func(r chi.Router) {
				r.Post("/deposit", cfg.LedgerHandler.Deposit)
				r.Post("/withdraw", cfg.LedgerHandler.Withdraw)
				r.Post("/transfer", cfg.LedgerHandler.Transfer)
				r.Get("/transactions", cfg.LedgerHandler.History)
			})
		})
	})

	return r
}
