package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/iho/fxledger/internal/adapter/http/handler"
	"github.com/iho/fxledger/internal/adapter/http/middleware"
)

// RouterConfig holds dependencies for the router.
type RouterConfig struct {
	Logger          zerolog.Logger
	BalanceHandler  *handler.BalanceHandler
	RateHandler     *handler.RateHandler
	OverrideHandler *handler.OverrideHandler
	LedgerHandler   *handler.LedgerHandler
	HealthHandler   *handler.HealthHandler
	// RateLimiter guards the mutating routes when set.
	RateLimiter *middleware.RateLimiter
	// HTTPMetrics records request metrics when set.
	HTTPMetrics *middleware.HTTPMetrics
	// MetricsHandler serves /metrics when set.
	MetricsHandler http.Handler
}

// NewRouter creates a new HTTP router.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewLoggingMiddleware(cfg.Logger).Wrap)
	r.Use(middleware.Recovery(cfg.Logger))
	if cfg.HTTPMetrics != nil {
		r.Use(cfg.HTTPMetrics.Wrap)
	}

	// Health endpoints
	r.Get("/health", cfg.HealthHandler.Liveness)
	r.Get("/ready", cfg.HealthHandler.Readiness)
	if cfg.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", cfg.MetricsHandler)
	}

	// API v1
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/balance", cfg.BalanceHandler.Report)
		r.Get("/entries", cfg.BalanceHandler.Entries)
		r.Get("/ledger/continuity", cfg.LedgerHandler.CheckContinuity)

		r.Get("/rates", cfg.RateHandler.List)
		r.Get("/rates/{currency}", cfg.RateHandler.Get)
		r.Get("/overrides", cfg.OverrideHandler.List)

		// Mutating routes
		r.Group(func(r chi.Router) {
			if cfg.RateLimiter != nil {
				r.Use(cfg.RateLimiter.Limit)
			}

			r.Post("/rates/refresh", cfg.RateHandler.Refresh)
			r.Put("/overrides/{date}/{currency}", cfg.OverrideHandler.Set)
			r.Delete("/overrides/{date}", cfg.OverrideHandler.Clear)
		})
	})

	return r
}
