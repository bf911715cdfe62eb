package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/cashclarity/ledgersync/internal/adapter/http/handler"
	"github.com/cashclarity/ledgersync/internal/adapter/http/middleware"
	"github.com/cashclarity/ledgersync/internal/usecase"
)

// RouterConfig holds dependencies for the router.
type RouterConfig struct {
	EntryHandler     *handler.EntryHandler
	PeriodHandler    *handler.PeriodHandler
	HealthHandler    *handler.HealthHandler
	IdempotencyStore usecase.IdempotencyStore
	IdempotencyTTL   time.Duration
	RateLimiter      *middleware.RateLimiter
	// HTTPMetrics is optional; nil leaves requests uninstrumented.
	HTTPMetrics *middleware.HTTPMetrics
	// MetricsHandler serves /metrics; defaults to the global Prometheus registry.
	MetricsHandler http.Handler
	Logger         zerolog.Logger
}

// NewRouter creates a new HTTP router.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestLogger(cfg.Logger))
	r.Use(middleware.Recoverer(cfg.Logger))
	if cfg.HTTPMetrics != nil {
		r.Use(cfg.HTTPMetrics.Wrap)
	}

	if cfg.RateLimiter != nil {
		r.Use(cfg.RateLimiter.Limit)
	}

	r.Get("/health", cfg.HealthHandler.Liveness)
	r.Get("/ready", cfg.HealthHandler.Readiness)

	metricsHandler := cfg.MetricsHandler
	if metricsHandler == nil {
		metricsHandler = promhttp.Handler()
	}
	r.Method(http.MethodGet, "/metrics", metricsHandler)

	r.Route("/api/v1", func(r chi.Router) {
		if cfg.IdempotencyStore != nil {
			r.Use(middleware.NewIdempotencyMiddleware(cfg.IdempotencyStore, cfg.IdempotencyTTL).Wrap)
		}

		r.Route("/periods/{periodID}", func(r chi.Router) {
			r.Get("/entries", cfg.EntryHandler.List)
			r.Post("/entries/batch", cfg.EntryHandler.BatchUpsert)
			r.Get("/overrides", cfg.PeriodHandler.GetOverrides)
			r.Put("/overrides", cfg.PeriodHandler.PutOverrides)
		})

		r.Delete("/entries/{id}", cfg.EntryHandler.Delete)
	})

	return r
}
