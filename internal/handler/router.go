package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/ninjainc/waitlist/internal/middleware"
)

// RouterConfig wires handlers and middleware into a router.
type RouterConfig struct {
	Logger      *slog.Logger
	Subscribers SubscriberService
	Health      *HealthHandler
	// Metrics serves /metrics when set.
	Metrics  http.Handler
	CORS     middleware.CORSConfig
	Security middleware.SecurityConfig
}

// NewRouter configures the chi router with all routes and middleware.
// Subscriber routes answer under both "/" and "/api" so the landing page
// (which posts to /api/subscribe) and bare clients share one server.
func NewRouter(cfg RouterConfig) *chi.Mux {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	subscriberHandler := NewSubscriberHandler(cfg.Subscribers, logger)

	health := cfg.Health
	if health == nil {
		health = NewHealthHandler(nil, nil)
	}

	// The health checkers are exactly the backends main managed to wire.
	h := New(Features{
		DatabaseConfigured: health.db != nil,
		CacheEnabled:       health.cache != nil,
		MetricsEnabled:     cfg.Metrics != nil,
	})

	bodyLimit := cfg.Security.MaxRequestBodySize
	if bodyLimit <= 0 {
		bodyLimit = middleware.DefaultSecurityConfig().MaxRequestBodySize
	}

	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Recoverer(logger))
	r.Use(middleware.Security(cfg.Security))
	r.Use(middleware.CORS(cfg.CORS))
	r.Use(middleware.MaxBodySize(bodyLimit))

	// Probes and info
	r.Get("/healthz", health.Healthz)
	r.Get("/readyz", health.Readyz)
	r.Get("/", h.Info)

	if cfg.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", cfg.Metrics)
	}

	mountSubscriberRoutes(r, subscriberHandler)
	r.Route("/api", func(r chi.Router) {
		mountSubscriberRoutes(r, subscriberHandler)
	})

	// 404 and 405 handlers
	r.NotFound(h.NotFound)
	r.MethodNotAllowed(h.MethodNotAllowed)

	return r
}

func mountSubscriberRoutes(r chi.Router, h *SubscriberHandler) {
	r.Post("/subscribe", h.Subscribe)
	r.Get("/subscribers", h.List)
}
