package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/capitalize-ai/announcement-agent/internal/middleware"
	"github.com/capitalize-ai/announcement-agent/pkg/logger"
)

// RouterConfig holds the handlers and settings for the HTTP API.
type RouterConfig struct {
	Chat   *ChatHandler
	Email  *EmailHandler
	Health *HealthHandler

	CORSOrigins       []string
	AuthEnabled       bool
	JWTSecret         string
	RateLimitRequests int
	RateLimitWindow   time.Duration
}

// NewRouter builds the chi router for the API server.
func NewRouter(cfg RouterConfig, log *logger.Logger) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging(log))
	r.Use(middleware.SecurityHeaders)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS(cfg.CORSOrigins))

	// Health endpoints (no auth required)
	r.Get("/health", cfg.Health.Health)
	r.Get("/ready", cfg.Health.Ready)

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		if cfg.AuthEnabled {
			r.Use(middleware.Auth(cfg.JWTSecret))
		}
		if cfg.RateLimitRequests > 0 {
			r.Use(middleware.RateLimit(cfg.RateLimitRequests, cfg.RateLimitWindow))
		}

		r.Route("/chat", func(r chi.Router) {
			r.Post("/message", cfg.Chat.Message)
			r.Post("/stream", cfg.Chat.Stream)
		})

		r.Route("/email", func(r chi.Router) {
			r.Get("/recent", cfg.Email.Recent)
			r.With(sendScope(cfg.AuthEnabled)).Post("/send", cfg.Email.Send)
		})
	})

	return r
}

// Direct sends skip the agent, so they need an explicit scope when auth is on.
func sendScope(authEnabled bool) func(http.Handler) http.Handler {
	if !authEnabled {
		return func(next http.Handler) http.Handler { return next }
	}
	return middleware.RequireScope(middleware.ScopeSend)
}
