package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	httpmiddleware "github.com/wolfman30/whatsapp-scheduler/internal/http/middleware"
	"github.com/wolfman30/whatsapp-scheduler/internal/messaging"
	"github.com/wolfman30/whatsapp-scheduler/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger           *logging.Logger
	MessagingHandler *messaging.Handler
	MetricsHandler   http.Handler
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	if cfg == nil || cfg.MessagingHandler == nil {
		panic("router: messaging handler is required")
	}
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	r.Get("/", cfg.MessagingHandler.HealthCheck)
	r.Get("/health", cfg.MessagingHandler.Status)
	r.Post("/webhook", cfg.MessagingHandler.Webhook)
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	return r
}
