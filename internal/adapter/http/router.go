package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/iho/ilpnode/internal/adapter/btp"
	"github.com/iho/ilpnode/internal/adapter/http/handler"
	"github.com/iho/ilpnode/internal/adapter/http/middleware"
)

// RouterConfig holds dependencies for the router.
type RouterConfig struct {
	AccountHandler    *handler.AccountHandler
	ILPHandler        *handler.ILPHandler
	SettlementHandler *handler.SettlementHandler
	RouteHandler      *handler.RouteHandler
	RateHandler       *handler.RateHandler
	SPSPHandler       *handler.SPSPHandler
	HealthHandler     *handler.HealthHandler
	BTPServer         *btp.Server

	AdminToken  string
	Logger      zerolog.Logger
	RateLimiter *middleware.RateLimiter
}

// NewRouter creates a new HTTP router.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewLoggingMiddleware(cfg.Logger).Wrap)
	r.Use(middleware.NewRecoveryMiddleware(cfg.Logger).Wrap)
	r.Use(middleware.Metrics)

	// Health and observability
	r.Get("/health", cfg.HealthHandler.Liveness)
	r.Get("/ready", cfg.HealthHandler.Readiness)
	r.Handle("/metrics", promhttp.Handler())

	// Public surfaces: packet ingress, payment setup, engine notifications.
	// These authenticate per-account (or not at all for SPSP), never with the
	// admin token.
	r.Group(func(r chi.Router) {
		if cfg.RateLimiter != nil {
			r.Use(cfg.RateLimiter.Limit)
		}

		r.Post("/accounts/{username}/ilp", cfg.ILPHandler.Handle)
		if cfg.BTPServer != nil {
			r.Get("/accounts/{username}/btp", cfg.BTPServer.Handle)
		}
		r.Get("/spsp/{username}", cfg.SPSPHandler.Query)
		r.Get("/.well-known/pay", cfg.SPSPHandler.WellKnown)
		r.Post("/accounts/{id}/settlements", cfg.SettlementHandler.Notify)
	})

	// Self-service: the account patches its own settings with its incoming
	// token. Authorization happens in the handler against the stored tokens.
	r.Put("/accounts/{id}/settings", cfg.AccountHandler.PatchSettings)

	// Administrative API
	r.Group(func(r chi.Router) {
		r.Use(middleware.AdminAuth(cfg.AdminToken))

		r.Route("/accounts", func(r chi.Router) {
			r.Post("/", cfg.AccountHandler.Create)
			r.Get("/", cfg.AccountHandler.List)
			r.Get("/{id}", cfg.AccountHandler.Get)
			r.Put("/{id}", cfg.AccountHandler.Update)
			r.Delete("/{id}", cfg.AccountHandler.Delete)
			r.Get("/{id}/balance", cfg.AccountHandler.GetBalance)
			r.Get("/{id}/settlements", cfg.SettlementHandler.History)
		})

		r.Route("/routes", func(r chi.Router) {
			r.Get("/", cfg.RouteHandler.List)
			r.Put("/static", cfg.RouteHandler.ReplaceStatic)
			r.Put("/static/{prefix}", cfg.RouteHandler.UpsertStatic)
		})

		r.Route("/rates", func(r chi.Router) {
			r.Get("/", cfg.RateHandler.List)
			r.Put("/", cfg.RateHandler.Replace)
		})
	})

	return r
}
