package server

import (
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"trade-journal-go/internal/auth"
	"trade-journal-go/internal/config"
	"trade-journal-go/internal/repository"
)

// NewRouter wires the HTTP surface: request logging, panic recovery, a
// server-wide rate limit, a per-request timeout bounding every repository
// call, and the auth middleware guarding everything except the health check.
func NewRouter(log *zap.Logger, repo *repository.TradeRepository, cfg *config.Config) *chi.Mux {
	h := NewTradeHandler(log, repo)

	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)
	r.Use(RequestLogger(log))
	r.Use(Throttle(rate.NewLimiter(rate.Limit(cfg.Server.RateLimit), cfg.Server.RateLimitBurst)))
	r.Use(chimiddleware.Timeout(time.Duration(cfg.Server.RequestTimeout) * time.Second))

	r.Get("/api/health", h.Health)

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireAuth(cfg.Auth.JWTSecret))

		r.Route("/api/trades", func(r chi.Router) {
			r.Get("/", h.List)
			r.Post("/", h.Create)
			r.Put("/{id}", h.Update)
			r.Delete("/{id}", h.Delete)
		})
		r.Get("/api/metrics", h.Metrics)
	})

	return r
}
