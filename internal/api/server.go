// Package api wires the Mini-App HTTP surface: routing, CORS, rate limiting,
// and request timing.
package api

import (
	"log/slog"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	corslib "github.com/rs/cors"

	"github.com/padelwatch/padelwatch/internal/api/handler"
	"github.com/padelwatch/padelwatch/internal/availability"
	"github.com/padelwatch/padelwatch/internal/cache"
	"github.com/padelwatch/padelwatch/internal/config"
	"github.com/padelwatch/padelwatch/internal/db"
	"github.com/padelwatch/padelwatch/internal/subscription"
)

// NewRouter creates and configures the Chi router with all middleware and routes.
func NewRouter(pool *db.Pool, store *subscription.Store, agg *availability.Aggregator, appCache *cache.Cache, cfg *config.Config, tz *time.Location, logger *slog.Logger) *chi.Mux {
	r := chi.NewRouter()

	// --- Middleware stack ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(TimingMiddleware)
	r.Use(middleware.Compress(5)) // gzip

	// CORS
	c := corslib.New(corslib.Options{
		AllowedOrigins:   cfg.CORSAllowOrigins,
		AllowedMethods:   []string{"GET", "POST", "HEAD", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Accept-Encoding", "Content-Type", "Cache-Control"},
		ExposedHeaders:   []string{"X-Process-Time", "X-Cache"},
		AllowCredentials: false,
	})
	r.Use(c.Handler)

	// Rate limiting
	if cfg.RateLimitEnabled {
		r.Use(RateLimitMiddleware(cfg.RateLimitRequests, cfg.RateLimitWindow))
	}

	// --- Handler dependencies ---
	h := handler.New(pool, store, agg, appCache, cfg, tz, logger)

	// --- Routes ---

	// Root
	r.Get("/", h.Root)

	// Health checks
	r.Route("/health", func(r chi.Router) {
		r.Get("/", h.HealthCheck)
		r.Get("/db", h.HealthCheckDB)
		r.Get("/cache", h.HealthCheckCache)
	})

	// Mini-App API
	r.Route("/api", func(r chi.Router) {
		r.Get("/locations", h.GetLocations)
		r.Get("/sessions", h.GetSessions)
		r.Get("/calendar", h.GetCalendar)
		r.Post("/subscribe", h.Subscribe)
	})

	return r
}
