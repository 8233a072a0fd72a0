// Package handler provides HTTP handlers for the Mini-App API. Availability
// is fetched live from the booking providers; subscription writes go through
// the Postgres store.
package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/padelwatch/padelwatch/internal/api/respond"
	"github.com/padelwatch/padelwatch/internal/availability"
	"github.com/padelwatch/padelwatch/internal/cache"
	"github.com/padelwatch/padelwatch/internal/config"
	"github.com/padelwatch/padelwatch/internal/db"
	"github.com/padelwatch/padelwatch/internal/subscription"
)

// Handler holds shared dependencies for all endpoint handlers.
type Handler struct {
	pool       *db.Pool
	store      *subscription.Store
	aggregator *availability.Aggregator
	cache      *cache.Cache
	cfg        *config.Config
	tz         *time.Location
	logger     *slog.Logger

	now func() time.Time
}

// New creates a Handler with shared dependencies.
func New(pool *db.Pool, store *subscription.Store, agg *availability.Aggregator, c *cache.Cache, cfg *config.Config, tz *time.Location, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		pool:       pool,
		store:      store,
		aggregator: agg,
		cache:      c,
		cfg:        cfg,
		tz:         tz,
		logger:     logger,
		now:        time.Now,
	}
}

// Root serves API info at /.
func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"name":    "Padel Watch API",
		"version": "1.0.0",
		"status":  "running",
	})
}

// HealthCheck returns basic health status.
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// HealthCheckDB verifies database connectivity.
func (h *Handler) HealthCheckDB(w http.ResponseWriter, r *http.Request) {
	if err := h.pool.HealthCheck(r.Context()); err != nil {
		respond.WriteJSONObject(w, http.StatusServiceUnavailable, map[string]interface{}{
			"status":    "unhealthy",
			"database":  "disconnected",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
		return
	}
	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"database":  "connected",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// HealthCheckCache returns cache statistics.
func (h *Handler) HealthCheckCache(w http.ResponseWriter, r *http.Request) {
	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"cache":     h.cache.Stats(),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
