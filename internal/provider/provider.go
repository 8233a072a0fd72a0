// Package provider normalizes heterogeneous booking-site APIs into a single
// availability shape: time label -> price for one court type on one date.
//
// Each upstream API family gets one adapter. Adapters are registered by
// provider kind; callers never branch on the kind themselves.
package provider

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/padelwatch/padelwatch/internal/config"
	"github.com/padelwatch/padelwatch/internal/provider/vivacrm"
	"github.com/padelwatch/padelwatch/internal/provider/yclients"
)

// Prices maps a "HH:MM" time label to the bookable price in rubles.
type Prices = map[string]float64

// Fetcher is a booking-site adapter. Fetch returns the free slots for one
// court type on one date. An empty map means no availability; an error means
// the upstream could not be queried at all.
type Fetcher interface {
	Fetch(ctx context.Context, loc config.Location, date time.Time, courtName string) (Prices, error)
}

// Registry maps provider kinds to their adapters.
type Registry struct {
	fetchers map[config.ProviderKind]Fetcher
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{fetchers: make(map[config.ProviderKind]Fetcher)}
}

// Register installs an adapter for a provider kind, replacing any previous
// registration.
func (r *Registry) Register(kind config.ProviderKind, f Fetcher) {
	r.fetchers[kind] = f
}

// Lookup returns the adapter for a provider kind.
func (r *Registry) Lookup(kind config.ProviderKind) (Fetcher, error) {
	f, ok := r.fetchers[kind]
	if !ok {
		return nil, fmt.Errorf("no adapter registered for provider %q", kind)
	}
	return f, nil
}

// DefaultRegistry builds the registry with all production adapters sharing
// one HTTP client.
func DefaultRegistry(cfg *config.Config, logger *slog.Logger) *Registry {
	httpClient := &http.Client{Timeout: cfg.FetchTimeout}

	r := NewRegistry()
	r.Register(config.ProviderVivaCRM, vivacrm.NewClient(httpClient, logger))
	r.Register(config.ProviderYClients, yclients.NewClient(httpClient, cfg.YClientsToken, logger))
	return r
}
