// Package availability aggregates per-court provider results into the
// snapshot shape the matcher and the Mini-App consume.
package availability

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/padelwatch/padelwatch/internal/config"
	"github.com/padelwatch/padelwatch/internal/provider"
)

// Snapshot is the availability of one location on one date:
// time label -> court type -> price.
type Snapshot map[string]map[string]float64

// CourtsAt returns the court types free at a time label, or nil.
func (s Snapshot) CourtsAt(label string) map[string]float64 {
	return s[label]
}

// Aggregator fans one (location, date) query out across the location's court
// types and merges the adapter results.
type Aggregator struct {
	registry *provider.Registry
	logger   *slog.Logger
}

// NewAggregator creates an Aggregator.
func NewAggregator(registry *provider.Registry, logger *slog.Logger) *Aggregator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Aggregator{registry: registry, logger: logger}
}

// Fetch queries every court type of a location concurrently and merges the
// results. A court whose fetch fails is logged and contributes nothing; the
// other courts still report. Fetch itself never fails.
func (a *Aggregator) Fetch(ctx context.Context, loc config.Location, date time.Time) Snapshot {
	fetcher, err := a.registry.Lookup(loc.Provider)
	if err != nil {
		a.logger.Error("availability: unknown provider", "location", loc.Name, "provider", string(loc.Provider))
		return Snapshot{}
	}

	var (
		mu       sync.Mutex
		snapshot = make(Snapshot)
		wg       sync.WaitGroup
	)
	for _, courtName := range loc.CourtNames() {
		wg.Add(1)
		go func(courtName string) {
			defer wg.Done()
			prices, err := fetcher.Fetch(ctx, loc, date, courtName)
			if err != nil {
				a.logger.Warn("availability: fetch failed",
					"location", loc.Name,
					"court", courtName,
					"date", date.Format("2006-01-02"),
					"error", err)
				return
			}
			mu.Lock()
			for label, price := range prices {
				if snapshot[label] == nil {
					snapshot[label] = make(map[string]float64)
				}
				snapshot[label][courtName] = price
			}
			mu.Unlock()
		}(courtName)
	}
	wg.Wait()

	return snapshot
}
