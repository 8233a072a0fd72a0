// Package monitor runs the availability watch loop: collect subscriptions,
// query providers once per distinct (location, date), match against watch
// rules, and deliver deduplicated notifications.
package monitor

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/padelwatch/padelwatch/internal/availability"
	"github.com/padelwatch/padelwatch/internal/config"
	"github.com/padelwatch/padelwatch/internal/subscription"
)

// SubscriptionSource provides the subscriptions to evaluate each cycle.
type SubscriptionSource interface {
	GetAllWithChatIDs(ctx context.Context) (map[int64]subscription.UserRecord, error)
}

// Notifier delivers one HTML message to a chat.
type Notifier interface {
	Send(ctx context.Context, chatID int64, html string) error
}

// Monitor is the background watch loop. It owns the dedup cache; nothing
// else touches it.
type Monitor struct {
	source     SubscriptionSource
	aggregator *availability.Aggregator
	notifier   Notifier
	cache      *SeenCache
	logger     *slog.Logger
	tz         *time.Location

	checkInterval time.Duration
	recoveryDelay time.Duration
	fetchTimeout  time.Duration

	now func() time.Time // injectable for tests
}

// New creates a Monitor.
func New(cfg *config.Config, source SubscriptionSource, agg *availability.Aggregator, notifier Notifier, tz *time.Location, logger *slog.Logger) *Monitor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Monitor{
		source:        source,
		aggregator:    agg,
		notifier:      notifier,
		cache:         NewSeenCache(),
		logger:        logger,
		tz:            tz,
		checkInterval: cfg.CheckInterval,
		recoveryDelay: cfg.RecoveryDelay,
		fetchTimeout:  cfg.FetchTimeout,
		now:           time.Now,
	}
}

// Run executes cycles until the context is cancelled. A failed cycle is
// logged and retried after the recovery delay; the loop itself never dies.
func (m *Monitor) Run(ctx context.Context) error {
	m.logger.Info("monitoring loop started", "interval", m.checkInterval)
	for {
		if err := m.runCycle(ctx); err != nil {
			if ctx.Err() != nil {
				m.logger.Info("monitoring loop stopped")
				return ctx.Err()
			}
			m.logger.Error("monitoring cycle failed", "error", err)
			if err := sleepCtx(ctx, m.recoveryDelay); err != nil {
				return err
			}
			continue
		}
		if err := sleepCtx(ctx, m.checkInterval); err != nil {
			m.logger.Info("monitoring loop stopped")
			return err
		}
	}
}

// runCycle performs one full pass. Dedup keys are committed per user only
// after that user's message was sent; a cancelled cycle commits nothing.
func (m *Monitor) runCycle(ctx context.Context) error {
	today := midnight(m.now().In(m.tz))

	if removed := m.cache.Prune(today); removed > 0 {
		m.logger.Info("pruned stale notification keys", "removed", removed, "remaining", m.cache.Len())
	}

	users, err := m.source.GetAllWithChatIDs(ctx)
	if err != nil {
		return err
	}
	if len(users) == 0 {
		return nil
	}

	queries := CollectQueries(users, today)
	if len(queries) == 0 {
		return nil
	}

	snapshots := m.fetchAll(ctx, queries)
	if ctx.Err() != nil {
		return ctx.Err()
	}

	matches := FindMatches(users, snapshots, today)

	// Keep only matches not yet delivered, and collapse duplicates from
	// overlapping subscriptions within this cycle.
	fresh := make(map[int64][]Match)
	cycleSeen := make(map[Key]struct{})
	for _, match := range matches {
		k := match.Key()
		if m.cache.Seen(k) {
			continue
		}
		if _, dup := cycleSeen[k]; dup {
			continue
		}
		cycleSeen[k] = struct{}{}
		fresh[match.UserID] = append(fresh[match.UserID], match)
	}

	for userID, userMatches := range fresh {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		msg := BuildMessage(userMatches)
		if err := m.notifier.Send(ctx, userMatches[0].ChatID, msg); err != nil {
			m.logger.Warn("notification delivery failed", "user_id", userID, "error", err)
			continue
		}
		keys := make([]Key, len(userMatches))
		for i, match := range userMatches {
			keys[i] = match.Key()
		}
		m.cache.Commit(keys)
		m.logger.Info("notification sent", "user_id", userID, "slots", len(userMatches))
	}
	return nil
}

// fetchAll runs every query concurrently, each under its own timeout. Failed
// or empty queries simply contribute no snapshot.
func (m *Monitor) fetchAll(ctx context.Context, queries map[QueryKey]time.Time) map[QueryKey]availability.Snapshot {
	var (
		mu        sync.Mutex
		snapshots = make(map[QueryKey]availability.Snapshot)
		wg        sync.WaitGroup
	)
	for key, date := range queries {
		loc, ok := config.GetLocation(key.Location)
		if !ok {
			m.logger.Warn("subscription references unknown location", "location", key.Location)
			continue
		}
		wg.Add(1)
		go func(key QueryKey, loc config.Location, date time.Time) {
			defer wg.Done()
			fetchCtx, cancel := context.WithTimeout(ctx, m.fetchTimeout)
			defer cancel()
			snap := m.aggregator.Fetch(fetchCtx, loc, date)
			if len(snap) == 0 {
				return
			}
			mu.Lock()
			snapshots[key] = snap
			mu.Unlock()
		}(key, loc, date)
	}
	wg.Wait()
	return snapshots
}

// midnight truncates a time to the start of its calendar day.
func midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// sleepCtx waits for the duration or until the context is cancelled.
func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
