package monitor

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/padelwatch/padelwatch/internal/availability"
	"github.com/padelwatch/padelwatch/internal/config"
	"github.com/padelwatch/padelwatch/internal/provider"
	"github.com/padelwatch/padelwatch/internal/subscription"
)

type fakeSource struct {
	users map[int64]subscription.UserRecord
}

func (f *fakeSource) GetAllWithChatIDs(ctx context.Context) (map[int64]subscription.UserRecord, error) {
	return f.users, nil
}

type fakeNotifier struct {
	mu    sync.Mutex
	sends []string
	fail  bool
}

func (f *fakeNotifier) Send(ctx context.Context, chatID int64, html string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return errors.New("telegram unavailable")
	}
	f.sends = append(f.sends, html)
	return nil
}

func (f *fakeNotifier) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sends)
}

// fakeFetcher serves static prices per court type, regardless of date.
type fakeFetcher struct {
	mu     sync.Mutex
	prices map[string]map[string]float64
	calls  int
}

func (f *fakeFetcher) Fetch(ctx context.Context, loc config.Location, date time.Time, courtName string) (map[string]float64, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	return f.prices[courtName], nil
}

func newTestMonitor(users map[int64]subscription.UserRecord, fetcher *fakeFetcher, notifier *fakeNotifier, now time.Time) *Monitor {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	registry := provider.NewRegistry()
	registry.Register(config.ProviderVivaCRM, fetcher)
	registry.Register(config.ProviderYClients, fetcher)

	cfg := &config.Config{
		CheckInterval: time.Minute,
		RecoveryDelay: time.Minute,
		FetchTimeout:  time.Second,
	}
	m := New(cfg, &fakeSource{users: users}, availability.NewAggregator(registry, logger), notifier, time.UTC, logger)
	m.now = func() time.Time { return now }
	return m
}

func oneUser(pred subscription.DatePredicate, hour int, courts ...string) map[int64]subscription.UserRecord {
	return map[int64]subscription.UserRecord{
		7: {ChatID: 77, Subscriptions: []subscription.Subscription{{
			ID:         1,
			UserID:     7,
			Location:   "Лужники",
			Hour:       hour,
			CourtTypes: courts,
			Predicate:  pred,
		}}},
	}
}

func TestCycleNotifiesOnceForSameSlot(t *testing.T) {
	fetcher := &fakeFetcher{prices: map[string]map[string]float64{
		"Закрытый корт": {"19:00": 4500},
	}}
	notifier := &fakeNotifier{}
	users := oneUser(subscription.RollingWindow{Days: 1}, 19, "Закрытый корт")
	m := newTestMonitor(users, fetcher, notifier, mkDate(2026, 9, 1))

	require.NoError(t, m.runCycle(context.Background()))
	require.Equal(t, 1, notifier.count())
	assert.Contains(t, notifier.sends[0], "Лужники")
	assert.Contains(t, notifier.sends[0], "19:00")
	assert.Contains(t, notifier.sends[0], "4.500 ₽")

	// Same availability next cycle: nothing new to say.
	require.NoError(t, m.runCycle(context.Background()))
	assert.Equal(t, 1, notifier.count())
}

func TestCycleNewCourtTriggersNewNotification(t *testing.T) {
	fetcher := &fakeFetcher{prices: map[string]map[string]float64{
		"Закрытый корт": {"19:00": 4500},
	}}
	notifier := &fakeNotifier{}
	users := oneUser(subscription.RollingWindow{Days: 1}, 19, "Закрытый корт", "Открытый корт")
	m := newTestMonitor(users, fetcher, notifier, mkDate(2026, 9, 1))

	require.NoError(t, m.runCycle(context.Background()))
	require.Equal(t, 1, notifier.count())

	// The other subscribed court frees up: the matched set changes, so
	// the user hears about it again.
	fetcher.prices["Открытый корт"] = map[string]float64{"19:00": 3000}
	require.NoError(t, m.runCycle(context.Background()))
	require.Equal(t, 2, notifier.count())
	assert.Contains(t, notifier.sends[1], "Открытый корт")
}

func TestCycleFailedSendIsRetriedNextCycle(t *testing.T) {
	fetcher := &fakeFetcher{prices: map[string]map[string]float64{
		"Закрытый корт": {"19:00": 4500},
	}}
	notifier := &fakeNotifier{fail: true}
	users := oneUser(subscription.RollingWindow{Days: 1}, 19, "Закрытый корт")
	m := newTestMonitor(users, fetcher, notifier, mkDate(2026, 9, 1))

	// Delivery fails; the key must not be committed.
	require.NoError(t, m.runCycle(context.Background()))
	assert.Equal(t, 0, notifier.count())
	assert.Equal(t, 0, m.cache.Len())

	notifier.fail = false
	require.NoError(t, m.runCycle(context.Background()))
	assert.Equal(t, 1, notifier.count())
	assert.Equal(t, 1, m.cache.Len())
}

func TestCyclePrunesStaleKeysOnDayChange(t *testing.T) {
	fetcher := &fakeFetcher{prices: map[string]map[string]float64{
		"Закрытый корт": {"19:00": 4500},
	}}
	notifier := &fakeNotifier{}
	users := oneUser(subscription.RollingWindow{Days: 1}, 19, "Закрытый корт")
	m := newTestMonitor(users, fetcher, notifier, mkDate(2026, 9, 1))

	require.NoError(t, m.runCycle(context.Background()))
	require.Equal(t, 1, notifier.count())
	require.Equal(t, 1, m.cache.Len())

	// Next day: yesterday's key is pruned, and the window now covers a
	// new date, so the same time slot notifies again.
	m.now = func() time.Time { return mkDate(2026, 9, 2) }
	require.NoError(t, m.runCycle(context.Background()))
	assert.Equal(t, 2, notifier.count())
	assert.Equal(t, 1, m.cache.Len())
}

func TestCycleSkipsFetchWithoutSubscriptions(t *testing.T) {
	fetcher := &fakeFetcher{prices: map[string]map[string]float64{}}
	notifier := &fakeNotifier{}
	m := newTestMonitor(map[int64]subscription.UserRecord{}, fetcher, notifier, mkDate(2026, 9, 1))

	require.NoError(t, m.runCycle(context.Background()))
	assert.Equal(t, 0, fetcher.calls)
	assert.Equal(t, 0, notifier.count())
}

func TestCyclePastSpecificDateQueriesNothing(t *testing.T) {
	fetcher := &fakeFetcher{prices: map[string]map[string]float64{
		"Закрытый корт": {"19:00": 4500},
	}}
	notifier := &fakeNotifier{}
	users := oneUser(subscription.SpecificDate{Date: mkDate(2026, 8, 30)}, 19, "Закрытый корт")
	m := newTestMonitor(users, fetcher, notifier, mkDate(2026, 9, 1))

	require.NoError(t, m.runCycle(context.Background()))
	assert.Equal(t, 0, fetcher.calls)
	assert.Equal(t, 0, notifier.count())
}
