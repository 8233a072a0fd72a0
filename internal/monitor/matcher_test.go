package monitor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/padelwatch/padelwatch/internal/availability"
	"github.com/padelwatch/padelwatch/internal/subscription"
)

func TestCollectQueriesDeduplicates(t *testing.T) {
	today := mkDate(2026, 9, 1)
	users := map[int64]subscription.UserRecord{
		1: {ChatID: 1, Subscriptions: []subscription.Subscription{
			{Location: "Лужники", Hour: 19, Predicate: subscription.RollingWindow{Days: 2}},
			{Location: "Лужники", Hour: 20, Predicate: subscription.RollingWindow{Days: 2}},
		}},
		2: {ChatID: 2, Subscriptions: []subscription.Subscription{
			{Location: "Лужники", Hour: subscription.AnyHour, Predicate: subscription.SpecificDate{Date: today}},
			{Location: "Химки", Hour: 10, Predicate: subscription.SpecificDate{Date: today.AddDate(0, 0, 5)}},
		}},
	}

	queries := CollectQueries(users, today)

	// Лужники day 1+2 shared by three subscriptions, Химки one date.
	assert.Len(t, queries, 3)
	assert.Contains(t, queries, QueryKey{Location: "Лужники", Date: "2026-09-01"})
	assert.Contains(t, queries, QueryKey{Location: "Лужники", Date: "2026-09-02"})
	assert.Contains(t, queries, QueryKey{Location: "Химки", Date: "2026-09-06"})
}

func TestFindMatchesCourtIntersection(t *testing.T) {
	today := mkDate(2026, 9, 1)
	users := map[int64]subscription.UserRecord{
		7: {ChatID: 77, Subscriptions: []subscription.Subscription{{
			UserID:     7,
			Location:   "Лужники",
			Hour:       19,
			CourtTypes: []string{"Закрытый корт"},
			Predicate:  subscription.SpecificDate{Date: today},
		}}},
	}
	snapshots := map[QueryKey]availability.Snapshot{
		{Location: "Лужники", Date: "2026-09-01"}: {
			"19:00": {"Открытый корт": 3000, "Закрытый корт": 4500},
			"20:00": {"Открытый корт": 3000},
		},
	}

	matches := FindMatches(users, snapshots, today)

	require.Len(t, matches, 1)
	m := matches[0]
	assert.Equal(t, int64(7), m.UserID)
	assert.Equal(t, int64(77), m.ChatID)
	assert.Equal(t, "19:00", m.Label)
	assert.Equal(t, []CourtPrice{{Name: "Закрытый корт", Price: 4500}}, m.Courts)
}

func TestFindMatchesWildcardHour(t *testing.T) {
	today := mkDate(2026, 9, 1)
	users := map[int64]subscription.UserRecord{
		7: {ChatID: 77, Subscriptions: []subscription.Subscription{{
			UserID:     7,
			Location:   "Лужники",
			Hour:       subscription.AnyHour,
			CourtTypes: []string{"Открытый корт"},
			Predicate:  subscription.RollingWindow{Days: 1},
		}}},
	}
	snapshots := map[QueryKey]availability.Snapshot{
		{Location: "Лужники", Date: "2026-09-01"}: {
			"07:00": {"Открытый корт": 2000},
			"23:00": {"Открытый корт": 2500},
			"06:00": {"Открытый корт": 1500}, // outside operating hours
		},
	}

	matches := FindMatches(users, snapshots, today)

	labels := make([]string, 0, len(matches))
	for _, m := range matches {
		labels = append(labels, m.Label)
	}
	assert.ElementsMatch(t, []string{"07:00", "23:00"}, labels)
}

func TestFindMatchesIsIdempotent(t *testing.T) {
	today := mkDate(2026, 9, 1)
	users := map[int64]subscription.UserRecord{
		7: {ChatID: 77, Subscriptions: []subscription.Subscription{{
			UserID:     7,
			Location:   "Лужники",
			Hour:       19,
			CourtTypes: []string{"Открытый корт"},
			Predicate:  subscription.RollingWindow{Days: 3},
		}}},
	}
	snapshots := map[QueryKey]availability.Snapshot{
		{Location: "Лужники", Date: "2026-09-02"}: {"19:00": {"Открытый корт": 3000}},
	}

	first := FindMatches(users, snapshots, today)
	second := FindMatches(users, snapshots, today)

	assert.Equal(t, first, second)
}

func TestMatchKeyUsesMatchedSubset(t *testing.T) {
	m := Match{
		UserID:   7,
		Location: "Лужники",
		Date:     mkDate(2026, 9, 1),
		Label:    "19:00",
		Courts:   []CourtPrice{{Name: "Закрытый корт", Price: 4500}},
	}
	k := m.Key()
	assert.Equal(t, "Закрытый корт", k.Courts)

	// A second court freeing up later produces a new key.
	m.Courts = append(m.Courts, CourtPrice{Name: "Открытый корт", Price: 3000})
	assert.NotEqual(t, k, m.Key())
}
