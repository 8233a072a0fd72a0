package monitor

import (
	"sort"
	"time"

	"github.com/padelwatch/padelwatch/internal/availability"
	"github.com/padelwatch/padelwatch/internal/subscription"
)

// QueryKey identifies one upstream availability query. Distinct subscriptions
// watching the same (location, date) share a single query per cycle.
type QueryKey struct {
	Location string
	Date     string // ISO calendar date
}

// CourtPrice is one matched court type with its price.
type CourtPrice struct {
	Name  string
	Price float64
}

// Match is one (user, location, date, time) hit: the subscribed court types
// that are actually free, with prices.
type Match struct {
	UserID   int64
	ChatID   int64
	Location string
	Date     time.Time
	Label    string
	Courts   []CourtPrice
}

// Key returns the dedup key for this match, built from the matched court
// subset so a different court freeing up later still notifies.
func (m Match) Key() Key {
	names := make([]string, len(m.Courts))
	for i, c := range m.Courts {
		names[i] = c.Name
	}
	return NewKey(m.UserID, m.Location, m.Date, m.Label, names)
}

// CollectQueries expands every subscription's date predicate against today
// and returns the deduplicated set of (location, date) queries to run.
func CollectQueries(users map[int64]subscription.UserRecord, today time.Time) map[QueryKey]time.Time {
	queries := make(map[QueryKey]time.Time)
	for _, rec := range users {
		for _, sub := range rec.Subscriptions {
			for _, d := range sub.Predicate.Expand(today) {
				queries[QueryKey{Location: sub.Location, Date: d.Format(subscription.DateLayout)}] = d
			}
		}
	}
	return queries
}

// FindMatches evaluates every subscription against the fetched snapshots.
// Matching is a pure function of its inputs: running it twice on the same
// data yields the same matches.
func FindMatches(users map[int64]subscription.UserRecord, snapshots map[QueryKey]availability.Snapshot, today time.Time) []Match {
	var matches []Match
	for userID, rec := range users {
		for _, sub := range rec.Subscriptions {
			for _, d := range sub.Predicate.Expand(today) {
				snap, ok := snapshots[QueryKey{Location: sub.Location, Date: d.Format(subscription.DateLayout)}]
				if !ok {
					continue
				}
				for _, label := range sub.HourLabels() {
					courts := snap.CourtsAt(label)
					if len(courts) == 0 {
						continue
					}
					var matched []CourtPrice
					for _, ct := range sub.CourtTypes {
						if price, free := courts[ct]; free {
							matched = append(matched, CourtPrice{Name: ct, Price: price})
						}
					}
					if len(matched) == 0 {
						continue
					}
					sort.Slice(matched, func(i, j int) bool { return matched[i].Name < matched[j].Name })
					matches = append(matches, Match{
						UserID:   userID,
						ChatID:   rec.ChatID,
						Location: sub.Location,
						Date:     d,
						Label:    label,
						Courts:   matched,
					})
				}
			}
		}
	}
	return matches
}
