package monitor

import (
	"strings"
	"time"

	"github.com/padelwatch/padelwatch/internal/subscription"
)

// Key identifies one already-delivered notification. Two matches collide
// exactly when the same user would be told about the same court set at the
// same place and time.
type Key struct {
	UserID   int64
	Location string
	Date     string // ISO calendar date
	Time     string // "HH:MM" label
	Courts   string // matched court types, sorted, comma-joined
}

// NewKey builds a Key from a match. courts must already be sorted.
func NewKey(userID int64, location string, date time.Time, label string, courts []string) Key {
	return Key{
		UserID:   userID,
		Location: location,
		Date:     date.Format(subscription.DateLayout),
		Time:     label,
		Courts:   strings.Join(courts, ","),
	}
}

// SeenCache remembers which matches have been delivered. It lives in process
// memory only: a restart re-notifies, which beats silently losing alerts.
// Not safe for concurrent use; the monitoring loop owns it exclusively.
type SeenCache struct {
	seen map[Key]struct{}
}

// NewSeenCache creates an empty cache.
func NewSeenCache() *SeenCache {
	return &SeenCache{seen: make(map[Key]struct{})}
}

// Seen reports whether a key has been committed.
func (c *SeenCache) Seen(k Key) bool {
	_, ok := c.seen[k]
	return ok
}

// Commit records delivered keys. Called only after the notification was
// actually sent.
func (c *SeenCache) Commit(keys []Key) {
	for _, k := range keys {
		c.seen[k] = struct{}{}
	}
}

// Prune drops keys for dates before today and returns how many were removed.
// ISO dates compare correctly as strings.
func (c *SeenCache) Prune(today time.Time) int {
	cutoff := today.Format(subscription.DateLayout)
	removed := 0
	for k := range c.seen {
		if k.Date < cutoff {
			delete(c.seen, k)
			removed++
		}
	}
	return removed
}

// Len returns the number of remembered keys.
func (c *SeenCache) Len() int {
	return len(c.seen)
}
