package bot

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// floodControl throttles per-user command and button activity with token
// buckets, mirroring Telegram's own flood rules closely enough that the bot
// never hits them.
type floodControl struct {
	mu       sync.Mutex
	limiters map[int64]*rate.Limiter
	limit    rate.Limit
	burst    int
}

func newFloodControl(actions int, period time.Duration) *floodControl {
	return &floodControl{
		limiters: make(map[int64]*rate.Limiter),
		limit:    rate.Limit(float64(actions) / period.Seconds()),
		burst:    actions,
	}
}

// Allow reports whether the user may perform another action now.
func (f *floodControl) Allow(userID int64) bool {
	f.mu.Lock()
	l, ok := f.limiters[userID]
	if !ok {
		l = rate.NewLimiter(f.limit, f.burst)
		f.limiters[userID] = l
	}
	f.mu.Unlock()
	return l.Allow()
}
