package monitor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func mkDate(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestSeenCacheCommitAndSeen(t *testing.T) {
	c := NewSeenCache()
	k := NewKey(1, "Лужники", mkDate(2026, 9, 5), "19:00", []string{"Закрытый корт"})

	assert.False(t, c.Seen(k))
	c.Commit([]Key{k})
	assert.True(t, c.Seen(k))

	// A different matched court set is a different key.
	other := NewKey(1, "Лужники", mkDate(2026, 9, 5), "19:00", []string{"Открытый корт"})
	assert.False(t, c.Seen(other))
}

func TestSeenCachePrune(t *testing.T) {
	c := NewSeenCache()
	past := NewKey(1, "Химки", mkDate(2026, 9, 1), "10:00", []string{"Корт для 2-х"})
	today := NewKey(1, "Химки", mkDate(2026, 9, 2), "10:00", []string{"Корт для 2-х"})
	future := NewKey(1, "Химки", mkDate(2026, 9, 9), "10:00", []string{"Корт для 2-х"})
	c.Commit([]Key{past, today, future})

	removed := c.Prune(mkDate(2026, 9, 2))

	assert.Equal(t, 1, removed)
	assert.False(t, c.Seen(past))
	assert.True(t, c.Seen(today))
	assert.True(t, c.Seen(future))
	assert.Equal(t, 2, c.Len())
}
