package bot

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/padelwatch/padelwatch/internal/subscription"
)

func TestPredicateEqual(t *testing.T) {
	d := time.Date(2026, 9, 5, 0, 0, 0, 0, time.UTC)

	assert.True(t, predicateEqual(subscription.RollingWindow{Days: 10}, subscription.RollingWindow{Days: 10}))
	assert.False(t, predicateEqual(subscription.RollingWindow{Days: 10}, subscription.RollingWindow{Days: 7}))
	assert.True(t, predicateEqual(subscription.SpecificDate{Date: d}, subscription.SpecificDate{Date: d}))
	assert.False(t, predicateEqual(subscription.RollingWindow{Days: 10}, subscription.SpecificDate{Date: d}))
	assert.False(t, predicateEqual(nil, subscription.RollingWindow{Days: 10}))
}

func TestRemoveDesc(t *testing.T) {
	d := time.Date(2026, 9, 5, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "10д", removeDesc(subscription.RollingWindow{Days: 10}))
	assert.Equal(t, "05.09", removeDesc(subscription.SpecificDate{Date: d}))
}

func TestFloodControl(t *testing.T) {
	f := newFloodControl(3, time.Hour)

	for i := 0; i < 3; i++ {
		assert.True(t, f.Allow(1), "action %d", i)
	}
	assert.False(t, f.Allow(1), "burst exhausted")
	assert.True(t, f.Allow(2), "independent per user")
}

func TestDraftStore(t *testing.T) {
	s := newDraftStore()

	d := s.get(1)
	d.location = "Лужники"
	assert.Equal(t, "Лужники", s.get(1).location)

	s.clear(1)
	assert.Equal(t, "", s.get(1).location)
}
