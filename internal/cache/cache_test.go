package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCacheGetSet(t *testing.T) {
	c := New(true)

	_, ok := c.Get("k")
	assert.False(t, ok)

	c.Set("k", []byte("v"), time.Minute)
	got, ok := c.Get("k")
	assert.True(t, ok)
	assert.Equal(t, []byte("v"), got)
}

func TestCacheExpiry(t *testing.T) {
	c := New(true)
	c.Set("k", []byte("v"), -time.Second)

	_, ok := c.Get("k")
	assert.False(t, ok)
}

func TestCacheDisabled(t *testing.T) {
	c := New(false)
	c.Set("k", []byte("v"), time.Minute)

	_, ok := c.Get("k")
	assert.False(t, ok)

	stats := c.Stats()
	assert.Equal(t, false, stats["enabled"])
}
