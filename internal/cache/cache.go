// Package cache provides a small in-memory TTL cache for API responses.
package cache

import (
	"sync"
	"time"
)

type entry struct {
	value     []byte
	expiresAt time.Time
}

// Cache is a thread-safe key/value cache with per-entry TTL. Expired entries
// are evicted lazily on access.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]entry
	enabled bool
}

// New creates a Cache. When disabled, Get always misses and Set is a no-op.
func New(enabled bool) *Cache {
	return &Cache{entries: make(map[string]entry), enabled: enabled}
}

// Get returns the cached value if present and unexpired.
func (c *Cache) Get(key string) ([]byte, bool) {
	if !c.enabled {
		return nil, false
	}
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if time.Now().After(e.expiresAt) {
		c.mu.Lock()
		delete(c.entries, key)
		c.mu.Unlock()
		return nil, false
	}
	return e.value, true
}

// Set stores a value with a TTL.
func (c *Cache) Set(key string, value []byte, ttl time.Duration) {
	if !c.enabled {
		return
	}
	c.mu.Lock()
	c.entries[key] = entry{value: value, expiresAt: time.Now().Add(ttl)}
	c.mu.Unlock()
}

// Stats reports active and expired entry counts.
func (c *Cache) Stats() map[string]interface{} {
	c.mu.RLock()
	defer c.mu.RUnlock()
	active, expired := 0, 0
	now := time.Now()
	for _, e := range c.entries {
		if now.After(e.expiresAt) {
			expired++
		} else {
			active++
		}
	}
	return map[string]interface{}{
		"enabled":      c.enabled,
		"active_keys":  active,
		"expired_keys": expired,
	}
}
