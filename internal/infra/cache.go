package infra

import (
	"sync"
	"time"
)

// Cache memoizes values of one type for a fixed TTL. The API server keeps
// history series in it and the feed reader its merged headline list.
type Cache[V any] struct {
	mu  sync.RWMutex
	ttl time.Duration
	now func() time.Time
	m   map[string]cached[V]
}

type cached[V any] struct {
	val     V
	expires time.Time
}

// NewCache creates a cache whose entries live for ttl.
func NewCache[V any](ttl time.Duration) *Cache[V] {
	return &Cache[V]{ttl: ttl, now: time.Now, m: make(map[string]cached[V])}
}

// Get returns the live value under key.
func (c *Cache[V]) Get(key string) (V, bool) {
	c.mu.RLock()
	e, ok := c.m[key]
	c.mu.RUnlock()
	if !ok || !c.now().Before(e.expires) {
		var zero V
		return zero, false
	}
	return e.val, true
}

// Set stores val under key for the cache TTL.
func (c *Cache[V]) Set(key string, val V) {
	c.mu.Lock()
	c.m[key] = cached[V]{val: val, expires: c.now().Add(c.ttl)}
	c.mu.Unlock()
}

// Flush drops every entry. Called when a new snapshot lands.
func (c *Cache[V]) Flush() {
	c.mu.Lock()
	clear(c.m)
	c.mu.Unlock()
}

// Sweep deletes expired entries and reports how many were removed.
func (c *Cache[V]) Sweep() int {
	now := c.now()
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for k, e := range c.m {
		if !now.Before(e.expires) {
			delete(c.m, k)
			n++
		}
	}
	return n
}
