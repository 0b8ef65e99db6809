// Package cache provides a small time-boxed in-memory store used for
// quote snapshots and per-user analysis bundles.
package cache

import (
	"sync"
	"time"
)

// Clock returns the current time. Injectable so TTL behavior is testable
// without sleeping.
type Clock func() time.Time

type entry[V any] struct {
	payload  V
	storedAt time.Time
}

// Cache is a TTL map with last-write-wins semantics. A read older than
// the TTL is a miss; expired entries are dropped lazily on access. The
// key space is bounded (one global quotes key plus one key per
// user+portfolio), so no further eviction policy is needed.
type Cache[V any] struct {
	mu      sync.RWMutex
	entries map[string]entry[V]
	ttl     time.Duration
	now     Clock
}

// New creates a cache with the given TTL. A nil clock defaults to
// time.Now.
func New[V any](ttl time.Duration, now Clock) *Cache[V] {
	if now == nil {
		now = time.Now
	}
	return &Cache[V]{
		entries: make(map[string]entry[V]),
		ttl:     ttl,
		now:     now,
	}
}

// Get returns the payload stored under key if it has not expired.
func (c *Cache[V]) Get(key string) (V, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()

	var zero V
	if !ok {
		return zero, false
	}
	if c.now().Sub(e.storedAt) > c.ttl {
		c.mu.Lock()
		// Re-check under the write lock; a fresher write may have landed.
		if cur, still := c.entries[key]; still && c.now().Sub(cur.storedAt) > c.ttl {
			delete(c.entries, key)
		}
		c.mu.Unlock()
		return zero, false
	}
	return e.payload, true
}

// Set stores payload under key, stamped with the current time.
func (c *Cache[V]) Set(key string, payload V) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = entry[V]{payload: payload, storedAt: c.now()}
}

// Has reports whether key holds an unexpired entry.
func (c *Cache[V]) Has(key string) bool {
	_, ok := c.Get(key)
	return ok
}

// Delete removes key regardless of age.
func (c *Cache[V]) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

// Clear drops every entry.
func (c *Cache[V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]entry[V])
}

// Len returns the number of entries currently stored, expired or not.
func (c *Cache[V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
