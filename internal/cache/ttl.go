// Package cache provides a generic time-bounded memoization store.
package cache

import (
	"sync"
	"time"

	"github.com/zoobzio/clockz"
)

// entry is a stored value with its write timestamp and lifetime.
type entry[V any] struct {
	value    V
	storedAt time.Time
	ttl      time.Duration
}

// TTL is a key→value store with per-entry expiry. Expiry is checked lazily
// on read; an expired entry is treated as absent, not deleted eagerly.
// Concurrent reads are safe and writes to the same key are serialized with
// last-write-wins semantics.
type TTL[V any] struct {
	mu      sync.RWMutex
	entries map[string]entry[V]
	clock   clockz.Clock
}

// New creates an empty cache.
func New[V any]() *TTL[V] {
	return &TTL[V]{entries: make(map[string]entry[V])}
}

// WithClock sets a custom clock for testing.
func (c *TTL[V]) WithClock(clock clockz.Clock) *TTL[V] {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.clock = clock
	return c
}

func (c *TTL[V]) getClock() clockz.Clock {
	if c.clock == nil {
		return clockz.RealClock
	}
	return c.clock
}

// Get returns the value for key if present and unexpired.
func (c *TTL[V]) Get(key string) (V, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[key]
	if !ok {
		var zero V
		return zero, false
	}
	if c.getClock().Now().Sub(e.storedAt) >= e.ttl {
		var zero V
		return zero, false
	}
	return e.value, true
}

// Set stores value under key, atomically replacing any previous entry.
func (c *TTL[V]) Set(key string, value V, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = entry[V]{value: value, storedAt: c.getClock().Now(), ttl: ttl}
}

// Clear removes the named keys, or every entry when called with none.
func (c *TTL[V]) Clear(keys ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(keys) == 0 {
		c.entries = make(map[string]entry[V])
		return
	}
	for _, key := range keys {
		delete(c.entries, key)
	}
}

// Len reports the number of stored entries, expired ones included.
func (c *TTL[V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
