// Package ttl provides in-memory containers whose entries become invisible
// once their time-to-live has elapsed. Expiry is checked lazily on read, and
// writes sweep out expired entries at most once per TTL so memory stays
// bounded by what was written in the last two windows.
package ttl

import (
	"sync"
	"time"
)

// Option configures a Cache.
type Option func(*options)

type options struct {
	now func() time.Time
}

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

type entry[V any] struct {
	value     V
	expiresAt time.Time
}

// Cache is a map with a fixed TTL per entry. Safe for concurrent use.
type Cache[K comparable, V any] struct {
	mu        sync.Mutex
	ttl       time.Duration
	now       func() time.Time
	entries   map[K]entry[V]
	nextSweep time.Time
}

// New creates a cache whose entries live for ttl after each Put.
func New[K comparable, V any](ttl time.Duration, opts ...Option) *Cache[K, V] {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return &Cache[K, V]{
		ttl:       ttl,
		now:       o.now,
		entries:   make(map[K]entry[V]),
		nextSweep: o.now().Add(ttl),
	}
}

// TTL returns the configured lifetime.
func (c *Cache[K, V]) TTL() time.Duration {
	return c.ttl
}

// Get returns the value for k. Expired entries are dropped and reported as misses.
func (c *Cache[K, V]) Get(k K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[k]
	if !ok {
		var zero V
		return zero, false
	}
	if !c.now().Before(e.expiresAt) {
		delete(c.entries, k)
		var zero V
		return zero, false
	}
	return e.value, true
}

// Put stores v under k, replacing any previous entry and restarting its TTL.
func (c *Cache[K, V]) Put(k K, v V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	c.maybeSweep(now)
	c.entries[k] = entry[V]{value: v, expiresAt: now.Add(c.ttl)}
}

// PutIfAbsent stores v only when k has no live entry. It reports whether v was stored.
func (c *Cache[K, V]) PutIfAbsent(k K, v V) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	c.maybeSweep(now)
	if e, ok := c.entries[k]; ok && now.Before(e.expiresAt) {
		return false
	}
	c.entries[k] = entry[V]{value: v, expiresAt: now.Add(c.ttl)}
	return true
}

// Delete removes k.
func (c *Cache[K, V]) Delete(k K) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, k)
}

// Len counts live entries.
func (c *Cache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	n := 0
	for _, e := range c.entries {
		if now.Before(e.expiresAt) {
			n++
		}
	}
	return n
}

// Sweep drops every expired entry and returns how many were removed.
func (c *Cache[K, V]) Sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.sweep(c.now())
}

// Retained counts stored entries, expired or not.
func (c *Cache[K, V]) Retained() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *Cache[K, V]) maybeSweep(now time.Time) {
	if now.Before(c.nextSweep) {
		return
	}
	c.sweep(now)
}

// sweep requires c.mu.
func (c *Cache[K, V]) sweep(now time.Time) int {
	removed := 0
	for k, e := range c.entries {
		if !now.Before(e.expiresAt) {
			delete(c.entries, k)
			removed++
		}
	}
	c.nextSweep = now.Add(c.ttl)
	return removed
}
