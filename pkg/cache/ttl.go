package cache

import (
	"sync"
	"time"
)

// Entry is a cached value together with the time it was fetched.
type Entry[V any] struct {
	Value     V
	FetchedAt time.Time
}

// Age returns how old the entry is relative to now.
func (e Entry[V]) Age(now time.Time) time.Duration {
	return now.Sub(e.FetchedAt)
}

// Store is the cache abstraction consumed by the fetchers.
// Entries are never evicted; Put overwrites (last write wins).
type Store[V any] interface {
	Get(key string) (Entry[V], bool)
	Put(key string, value V)
	IsFresh(e Entry[V], ttl time.Duration) bool
}

// TTLCache is an in-memory Store keyed by string.
// Expired entries stay readable so callers can fall back to stale data.
type TTLCache[V any] struct {
	mu  sync.RWMutex
	m   map[string]Entry[V]
	now func() time.Time
}

// NewTTLCache creates an empty cache.
func NewTTLCache[V any](opts ...MemoryOption) *TTLCache[V] {
	cfg := &MemoryConfig{Clock: time.Now}
	for _, opt := range opts {
		opt(cfg)
	}
	return &TTLCache[V]{m: make(map[string]Entry[V]), now: cfg.Clock}
}

// Get returns the entry for key regardless of its age.
func (c *TTLCache[V]) Get(key string) (Entry[V], bool) {
	c.mu.RLock()
	e, ok := c.m[key]
	c.mu.RUnlock()
	return e, ok
}

// Put stores value stamped with the current clock time.
func (c *TTLCache[V]) Put(key string, value V) {
	e := Entry[V]{Value: value, FetchedAt: c.now()}
	c.mu.Lock()
	c.m[key] = e
	c.mu.Unlock()
}

// IsFresh reports whether e is younger than ttl.
func (c *TTLCache[V]) IsFresh(e Entry[V], ttl time.Duration) bool {
	return e.Age(c.now()) < ttl
}

// Len returns the number of stored keys.
func (c *TTLCache[V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.m)
}

var _ Store[int] = (*TTLCache[int])(nil)
