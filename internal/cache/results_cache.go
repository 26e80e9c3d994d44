package cache

import (
	"sync"
	"time"
)

type entry[V any] struct {
	value     V
	expiresAt time.Time
}

type Config struct {
	TTL        time.Duration
	MaxEntries int
}

// ResultsCache memoizes computed results per key with a TTL. Used to serve
// the last trend summary of a project without re-running the engine.
type ResultsCache[V any] struct {
	mu         sync.RWMutex
	entries    map[string]entry[V]
	ttl        time.Duration
	maxEntries int
}

func NewResultsCache[V any](config Config) *ResultsCache[V] {
	if config.TTL <= 0 {
		config.TTL = 15 * time.Minute
	}
	if config.MaxEntries <= 0 {
		config.MaxEntries = 2000
	}
	return &ResultsCache[V]{
		entries:    make(map[string]entry[V]),
		ttl:        config.TTL,
		maxEntries: config.MaxEntries,
	}
}

func (c *ResultsCache[V]) Get(key string) (V, bool) {
	c.mu.RLock()
	item, exists := c.entries[key]
	c.mu.RUnlock()

	var zero V
	if !exists {
		return zero, false
	}
	if time.Now().UTC().After(item.expiresAt) {
		c.mu.Lock()
		delete(c.entries, key)
		c.mu.Unlock()
		return zero, false
	}
	return item.value, true
}

func (c *ResultsCache[V]) Put(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.entries) >= c.maxEntries {
		c.evictExpiredLocked()
	}
	if len(c.entries) >= c.maxEntries {
		c.evictOldestLocked()
	}

	c.entries[key] = entry[V]{
		value:     value,
		expiresAt: time.Now().UTC().Add(c.ttl),
	}
}

func (c *ResultsCache[V]) Invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

func (c *ResultsCache[V]) evictExpiredLocked() {
	now := time.Now().UTC()
	for key, item := range c.entries {
		if now.After(item.expiresAt) {
			delete(c.entries, key)
		}
	}
}

func (c *ResultsCache[V]) evictOldestLocked() {
	var (
		oldestKey string
		oldest    time.Time
		found     bool
	)
	for key, item := range c.entries {
		if !found || item.expiresAt.Before(oldest) {
			oldestKey = key
			oldest = item.expiresAt
			found = true
		}
	}
	if found {
		delete(c.entries, oldestKey)
	}
}
