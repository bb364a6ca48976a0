// Package refcache memoizes ThreadInfo by event id.
package refcache

import (
	"sync"

	"threadloom/internal/metrics"
	"threadloom/internal/refs"
)

const DefaultMaxSize = 2048

// Stats is a snapshot of cache counters.
type Stats struct {
	Size   int
	Hits   uint64
	Misses uint64
	Clears uint64
}

// Cache is a bounded event id -> ThreadInfo map, safe for concurrent use.
// When a new key would push it past its bound the whole map is dropped first;
// entries are cheap to recompute from live traffic.
type Cache struct {
	mu      sync.Mutex
	entries map[string]refs.ThreadInfo
	maxSize int

	hits, misses, clears uint64
}

// New returns an empty cache holding at most maxSize entries (DefaultMaxSize if <= 0).
func New(maxSize int) *Cache {
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	return &Cache{entries: make(map[string]refs.ThreadInfo), maxSize: maxSize}
}

// Get returns a copy of the cached value for id.
func (c *Cache) Get(id string) (refs.ThreadInfo, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	ti, ok := c.entries[id]
	if ok {
		c.hits++
		metrics.IncCacheHit()
	} else {
		c.misses++
		metrics.IncCacheMiss()
	}
	return ti, ok
}

// Put stores info under id. Replacing an existing key never clears.
func (c *Cache) Put(id string, info refs.ThreadInfo) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.entries[id]; !ok && len(c.entries) >= c.maxSize {
		clear(c.entries)
		c.clears++
		metrics.IncCacheClear()
	}
	c.entries[id] = info
}

func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *Cache) MaxSize() int { return c.maxSize }

// Clear drops every entry. Counters are kept.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	clear(c.entries)
}

func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{Size: len(c.entries), Hits: c.hits, Misses: c.misses, Clears: c.clears}
}
