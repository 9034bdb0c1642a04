package aggregate

import (
	"sync"
	"time"
)

// Cache memoizes successful aggregation responses for a fixed TTL. The
// clock is injected so expiry is deterministic under test. Reads and
// writes for one key are atomic; different keys never block each other
// beyond the map lock.
type Cache struct {
	ttl time.Duration
	now func() time.Time

	mu      sync.RWMutex
	entries map[string]cacheEntry
}

type cacheEntry struct {
	response *Response
	storedAt time.Time
}

func NewCache(ttl time.Duration, now func() time.Time) *Cache {
	if now == nil {
		now = time.Now
	}
	return &Cache{
		ttl:     ttl,
		now:     now,
		entries: make(map[string]cacheEntry),
	}
}

// Get returns the cached response for key, treating expired entries as
// misses.
func (c *Cache) Get(key string) (*Response, bool) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok {
		return nil, false
	}

	if c.now().Sub(entry.storedAt) >= c.ttl {
		c.mu.Lock()
		// Re-check under the write lock; a fresher entry may have been
		// stored meanwhile.
		if current, ok := c.entries[key]; ok && c.now().Sub(current.storedAt) >= c.ttl {
			delete(c.entries, key)
		}
		c.mu.Unlock()
		return nil, false
	}

	return entry.response, true
}

func (c *Cache) Put(key string, response *Response) {
	c.mu.Lock()
	c.entries[key] = cacheEntry{response: response, storedAt: c.now()}
	c.mu.Unlock()
}

func (c *Cache) InvalidateAll() {
	c.mu.Lock()
	c.entries = make(map[string]cacheEntry)
	c.mu.Unlock()
}
