package service

import "sync"

// resultCache memoizes per-rule match results within one invocation.
// Rule sets are small, so the cache is a bounded map cleared wholesale at
// capacity rather than a full LRU.
type resultCache struct {
	mu      sync.Mutex
	entries map[uint64]bool
	maxSize int
}

func newResultCache(maxSize int) *resultCache {
	return &resultCache{
		entries: make(map[uint64]bool, maxSize),
		maxSize: maxSize,
	}
}

func (c *resultCache) get(key uint64) (bool, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.entries[key]
	return v, ok
}

func (c *resultCache) put(key uint64, v bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.entries) >= c.maxSize {
		c.entries = make(map[uint64]bool, c.maxSize)
	}
	c.entries[key] = v
}

func (c *resultCache) size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
