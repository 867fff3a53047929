// Package dedup provides the deduplication cache guarding against order
// re-submission inside a fixed time window.
package dedup

import (
	"context"
	"sync"
	"time"
)

const DefaultWindow = 5 * time.Minute

// MemoryCache is an in-process dedup cache: order id -> last-processed time.
// Entries are expired passively on read; nothing sweeps the map. A single
// mutex serializes all keys, which is fine at the request rates this service
// sees; shard the map before reaching for anything fancier.
type MemoryCache struct {
	mu      sync.Mutex
	window  time.Duration
	entries map[string]time.Time

	now func() time.Time
}

func NewMemoryCache(window time.Duration) *MemoryCache {
	if window <= 0 {
		window = DefaultWindow
	}
	return &MemoryCache{
		window:  window,
		entries: make(map[string]time.Time),
		now:     time.Now,
	}
}

// IsDuplicate reports whether orderID was recorded within the window.
// A stale entry reads as absent and is evicted opportunistically.
func (c *MemoryCache) IsDuplicate(ctx context.Context, orderID string) bool {
	_ = ctx

	c.mu.Lock()
	defer c.mu.Unlock()

	at, ok := c.entries[orderID]
	if !ok {
		return false
	}
	if c.now().Sub(at) >= c.window {
		delete(c.entries, orderID)
		return false
	}
	return true
}

// Record unconditionally inserts or overwrites the entry for orderID.
func (c *MemoryCache) Record(ctx context.Context, orderID string, at time.Time) {
	_ = ctx

	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[orderID] = at
}

// Len reports the current number of entries, stale ones included.
func (c *MemoryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
