package dedup

import (
	"sync"
	"time"
)

// DefaultTTL matches the dashboard's double-submit window.
const DefaultTTL = 10 * time.Minute

// Cache is an in-process fingerprint set used to reject duplicate immediate
// submissions. Entries expire after the TTL; nothing is persisted.
type Cache struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]time.Time
	now     func() time.Time
}

func NewCache(ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{
		ttl:     ttl,
		entries: make(map[string]time.Time),
		now:     time.Now,
	}
}

// Seen reports whether the fingerprint is already cached and not expired.
func (c *Cache) Seen(hash string) bool {
	if hash == "" {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	deadline, ok := c.entries[hash]
	if !ok {
		return false
	}
	if c.now().After(deadline) {
		delete(c.entries, hash)
		return false
	}
	return true
}

// Remember records the fingerprint and sweeps expired entries while the
// lock is held; the map stays bounded by the submission rate.
func (c *Cache) Remember(hash string) {
	if hash == "" {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	for h, deadline := range c.entries {
		if now.After(deadline) {
			delete(c.entries, h)
		}
	}
	c.entries[hash] = now.Add(c.ttl)
}
