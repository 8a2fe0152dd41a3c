package imagegen

import (
	"sync"
	"time"
)

// CardCache caches rendered station cards for a short period. Rendering is
// cheap but not free, and crawlers tend to hit the card URL in bursts when a
// link is shared.
type CardCache struct {
	mu       sync.RWMutex
	cards    map[string]cardEntry
	cacheTTL time.Duration
}

type cardEntry struct {
	data      []byte
	expiresAt time.Time
}

// NewCardCache creates a card cache with the specified TTL.
func NewCardCache(ttl time.Duration) *CardCache {
	return &CardCache{
		cards:    make(map[string]cardEntry),
		cacheTTL: ttl,
	}
}

// Get returns the cached card for a station if still valid.
func (c *CardCache) Get(station string) ([]byte, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.cards[station]
	if !ok || time.Now().After(e.expiresAt) {
		return nil, false
	}
	return e.data, true
}

// Set stores a freshly rendered card for a station.
func (c *CardCache) Set(station string, data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.cards[station] = cardEntry{
		data:      data,
		expiresAt: time.Now().Add(c.cacheTTL),
	}
}
