package etacache

import (
	"context"
	"sync"
	"time"
)

// MemoryCache is an in-process Cache with the same lazy-TTL behaviour as the
// Redis implementation, for tests.
type MemoryCache struct {
	mu       sync.Mutex
	ttl      time.Duration
	etas     map[string]memoryEntry
	bookings map[string]int64
	now      func() time.Time
}

type memoryEntry struct {
	eta       time.Duration
	expiresAt time.Time
}

func NewMemoryCache(ttl time.Duration) *MemoryCache {
	return &MemoryCache{
		ttl:      ttl,
		etas:     make(map[string]memoryEntry),
		bookings: make(map[string]int64),
		now:      time.Now,
	}
}

var _ Cache = (*MemoryCache)(nil)

func (c *MemoryCache) Get(ctx context.Context, origin, dest Tile) (time.Duration, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := etaKey(origin, dest)
	entry, ok := c.etas[key]
	if !ok {
		return 0, false, nil
	}
	if !c.now().Before(entry.expiresAt) {
		delete(c.etas, key)
		return 0, false, nil
	}
	return entry.eta, true, nil
}

func (c *MemoryCache) Put(ctx context.Context, origin, dest Tile, eta time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.etas[etaKey(origin, dest)] = memoryEntry{
		eta:       eta,
		expiresAt: c.now().Add(c.ttl),
	}
	return nil
}

func (c *MemoryCache) RecordBooking(ctx context.Context, t Tile) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.bookings[hotspotKey(t)]++
	return c.bookings[hotspotKey(t)], nil
}

func (c *MemoryCache) BookingCount(ctx context.Context, t Tile) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.bookings[hotspotKey(t)], nil
}
