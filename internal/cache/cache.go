// Package cache holds the in-memory TTL caches for tracker snapshots. Two
// snapshots are cached independently: the basic snapshot straight from the
// tracker, and the enriched snapshot carrying comment summaries and category
// digests. The dashboard serves enriched-if-available, basic otherwise.
package cache

import (
	"sync"
	"time"

	"github.com/engsync/briefing/internal/domain"
)

// DefaultTTL is the snapshot lifetime used when no TTL is configured.
const DefaultTTL = 15 * time.Minute

// SnapshotCache guards two category snapshots behind a TTL.
type SnapshotCache struct {
	mu  sync.RWMutex
	ttl time.Duration

	basic      []domain.CategoryActivity
	basicAt    time.Time
	enriched   []domain.CategoryActivity
	enrichedAt time.Time

	// now is replaceable in tests.
	now func() time.Time
}

// NewSnapshotCache creates a snapshot cache with the given TTL. A
// non-positive TTL falls back to DefaultTTL.
func NewSnapshotCache(ttl time.Duration) *SnapshotCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &SnapshotCache{
		ttl: ttl,
		now: time.Now,
	}
}

// Basic returns the basic snapshot, or false if it is missing or expired.
func (c *SnapshotCache) Basic() ([]domain.CategoryActivity, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.valid(c.basic, c.basicAt)
}

// Enriched returns the enriched snapshot, or false if it is missing or
// expired.
func (c *SnapshotCache) Enriched() ([]domain.CategoryActivity, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.valid(c.enriched, c.enrichedAt)
}

// Freshest returns the enriched snapshot when valid, then the basic one.
// The bool reports whether the returned snapshot is the enriched one.
func (c *SnapshotCache) Freshest() ([]domain.CategoryActivity, bool) {
	if snapshot, ok := c.Enriched(); ok {
		return snapshot, true
	}
	snapshot, _ := c.Basic()
	return snapshot, false
}

// SetBasic stores a basic snapshot and restarts its TTL.
func (c *SnapshotCache) SetBasic(snapshot []domain.CategoryActivity) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.basic = snapshot
	c.basicAt = c.now()
}

// SetEnriched stores an enriched snapshot and restarts its TTL.
func (c *SnapshotCache) SetEnriched(snapshot []domain.CategoryActivity) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.enriched = snapshot
	c.enrichedAt = c.now()
}

// Invalidate clears both snapshots, forcing the next read to miss.
func (c *SnapshotCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.basic = nil
	c.basicAt = time.Time{}
	c.enriched = nil
	c.enrichedAt = time.Time{}
}

func (c *SnapshotCache) valid(snapshot []domain.CategoryActivity, at time.Time) ([]domain.CategoryActivity, bool) {
	if snapshot == nil || at.IsZero() {
		return nil, false
	}
	if c.now().Sub(at) >= c.ttl {
		return nil, false
	}
	return snapshot, true
}
