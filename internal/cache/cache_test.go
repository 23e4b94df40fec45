package cache

import (
	"testing"
	"time"

	"github.com/engsync/briefing/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func snapshot(names ...string) []domain.CategoryActivity {
	activities := make([]domain.CategoryActivity, len(names))
	for i, name := range names {
		activities[i] = domain.CategoryActivity{CategoryID: i + 1, CategoryName: name}
	}
	return activities
}

func TestSnapshotCacheBasic(t *testing.T) {
	t.Parallel()

	c := NewSnapshotCache(time.Minute)

	_, ok := c.Basic()
	assert.False(t, ok, "empty cache must miss")

	c.SetBasic(snapshot("Bugs"))
	got, ok := c.Basic()
	require.True(t, ok)
	assert.Equal(t, "Bugs", got[0].CategoryName)
}

func TestSnapshotCacheExpiry(t *testing.T) {
	t.Parallel()

	c := NewSnapshotCache(time.Minute)
	current := time.Now()
	c.now = func() time.Time { return current }

	c.SetBasic(snapshot("Bugs"))
	c.SetEnriched(snapshot("Bugs"))

	current = current.Add(59 * time.Second)
	_, ok := c.Basic()
	assert.True(t, ok, "snapshot inside TTL must hit")

	current = current.Add(2 * time.Second)
	_, ok = c.Basic()
	assert.False(t, ok, "snapshot past TTL must miss")
	_, ok = c.Enriched()
	assert.False(t, ok)
}

func TestSnapshotCacheFreshest(t *testing.T) {
	t.Parallel()

	t.Run("prefers enriched", func(t *testing.T) {
		t.Parallel()

		c := NewSnapshotCache(time.Minute)
		c.SetBasic(snapshot("basic"))
		c.SetEnriched(snapshot("enriched"))

		got, enriched := c.Freshest()
		require.NotNil(t, got)
		assert.True(t, enriched)
		assert.Equal(t, "enriched", got[0].CategoryName)
	})

	t.Run("falls back to basic", func(t *testing.T) {
		t.Parallel()

		c := NewSnapshotCache(time.Minute)
		c.SetBasic(snapshot("basic"))

		got, enriched := c.Freshest()
		require.NotNil(t, got)
		assert.False(t, enriched)
		assert.Equal(t, "basic", got[0].CategoryName)
	})

	t.Run("nil when both miss", func(t *testing.T) {
		t.Parallel()

		c := NewSnapshotCache(time.Minute)
		got, enriched := c.Freshest()
		assert.Nil(t, got)
		assert.False(t, enriched)
	})
}

func TestSnapshotCacheInvalidate(t *testing.T) {
	t.Parallel()

	c := NewSnapshotCache(time.Minute)
	c.SetBasic(snapshot("a"))
	c.SetEnriched(snapshot("b"))

	c.Invalidate()

	_, ok := c.Basic()
	assert.False(t, ok)
	_, ok = c.Enriched()
	assert.False(t, ok)
}

func TestSnapshotCacheDefaultTTL(t *testing.T) {
	t.Parallel()

	c := NewSnapshotCache(0)
	assert.Equal(t, DefaultTTL, c.ttl)
}
