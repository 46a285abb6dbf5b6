package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCache_PutThenGet(t *testing.T) {
	c := New(Config{Capacity: 4, TTL: time.Minute})
	c.Put("a", 1)
	v, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, 1, v)
}

func TestCache_MissOnUnknownKey(t *testing.T) {
	c := New(Config{Capacity: 4, TTL: time.Minute})
	_, ok := c.Get("missing")
	assert.False(t, ok)
}

func TestCache_ZeroCapacityDisablesCaching(t *testing.T) {
	c := New(Config{Capacity: 0})
	c.Put("a", 1)
	_, ok := c.Get("a")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len())
}

func TestCache_ExpiresAfterTTL(t *testing.T) {
	c := New(Config{Capacity: 4, TTL: time.Millisecond})
	c.Put("a", 1)
	time.Sleep(5 * time.Millisecond)
	_, ok := c.Get("a")
	assert.False(t, ok)
}

func TestCache_EvictsLeastRecentlyUsed(t *testing.T) {
	c := New(Config{Capacity: 2, TTL: time.Minute})
	c.Put("a", 1)
	c.Put("b", 2)
	// touch "a" so "b" becomes the least-recently-used entry
	_, _ = c.Get("a")
	c.Put("c", 3)

	_, ok := c.Get("b")
	assert.False(t, ok, "b should have been evicted")

	_, ok = c.Get("a")
	assert.True(t, ok)
	_, ok = c.Get("c")
	assert.True(t, ok)
}

func TestCache_PutOverwritesAndRefreshes(t *testing.T) {
	c := New(Config{Capacity: 4, TTL: time.Minute})
	c.Put("a", 1)
	c.Put("a", 2)
	v, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, 2, v)
	assert.Equal(t, 1, c.Len())
}

func TestCache_LenTracksEntryCount(t *testing.T) {
	c := New(Config{Capacity: 8, TTL: time.Minute})
	assert.Equal(t, 0, c.Len())
	c.Put("a", 1)
	c.Put("b", 2)
	assert.Equal(t, 2, c.Len())
}

func TestDefaultConfig_IsUsable(t *testing.T) {
	cfg := DefaultConfig()
	assert.Greater(t, cfg.Capacity, 0)
	assert.Greater(t, cfg.TTL, time.Duration(0))
}
