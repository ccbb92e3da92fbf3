package cache

import (
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aptrend/aptrend/internal/config"
)

func staticHolder(ceiling int) *config.MatchingConfigHolder {
	cfg := config.DefaultMatchingConfig()
	cfg.NormCacheCeiling = ceiling
	return config.NewStaticMatchingConfigHolder(cfg)
}

func TestTTLCacheExpiry(t *testing.T) {
	now := time.Now()
	c := newTTLCacheWithNow[string, int](func() time.Time { return now })

	c.Set("a", 1, time.Minute)
	got, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, 1, got)

	now = now.Add(2 * time.Minute)
	_, ok = c.Get("a")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len())
}

func TestTTLCacheZeroTTLNeverExpires(t *testing.T) {
	now := time.Now()
	c := newTTLCacheWithNow[string, int](func() time.Time { return now })

	c.Set("a", 1, 0)
	now = now.Add(24 * time.Hour)

	_, ok := c.Get("a")
	assert.True(t, ok)
}

func TestNormCacheEvictsOldestBlock(t *testing.T) {
	c := NewNormCache(staticHolder(10))

	for i := 0; i < 10; i++ {
		c.Set(fmt.Sprintf("raw-%d", i), fmt.Sprintf("norm-%d", i))
	}
	require.Equal(t, 10, c.Len())

	// Next insert evicts the oldest tenth (one entry here).
	c.Set("raw-10", "norm-10")
	assert.Equal(t, 10, c.Len())

	_, ok := c.Get("raw-0")
	assert.False(t, ok, "oldest entry should be evicted")

	got, ok := c.Get("raw-1")
	require.True(t, ok)
	assert.Equal(t, "norm-1", got)

	got, ok = c.Get("raw-10")
	require.True(t, ok)
	assert.Equal(t, "norm-10", got)
}

func TestNormCacheUpdateDoesNotGrow(t *testing.T) {
	c := NewNormCache(staticHolder(10))

	c.Set("raw", "norm-a")
	c.Set("raw", "norm-b")

	assert.Equal(t, 1, c.Len())
	got, _ := c.Get("raw")
	assert.Equal(t, "norm-b", got)
}

func TestRegionCandidateCacheRoundTrip(t *testing.T) {
	c := NewRegionCandidateCache(staticHolder(100))

	_, ok := c.Get("11110")
	require.False(t, ok)

	c.Set("11110", []Candidate{{ID: 1, Name: "래미안강남"}})
	got, ok := c.Get("11110")
	require.True(t, ok)
	require.Len(t, got, 1)
	assert.Equal(t, "래미안강남", got[0].Name)
}

func TestRegionCandidateCacheRegister(t *testing.T) {
	c := NewRegionCandidateCache(staticHolder(100))

	// Register without a cached list is a no-op; the next load reloads.
	c.Register("11110", Candidate{ID: 1, Name: "래미안강남"})
	_, ok := c.Get("11110")
	assert.False(t, ok)

	c.Set("11110", []Candidate{{ID: 1, Name: "래미안강남"}})
	c.Register("11110", Candidate{ID: 2, Name: "힐스테이트서초"})

	got, ok := c.Get("11110")
	require.True(t, ok)
	require.Len(t, got, 2)
	assert.Equal(t, snowflake.ID(2), got[1].ID)
}

func TestRegionCandidateCacheInvalidate(t *testing.T) {
	c := NewRegionCandidateCache(staticHolder(100))

	c.Set("11110", []Candidate{{ID: 1, Name: "래미안강남"}})
	c.Invalidate("11110")

	_, ok := c.Get("11110")
	assert.False(t, ok)
}

func TestRegionCandidateCacheSetCopiesInput(t *testing.T) {
	c := NewRegionCandidateCache(staticHolder(100))

	candidates := []Candidate{{ID: 1, Name: "래미안강남"}}
	c.Set("11110", candidates)
	candidates[0].Name = "mutated"

	got, ok := c.Get("11110")
	require.True(t, ok)
	assert.Equal(t, "래미안강남", got[0].Name)
}

func TestExternalIDCache(t *testing.T) {
	c := NewExternalIDCache()

	_, ok := c.Lookup("12-3456")
	require.False(t, ok)

	c.Register("12-3456", 42)
	id, ok := c.Lookup("12-3456")
	require.True(t, ok)
	assert.Equal(t, snowflake.ID(42), id)

	// Empty sequences are never indexed.
	c.Register("", 99)
	assert.Equal(t, 1, c.Len())

	c.Load(map[string]snowflake.ID{"77-0001": 7, "": 9})
	assert.Equal(t, 2, c.Len())
	id, ok = c.Lookup("77-0001")
	require.True(t, ok)
	assert.Equal(t, snowflake.ID(7), id)
}
