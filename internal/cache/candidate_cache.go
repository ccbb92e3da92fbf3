package cache

import (
	"time"

	"github.com/bwmarrin/snowflake"

	"github.com/aptrend/aptrend/internal/config"
)

// Candidate is one apartment a region-scoped match can resolve to. Name is
// the normalized key, not the raw display name.
type Candidate struct {
	ID   snowflake.ID
	Name string
}

// RegionCandidateCache holds per-region candidate lists for name matching.
// Entries expire on the matching config TTL; writers that create apartments
// must Register the new row so matches inside the same sweep see it.
type RegionCandidateCache interface {
	Get(regionCode string) ([]Candidate, bool)
	Set(regionCode string, candidates []Candidate)
	Register(regionCode string, candidate Candidate)
	Invalidate(regionCode string)
}

type regionCandidateCache struct {
	holder  *config.MatchingConfigHolder
	entries Cache[string, []Candidate]
}

func NewRegionCandidateCache(holder *config.MatchingConfigHolder) RegionCandidateCache {
	return &regionCandidateCache{
		holder:  holder,
		entries: NewTTLCache[string, []Candidate](),
	}
}

func (c *regionCandidateCache) ttl() time.Duration {
	return time.Duration(c.holder.Get().RegionCacheTTLMin) * time.Minute
}

func (c *regionCandidateCache) Get(regionCode string) ([]Candidate, bool) {
	return c.entries.Get(regionCode)
}

func (c *regionCandidateCache) Set(regionCode string, candidates []Candidate) {
	copied := make([]Candidate, len(candidates))
	copy(copied, candidates)
	c.entries.Set(regionCode, copied, c.ttl())
}

func (c *regionCandidateCache) Register(regionCode string, candidate Candidate) {
	current, ok := c.entries.Get(regionCode)
	if !ok {
		// No cached list to extend; the next Get misses and reloads from
		// the repository, which already includes the new row.
		return
	}

	updated := make([]Candidate, 0, len(current)+1)
	updated = append(updated, current...)
	updated = append(updated, candidate)
	c.entries.Set(regionCode, updated, c.ttl())
}

func (c *regionCandidateCache) Invalidate(regionCode string) {
	c.entries.Delete(regionCode)
}
