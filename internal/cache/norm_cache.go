package cache

import (
	"sync"

	"github.com/aptrend/aptrend/internal/config"
)

// NormCache memoizes raw name to normalized key lookups on the match hot
// path. It is bounded: when the entry count reaches the configured ceiling,
// the oldest block of entries is dropped in insertion order before the new
// entry is admitted.
type NormCache interface {
	Get(raw string) (string, bool)
	Set(raw, normalized string)
	Len() int
}

type normCache struct {
	mu     sync.Mutex
	holder *config.MatchingConfigHolder
	order  []string
	values map[string]string
}

// NewNormCache returns a bounded normalization cache whose ceiling and
// eviction fraction track the matching config.
func NewNormCache(holder *config.MatchingConfigHolder) NormCache {
	return &normCache{
		holder: holder,
		values: make(map[string]string),
	}
}

func (c *normCache) Get(raw string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	normalized, ok := c.values[raw]
	return normalized, ok
}

func (c *normCache) Set(raw, normalized string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.values[raw]; ok {
		c.values[raw] = normalized
		return
	}

	cfg := c.holder.Get()
	if cfg.NormCacheCeiling > 0 && len(c.values) >= cfg.NormCacheCeiling {
		c.evictOldest(cfg)
	}

	c.values[raw] = normalized
	c.order = append(c.order, raw)
}

// evictOldest drops the oldest configured fraction of entries, at least one.
// Caller holds the lock.
func (c *normCache) evictOldest(cfg config.MatchingConfig) {
	victims := int(float64(len(c.order)) * cfg.NormCacheEvictFrac)
	if victims < 1 {
		victims = 1
	}
	if victims > len(c.order) {
		victims = len(c.order)
	}

	for _, key := range c.order[:victims] {
		delete(c.values, key)
	}
	c.order = append(c.order[:0], c.order[victims:]...)
}

func (c *normCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.values)
}
