package cache

import (
	"sync"

	"github.com/bwmarrin/snowflake"
)

// ExternalIDCache maps upstream sale sequence numbers to apartment IDs. A
// sequence identifies exactly one apartment, so a hit short-circuits name
// matching entirely. Entries never expire; the mapping is append-only.
type ExternalIDCache interface {
	Lookup(externalSeq string) (snowflake.ID, bool)
	Register(externalSeq string, apartmentID snowflake.ID)
	Load(entries map[string]snowflake.ID)
	Len() int
}

type externalIDCache struct {
	mu      sync.RWMutex
	entries map[string]snowflake.ID
}

func NewExternalIDCache() ExternalIDCache {
	return &externalIDCache{
		entries: make(map[string]snowflake.ID),
	}
}

func (c *externalIDCache) Lookup(externalSeq string) (snowflake.ID, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	id, ok := c.entries[externalSeq]
	return id, ok
}

func (c *externalIDCache) Register(externalSeq string, apartmentID snowflake.ID) {
	if externalSeq == "" {
		return
	}

	c.mu.Lock()
	c.entries[externalSeq] = apartmentID
	c.mu.Unlock()
}

func (c *externalIDCache) Load(entries map[string]snowflake.ID) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for seq, id := range entries {
		if seq == "" {
			continue
		}
		c.entries[seq] = id
	}
}

func (c *externalIDCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
