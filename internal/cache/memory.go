package cache

import (
	"context"
	"sync"

	"github.com/coopco/relaybot/internal/relay"
)

// MemoryCache is an in-memory Cache for tests and throwaway deployments.
// It follows the same first-write-wins contract as the sqlite store.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string][]relay.EmbedBlock
}

func NewMemory() *MemoryCache {
	return &MemoryCache{entries: make(map[string][]relay.EmbedBlock)}
}

func (c *MemoryCache) Get(ctx context.Context, messageID string) ([]relay.EmbedBlock, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	blocks, ok := c.entries[messageID]
	return blocks, ok, nil
}

func (c *MemoryCache) Put(ctx context.Context, messageID string, blocks []relay.EmbedBlock) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.entries[messageID]; ok {
		return nil
	}
	copied := make([]relay.EmbedBlock, len(blocks))
	copy(copied, blocks)
	c.entries[messageID] = copied
	return nil
}

func (c *MemoryCache) Len(ctx context.Context) (int, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries), nil
}

func (c *MemoryCache) Close() error { return nil }
