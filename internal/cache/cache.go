package cache

import (
	"context"

	"github.com/coopco/relaybot/internal/relay"
)

// Cache persists translated embed sequences keyed by message ID. Entries
// are stable once written: the first Put for a key wins and later writes
// for the same key are no-ops. There is no eviction.
type Cache interface {
	Get(ctx context.Context, messageID string) ([]relay.EmbedBlock, bool, error)
	Put(ctx context.Context, messageID string, blocks []relay.EmbedBlock) error
	Len(ctx context.Context) (int, error)
	Close() error
}
