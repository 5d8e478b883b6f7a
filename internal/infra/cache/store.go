package cache

import (
	"context"
	"time"
)

// Store is a keyed byte store with tag indexing.
type Store interface {
	// Get returns the value and true on a hit.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores value under key for ttl and indexes it under every tag.
	Set(ctx context.Context, key string, value []byte, tags []string, ttl time.Duration) error
	// InvalidateTags drops every entry indexed under any of the tags.
	InvalidateTags(ctx context.Context, tags ...string) error
}
