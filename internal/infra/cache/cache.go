package cache

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"
)

const DefaultTTL = time.Hour

// Cache wraps read operations with tag-indexed caching. Every entry expires
// after ttl even if an invalidation is missed. A nil *Cache disables caching.
type Cache struct {
	store Store
	ttl   time.Duration
}

func New(store Store, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{store: store, ttl: ttl}
}

// Remember returns the cached result of fn under key, calling fn and caching
// its result on a miss. Errors from fn are never cached. Store failures fall
// back to calling fn.
func Remember[T any](ctx context.Context, c *Cache, key string, tags []string, fn func(ctx context.Context) (T, error)) (T, error) {
	if c == nil {
		return fn(ctx)
	}

	if b, ok, err := c.store.Get(ctx, key); err != nil {
		slog.Warn("cache get failed", "key", key, "error", err)
	} else if ok {
		var v T
		if err := json.Unmarshal(b, &v); err == nil {
			return v, nil
		}
	}

	v, err := fn(ctx)
	if err != nil {
		return v, err
	}

	b, err := json.Marshal(v)
	if err != nil {
		slog.Warn("cache encode failed", "key", key, "error", err)
		return v, nil
	}
	allTags := append(append(make([]string, 0, len(tags)+1), tags...), TagAll)
	if err := c.store.Set(ctx, key, b, allTags, c.ttl); err != nil {
		slog.Warn("cache set failed", "key", key, "error", err)
	}
	return v, nil
}

// Invalidate clears the global tag of r plus the user and id tags set in scope.
func (c *Cache) Invalidate(ctx context.Context, r Resource, scope Scope) {
	if c == nil {
		return
	}
	tags := scope.Tags(r)
	if err := c.store.InvalidateTags(ctx, tags...); err != nil {
		slog.Warn("cache invalidation failed", "tags", tags, "error", err)
	}
}

// ClearAll drops every cached entry.
func (c *Cache) ClearAll(ctx context.Context) error {
	if c == nil {
		return nil
	}
	return c.store.InvalidateTags(ctx, TagAll)
}
