package cache

import (
	"context"
	"time"
)

// ttlCache replaces the lifetime requested by callers with a fixed one.
type ttlCache struct {
	Cache
	ttl time.Duration
}

// WithTTL returns a cache that stores every entry for ttl regardless of the
// lifetime passed to Set. A non-positive ttl returns c unchanged.
func WithTTL(c Cache, ttl time.Duration) Cache {
	if ttl <= 0 {
		return c
	}
	return &ttlCache{Cache: c, ttl: ttl}
}

func (c *ttlCache) Set(ctx context.Context, key string, data []byte, _ time.Duration) error {
	return c.Cache.Set(ctx, key, data, c.ttl)
}
