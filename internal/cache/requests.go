package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	listKeyPrefix = "requests:list:"
	listTTL       = 5 * time.Second
)

// RequestListCache keeps the serialized public request board between polls.
// A nil *RequestListCache is valid and disables caching entirely.
type RequestListCache struct {
	rdb *redis.Client
}

func NewRequestListCache(addr, password string, db int) *RequestListCache {
	if addr == "" {
		return nil
	}
	return &RequestListCache{
		rdb: redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db}),
	}
}

func (c *RequestListCache) Get(ctx context.Context, filter string) ([]byte, bool) {
	if c == nil {
		return nil, false
	}
	payload, err := c.rdb.Get(ctx, listKeyPrefix+filter).Bytes()
	if err != nil {
		return nil, false
	}
	return payload, true
}

func (c *RequestListCache) Set(ctx context.Context, filter string, payload []byte) {
	if c == nil {
		return
	}
	// Best effort: a failed cache write only costs the next poll a query.
	_ = c.rdb.Set(ctx, listKeyPrefix+filter, payload, listTTL).Err()
}

// Invalidate drops every cached board variant after a transition commits.
func (c *RequestListCache) Invalidate(ctx context.Context) {
	if c == nil {
		return
	}
	_ = c.rdb.Del(ctx, listKeyPrefix+"active", listKeyPrefix+"all").Err()
}

func (c *RequestListCache) Close() error {
	if c == nil {
		return nil
	}
	return c.rdb.Close()
}
