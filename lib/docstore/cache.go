package docstore

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

type CacheConfig struct {
	// Size is the number of documents kept, 0 disables the cache.
	Size int `json:"size"`
	// TTL is the lifetime of a cached document in seconds, defaults to 300.
	TTL int `json:"ttl"`
}

// Cached keeps recently read and written documents of a backend in
// memory. Writes go through to the backend before the cache is updated.
type Cached struct {
	backend Backend
	cache   *expirable.LRU[string, []byte]
}

func NewCached(backend Backend, cfg CacheConfig) Cached {
	ttl := time.Duration(cfg.TTL) * time.Second
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return Cached{
		backend: backend,
		cache:   expirable.NewLRU[string, []byte](cfg.Size, nil, ttl),
	}
}

func (c Cached) Get(ctx context.Context, key string) ([]byte, error) {
	cached, hit := c.cache.Get(key)
	if hit {
		return append([]byte(nil), cached...), nil
	}
	body, err := c.backend.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	c.cache.Add(key, append([]byte(nil), body...))
	return body, nil
}

func (c Cached) Put(ctx context.Context, key string, body []byte) error {
	err := c.backend.Put(ctx, key, body)
	if err != nil {
		c.cache.Remove(key)
		return err
	}
	c.cache.Add(key, append([]byte(nil), body...))
	return nil
}

func (c Cached) Close() error {
	c.cache.Purge()
	return c.backend.Close()
}
