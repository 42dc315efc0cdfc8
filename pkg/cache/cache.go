package cache

import (
	"context"
	"time"

	"github.com/eko/gocache/lib/v4/cache"
	"github.com/eko/gocache/lib/v4/marshaler"
	"github.com/eko/gocache/lib/v4/store"
	log "github.com/sirupsen/logrus"
)

// Cache is a key/value read-through cache. Writers must call Invalidate with
// every key their mutation affects.
type Cache interface {
	// Get decodes the cached value for key into dest and reports whether it was present.
	Get(ctx context.Context, key string, dest interface{}) bool
	Set(ctx context.Context, key string, value interface{})
	Invalidate(ctx context.Context, keys ...string)
}

type storeCache struct {
	m   *marshaler.Marshaler
	ttl time.Duration
	log *log.Entry
}

// New wraps a gocache store. Values are msgpack-encoded so the in-memory and
// redis stores behave the same.
func New(s store.StoreInterface, ttl time.Duration, logger *log.Entry) Cache {
	return &storeCache{
		m:   marshaler.New(cache.New[any](s)),
		ttl: ttl,
		log: logger,
	}
}

// A failing cache degrades to a miss; storage stays the source of truth.
func (c *storeCache) Get(ctx context.Context, key string, dest interface{}) bool {
	if _, err := c.m.Get(ctx, key, dest); err != nil {
		return false
	}
	return true
}

func (c *storeCache) Set(ctx context.Context, key string, value interface{}) {
	if err := c.m.Set(ctx, key, value, store.WithExpiration(c.ttl)); err != nil {
		c.log.WithError(err).WithField("key", key).Warn("cache set failed")
	}
}

func (c *storeCache) Invalidate(ctx context.Context, keys ...string) {
	for _, key := range keys {
		if err := c.m.Delete(ctx, key); err != nil {
			c.log.WithError(err).WithField("key", key).Debug("cache invalidate failed")
		}
	}
}

// NewMemory returns an in-process cache. Used by tests and the CLI.
func NewMemory(ttl time.Duration, logger *log.Entry) Cache {
	s, _ := NewStore("", ttl)
	return New(s, ttl, logger)
}
