package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/eko/gocache/lib/v4/store"
	gocache_store "github.com/eko/gocache/store/go_cache/v4"
	redis_store "github.com/eko/gocache/store/redis/v4"
	gocache "github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"
)

const defaultCleanupInterval = 30 * time.Minute

// NewStore returns a redis-backed store when redisURL is set and an in-process
// go-cache store otherwise.
func NewStore(redisURL string, defaultTTL time.Duration) (store.StoreInterface, error) {
	if redisURL != "" {
		return getRedisStore(redisURL)
	}
	goc := gocache.New(defaultTTL, defaultCleanupInterval)
	return gocache_store.NewGoCache(goc), nil
}

func getRedisStore(redisURL string) (store.StoreInterface, error) {
	options, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parsing redis cache url: %w", err)
	}

	redisClient := redis.NewClient(options)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if _, err := redisClient.Ping(ctx).Result(); err != nil {
		return nil, fmt.Errorf("connecting to redis cache: %w", err)
	}

	return redis_store.NewRedis(redisClient), nil
}
