package caching

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/go-redis/cache/v9"
	"github.com/redis/go-redis/v9"
)

type ReadOnlyCache interface {
	Get(ctx context.Context, key string, target any) error
}

type Cache interface {
	ReadOnlyCache
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// UseCache reads key from cash, falling back to callback on a miss. Callback errors are never cached.
func UseCache[T any](ctx context.Context, cash Cache, key string, ttl time.Duration, callback func() (T, error)) (T, error) {
	return UseCacheWithRO(ctx, cash, cash, key, ttl, callback)
}

// UseCacheWithRO reads from the replica and writes through the primary.
func UseCacheWithRO[T any](ctx context.Context, roCash ReadOnlyCache, cash Cache, key string, ttl time.Duration, callback func() (T, error)) (T, error) {
	var v T
	err := roCash.Get(ctx, key, &v)
	if err == nil {
		return v, nil
	}
	if !errors.Is(err, cache.ErrCacheMiss) {
		// a broken cache must not take reads down with it
		log.Println("cache get", key, err)
	}

	v, err = callback()
	if err != nil {
		return v, err
	}

	// fire and forget
	//nolint:errcheck
	cash.Set(ctx, key, v, ttl)
	return v, nil
}

// Invalidate deletes every key, logging failures instead of returning them.
func Invalidate(ctx context.Context, cash Cache, keys ...string) {
	for _, key := range keys {
		if err := cash.Delete(ctx, key); err != nil && !errors.Is(err, cache.ErrCacheMiss) {
			log.Println("cache delete", key, err)
		}
	}
}

type CacheRedis struct {
	instance *cache.Cache
}

func (c *CacheRedis) Get(ctx context.Context, key string, target any) error {
	return c.instance.Get(ctx, key, target)
}

func (c *CacheRedis) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	return c.instance.Set(&cache.Item{
		Ctx:   ctx,
		Key:   key,
		Value: value,
		TTL:   ttl,
	})
}

func (c *CacheRedis) Delete(ctx context.Context, key string) error {
	return c.instance.Delete(ctx, key)
}

func NewCacheRedis(client redis.UniversalClient, withLocalCache bool) (*CacheRedis, error) {
	if client == nil {
		return nil, errors.New("caching: redis client is nil")
	}
	var localCache cache.LocalCache
	if withLocalCache {
		localCache = cache.NewTinyLFU(10000, time.Minute)
	}
	return &CacheRedis{cache.New(&cache.Options{
		Redis:      client,
		LocalCache: localCache,
	})}, nil
}
