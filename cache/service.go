package cache

import (
	"context"
	"time"

	"github.com/goliatone/go-component-search/internal/cacheinfra"
)

// StoreInfo describes the backing store's size.
type StoreInfo = cacheinfra.Info

// Store is the byte-level key/value port the cache layer runs on. Both the
// in-process sturdyc store and Redis implement it.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) (int64, error)
	Exists(ctx context.Context, key string) (bool, error)
	MGet(ctx context.Context, keys []string) (map[string][]byte, error)
	MSet(ctx context.Context, entries map[string][]byte, ttl time.Duration) error
	Scan(ctx context.Context, cursor uint64, match string, count int64) ([]string, uint64, error)
	Info(ctx context.Context) (StoreInfo, error)
	Close() error
}

// FetchFn is the function signature CacheService expects when fetching from the source of truth.
type FetchFn[T any] func(ctx context.Context) (T, error)

// CacheService exposes the cache-aside operations the search engine needs.
// Backend failures never surface: reads degrade to misses and writes to no-ops.
type CacheService interface {
	// Get decodes the entry under key into dest and reports a hit.
	Get(ctx context.Context, key string, dest any) bool
	Set(ctx context.Context, key string, value any, ttl time.Duration) bool

	// MGet decodes each hit into the value returned by dest(key) and returns
	// the keys that hit.
	MGet(ctx context.Context, keys []string, dest func(key string) any) []string
	MSet(ctx context.Context, entries map[string]any, ttl time.Duration) bool

	Delete(ctx context.Context, keys ...string) int64
	Exists(ctx context.Context, key string) bool

	// DeletePattern removes every key matching a glob and returns the count.
	DeletePattern(ctx context.Context, pattern string) int64

	// GetOrFetch fills dest from the cache, or from fetchFn on a miss.
	GetOrFetch(ctx context.Context, key string, ttl time.Duration, dest any, fetchFn func(ctx context.Context) (any, error)) error

	Stats(ctx context.Context) Stats
}

// GetOrFetch is a type-safe wrapper over CacheService.GetOrFetch. On a miss
// the returned value is decoded from the bytes just written, so a later hit
// yields an identical value.
func GetOrFetch[T any](ctx context.Context, service CacheService, key string, ttl time.Duration, fetchFn FetchFn[T]) (T, error) {
	var out T
	err := service.GetOrFetch(ctx, key, ttl, &out, func(ctx context.Context) (any, error) {
		return fetchFn(ctx)
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return out, nil
}

// GetAs reads a typed value.
func GetAs[T any](ctx context.Context, service CacheService, key string) (T, bool) {
	var out T
	if !service.Get(ctx, key, &out) {
		var zero T
		return zero, false
	}
	return out, true
}

// MGetAs reads many typed values. Misses are absent from the result.
func MGetAs[T any](ctx context.Context, service CacheService, keys []string) map[string]T {
	slots := make(map[string]*T, len(keys))
	hits := service.MGet(ctx, keys, func(key string) any {
		v := new(T)
		slots[key] = v
		return v
	})

	out := make(map[string]T, len(hits))
	for _, key := range hits {
		out[key] = *slots[key]
	}
	return out
}
