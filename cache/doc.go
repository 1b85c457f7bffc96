// Package cache provides the cache-aside layer used by the catalog search engine.
//
// # Overview
//
// This package exports two main interfaces and their default implementations:
//
//   - CacheService: typed get/set, batch access, pattern invalidation and
//     read-through loading over a byte-level Store (Layer)
//   - KeySerializer: canonical serialization of query arguments, hashed into
//     short stable keys by HashKey
//
// Backend failures never surface to callers. A failed read is a miss and a
// failed write is a no-op; both are logged at warn level and counted.
//
// # Basic Usage
//
//	store, err := cache.NewStore(ctx, cfg, logger)
//	layer, err := cache.NewLayer(store, cfg, cache.WithLogger(logger))
//
//	key := cache.SearchQueryKey(cache.HashKey(nil, "search", query))
//	page, err := cache.GetOrFetch(ctx, layer, key, layer.TTL().Search, func(ctx context.Context) (Page, error) {
//		return runSearch(ctx, query)
//	})
//
// On a miss the fetched value is encoded, written, and decoded back from the
// written bytes, so a miss and a later hit return identical values.
//
// # Key Layout
//
//	search:query:<hash>          filtered search
//	search:fulltext:<hash>       keyword search
//	search:params:<hash>         parameter search
//	search:suggest:<hash>        autocomplete
//	search:category:<path>:<page>[:<limit>]
//	component:detail:<id>
//	meta:manufacturers
//	meta:categories:tree[:manufacturer:<name>]
//	meta:parameter_definitions
//	meta:family:<path>
//	meta:statistics
//
// # Key Serialization Strategy
//
// The default key serializer uses reflection to handle various Go types:
//
//   - Basic types: Direct string representation
//   - Slices/arrays: Recursive serialization of elements
//   - Maps: Sorted key-value pairs, independent of insertion order
//   - Structs: Exported fields sorted by JSON name; empty omitempty fields skipped
//   - json.Marshaler implementations: their JSON form
//   - Function pointers: %p formatting, stable only within a process
//
// # Coalescing
//
// With Config.Coalesce set, concurrent misses on the same key share a single
// producer call through singleflight.
package cache
