// Package cache provides EDGAR document caching with a Redis backend.
//
// The cache stores raw fetched responses keyed by request URL:
//
// - Freshness window per entry (DefaultTTL 6h; submissions change at most daily)
// - ETag support for conditional requests (If-None-Match)
// - Last-Modified support (If-Modified-Since)
// - Stale entries survive their freshness window so the client can
//   revalidate with a 304 instead of refetching the body
// - Prometheus metrics for observability
// - Deterministic cache key generation
//
// # Basic Usage
//
//	// Create Redis client
//	redisClient := redis.NewClient(&redis.Options{
//		Addr: "localhost:6379",
//	})
//
//	// Create cache manager with the default freshness window
//	manager := cache.NewManager(redisClient, 0)
//
//	// Create cache key
//	key := cache.KeyForURL("https://data.sec.gov/submissions/CIK0000320193.json")
//
//	// Get from cache
//	entry, err := manager.Get(ctx, key)
//	if errors.Is(err, cache.ErrCacheMiss) {
//		// Cache miss - fetch from EDGAR
//	}
//	if entry != nil && !entry.Expired() {
//		// Fresh hit - serve entry.Data
//	}
//
// # Conditional Requests
//
//	// A stale entry still carries its validators
//	cache.AddConditionalHeaders(req, entry)
//	// EDGAR answers 304 when the document is unchanged; Refresh the
//	// entry and Set it back to extend its freshness window
//
// # Metrics
//
// The cache exports Prometheus metrics:
//
//   - edgar_cache_hits_total{layer="redis"} - Fresh hits
//   - edgar_cache_misses_total - Misses
//   - edgar_cache_stale_total - Stale entries returned for revalidation
//   - edgar_cache_bytes_written_total - Volume written to Redis
//   - edgar_cache_errors_total{operation} - Cache operation errors
//
// This caches raw fetches inside the filing source. Extraction results are
// never cached here; a batch run always reprocesses its inputs.
package cache
