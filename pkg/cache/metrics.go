package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CacheHits tracks fresh cache hits by layer (redis)
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "edgar_cache_hits_total",
			Help: "Total number of fresh document cache hits",
		},
		[]string{"layer"}, // "redis"
	)

	// CacheMisses tracks cache misses
	CacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "edgar_cache_misses_total",
			Help: "Total number of document cache misses",
		},
	)

	// CacheStale tracks entries returned past their freshness window,
	// eligible for conditional revalidation
	CacheStale = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "edgar_cache_stale_total",
			Help: "Total number of stale document cache entries returned",
		},
	)

	// CacheBytesWritten tracks the volume written into the cache
	CacheBytesWritten = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "edgar_cache_bytes_written_total",
			Help: "Cumulative bytes of cache entries written to Redis",
		},
	)

	// CacheErrors tracks cache operation errors
	CacheErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "edgar_cache_errors_total",
			Help: "Total number of cache operation errors",
		},
		[]string{"operation"}, // "get", "set", "delete"
	)
)
