// Package metrics provides the centralized Prometheus registry for the
// extraction pipeline. All metrics are defined in their owning packages
// (batch, ratelimit, edgar, cache, extractor) to maintain modularity and
// avoid circular dependencies.
//
// This package provides the exposition handler and the reference list of all
// available metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry is the default Prometheus registry used by the pipeline.
// All metrics are automatically registered via promauto in their respective packages.
var Registry = prometheus.DefaultRegisterer

// Handler returns the HTTP handler exposing all registered metrics, for
// mounting on a /metrics listener during a batch run.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Metrics Documentation
//
// Batch Engine Metrics (pkg/batch):
//   - edgar_batch_items_total{outcome} (Counter): Items finished by outcome (success, failure)
//   - edgar_batch_attempts_total (Counter): Operation attempts including retries
//   - edgar_batch_retries_total (Counter): Attempts beyond the first
//   - edgar_batch_backoff_seconds (Histogram): Backoff sleeps between attempts
//   - edgar_batch_in_flight (Gauge): Operations currently executing
//   - edgar_batch_duration_seconds (Histogram): Whole-run duration
//
// Rate Limit Metrics (pkg/ratelimit):
//   - edgar_rate_limit_tokens_available (Gauge): Tokens currently in the bucket
//   - edgar_rate_limit_acquires_total (Counter): Tokens handed out
//   - edgar_rate_limit_waits_total (Counter): Acquisitions that had to wait for refill
//   - edgar_rate_limit_wait_seconds (Histogram): Time spent waiting for a token
//
// Request Metrics (pkg/edgar):
//   - edgar_requests_total{endpoint, status} (Counter): EDGAR requests by endpoint and HTTP status
//   - edgar_request_duration_seconds{endpoint} (Histogram): Request duration by endpoint
//   - edgar_errors_total{class} (Counter): Errors by class (client, server, rate_limit, network)
//
// Cache Metrics (pkg/cache):
//   - edgar_cache_hits_total{layer="redis"} (Counter): Cache hits by layer
//   - edgar_cache_misses_total (Counter): Cache misses
//   - edgar_cache_stale_total (Counter): Hits on logically expired entries
//   - edgar_cache_bytes_written_total (Counter): Bytes written to the cache
//   - edgar_cache_errors_total{operation} (Counter): Cache operation errors
//
// Extraction Metrics (pkg/extractor):
//   - edgar_extractions_total{outcome} (Counter): Extractions by outcome (ok, no_data, parse_error)
//   - edgar_extraction_fields (Histogram): Metrics populated per successful extraction
//
// Example Prometheus Queries:
//
//   # Cache Hit Rate
//   sum(rate(edgar_cache_hits_total[5m])) /
//   (sum(rate(edgar_cache_hits_total[5m])) + sum(rate(edgar_cache_misses_total[5m])))
//
//   # Batch Success Rate
//   rate(edgar_batch_items_total{outcome="success"}[5m]) /
//   sum(rate(edgar_batch_items_total[5m]))
//
//   # Retry Pressure
//   rate(edgar_batch_retries_total[5m]) / rate(edgar_batch_attempts_total[5m])
//
//   # P95 Request Latency
//   histogram_quantile(0.95, rate(edgar_request_duration_seconds_bucket[5m]))
//
//   # Throttling
//   rate(edgar_rate_limit_waits_total[5m])
