// Package ratelimit implements the token-bucket limiter that keeps EDGAR
// request traffic inside the SEC fair-access budget (10 req/s hard limit).
// Every rate-governed remote call acquires one token first; callers block
// until a token is available.
package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for limiter behavior.
var (
	edgarRateLimitTokens = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "edgar_rate_limit_tokens_available",
		Help: "Tokens currently available in the EDGAR request bucket",
	})

	edgarRateLimitAcquiresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "edgar_rate_limit_acquires_total",
		Help: "Total number of tokens consumed from the EDGAR request bucket",
	})

	edgarRateLimitWaitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "edgar_rate_limit_waits_total",
		Help: "Total number of acquisitions that had to wait for a token",
	})

	edgarRateLimitWaitSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "edgar_rate_limit_wait_seconds",
		Help:    "Time spent waiting for an EDGAR request token",
		Buckets: []float64{0.01, 0.05, 0.125, 0.25, 0.5, 1, 2, 5},
	})
)

// Limiter is a token-bucket rate limiter. Tokens refill continuously at
// refillRate per second up to capacity, so an idle limiter permits a burst
// of up to capacity requests while the sustained rate never exceeds
// refillRate. Safe for concurrent use.
type Limiter struct {
	mu         sync.Mutex
	capacity   float64
	refillRate float64
	tokens     float64
	lastRefill time.Time
}

// New creates a Limiter admitting ratePerSecond sustained requests with
// bursts of up to burst. The bucket starts full. Misconfiguration is fatal
// here because it cannot be recovered from mid-run.
func New(ratePerSecond float64, burst int) (*Limiter, error) {
	if ratePerSecond <= 0 {
		return nil, fmt.Errorf("rate must be positive (got %v)", ratePerSecond)
	}
	if burst < 1 {
		return nil, fmt.Errorf("burst must be >= 1 (got %d)", burst)
	}

	return &Limiter{
		capacity:   float64(burst),
		refillRate: ratePerSecond,
		tokens:     float64(burst),
		lastRefill: time.Now(),
	}, nil
}

// Acquire blocks until one token is available, then consumes it. The only
// error path is context cancellation; a live context never sees an error.
func (l *Limiter) Acquire(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	waited := time.Duration(0)
	for {
		l.mu.Lock()
		l.refillLocked(time.Now())

		if l.tokens >= 1 {
			l.tokens--
			edgarRateLimitTokens.Set(l.tokens)
			l.mu.Unlock()

			edgarRateLimitAcquiresTotal.Inc()
			if waited > 0 {
				edgarRateLimitWaitSeconds.Observe(waited.Seconds())
			}
			return nil
		}

		// Not enough tokens: wait exactly until one whole token has
		// refilled, then re-synchronize. Concurrent acquirers may have
		// drained the bucket during the sleep, hence the loop.
		wait := time.Duration((1 - l.tokens) / l.refillRate * float64(time.Second))
		l.mu.Unlock()

		if waited == 0 {
			edgarRateLimitWaitsTotal.Inc()
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
			waited += wait
		}
	}
}

// Available reports the current token count after refill. Intended for
// metrics and tests; the value is stale the moment it is returned.
func (l *Limiter) Available() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.refillLocked(time.Now())
	return l.tokens
}

// Rate returns the sustained refill rate in tokens per second.
func (l *Limiter) Rate() float64 {
	return l.refillRate
}

// Capacity returns the bucket capacity (maximum burst).
func (l *Limiter) Capacity() float64 {
	return l.capacity
}

// refillLocked credits tokens for the elapsed wall time, capped at capacity.
// Callers must hold l.mu.
func (l *Limiter) refillLocked(now time.Time) {
	elapsed := now.Sub(l.lastRefill).Seconds()
	if elapsed <= 0 {
		return
	}
	l.tokens += elapsed * l.refillRate
	if l.tokens > l.capacity {
		l.tokens = l.capacity
	}
	l.lastRefill = now
}
