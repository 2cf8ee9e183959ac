package batch

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog/log"

	"github.com/bobmatnyc/edgar-sub001/pkg/ratelimit"
)

// Prometheus metrics for batch processing.
var (
	edgarBatchItemsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "edgar_batch_items_total",
		Help: "Total number of batch items resolved by outcome",
	}, []string{"outcome"})

	edgarBatchAttemptsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "edgar_batch_attempts_total",
		Help: "Total number of operation attempts",
	})

	edgarBatchRetriesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "edgar_batch_retries_total",
		Help: "Total number of retries scheduled after failed attempts",
	})

	edgarBatchBackoffSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "edgar_batch_backoff_seconds",
		Help:    "Backoff duration before retries",
		Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60},
	})

	edgarBatchInFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "edgar_batch_in_flight",
		Help: "Number of operation attempts currently executing",
	})

	edgarBatchDurationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "edgar_batch_duration_seconds",
		Help:    "Wall time of complete batch runs",
		Buckets: []float64{1, 5, 15, 60, 300, 900, 3600},
	})
)

// Operation produces the payload for one item. It is invoked once per
// attempt; implementations must honor ctx for timeout and cancellation.
type Operation[I, R any] func(ctx context.Context, item I, formType string) (R, error)

// ProgressFunc receives one call per resolved item, success or failure.
// completed is strictly increasing from 1 to total across the whole run.
type ProgressFunc func(completed, total int, label string)

// ErrorFunc receives each terminally failed item together with its final
// error, before the corresponding progress call.
type ErrorFunc[I any] func(item I, err error)

// Config holds the batch processor configuration.
type Config struct {
	// RequestsPerSecond is the steady-state request rate shared by all
	// workers. SEC fair-access policy allows at most 10; stay below it.
	RequestsPerSecond float64

	// BurstCapacity is the rate limiter bucket size.
	BurstCapacity int

	// MaxConcurrent is the number of items processed simultaneously.
	MaxConcurrent int

	// MaxRetries is the total number of attempts per item, including the
	// first one.
	MaxRetries int

	// RetryBaseDelay is the backoff before the first retry. It doubles for
	// each subsequent retry.
	RetryBaseDelay time.Duration

	// AttemptTimeout bounds a single operation invocation.
	AttemptTimeout time.Duration
}

// DefaultConfig returns conservative defaults for SEC EDGAR.
func DefaultConfig() Config {
	return Config{
		RequestsPerSecond: 8,
		BurstCapacity:     8,
		MaxConcurrent:     5,
		MaxRetries:        3,
		RetryBaseDelay:    2 * time.Second,
		AttemptTimeout:    30 * time.Second,
	}
}

// Processor runs batches of items through an Operation under a shared rate
// limit, bounded concurrency and per-item retry. A Processor is safe for
// reuse across runs.
type Processor[I, R any] struct {
	cfg     Config
	limiter *ratelimit.Limiter
	slots   chan struct{}
}

// New validates cfg and constructs a processor with its own rate limiter.
func New[I, R any](cfg Config) (*Processor[I, R], error) {
	if cfg.MaxConcurrent < 1 {
		return nil, fmt.Errorf("max concurrent must be >= 1 (got %d)", cfg.MaxConcurrent)
	}
	if cfg.MaxRetries < 1 {
		return nil, fmt.Errorf("max retries must be >= 1 (got %d)", cfg.MaxRetries)
	}
	if cfg.RetryBaseDelay < 0 {
		return nil, fmt.Errorf("retry base delay must not be negative (got %v)", cfg.RetryBaseDelay)
	}
	if cfg.AttemptTimeout <= 0 {
		return nil, fmt.Errorf("attempt timeout must be positive (got %v)", cfg.AttemptTimeout)
	}

	limiter, err := ratelimit.New(cfg.RequestsPerSecond, cfg.BurstCapacity)
	if err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	return &Processor[I, R]{
		cfg:     cfg,
		limiter: limiter,
		slots:   make(chan struct{}, cfg.MaxConcurrent),
	}, nil
}

// Process runs op against every item and returns the complete partition of
// outcomes. It never returns an error: a failed batch is data. Cancelling ctx
// stops admission of new attempts; items that could not run still resolve as
// failures, so the partition stays complete.
func (p *Processor[I, R]) Process(ctx context.Context, items []I, formType string, op Operation[I, R], onProgress ProgressFunc, onError ErrorFunc[I]) *Result[I, R] {
	start := time.Now()
	result := &Result[I, R]{
		Successful: make([]ExtractionResult[I, R], 0, len(items)),
		Failed:     make([]ExtractionResult[I, R], 0, len(items)),
	}
	if len(items) == 0 {
		result.TotalDuration = time.Since(start)
		return result
	}

	log.Info().
		Int("items", len(items)).
		Str("form_type", formType).
		Float64("requests_per_second", p.cfg.RequestsPerSecond).
		Int("max_concurrent", p.cfg.MaxConcurrent).
		Int("max_retries", p.cfg.MaxRetries).
		Msg("Starting batch run")

	var (
		mu        sync.Mutex
		completed int
		requests  atomic.Int64
		wg        sync.WaitGroup
	)

	// finish records an item's terminal outcome and fires the callbacks.
	// The mutex covers the callbacks too, so completed is strictly
	// increasing as observed by onProgress and onError always precedes the
	// failed item's progress call.
	finish := func(item I, payload R, attempts int, elapsed time.Duration, err error) {
		record := ExtractionResult[I, R]{
			Item:     item,
			Payload:  payload,
			Err:      err,
			Attempts: attempts,
			Elapsed:  elapsed,
		}

		mu.Lock()
		defer mu.Unlock()

		if err != nil {
			result.Failed = append(result.Failed, record)
			edgarBatchItemsTotal.WithLabelValues("failure").Inc()
			if onError != nil {
				onError(item, err)
			}
		} else {
			result.Successful = append(result.Successful, record)
			edgarBatchItemsTotal.WithLabelValues("success").Inc()
		}

		completed++
		if onProgress != nil {
			onProgress(completed, len(items), itemLabel(item))
		}
	}

	for i := range items {
		wg.Add(1)
		go func(item I) {
			defer wg.Done()
			itemStart := time.Now()
			payload, attempts, err := p.runItem(ctx, item, formType, op, &requests)
			finish(item, payload, attempts, time.Since(itemStart), err)
		}(items[i])
	}
	wg.Wait()

	result.TotalDuration = time.Since(start)
	result.RequestsMade = requests.Load()
	edgarBatchDurationSeconds.Observe(result.TotalDuration.Seconds())

	log.Info().
		Int("succeeded", result.SuccessCount()).
		Int("failed", result.FailureCount()).
		Int64("requests_made", result.RequestsMade).
		Dur("duration", result.TotalDuration).
		Msg("Batch run complete")

	return result
}

// runItem drives one item through slot admission, rate limiting and retry
// until it resolves. The returned attempt count is the number of operation
// invocations actually made for the item.
func (p *Processor[I, R]) runItem(ctx context.Context, item I, formType string, op Operation[I, R], requests *atomic.Int64) (R, int, error) {
	var (
		zero    R
		lastErr error
	)
	label := itemLabel(item)

	for attempt := 1; attempt <= p.cfg.MaxRetries; attempt++ {
		// Admission gate: a cancelled batch resolves the item without
		// running it.
		select {
		case <-ctx.Done():
			return zero, attempt - 1, cancelErr(ctx, lastErr)
		case p.slots <- struct{}{}:
		}

		if err := p.limiter.Acquire(ctx); err != nil {
			<-p.slots
			return zero, attempt - 1, cancelErr(ctx, lastErr)
		}

		payload, err := p.invoke(ctx, item, formType, op, requests)
		<-p.slots

		if err == nil {
			if attempt > 1 {
				log.Info().
					Str("item", label).
					Int("attempt", attempt).
					Msg("Item succeeded after retry")
			}
			return payload, attempt, nil
		}
		lastErr = err

		if IsPermanent(err) {
			log.Warn().
				Err(err).
				Str("item", label).
				Int("attempt", attempt).
				Msg("Permanent error, not retrying")
			return zero, attempt, err
		}

		if attempt >= p.cfg.MaxRetries {
			break
		}

		delay := p.cfg.RetryBaseDelay << (attempt - 1)
		edgarBatchRetriesTotal.Inc()
		edgarBatchBackoffSeconds.Observe(delay.Seconds())

		log.Warn().
			Err(err).
			Str("item", label).
			Int("attempt", attempt).
			Dur("backoff", delay).
			Msg("Attempt failed, backing off")

		// The concurrency slot stays released while the item sleeps.
		select {
		case <-ctx.Done():
			return zero, attempt, cancelErr(ctx, lastErr)
		case <-time.After(delay):
		}
	}

	log.Error().
		Err(lastErr).
		Str("item", label).
		Int("max_retries", p.cfg.MaxRetries).
		Msg("Attempts exhausted")

	return zero, p.cfg.MaxRetries, fmt.Errorf("%w after %d attempts: %w", ErrAttemptsExhausted, p.cfg.MaxRetries, lastErr)
}

// invoke runs a single attempt under the per-attempt timeout, converting an
// operation panic into that attempt's error.
func (p *Processor[I, R]) invoke(ctx context.Context, item I, formType string, op Operation[I, R], requests *atomic.Int64) (payload R, err error) {
	attemptCtx, cancel := context.WithTimeout(ctx, p.cfg.AttemptTimeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrOperationPanicked, r)
		}
	}()

	requests.Add(1)
	edgarBatchAttemptsTotal.Inc()
	edgarBatchInFlight.Inc()
	defer edgarBatchInFlight.Dec()

	return op(attemptCtx, item, formType)
}

// cancelErr builds the terminal error for an item interrupted by batch
// cancellation, keeping the last attempt error when one exists.
func cancelErr(ctx context.Context, lastErr error) error {
	if lastErr != nil {
		return fmt.Errorf("%w: %v (last error: %v)", ErrCancelled, ctx.Err(), lastErr)
	}
	return fmt.Errorf("%w: %v", ErrCancelled, ctx.Err())
}
