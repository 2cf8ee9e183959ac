// Package batch runs a set of extraction items through a shared rate limit,
// bounded concurrency and per-item retry, and reports the outcome of every
// single item.
//
// The processor is generic over the item type and the extracted payload type,
// so the same engine drives filing downloads, document extraction or any
// other per-item operation against a rate-limited upstream:
//
// - Token-bucket rate limiting shared across all workers (SEC fair access)
// - Bounded concurrency via slot acquisition per attempt
// - Exponential backoff retry with a fixed doubling schedule
// - Failure isolation: one bad item never aborts the batch
// - Complete partition of inputs into successes and failures
//
// # Basic Usage
//
//	processor, err := batch.New[edgar.Company, *extractor.Financials](batch.DefaultConfig())
//	if err != nil {
//		return err
//	}
//
//	result := processor.Process(ctx, companies, "10-K", extractOp,
//		func(completed, total int, label string) {
//			log.Info().Int("completed", completed).Int("total", total).Str("item", label).Msg("Progress")
//		},
//		func(item edgar.Company, err error) {
//			log.Error().Err(err).Str("item", item.Label()).Msg("Item failed")
//		})
//
//	fmt.Printf("succeeded %d/%d (%.0f%%)\n",
//		result.SuccessCount(), result.Total(), result.SuccessRate()*100)
//
// Process never returns an error: a failed batch is data, not a fault. Every
// input item appears in exactly one of Result.Successful and Result.Failed,
// including items that never ran because the context was cancelled.
//
// # Retry Semantics
//
// MaxRetries counts total attempts per item, including the first one. The
// concurrency slot is held only while an attempt executes; during backoff
// sleeps the slot is released so other items can use it. Errors marked
// permanent (see Permanent and IsPermanent) skip remaining attempts.
//
// # Metrics
//
// The package exports Prometheus metrics:
//
//   - edgar_batch_items_total{outcome} - Items resolved by outcome
//   - edgar_batch_attempts_total - Operation invocations
//   - edgar_batch_retries_total - Retries scheduled after failed attempts
//   - edgar_batch_backoff_seconds - Backoff durations
//   - edgar_batch_in_flight - Attempts currently executing
//   - edgar_batch_duration_seconds - Wall time of complete runs
package batch
