// Command edgar-extract runs rate-limited batch extraction of financial data
// from SEC EDGAR filings.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"

	"github.com/bobmatnyc/edgar-sub001/pkg/batch"
	"github.com/bobmatnyc/edgar-sub001/pkg/cache"
	"github.com/bobmatnyc/edgar-sub001/pkg/edgar"
	"github.com/bobmatnyc/edgar-sub001/pkg/export"
	"github.com/bobmatnyc/edgar-sub001/pkg/extractor"
	"github.com/bobmatnyc/edgar-sub001/pkg/logging"
	"github.com/bobmatnyc/edgar-sub001/pkg/metrics"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		// cli.Exit errors never reach here; anything else is an I/O or
		// usage problem.
		fmt.Fprintf(os.Stderr, "edgar-extract: %v\n", err)
		os.Exit(2)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:    "edgar-extract",
		Usage:   "rate-limited batch extraction of financial data from SEC EDGAR filings",
		Version: "0.1.0",
		Commands: []*cli.Command{
			runCommand(),
		},
	}
}

func runCommand() *cli.Command {
	defaults := batch.DefaultConfig()

	return &cli.Command{
		Name:      "run",
		Usage:     "Process the companies in a YAML manifest",
		ArgsUsage: "MANIFEST",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "user-agent",
				Usage:    "identification required by the SEC fair-access policy, e.g. \"Example Corp admin@example.com\"",
				EnvVars:  []string{"EDGAR_USER_AGENT"},
				Required: true,
			},
			&cli.StringFlag{
				Name:    "form",
				Usage:   "form type to extract, overriding the manifest (10-K, 10-Q, ...)",
				EnvVars: []string{"EDGAR_FORM"},
			},
			&cli.Float64Flag{
				Name:    "rps",
				Usage:   "sustained EDGAR requests per second",
				Value:   defaults.RequestsPerSecond,
				EnvVars: []string{"EDGAR_RPS"},
			},
			&cli.IntFlag{
				Name:    "burst",
				Usage:   "rate limiter burst capacity",
				Value:   defaults.BurstCapacity,
				EnvVars: []string{"EDGAR_BURST"},
			},
			&cli.IntFlag{
				Name:    "concurrency",
				Usage:   "companies processed in parallel",
				Value:   defaults.MaxConcurrent,
				EnvVars: []string{"EDGAR_CONCURRENCY"},
			},
			&cli.IntFlag{
				Name:    "retries",
				Usage:   "total attempts per company, including the first",
				Value:   defaults.MaxRetries,
				EnvVars: []string{"EDGAR_RETRIES"},
			},
			&cli.DurationFlag{
				Name:    "retry-base-delay",
				Usage:   "backoff before the second attempt; doubles per retry",
				Value:   defaults.RetryBaseDelay,
				EnvVars: []string{"EDGAR_RETRY_BASE_DELAY"},
			},
			&cli.DurationFlag{
				Name:    "attempt-timeout",
				Usage:   "deadline for a single attempt",
				Value:   defaults.AttemptTimeout,
				EnvVars: []string{"EDGAR_ATTEMPT_TIMEOUT"},
			},
			&cli.StringFlag{
				Name:    "output-csv",
				Aliases: []string{"o"},
				Usage:   "write per-company results to this CSV file",
			},
			&cli.StringFlag{
				Name:  "json-summary",
				Usage: "write the machine-readable run report to this file",
			},
			&cli.StringFlag{
				Name:    "redis-addr",
				Usage:   "Redis address; enables the fetched-document cache",
				EnvVars: []string{"REDIS_ADDR"},
			},
			&cli.StringFlag{
				Name:  "metrics-addr",
				Usage: "expose Prometheus metrics on this address for the duration of the run",
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "debug, info, warn or error",
				Value:   "info",
				EnvVars: []string{"LOG_LEVEL"},
			},
			&cli.BoolFlag{
				Name:  "pretty",
				Usage: "human-readable console logs instead of JSON",
			},
			&cli.StringFlag{
				Name:    "submissions-url",
				Hidden:  true,
				EnvVars: []string{"EDGAR_SUBMISSIONS_URL"},
			},
			&cli.StringFlag{
				Name:    "archives-url",
				Hidden:  true,
				EnvVars: []string{"EDGAR_ARCHIVES_URL"},
			},
		},
		Action: runAction,
	}
}

func runAction(c *cli.Context) error {
	logging.Setup(logging.Config{
		Level:  logging.LogLevel(c.String("log-level")),
		Pretty: c.Bool("pretty"),
		Output: os.Stderr,
	})
	logger := logging.NewLogger("cli")

	if c.NArg() != 1 {
		return cli.Exit("usage: edgar-extract run [options] MANIFEST", 2)
	}

	manifest, err := loadManifest(c.Args().First())
	if err != nil {
		return cli.Exit(fmt.Sprintf("manifest: %v", err), 2)
	}

	form := manifest.Form
	if c.IsSet("form") {
		form = c.String("form")
	}

	var cacheManager *cache.Manager
	if addr := c.String("redis-addr"); addr != "" {
		redisClient := redis.NewClient(&redis.Options{Addr: addr})
		if err := redisClient.Ping(c.Context).Err(); err != nil {
			return cli.Exit(fmt.Sprintf("connect to Redis at %s: %v", addr, err), 2)
		}
		defer redisClient.Close()

		cacheManager = cache.NewManager(redisClient, cache.DefaultTTL)
		logger.Info().Str("addr", addr).Msg("Document cache enabled")
	}

	client, err := edgar.New(edgar.Config{
		UserAgent:          c.String("user-agent"),
		SubmissionsBaseURL: c.String("submissions-url"),
		ArchivesBaseURL:    c.String("archives-url"),
		Cache:              cacheManager,
	})
	if err != nil {
		return cli.Exit(fmt.Sprintf("edgar client: %v", err), 2)
	}

	processor, err := batch.New[edgar.Company, *extractor.Financials](batch.Config{
		RequestsPerSecond: c.Float64("rps"),
		BurstCapacity:     c.Int("burst"),
		MaxConcurrent:     c.Int("concurrency"),
		MaxRetries:        c.Int("retries"),
		RetryBaseDelay:    c.Duration("retry-base-delay"),
		AttemptTimeout:    c.Duration("attempt-timeout"),
	})
	if err != nil {
		return cli.Exit(fmt.Sprintf("configuration: %v", err), 2)
	}

	var metricsServer *http.Server
	if addr := c.String("metrics-addr"); addr != "" {
		metricsServer = startMetricsListener(addr, logger)
		defer stopMetricsListener(metricsServer, logger)
	}

	// Ctrl-C cancels the run; in-flight companies are drained as failures.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	result := processor.Process(ctx, manifest.companies(), form,
		extractOperation(client, extractor.ForForm(form)),
		func(completed, total int, label string) {
			logger.Info().
				Int("completed", completed).
				Int("total", total).
				Str("item", label).
				Msg("Progress")
		},
		func(company edgar.Company, err error) {
			logger.Error().
				Err(err).
				Str("item", company.Label()).
				Msg("Company failed")
		},
	)

	logger.Info().
		Int("succeeded", result.SuccessCount()).
		Int("failed", result.FailureCount()).
		Float64("success_rate", result.SuccessRate()).
		Int64("requests", result.RequestsMade).
		Dur("duration", result.TotalDuration).
		Msg("Run finished")

	if err := writeOutputs(c, result, logger); err != nil {
		return err
	}

	// Partial failure is reported data, not a process failure.
	if result.Total() > 0 && result.SuccessCount() == 0 {
		return cli.Exit("all companies failed", 1)
	}
	return nil
}

// extractOperation composes the per-company pipeline: newest filing lookup,
// document fetch, financial extraction.
func extractOperation(client *edgar.Client, ext extractor.Extractor) batch.Operation[edgar.Company, *extractor.Financials] {
	return func(ctx context.Context, company edgar.Company, form string) (*extractor.Financials, error) {
		filing, err := client.LatestFiling(ctx, company.CIK, form)
		if err != nil {
			return nil, err
		}

		raw, err := client.FetchDocument(ctx, filing)
		if err != nil {
			return nil, err
		}

		fin, err := ext.Extract(raw)
		if err != nil {
			// The same bytes extract the same way every time.
			return nil, batch.Permanent(err)
		}
		return fin, nil
	}
}

func writeOutputs(c *cli.Context, result *batch.Result[edgar.Company, *extractor.Financials], logger zerolog.Logger) error {
	if path := c.String("output-csv"); path != "" {
		if err := writeFile(path, func(f *os.File) error { return export.CSV(f, result) }); err != nil {
			return fmt.Errorf("write csv: %w", err)
		}
		logger.Info().Str("path", path).Msg("CSV written")
	}

	if path := c.String("json-summary"); path != "" {
		if err := writeFile(path, func(f *os.File) error { return export.JSONSummary(f, result) }); err != nil {
			return fmt.Errorf("write json summary: %w", err)
		}
		logger.Info().Str("path", path).Msg("JSON summary written")
	}
	return nil
}

func writeFile(path string, write func(*os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func startMetricsListener(addr string, logger zerolog.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())

	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		logger.Info().Str("addr", addr).Msg("Metrics listener started")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Warn().Err(err).Msg("Metrics listener failed")
		}
	}()
	return srv
}

func stopMetricsListener(srv *http.Server, logger zerolog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Warn().Err(err).Msg("Metrics listener shutdown failed")
	}
}
