// Package edgar provides the SEC EDGAR data client: company submissions,
// filing selection and document retrieval under the fair-access policy.
//
// The client makes exactly one HTTP attempt per call and classifies failures
// into EDGARError classes. Retry policy belongs to the batch engine, not
// here.
package edgar

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/bobmatnyc/edgar-sub001/pkg/cache"
)

// Prometheus metrics for EDGAR client operations.
var (
	edgarRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "edgar_requests_total",
		Help: "Total EDGAR requests by endpoint and status",
	}, []string{"endpoint", "status"})

	edgarRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "edgar_request_duration_seconds",
		Help:    "EDGAR request duration in seconds by endpoint",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10},
	}, []string{"endpoint"})

	edgarErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "edgar_errors_total",
		Help: "Total EDGAR errors by class",
	}, []string{"class"})
)

const (
	defaultSubmissionsBaseURL = "https://data.sec.gov"
	defaultArchivesBaseURL    = "https://www.sec.gov"
)

// Config holds the client configuration.
type Config struct {
	// UserAgent identifies the caller as required by the SEC fair-access
	// policy. Format: "Company Name contact@example.com". Required.
	UserAgent string

	// SubmissionsBaseURL overrides https://data.sec.gov (for tests).
	SubmissionsBaseURL string

	// ArchivesBaseURL overrides https://www.sec.gov (for tests).
	ArchivesBaseURL string

	// Timeout bounds a single HTTP request.
	Timeout time.Duration

	// Cache, when set, stores fetched responses and enables conditional
	// revalidation of stale entries.
	Cache *cache.Manager
}

// DefaultConfig returns a safe default configuration.
func DefaultConfig(userAgent string) Config {
	return Config{
		UserAgent: userAgent,
		Timeout:   30 * time.Second,
	}
}

// Client is the SEC EDGAR data client.
type Client struct {
	httpClient *http.Client
	config     Config
	cache      *cache.Manager
	logger     zerolog.Logger
}

// New creates a new EDGAR client.
func New(cfg Config) (*Client, error) {
	if cfg.UserAgent == "" {
		return nil, fmt.Errorf("user-agent is required (SEC fair-access policy)")
	}
	if cfg.SubmissionsBaseURL == "" {
		cfg.SubmissionsBaseURL = defaultSubmissionsBaseURL
	}
	if cfg.ArchivesBaseURL == "" {
		cfg.ArchivesBaseURL = defaultArchivesBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	logger := log.With().Str("component", "edgar-client").Logger()

	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		config: cfg,
		cache:  cfg.Cache,
		logger: logger,
	}, nil
}

// SetHTTPClient sets a custom HTTP client (for testing).
func (c *Client) SetHTTPClient(client *http.Client) {
	c.httpClient = client
}

// CompanyFilings fetches and decodes the company's submissions feed. The
// returned filings keep the feed's reverse-chronological order.
func (c *Client) CompanyFilings(ctx context.Context, cik int64) ([]Filing, error) {
	url := fmt.Sprintf("%s/submissions/CIK%010d.json", c.config.SubmissionsBaseURL, cik)

	body, err := c.getCached(ctx, url, "submissions")
	if err != nil {
		return nil, err
	}

	var doc submissionsDocument
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("decode submissions for CIK %d: %w", cik, err)
	}

	filings := doc.filings(cik)
	c.logger.Debug().
		Int64("cik", cik).
		Int("filings", len(filings)).
		Msg("Fetched company submissions")

	return filings, nil
}

// LatestFiling returns the newest filing matching the form type, relying on
// the feed's reverse-chronological order.
func (c *Client) LatestFiling(ctx context.Context, cik int64, form string) (*Filing, error) {
	filings, err := c.CompanyFilings(ctx, cik)
	if err != nil {
		return nil, err
	}

	for i := range filings {
		if strings.EqualFold(filings[i].Form, form) {
			return &filings[i], nil
		}
	}

	return nil, &EDGARError{
		ErrorClass: ErrorClassClient,
		Message:    fmt.Sprintf("CIK %d has no %s filing", cik, form),
		Err:        ErrNoFiling,
	}
}

// FetchDocument downloads the filing's primary document from the Archives.
func (c *Client) FetchDocument(ctx context.Context, filing *Filing) ([]byte, error) {
	url := c.config.ArchivesBaseURL + filing.ArchivePath()

	body, err := c.getCached(ctx, url, "document")
	if err != nil {
		return nil, err
	}

	c.logger.Debug().
		Str("accession", filing.AccessionNumber).
		Str("document", filing.PrimaryDocument).
		Int("bytes", len(body)).
		Msg("Fetched filing document")

	return body, nil
}

// FilingIndex fetches and parses the filing's archive directory listing.
func (c *Client) FilingIndex(ctx context.Context, filing *Filing) ([]IndexEntry, error) {
	url := c.config.ArchivesBaseURL + filing.IndexPath()

	body, err := c.getCached(ctx, url, "index")
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse filing index: %w", err)
	}

	var entries []IndexEntry
	doc.Find("table tr").Each(func(_ int, row *goquery.Selection) {
		link := row.Find("td a").First()
		href, ok := link.Attr("href")
		if !ok {
			return
		}
		entry := IndexEntry{
			Name: strings.TrimSpace(link.Text()),
			Href: href,
		}
		if cells := row.Find("td"); cells.Length() >= 3 {
			entry.Size = strings.TrimSpace(cells.Eq(cells.Length() - 1).Text())
		}
		entries = append(entries, entry)
	})

	if len(entries) == 0 {
		return nil, &EDGARError{
			ErrorClass: ErrorClassClient,
			URL:        url,
			Message:    fmt.Sprintf("accession %s", filing.AccessionNumber),
			Err:        ErrEmptyIndex,
		}
	}

	return entries, nil
}

// getCached serves url from the document cache when fresh, revalidates stale
// entries conditionally, and falls through to a plain fetch otherwise.
func (c *Client) getCached(ctx context.Context, url, endpoint string) ([]byte, error) {
	if c.cache == nil {
		body, _, err := c.do(ctx, url, endpoint, nil)
		return body, err
	}

	key := cache.KeyForURL(url)
	entry, err := c.cache.Get(ctx, key)
	if err != nil && !errors.Is(err, cache.ErrCacheMiss) {
		c.logger.Warn().Err(err).Str("endpoint", endpoint).Msg("Cache get error")
	}

	if entry != nil && !entry.Expired() {
		c.logger.Debug().Str("endpoint", endpoint).Str("url", url).Msg("Cache hit")
		return entry.Data, nil
	}

	// Miss or stale. A stale entry still contributes its validators so the
	// server can answer 304 instead of resending the body.
	body, resp, err := c.do(ctx, url, endpoint, entry)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusNotModified && entry != nil {
		entry.Refresh(c.cache.TTL())
		if err := c.cache.Set(ctx, key, entry); err != nil {
			c.logger.Warn().Err(err).Str("endpoint", endpoint).Msg("Cache refresh error")
		}
		c.logger.Debug().Str("endpoint", endpoint).Msg("304 Not Modified, reusing cached document")
		return entry.Data, nil
	}

	fresh := cache.NewEntry(body, resp.Header, c.cache.TTL())
	if err := c.cache.Set(ctx, key, fresh); err != nil {
		c.logger.Warn().Err(err).Str("endpoint", endpoint).Msg("Cache set error")
	}

	return body, nil
}

// do executes one GET against url and classifies failures. It never retries.
func (c *Client) do(ctx context.Context, url, endpoint string, cached *cache.Entry) ([]byte, *http.Response, error) {
	start := time.Now()
	defer func() {
		edgarRequestDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.config.UserAgent)
	if cached != nil {
		cache.AddConditionalHeaders(req, cached)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		edgarErrorsTotal.WithLabelValues(string(ErrorClassNetwork)).Inc()
		edgarRequestsTotal.WithLabelValues(endpoint, "network_error").Inc()
		c.logger.Warn().Err(err).Str("endpoint", endpoint).Str("url", url).Msg("Request failed")
		return nil, nil, &EDGARError{
			ErrorClass: ErrorClassNetwork,
			URL:        url,
			Message:    "request failed",
			Err:        err,
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotModified {
		edgarRequestsTotal.WithLabelValues(endpoint, "304").Inc()
		return nil, resp, nil
	}

	if resp.StatusCode >= 400 {
		class := classifyStatus(resp.StatusCode)
		edgarErrorsTotal.WithLabelValues(string(class)).Inc()
		edgarRequestsTotal.WithLabelValues(endpoint, strconv.Itoa(resp.StatusCode)).Inc()

		c.logger.Warn().
			Str("endpoint", endpoint).
			Str("url", url).
			Int("status", resp.StatusCode).
			Str("error_class", string(class)).
			Msg("EDGAR request error")

		return nil, resp, &EDGARError{
			StatusCode: resp.StatusCode,
			ErrorClass: class,
			URL:        url,
			Message:    resp.Status,
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		edgarErrorsTotal.WithLabelValues(string(ErrorClassNetwork)).Inc()
		edgarRequestsTotal.WithLabelValues(endpoint, "read_error").Inc()
		return nil, resp, &EDGARError{
			ErrorClass: ErrorClassNetwork,
			URL:        url,
			Message:    "read response body",
			Err:        err,
		}
	}

	edgarRequestsTotal.WithLabelValues(endpoint, strconv.Itoa(resp.StatusCode)).Inc()
	return body, resp, nil
}
