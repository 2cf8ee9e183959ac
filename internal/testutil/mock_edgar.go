// Package testutil provides testing utilities for the EDGAR extraction
// pipeline.
package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// MockResponse defines the behavior of a mock EDGAR endpoint.
type MockResponse struct {
	StatusCode int
	Body       string
	Headers    map[string]string
	Delay      time.Duration

	// FailCount makes the first N requests to the path fail with
	// FailStatus (500 when unset) before the scripted response is served.
	FailCount  int
	FailStatus int
}

// MockEDGAR is a configurable mock EDGAR server for testing. It serves both
// the data.sec.gov submissions API and www.sec.gov Archives paths.
type MockEDGAR struct {
	server   *httptest.Server
	mu       sync.RWMutex
	handlers map[string]http.HandlerFunc

	requestCount     int64
	conditionalCount int64
	pathCounts       map[string]int
	lastHeader       http.Header
}

// NewMockEDGAR creates a new mock EDGAR server. Paths without a configured
// handler answer 404, matching EDGAR's behavior for unknown documents.
func NewMockEDGAR() *MockEDGAR {
	mock := &MockEDGAR{
		handlers:   make(map[string]http.HandlerFunc),
		pathCounts: make(map[string]int),
	}

	mock.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mock.mu.Lock()
		mock.requestCount++
		mock.pathCounts[r.URL.Path]++
		mock.lastHeader = r.Header.Clone()
		if r.Header.Get("If-None-Match") != "" || r.Header.Get("If-Modified-Since") != "" {
			mock.conditionalCount++
		}
		mock.mu.Unlock()

		mock.mu.RLock()
		handler, exists := mock.handlers[r.URL.Path]
		mock.mu.RUnlock()

		if exists {
			handler(w, r)
			return
		}

		http.Error(w, "mock EDGAR: no such document", http.StatusNotFound)
	}))

	return mock
}

// URL returns the mock server URL, usable as both the submissions and the
// archives base URL.
func (m *MockEDGAR) URL() string {
	return m.server.URL
}

// Close shuts down the mock server.
func (m *MockEDGAR) Close() {
	m.server.Close()
}

// Reset clears all tracking counters.
func (m *MockEDGAR) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requestCount = 0
	m.conditionalCount = 0
	m.pathCounts = make(map[string]int)
	m.lastHeader = nil
}

// SetHandler sets a custom handler for a specific path.
func (m *MockEDGAR) SetHandler(path string, handler http.HandlerFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[path] = handler
}

// SetResponse configures a scripted response for a path, including the
// fail-N-times-then-succeed behavior used by retry tests.
func (m *MockEDGAR) SetResponse(path string, resp MockResponse) {
	var failed atomic.Int64

	m.SetHandler(path, func(w http.ResponseWriter, r *http.Request) {
		if resp.Delay > 0 {
			time.Sleep(resp.Delay)
		}

		if resp.FailCount > 0 && failed.Add(1) <= int64(resp.FailCount) {
			status := resp.FailStatus
			if status == 0 {
				status = http.StatusInternalServerError
			}
			http.Error(w, "mock EDGAR: scripted failure", status)
			return
		}

		for key, value := range resp.Headers {
			w.Header().Set(key, value)
		}
		w.WriteHeader(resp.StatusCode)
		if resp.Body != "" {
			w.Write([]byte(resp.Body))
		}
	})
}

// RequestCount returns the total number of requests served.
func (m *MockEDGAR) RequestCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return int(m.requestCount)
}

// ConditionalCount returns the number of conditional requests received.
func (m *MockEDGAR) ConditionalCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return int(m.conditionalCount)
}

// PathCount returns the number of requests served for one path.
func (m *MockEDGAR) PathCount(path string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.pathCounts[path]
}

// LastRequestHeader returns the headers of the most recent request.
func (m *MockEDGAR) LastRequestHeader() http.Header {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastHeader
}

// MockFiling describes one filing row for SubmissionsJSON.
type MockFiling struct {
	AccessionNumber string
	Form            string
	FilingDate      string
	ReportDate      string
	PrimaryDocument string
}

// SubmissionsJSON renders a company submissions feed in EDGAR's
// column-oriented layout. Filings must be passed newest first, matching the
// real feed.
func SubmissionsJSON(cik int64, name string, tickers []string, filings []MockFiling) string {
	type recent struct {
		AccessionNumber []string `json:"accessionNumber"`
		FilingDate      []string `json:"filingDate"`
		ReportDate      []string `json:"reportDate"`
		Form            []string `json:"form"`
		PrimaryDocument []string `json:"primaryDocument"`
	}

	feed := struct {
		CIK     string   `json:"cik"`
		Name    string   `json:"name"`
		Tickers []string `json:"tickers"`
		Filings struct {
			Recent recent `json:"recent"`
		} `json:"filings"`
	}{
		CIK:     fmt.Sprintf("%d", cik),
		Name:    name,
		Tickers: tickers,
	}

	for _, f := range filings {
		feed.Filings.Recent.AccessionNumber = append(feed.Filings.Recent.AccessionNumber, f.AccessionNumber)
		feed.Filings.Recent.FilingDate = append(feed.Filings.Recent.FilingDate, f.FilingDate)
		feed.Filings.Recent.ReportDate = append(feed.Filings.Recent.ReportDate, f.ReportDate)
		feed.Filings.Recent.Form = append(feed.Filings.Recent.Form, f.Form)
		feed.Filings.Recent.PrimaryDocument = append(feed.Filings.Recent.PrimaryDocument, f.PrimaryDocument)
	}

	data, err := json.Marshal(feed)
	if err != nil {
		panic(fmt.Sprintf("marshal mock submissions: %v", err))
	}
	return string(data)
}

// SubmissionsPath returns the submissions API path for a CIK.
func SubmissionsPath(cik int64) string {
	return fmt.Sprintf("/submissions/CIK%010d.json", cik)
}

// DocumentPath returns the Archives path for a filing document. The
// accession number may carry dashes; they are stripped like in real URLs.
func DocumentPath(cik int64, accession, document string) string {
	return fmt.Sprintf("/Archives/edgar/data/%d/%s/%s", cik, strings.ReplaceAll(accession, "-", ""), document)
}

// SetSubmissions serves a submissions feed for the CIK.
func (m *MockEDGAR) SetSubmissions(cik int64, body string) {
	m.SetResponse(SubmissionsPath(cik), MockResponse{
		StatusCode: http.StatusOK,
		Body:       body,
		Headers: map[string]string{
			"Content-Type": "application/json",
			"ETag":         fmt.Sprintf(`"submissions-%d"`, cik),
		},
	})
}

// SetDocument serves a filing document with conditional request support: a
// matching If-None-Match answers 304 Not Modified.
func (m *MockEDGAR) SetDocument(cik int64, accession, document, body string) {
	etag := fmt.Sprintf(`"%s-%s"`, strings.ReplaceAll(accession, "-", ""), document)

	m.SetHandler(DocumentPath(cik, accession, document), func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")

		if r.Header.Get("If-None-Match") == etag {
			w.WriteHeader(http.StatusNotModified)
			return
		}

		w.Header().Set("ETag", etag)
		w.Header().Set("Last-Modified", time.Now().Add(-24*time.Hour).Format(http.TimeFormat))
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(body))
	})
}

// SetFilingIndex serves a minimal archive directory listing naming the given
// documents.
func (m *MockEDGAR) SetFilingIndex(cik int64, accession string, documents []string) {
	dir := strings.ReplaceAll(accession, "-", "")
	var rows strings.Builder
	rows.WriteString("<html><body><table>\n")
	rows.WriteString("<tr><th>Name</th><th>Last Modified</th><th>Size</th></tr>\n")
	for _, doc := range documents {
		fmt.Fprintf(&rows, `<tr><td><a href="/Archives/edgar/data/%d/%s/%s">%s</a></td><td>2024-11-01 06:01:36</td><td>120 KB</td></tr>`+"\n",
			cik, dir, doc, doc)
	}
	rows.WriteString("</table></body></html>\n")

	m.SetResponse(fmt.Sprintf("/Archives/edgar/data/%d/%s/", cik, dir), MockResponse{
		StatusCode: http.StatusOK,
		Body:       rows.String(),
		Headers:    map[string]string{"Content-Type": "text/html"},
	})
}

// NewRateLimitResponse creates a 429 Too Many Requests response.
func NewRateLimitResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusTooManyRequests,
		Body:       `{"error": "Request rate exceeded"}`,
		Headers:    map[string]string{"Content-Type": "application/json"},
	}
}

// NewServerErrorResponse creates a 500 Internal Server Error response.
func NewServerErrorResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusInternalServerError,
		Body:       `{"error": "Internal server error"}`,
		Headers:    map[string]string{"Content-Type": "application/json"},
	}
}
