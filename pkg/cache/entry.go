package cache

import (
	"net/http"
	"time"
)

// Entry represents a cached EDGAR response.
type Entry struct {
	// Data is the response body
	Data []byte `json:"data"`

	// ETag for conditional requests (If-None-Match)
	ETag string `json:"etag"`

	// LastModified is the document's last modification time
	// (from the Last-Modified header)
	LastModified time.Time `json:"last_modified"`

	// FetchedAt is when the response was fetched from EDGAR
	FetchedAt time.Time `json:"fetched_at"`

	// Expires is when the entry stops being served without revalidation
	Expires time.Time `json:"expires"`
}

// NewEntry builds an entry from a fetched response body and headers. The
// entry is fresh for ttl from now.
func NewEntry(data []byte, header http.Header, ttl time.Duration) *Entry {
	now := time.Now()
	entry := &Entry{
		Data:      data,
		FetchedAt: now,
		Expires:   now.Add(ttl),
	}
	if header == nil {
		return entry
	}

	entry.ETag = header.Get("ETag")
	if lastModStr := header.Get("Last-Modified"); lastModStr != "" {
		if lastMod, err := http.ParseTime(lastModStr); err == nil {
			entry.LastModified = lastMod
		}
	}
	return entry
}

// Expired returns true when the entry needs revalidation before reuse.
func (e *Entry) Expired() bool {
	return time.Now().After(e.Expires)
}

// TTL returns the time the entry stays fresh. Returns 0 if already expired.
func (e *Entry) TTL() time.Duration {
	ttl := time.Until(e.Expires)
	if ttl < 0 {
		return 0
	}
	return ttl
}

// Refresh extends the entry's freshness window by ttl from now. Used after a
// 304 Not Modified confirms the cached data is still current.
func (e *Entry) Refresh(ttl time.Duration) {
	e.Expires = time.Now().Add(ttl)
}

// AddConditionalHeaders adds If-None-Match (ETag) or If-Modified-Since
// headers to the request when the entry carries a validator.
func AddConditionalHeaders(req *http.Request, entry *Entry) {
	if entry == nil || req == nil {
		return
	}

	// ETag is the more precise validator, prefer it
	if entry.ETag != "" {
		req.Header.Set("If-None-Match", entry.ETag)
	} else if !entry.LastModified.IsZero() {
		req.Header.Set("If-Modified-Since", entry.LastModified.Format(http.TimeFormat))
	}
}
