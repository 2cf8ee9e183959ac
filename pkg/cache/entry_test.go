package cache

import (
	"net/http"
	"testing"
	"time"
)

func TestEntry_Expired(t *testing.T) {
	tests := []struct {
		name    string
		expires time.Time
		want    bool
	}{
		{
			name:    "expired entry",
			expires: time.Now().Add(-1 * time.Hour),
			want:    true,
		},
		{
			name:    "valid entry",
			expires: time.Now().Add(1 * time.Hour),
			want:    false,
		},
		{
			name:    "just expired",
			expires: time.Now().Add(-1 * time.Second),
			want:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entry := &Entry{
				Expires: tt.expires,
			}
			if got := entry.Expired(); got != tt.want {
				t.Errorf("Expired() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEntry_TTL(t *testing.T) {
	tests := []struct {
		name    string
		expires time.Time
		wantMin time.Duration
		wantMax time.Duration
	}{
		{
			name:    "one hour remaining",
			expires: time.Now().Add(1 * time.Hour),
			wantMin: 59 * time.Minute,
			wantMax: 61 * time.Minute,
		},
		{
			name:    "already expired",
			expires: time.Now().Add(-1 * time.Hour),
			wantMin: 0,
			wantMax: 0,
		},
		{
			name:    "5 minutes remaining",
			expires: time.Now().Add(5 * time.Minute),
			wantMin: 4*time.Minute + 59*time.Second,
			wantMax: 5*time.Minute + 1*time.Second,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entry := &Entry{
				Expires: tt.expires,
			}
			got := entry.TTL()
			if got < tt.wantMin || got > tt.wantMax {
				t.Errorf("TTL() = %v, want between %v and %v", got, tt.wantMin, tt.wantMax)
			}
		})
	}
}

func TestNewEntry(t *testing.T) {
	header := http.Header{}
	header.Set("ETag", `"abc123"`)
	header.Set("Last-Modified", "Fri, 01 Nov 2024 06:01:36 GMT")

	entry := NewEntry([]byte("<html>filing</html>"), header, time.Hour)

	if string(entry.Data) != "<html>filing</html>" {
		t.Errorf("Data = %s, want filing body", entry.Data)
	}
	if entry.ETag != `"abc123"` {
		t.Errorf("ETag = %s, want \"abc123\"", entry.ETag)
	}
	if entry.LastModified.IsZero() {
		t.Error("LastModified not parsed from header")
	}
	if entry.Expired() {
		t.Error("New entry must start fresh")
	}

	ttl := entry.TTL()
	if ttl < 59*time.Minute || ttl > time.Hour {
		t.Errorf("TTL() = %v, want close to 1h", ttl)
	}
}

func TestNewEntry_NoHeaders(t *testing.T) {
	entry := NewEntry([]byte("data"), nil, time.Hour)

	if entry.ETag != "" {
		t.Errorf("ETag = %s, want empty", entry.ETag)
	}
	if !entry.LastModified.IsZero() {
		t.Errorf("LastModified = %v, want zero", entry.LastModified)
	}
}

func TestEntry_Refresh(t *testing.T) {
	entry := &Entry{
		Data:    []byte("data"),
		Expires: time.Now().Add(-time.Minute),
	}
	if !entry.Expired() {
		t.Fatal("Entry should start expired")
	}

	entry.Refresh(time.Hour)

	if entry.Expired() {
		t.Error("Refreshed entry reported Expired() = true")
	}
	ttl := entry.TTL()
	if ttl < 59*time.Minute || ttl > time.Hour {
		t.Errorf("TTL() after Refresh = %v, want close to 1h", ttl)
	}
}

func TestAddConditionalHeaders(t *testing.T) {
	tests := []struct {
		name              string
		entry             *Entry
		wantIfNoneMatch   string
		wantIfModifiedSet bool
	}{
		{
			name:  "nil entry adds nothing",
			entry: nil,
		},
		{
			name:  "entry without validators adds nothing",
			entry: &Entry{Data: []byte("x")},
		},
		{
			name:            "etag preferred",
			entry:           &Entry{ETag: `"v2"`, LastModified: time.Now()},
			wantIfNoneMatch: `"v2"`,
		},
		{
			name:              "last-modified fallback",
			entry:             &Entry{LastModified: time.Date(2024, 11, 1, 6, 1, 36, 0, time.UTC)},
			wantIfModifiedSet: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := http.NewRequest(http.MethodGet, "https://www.sec.gov/Archives/edgar/data/320193/", nil)
			if err != nil {
				t.Fatalf("NewRequest failed: %v", err)
			}

			AddConditionalHeaders(req, tt.entry)

			if got := req.Header.Get("If-None-Match"); got != tt.wantIfNoneMatch {
				t.Errorf("If-None-Match = %q, want %q", got, tt.wantIfNoneMatch)
			}
			if got := req.Header.Get("If-Modified-Since"); (got != "") != tt.wantIfModifiedSet {
				t.Errorf("If-Modified-Since = %q, wantSet %v", got, tt.wantIfModifiedSet)
			}
			if tt.wantIfNoneMatch != "" && req.Header.Get("If-Modified-Since") != "" {
				t.Error("If-Modified-Since set alongside If-None-Match")
			}
		})
	}
}
