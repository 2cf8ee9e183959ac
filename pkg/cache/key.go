package cache

import (
	"fmt"
	"net/url"
	"strings"
)

// Key identifies a cached EDGAR response by request location.
type Key struct {
	// Host is the serving host (data.sec.gov or www.sec.gov)
	Host string

	// Path is the request path, without query
	Path string
}

// KeyForURL derives the cache key from a request URL. Malformed URLs fall
// back to using the raw string as the path so the key stays deterministic.
func KeyForURL(rawURL string) Key {
	u, err := url.Parse(rawURL)
	if err != nil {
		return Key{Path: rawURL}
	}
	return Key{
		Host: u.Host,
		Path: u.Path,
	}
}

// String generates the deterministic Redis key string.
// Format: edgar:host:path
//
// Example:
//
//	edgar:data.sec.gov:/submissions/CIK0000320193.json
func (k Key) String() string {
	path := k.Path
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return fmt.Sprintf("edgar:%s:%s", k.Host, path)
}
