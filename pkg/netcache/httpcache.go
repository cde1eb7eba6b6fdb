// Package netcache fetches remote templates through a persistent HTTP cache.
package netcache

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/natefinch/atomic"
)

// ErrNotFound is returned by Get when the server answers 404.
var ErrNotFound = errors.New("remote resource not found")

// Cache provides a simple persistent HTTP cache with ETag/Last-Modified support.
type Cache struct {
	Dir    string
	Client *http.Client
	// Attempts bounds full fetches; network errors and 5xx answers are retried.
	Attempts int
	// Backoff is the delay before the second attempt; it doubles each retry.
	Backoff time.Duration
	Logger  *slog.Logger
}

// New returns a new Cache with a reasonable default HTTP client.
func New(dir string) *Cache {
	return &Cache{
		Dir: dir,
		Client: &http.Client{
			Timeout: 30 * time.Second,
		},
		Attempts: 3,
		Backoff:  500 * time.Millisecond,
		Logger:   slog.Default(),
	}
}

type meta struct {
	URL          string `json:"url"`
	ETag         string `json:"etag,omitempty"`
	LastModified string `json:"last_modified,omitempty"`
	// DataFile is the basename of the cached payload file
	DataFile string `json:"data_file"`
	Fetched  int64  `json:"fetched"`
}

// statusError is a non-success HTTP answer.
type statusError struct {
	url  string
	code int
}

func (e *statusError) Error() string { return fmt.Sprintf("GET %s: HTTP %d", e.url, e.code) }

func (e *statusError) retryable() bool { return e.code >= 500 }

// Get returns the body of url, revalidating a cached copy when there is one.
// A cached copy is also served when revalidation fails.
// Returns (body, fromCache, error).
func (c *Cache) Get(ctx context.Context, url string) ([]byte, bool, error) {
	key := hash(url)
	mpath := filepath.Join(c.Dir, key+".json")
	var m meta
	var haveMeta bool
	if b, err := os.ReadFile(mpath); err == nil {
		_ = json.Unmarshal(b, &m)
		// Validate basic consistency
		if m.URL == url && m.DataFile != "" && fileExists(filepath.Join(c.Dir, m.DataFile)) {
			haveMeta = true
		}
	}

	if haveMeta {
		body, fresh, err := c.revalidate(ctx, url, key, m)
		if err == nil {
			return body, !fresh, nil
		}
		var se *statusError
		if errors.As(err, &se) && se.code == http.StatusNotFound {
			return nil, false, fmt.Errorf("%w: %s", ErrNotFound, url)
		}
		// Serve the stale copy on network or server errors.
		if b, rerr := os.ReadFile(filepath.Join(c.Dir, m.DataFile)); rerr == nil {
			c.logger().Warn("serving stale cached copy", "url", url, "error", err)
			return b, true, nil
		}
	}

	var lastErr error
	attempts := max(c.Attempts, 1)
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			delay := c.Backoff << (attempt - 1)
			select {
			case <-ctx.Done():
				return nil, false, ctx.Err()
			case <-time.After(delay):
			}
		}
		body, err := c.fetch(ctx, url, key, nil)
		if err == nil {
			return body, false, nil
		}
		lastErr = err
		var se *statusError
		if errors.As(err, &se) {
			if se.code == http.StatusNotFound {
				return nil, false, fmt.Errorf("%w: %s", ErrNotFound, url)
			}
			if !se.retryable() {
				return nil, false, err
			}
		}
		if ctx.Err() != nil {
			return nil, false, ctx.Err()
		}
		c.logger().Debug("fetch failed", "url", url, "attempt", attempt+1, "error", err)
	}
	return nil, false, lastErr
}

// revalidate issues a conditional GET. fresh reports whether a new body
// was downloaded.
func (c *Cache) revalidate(ctx context.Context, url, key string, m meta) (body []byte, fresh bool, err error) {
	body, err = c.fetch(ctx, url, key, &m)
	if errors.Is(err, errNotModified) {
		b, err := os.ReadFile(filepath.Join(c.Dir, m.DataFile))
		return b, false, err
	}
	return body, err == nil, err
}

var errNotModified = errors.New("not modified")

// fetch downloads url and stores body and metadata in the cache. With prev
// set the request is conditional.
func (c *Cache) fetch(ctx context.Context, url, key string, prev *meta) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	if prev != nil {
		if prev.ETag != "" {
			req.Header.Set("If-None-Match", prev.ETag)
		}
		if prev.LastModified != "" {
			req.Header.Set("If-Modified-Since", prev.LastModified)
		}
	}
	resp, err := c.client().Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotModified && prev != nil {
		return nil, errNotModified
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &statusError{url: url, code: resp.StatusCode}
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	dataFile := key + ".data"
	if err := os.MkdirAll(c.Dir, 0o755); err != nil {
		return nil, err
	}
	if err := atomic.WriteFile(filepath.Join(c.Dir, dataFile), bytes.NewReader(body)); err != nil {
		return nil, err
	}
	nm := meta{
		URL:          url,
		ETag:         resp.Header.Get("ETag"),
		LastModified: resp.Header.Get("Last-Modified"),
		DataFile:     dataFile,
		Fetched:      time.Now().Unix(),
	}
	if err := writeMeta(filepath.Join(c.Dir, key+".json"), nm); err != nil {
		return nil, err
	}
	c.logger().Debug("cached remote template", "url", url, "size", len(body))
	return body, nil
}

func (c *Cache) client() *http.Client {
	if c.Client != nil {
		return c.Client
	}
	return http.DefaultClient
}

func (c *Cache) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.Default()
}

func writeMeta(path string, m meta) error {
	b, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	return atomic.WriteFile(path, bytes.NewReader(b))
}

func hash(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

func fileExists(p string) bool {
	st, err := os.Stat(p)
	return err == nil && !st.IsDir()
}
