// Package fetch downloads legislation pages over HTTP with rate
// limiting, retries and a persistent disk cache.
//
// Legislation portals are slow and occasionally flaky, and many of them
// gate content behind session cookies or user-agent checks. The client
// here keeps request pacing polite, retries transient failures, and
// caches successful responses on disk so repeated reconstruction runs
// do not hammer the source site.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/avast/retry-go/v4"
)

// HTTPClient is the subset of *http.Client the fetch client needs.
// Tests substitute their own implementations.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// DefaultRequestInterval is the default spacing between requests.
// Legislation portals tend to be small government sites; one request a
// second keeps a full-code crawl polite.
const DefaultRequestInterval = 1 * time.Second

// DefaultCacheTTL is the default lifetime of cached pages. Legislation
// text changes rarely; a day-long cache keeps reruns cheap without
// serving stale amendments for long.
const DefaultCacheTTL = 24 * time.Hour

// DefaultRetries is the default number of attempts per request.
const DefaultRetries = 3

// DefaultUserAgent identifies the client to the portal.
const DefaultUserAgent = "lexstruct/1.0 (+https://github.com/coolbeans/lexstruct)"

// Config controls client behavior. The zero value is usable; zero
// fields fall back to the package defaults.
type Config struct {
	// UserAgent is sent as the User-Agent header on every request.
	UserAgent string `json:"user_agent" yaml:"user_agent"`

	// Headers are extra headers sent on every request.
	Headers map[string]string `json:"headers" yaml:"headers"`

	// Cookies are sent on every request. Some portals require a
	// session cookie obtained out of band before serving full text.
	Cookies map[string]string `json:"cookies" yaml:"cookies"`

	// RequestInterval is the minimum spacing between requests.
	RequestInterval time.Duration `json:"request_interval" yaml:"request_interval"`

	// Timeout bounds a single attempt.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// Retries is the number of attempts per request.
	Retries uint `json:"retries" yaml:"retries"`

	// CacheDir enables the disk cache when non-empty.
	CacheDir string `json:"cache_dir" yaml:"cache_dir"`

	// CacheTTL is the lifetime of cached entries.
	CacheTTL time.Duration `json:"cache_ttl" yaml:"cache_ttl"`
}

// FetchResult holds one downloaded page.
type FetchResult struct {
	URL        string    `json:"url"`
	StatusCode int       `json:"status_code"`
	Body       string    `json:"body"`
	FetchedAt  time.Time `json:"fetched_at"`

	// FromCache reports whether the result was served from the disk
	// cache rather than the network. Not persisted with the entry.
	FromCache bool `json:"-"`
}

// throttle hands out send slots spaced at least one interval apart.
// Each caller claims the next free slot under the lock and sleeps
// outside it, so concurrent fetches queue up instead of bursting.
type throttle struct {
	mu       sync.Mutex
	interval time.Duration
	nextSlot time.Time
}

func newThrottle(interval time.Duration) *throttle {
	return &throttle{interval: interval}
}

// wait blocks until this caller's slot arrives or ctx is done.
func (t *throttle) wait(ctx context.Context) error {
	t.mu.Lock()
	now := time.Now()
	slot := t.nextSlot
	if slot.Before(now) {
		slot = now
	}
	t.nextSlot = slot.Add(t.interval)
	t.mu.Unlock()

	delay := time.Until(slot)
	if delay <= 0 {
		return nil
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Client fetches legislation pages with rate limiting, retries and
// optional disk caching.
type Client struct {
	httpClient HTTPClient
	pacer      *throttle
	config     Config
	cache      *PageCache
}

// NewClient creates a fetch client from the given configuration. When
// config.CacheDir is set the disk cache is created eagerly so that
// permission problems surface at construction time, not mid-run.
func NewClient(config Config) (*Client, error) {
	if config.UserAgent == "" {
		config.UserAgent = DefaultUserAgent
	}
	if config.RequestInterval <= 0 {
		config.RequestInterval = DefaultRequestInterval
	}
	if config.Timeout <= 0 {
		config.Timeout = 30 * time.Second
	}
	if config.Retries == 0 {
		config.Retries = DefaultRetries
	}
	if config.CacheTTL <= 0 {
		config.CacheTTL = DefaultCacheTTL
	}

	client := &Client{
		httpClient: &http.Client{Timeout: config.Timeout},
		pacer:      newThrottle(config.RequestInterval),
		config:     config,
	}

	if config.CacheDir != "" {
		cache, err := NewPageCache(config.CacheDir, config.CacheTTL)
		if err != nil {
			return nil, err
		}
		client.cache = cache
	}

	return client, nil
}

// NewClientWithHTTPClient creates a fetch client using a caller-supplied
// HTTPClient with no request pacing. Intended for tests.
func NewClientWithHTTPClient(config Config, httpClient HTTPClient) *Client {
	if config.UserAgent == "" {
		config.UserAgent = DefaultUserAgent
	}
	if config.Retries == 0 {
		config.Retries = DefaultRetries
	}
	return &Client{httpClient: httpClient, config: config}
}

// Get downloads the page at url, consulting the cache first. Transient
// failures (network errors and 5xx responses) are retried; a 4xx
// response fails immediately since retrying cannot help.
func (client *Client) Get(ctx context.Context, url string) (FetchResult, error) {
	if client.cache != nil {
		if cachedResult, found := client.cache.Lookup(url); found {
			cachedResult.FromCache = true
			return cachedResult, nil
		}
	}

	var result FetchResult
	err := retry.Do(
		func() error {
			attemptResult, attemptErr := client.fetchOnce(ctx, url)
			if attemptErr != nil {
				return attemptErr
			}
			result = attemptResult
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(client.config.Retries),
		retry.Delay(1*time.Second),
		retry.RetryIf(func(err error) bool {
			var permanent *permanentError
			return !errors.As(err, &permanent)
		}),
	)
	if err != nil {
		return FetchResult{}, fmt.Errorf("fetching %s: %w", url, err)
	}

	if client.cache != nil {
		if cacheErr := client.cache.Store(url, result); cacheErr != nil {
			return result, cacheErr
		}
	}

	return result, nil
}

// SavePage writes a fetched page to htmlDir as a .html file named after
// the given base name, and returns the written path.
func (client *Client) SavePage(result FetchResult, htmlDir, baseName string) (string, error) {
	if err := os.MkdirAll(htmlDir, 0o755); err != nil {
		return "", fmt.Errorf("creating html directory %s: %w", htmlDir, err)
	}

	pagePath := filepath.Join(htmlDir, sanitizeFileName(baseName)+".html")
	if err := os.WriteFile(pagePath, []byte(result.Body), 0o644); err != nil {
		return "", fmt.Errorf("writing page %s: %w", pagePath, err)
	}

	return pagePath, nil
}

// fetchOnce waits for a send slot and performs a single HTTP attempt.
func (client *Client) fetchOnce(ctx context.Context, url string) (FetchResult, error) {
	if client.pacer != nil {
		if err := client.pacer.wait(ctx); err != nil {
			return FetchResult{}, &permanentError{err}
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return FetchResult{}, &permanentError{fmt.Errorf("building request: %w", err)}
	}

	req.Header.Set("User-Agent", client.config.UserAgent)
	for name, value := range client.config.Headers {
		req.Header.Set(name, value)
	}
	for name, value := range client.config.Cookies {
		req.AddCookie(&http.Cookie{Name: name, Value: value})
	}

	resp, err := client.httpClient.Do(req)
	if err != nil {
		return FetchResult{}, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return FetchResult{}, fmt.Errorf("reading response body: %w", err)
	}

	if resp.StatusCode >= 500 {
		return FetchResult{}, fmt.Errorf("server error: HTTP %d", resp.StatusCode)
	}
	if resp.StatusCode >= 400 {
		return FetchResult{}, &permanentError{fmt.Errorf("HTTP %d", resp.StatusCode)}
	}

	return FetchResult{
		URL:        url,
		StatusCode: resp.StatusCode,
		Body:       string(body),
		FetchedAt:  time.Now().UTC(),
	}, nil
}

// permanentError marks a failure that retrying cannot fix.
type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// sanitizeFileName replaces path-hostile characters so a document title
// can serve as a filename.
func sanitizeFileName(name string) string {
	replacer := strings.NewReplacer("/", "_", "\\", "_", ":", "_", " ", "_")
	sanitized := replacer.Replace(strings.TrimSpace(name))
	if sanitized == "" {
		sanitized = "page"
	}
	return sanitized
}
