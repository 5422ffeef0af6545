package fetch

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// PageCache keeps fetched pages on disk. Each page is stored as the raw
// HTML body under <key>.html with a small <key>.meta.json sidecar
// carrying the URL, status and expiry, where key is the hex SHA-256 of
// the URL. Keeping the body as plain .html means cached pages double as
// the saved-page corpus: they can be opened in a browser or fed to the
// bulk runner directly.
type PageCache struct {
	dir string
	ttl time.Duration
}

// pageMeta is the sidecar written next to each cached body.
type pageMeta struct {
	URL        string    `json:"url"`
	StatusCode int       `json:"status_code"`
	FetchedAt  time.Time `json:"fetched_at"`
	ExpiresAt  time.Time `json:"expires_at"`
}

// NewPageCache opens (creating if needed) a page cache rooted at dir.
func NewPageCache(dir string, ttl time.Duration) (*PageCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating cache directory %s: %w", dir, err)
	}
	return &PageCache{dir: dir, ttl: ttl}, nil
}

// Lookup returns the cached page for url when both the body and a
// current sidecar are present. Expired or half-written pairs are
// evicted on the spot and miss.
func (cache *PageCache) Lookup(url string) (FetchResult, bool) {
	bodyPath, metaPath := cache.pathsFor(url)

	metaData, err := os.ReadFile(metaPath)
	if err != nil {
		return FetchResult{}, false
	}

	var meta pageMeta
	if err := json.Unmarshal(metaData, &meta); err != nil {
		cache.evict(url)
		return FetchResult{}, false
	}
	if time.Now().After(meta.ExpiresAt) {
		cache.evict(url)
		return FetchResult{}, false
	}

	body, err := os.ReadFile(bodyPath)
	if err != nil {
		cache.evict(url)
		return FetchResult{}, false
	}

	return FetchResult{
		URL:        meta.URL,
		StatusCode: meta.StatusCode,
		Body:       string(body),
		FetchedAt:  meta.FetchedAt,
	}, true
}

// Store writes a page's body and sidecar. The body goes first so a
// crash between the two writes leaves a pair Lookup treats as a miss.
func (cache *PageCache) Store(url string, result FetchResult) error {
	bodyPath, metaPath := cache.pathsFor(url)

	if err := os.WriteFile(bodyPath, []byte(result.Body), 0o644); err != nil {
		return fmt.Errorf("caching page body for %s: %w", url, err)
	}

	meta := pageMeta{
		URL:        result.URL,
		StatusCode: result.StatusCode,
		FetchedAt:  result.FetchedAt,
		ExpiresAt:  time.Now().Add(cache.ttl),
	}
	metaData, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding cache sidecar for %s: %w", url, err)
	}
	if err := os.WriteFile(metaPath, metaData, 0o644); err != nil {
		return fmt.Errorf("caching sidecar for %s: %w", url, err)
	}

	return nil
}

// evict drops both files of a cached pair, tolerating absence.
func (cache *PageCache) evict(url string) {
	bodyPath, metaPath := cache.pathsFor(url)
	_ = os.Remove(metaPath)
	_ = os.Remove(bodyPath)
}

// pathsFor returns the body and sidecar paths for a URL.
func (cache *PageCache) pathsFor(url string) (bodyPath, metaPath string) {
	digest := sha256.Sum256([]byte(url))
	key := hex.EncodeToString(digest[:])
	return filepath.Join(cache.dir, key+".html"), filepath.Join(cache.dir, key+".meta.json")
}
