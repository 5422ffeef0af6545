package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func TestGetSendsConfiguredHeadersAndCookies(t *testing.T) {
	var gotUserAgent, gotHeader, gotCookie string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUserAgent = r.Header.Get("User-Agent")
		gotHeader = r.Header.Get("X-Requested-With")
		if cookie, err := r.Cookie("session"); err == nil {
			gotCookie = cookie.Value
		}
		w.Write([]byte("<html>ok</html>"))
	}))
	defer server.Close()

	client := NewClientWithHTTPClient(Config{
		UserAgent: "test-agent",
		Headers:   map[string]string{"X-Requested-With": "XMLHttpRequest"},
		Cookies:   map[string]string{"session": "abc123"},
	}, server.Client())

	result, err := client.Get(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}

	if gotUserAgent != "test-agent" {
		t.Errorf("user agent: got %q", gotUserAgent)
	}
	if gotHeader != "XMLHttpRequest" {
		t.Errorf("header: got %q", gotHeader)
	}
	if gotCookie != "abc123" {
		t.Errorf("cookie: got %q", gotCookie)
	}
	if result.Body != "<html>ok</html>" {
		t.Errorf("body: got %q", result.Body)
	}
	if result.StatusCode != http.StatusOK {
		t.Errorf("status: got %d", result.StatusCode)
	}
}

func TestGetRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			http.Error(w, "temporarily unavailable", http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte("finally"))
	}))
	defer server.Close()

	client := NewClientWithHTTPClient(Config{Retries: 3}, server.Client())

	result, err := client.Get(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Get failed after retries: %v", err)
	}
	if result.Body != "finally" {
		t.Errorf("body: got %q", result.Body)
	}
	if calls.Load() != 3 {
		t.Errorf("attempts: got %d, want 3", calls.Load())
	}
}

func TestGetDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.NotFound(w, r)
	}))
	defer server.Close()

	client := NewClientWithHTTPClient(Config{Retries: 3}, server.Client())

	if _, err := client.Get(context.Background(), server.URL); err == nil {
		t.Fatal("expected error for HTTP 404")
	}
	if calls.Load() != 1 {
		t.Errorf("attempts: got %d, want 1 (no retry on 4xx)", calls.Load())
	}
}

func TestGetServesFromCache(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Write([]byte("page body"))
	}))
	defer server.Close()

	cache, err := NewPageCache(t.TempDir(), time.Hour)
	if err != nil {
		t.Fatalf("NewPageCache failed: %v", err)
	}
	client := NewClientWithHTTPClient(Config{}, server.Client())
	client.cache = cache

	first, err := client.Get(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("first Get failed: %v", err)
	}
	second, err := client.Get(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("second Get failed: %v", err)
	}

	if calls.Load() != 1 {
		t.Errorf("server calls: got %d, want 1 (second hit from cache)", calls.Load())
	}
	if first.FromCache {
		t.Error("first result should not be from cache")
	}
	if !second.FromCache {
		t.Error("second result should be from cache")
	}
	if second.Body != "page body" {
		t.Errorf("cached body: got %q", second.Body)
	}
}

func TestPageCacheStoresRawHTMLWithSidecar(t *testing.T) {
	cacheDir := t.TempDir()
	cache, err := NewPageCache(cacheDir, time.Hour)
	if err != nil {
		t.Fatalf("NewPageCache failed: %v", err)
	}

	page := FetchResult{
		URL:        "http://example.com/cap1",
		StatusCode: http.StatusOK,
		Body:       "<html><body>1. Short title</body></html>",
		FetchedAt:  time.Now().UTC(),
	}
	if err := cache.Store(page.URL, page); err != nil {
		t.Fatalf("Store failed: %v", err)
	}

	// The body sits on disk as a plain .html file, readable without
	// going through the cache.
	var htmlFiles, sidecars int
	entries, err := os.ReadDir(cacheDir)
	if err != nil {
		t.Fatalf("reading cache dir: %v", err)
	}
	for _, entry := range entries {
		switch {
		case strings.HasSuffix(entry.Name(), ".meta.json"):
			sidecars++
		case strings.HasSuffix(entry.Name(), ".html"):
			htmlFiles++
			data, err := os.ReadFile(filepath.Join(cacheDir, entry.Name()))
			if err != nil {
				t.Fatalf("reading cached body: %v", err)
			}
			if string(data) != page.Body {
				t.Errorf("cached body: got %q", data)
			}
		}
	}
	if htmlFiles != 1 || sidecars != 1 {
		t.Errorf("cache files: got %d html and %d sidecars, want 1 each", htmlFiles, sidecars)
	}

	restored, found := cache.Lookup(page.URL)
	if !found {
		t.Fatal("Lookup missed a stored page")
	}
	if restored.Body != page.Body || restored.StatusCode != http.StatusOK {
		t.Errorf("restored page: %+v", restored)
	}
}

func TestPageCacheExpiryEvictsPair(t *testing.T) {
	cacheDir := t.TempDir()
	cache, err := NewPageCache(cacheDir, -time.Second)
	if err != nil {
		t.Fatalf("NewPageCache failed: %v", err)
	}

	if err := cache.Store("http://example.com/cap1", FetchResult{Body: "stale"}); err != nil {
		t.Fatalf("Store failed: %v", err)
	}
	if _, found := cache.Lookup("http://example.com/cap1"); found {
		t.Error("expired page should not be returned")
	}

	entries, err := os.ReadDir(cacheDir)
	if err != nil {
		t.Fatalf("reading cache dir: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("expired pair not evicted, %d files remain", len(entries))
	}
}

func TestPageCacheMissingSidecarMisses(t *testing.T) {
	cacheDir := t.TempDir()
	cache, err := NewPageCache(cacheDir, time.Hour)
	if err != nil {
		t.Fatalf("NewPageCache failed: %v", err)
	}

	if err := cache.Store("http://example.com/cap1", FetchResult{Body: "page"}); err != nil {
		t.Fatalf("Store failed: %v", err)
	}

	entries, _ := os.ReadDir(cacheDir)
	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), ".meta.json") {
			os.Remove(filepath.Join(cacheDir, entry.Name()))
		}
	}

	if _, found := cache.Lookup("http://example.com/cap1"); found {
		t.Error("body without sidecar should miss")
	}
}

func TestSavePage(t *testing.T) {
	client := NewClientWithHTTPClient(Config{}, http.DefaultClient)
	htmlDir := t.TempDir()

	pagePath, err := client.SavePage(FetchResult{Body: "<html>text</html>"}, htmlDir, "Penal Code: Cap 1")
	if err != nil {
		t.Fatalf("SavePage failed: %v", err)
	}

	if !strings.HasSuffix(pagePath, ".html") {
		t.Errorf("path: got %q, want .html suffix", pagePath)
	}
	if strings.ContainsAny(filepath.Base(pagePath), ": /") {
		t.Errorf("filename not sanitized: %q", filepath.Base(pagePath))
	}

	data, err := os.ReadFile(pagePath)
	if err != nil {
		t.Fatalf("reading saved page: %v", err)
	}
	if string(data) != "<html>text</html>" {
		t.Errorf("saved content: got %q", data)
	}
}

func TestThrottleSpacesSlots(t *testing.T) {
	pacer := newThrottle(50 * time.Millisecond)
	ctx := context.Background()

	start := time.Now()
	for i := 0; i < 3; i++ {
		if err := pacer.wait(ctx); err != nil {
			t.Fatalf("wait failed: %v", err)
		}
	}

	// Slot one is immediate; slots two and three are each an interval
	// later.
	if elapsed := time.Since(start); elapsed < 100*time.Millisecond {
		t.Errorf("three slots granted in %v, want at least 100ms of pacing", elapsed)
	}
}

func TestThrottleHonorsContextCancellation(t *testing.T) {
	pacer := newThrottle(time.Hour)

	if err := pacer.wait(context.Background()); err != nil {
		t.Fatalf("first slot should be immediate: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := pacer.wait(ctx); err == nil {
		t.Error("expected context error while waiting out an hour-long interval")
	}
}
