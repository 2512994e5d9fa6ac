package ics

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"
)

// maxFeedBytes caps the size of a downloaded feed.
const maxFeedBytes = 10 << 20

// Source is a single ICS subscription.
type Source struct {
	ID  string
	URL string
}

// FetchResult is the outcome of fetching one source.
type FetchResult struct {
	Source    Source
	Body      []byte
	FromCache bool
}

type cacheEntry struct {
	etag         string
	lastModified string
	body         []byte
	updatedAt    time.Time
}

// Fetcher downloads ICS feeds with conditional requests (ETag and
// Last-Modified). Bodies are cached in memory per URL and reused on 304, on
// network errors and on non-OK responses.
type Fetcher struct {
	client *http.Client

	mu    sync.Mutex
	cache map[string]cacheEntry
}

// NewFetcher creates a Fetcher. A zero timeout defaults to 15 seconds.
func NewFetcher(timeout time.Duration) *Fetcher {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Fetcher{
		client: &http.Client{Timeout: timeout},
		cache:  make(map[string]cacheEntry),
	}
}

// FetchOne fetches a single source.
func (f *Fetcher) FetchOne(ctx context.Context, src Source) (FetchResult, error) {
	if src.URL == "" {
		return FetchResult{}, errors.New("source URL is empty")
	}

	f.mu.Lock()
	cached, hasCache := f.cache[src.URL]
	f.mu.Unlock()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src.URL, nil)
	if err != nil {
		return FetchResult{}, err
	}
	if hasCache {
		if cached.etag != "" {
			req.Header.Set("If-None-Match", cached.etag)
		}
		if cached.lastModified != "" {
			req.Header.Set("If-Modified-Since", cached.lastModified)
		}
	}

	resp, err := f.client.Do(req)
	if err != nil {
		if hasCache {
			log.Printf("[ICS] Fetch %s (%s) failed, using cached body: %v", src.ID, redactURL(src.URL), err)
			return FetchResult{Source: src, Body: cached.body, FromCache: true}, nil
		}
		return FetchResult{}, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		body, err := io.ReadAll(io.LimitReader(resp.Body, maxFeedBytes))
		if err != nil {
			return FetchResult{}, err
		}
		f.mu.Lock()
		f.cache[src.URL] = cacheEntry{
			etag:         resp.Header.Get("ETag"),
			lastModified: resp.Header.Get("Last-Modified"),
			body:         body,
			updatedAt:    time.Now().UTC(),
		}
		f.mu.Unlock()
		log.Printf("[ICS] Fetched %s (%s): %d bytes", src.ID, redactURL(src.URL), len(body))
		return FetchResult{Source: src, Body: body}, nil

	case http.StatusNotModified:
		if !hasCache {
			return FetchResult{}, errors.New("received 304 Not Modified but no cached body available")
		}
		log.Printf("[ICS] Feed %s not modified, using cache", src.ID)
		return FetchResult{Source: src, Body: cached.body, FromCache: true}, nil

	default:
		if hasCache {
			log.Printf("[ICS] Fetch %s returned %s, using cached body", src.ID, resp.Status)
			return FetchResult{Source: src, Body: cached.body, FromCache: true}, nil
		}
		return FetchResult{}, fmt.Errorf("fetch %s: %s", src.ID, resp.Status)
	}
}

// FetchAll fetches every source. Failures are returned alongside the
// successful results so one broken feed does not block the others.
func (f *Fetcher) FetchAll(ctx context.Context, sources []Source) ([]FetchResult, []error) {
	results := make([]FetchResult, 0, len(sources))
	var errs []error
	for _, src := range sources {
		res, err := f.FetchOne(ctx, src)
		if err != nil {
			errs = append(errs, fmt.Errorf("feed %s: %w", src.ID, err))
			continue
		}
		results = append(results, res)
	}
	return results, errs
}

// redactURL keeps scheme and host, hiding paths and tokens from logs.
func redactURL(u string) string {
	i := strings.Index(u, "://")
	if i < 0 {
		return "ics://...(redacted)"
	}
	rest := u[i+3:]
	if j := strings.IndexByte(rest, '/'); j >= 0 {
		rest = rest[:j]
	}
	return u[:i+3] + rest + "/...(redacted)"
}
