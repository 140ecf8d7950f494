package emh

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/welfaremap/backend/internal/domain"
)

const (
	defaultRequestsPerSecond = 1.0
	defaultUserAgent         = "welfaremap-scraper/1.0 (welfaremap@posteo.ch)"
	requestTimeout           = 20 * time.Second
	maxRetries               = 3
)

// FetcherConfig holds settings for the polite page fetcher.
type FetcherConfig struct {
	RequestsPerSecond float64
	UserAgent         string
	// CacheDir enables an on-disk page cache when set. Pages are keyed by
	// the MD5 of their URL so repeated harvests skip the network entirely.
	CacheDir string
	// Refresh bypasses cache reads while still writing fresh pages back.
	Refresh bool
}

// Fetcher downloads pages with rate limiting, retries, and an optional
// disk cache. It implements domain.PageFetcher.
type Fetcher struct {
	httpClient  *http.Client
	rateLimiter *rate.Limiter
	userAgent   string
	cacheDir    string
	refresh     bool
}

// NewFetcher creates a fetcher from the given configuration.
func NewFetcher(cfg FetcherConfig) *Fetcher {
	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = defaultRequestsPerSecond
	}
	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = defaultUserAgent
	}

	return &Fetcher{
		httpClient:  &http.Client{Timeout: requestTimeout},
		rateLimiter: rate.NewLimiter(rate.Limit(rps), 1),
		userAgent:   userAgent,
		cacheDir:    cfg.CacheDir,
		refresh:     cfg.Refresh,
	}
}

// Fetch returns the body of pageURL, serving from the disk cache when
// possible. Server errors are retried with backoff; a 404 is not.
func (f *Fetcher) Fetch(ctx context.Context, pageURL string) ([]byte, error) {
	cachePath := f.cachePath(pageURL)
	if cachePath != "" && !f.refresh {
		if data, err := os.ReadFile(cachePath); err == nil {
			log.Debug().Str("url", pageURL).Msg("page served from cache")
			return data, nil
		}
	}

	var lastErr error
	for attempt := 1; attempt <= maxRetries; attempt++ {
		if err := f.rateLimiter.Wait(ctx); err != nil {
			return nil, err
		}

		data, retryable, err := f.doRequest(ctx, pageURL)
		if err == nil {
			f.writeCache(cachePath, data)
			return data, nil
		}
		lastErr = err
		if !retryable {
			return nil, err
		}

		if attempt < maxRetries {
			log.Warn().Err(err).Str("url", pageURL).Int("attempt", attempt).Msg("page fetch failed, retrying")
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(time.Duration(attempt*500) * time.Millisecond):
			}
		}
	}

	return nil, lastErr
}

func (f *Fetcher) doRequest(ctx context.Context, pageURL string) ([]byte, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, false, fmt.Errorf("%w: creating request: %v", domain.ErrPageFetchFailed, err)
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, true, fmt.Errorf("%w: %v", domain.ErrPageFetchFailed, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusNotFound:
		return nil, false, fmt.Errorf("%w: status 404 for %s", domain.ErrPageFetchFailed, pageURL)
	default:
		return nil, true, fmt.Errorf("%w: status %d for %s", domain.ErrPageFetchFailed, resp.StatusCode, pageURL)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, true, fmt.Errorf("%w: reading body: %v", domain.ErrPageFetchFailed, err)
	}
	return data, false, nil
}

func (f *Fetcher) cachePath(pageURL string) string {
	if f.cacheDir == "" {
		return ""
	}
	sum := md5.Sum([]byte(pageURL))
	return filepath.Join(f.cacheDir, hex.EncodeToString(sum[:])+".html")
}

// writeCache is best effort: a failed write only costs a refetch later.
func (f *Fetcher) writeCache(path string, data []byte) {
	if path == "" {
		return
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		log.Warn().Err(err).Str("path", path).Msg("could not create cache directory")
		return
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		log.Warn().Err(err).Str("path", path).Msg("could not write cached page")
	}
}
