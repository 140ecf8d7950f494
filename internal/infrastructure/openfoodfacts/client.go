package openfoodfacts

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/welfaremap/backend/internal/domain"
)

const (
	defaultBaseURL = "https://world.openfoodfacts.org/api/v2"
	// Open Food Facts blocks clients without an identifying User-Agent.
	defaultUserAgent         = "welfaremap/1.0 (welfaremap@posteo.ch)"
	defaultRequestsPerSecond = 1.5
	defaultCacheTTL          = 24 * time.Hour
	requestTimeout           = 20 * time.Second
)

// Config holds the Open Food Facts client settings.
type Config struct {
	BaseURL           string
	UserAgent         string
	RequestsPerSecond float64
	CacheTTL          time.Duration
}

// Client looks up product brands on Open Food Facts. Lookups are rate-limited
// and cached, including negative results, so repeated runs do not hammer the
// public API for barcodes it does not know.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	userAgent   string
	rateLimiter *rate.Limiter
	cache       domain.CacheRepository
	cacheTTL    time.Duration
}

// brandsCacheEntry is the cached lookup outcome. Found false records a
// definitive "barcode unknown" answer.
type brandsCacheEntry struct {
	Found  bool     `json:"found"`
	Brands []string `json:"brands"`
}

type productResponse struct {
	Status  int `json:"status"`
	Product struct {
		Brands     string   `json:"brands"`
		BrandsTags []string `json:"brands_tags"`
	} `json:"product"`
}

// NewClient creates a brand lookup client. cache may be nil to disable
// caching; zero config values get defaults.
func NewClient(cfg Config, cache domain.CacheRepository) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = defaultRequestsPerSecond
	}
	cacheTTL := cfg.CacheTTL
	if cacheTTL <= 0 {
		cacheTTL = defaultCacheTTL
	}

	return &Client{
		httpClient:  &http.Client{Timeout: requestTimeout},
		baseURL:     strings.TrimRight(baseURL, "/"),
		userAgent:   userAgent,
		rateLimiter: rate.NewLimiter(rate.Limit(rps), 1),
		cache:       cache,
		cacheTTL:    cacheTTL,
	}
}

// ProductBrands returns the brands recorded for a barcode. An unknown barcode
// returns ErrProductNotFound; that answer is cached. Transport failures are
// returned as-is and never cached.
func (c *Client) ProductBrands(ctx context.Context, barcode string) ([]string, error) {
	if barcode == "" {
		return nil, fmt.Errorf("%w: empty barcode", domain.ErrInvalidRequest)
	}

	cacheKey := "off:brands:" + barcode
	if entry, ok := c.cachedEntry(ctx, cacheKey); ok {
		if !entry.Found {
			return nil, domain.ErrProductNotFound
		}
		return entry.Brands, nil
	}

	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/product/"+url.PathEscape(barcode), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("open food facts request: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		c.storeEntry(ctx, cacheKey, brandsCacheEntry{})
		return nil, domain.ErrProductNotFound
	case http.StatusTooManyRequests:
		return nil, domain.ErrRateLimited
	default:
		return nil, fmt.Errorf("open food facts status %d", resp.StatusCode)
	}

	var payload productResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("open food facts decode: %w", err)
	}

	if payload.Status != 1 {
		c.storeEntry(ctx, cacheKey, brandsCacheEntry{})
		return nil, domain.ErrProductNotFound
	}

	brands := splitBrands(payload.Product.Brands)
	if len(brands) == 0 {
		brands = payload.Product.BrandsTags
	}

	c.storeEntry(ctx, cacheKey, brandsCacheEntry{Found: true, Brands: brands})
	return brands, nil
}

// EnrichBrands fills in brands for records that lack them, in place. It
// returns how many records were enriched; per-barcode failures are logged
// and skipped, only cancellation aborts the pass.
func (c *Client) EnrichBrands(ctx context.Context, records []domain.ProductRecord) (int, error) {
	enriched := 0

	for i := range records {
		select {
		case <-ctx.Done():
			return enriched, ctx.Err()
		default:
		}

		if records[i].Barcode == "" || len(records[i].Brands) > 0 {
			continue
		}

		brands, err := c.ProductBrands(ctx, records[i].Barcode)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return enriched, err
			}
			if !errors.Is(err, domain.ErrProductNotFound) {
				log.Warn().Err(err).Str("barcode", records[i].Barcode).Msg("brand lookup failed")
			}
			continue
		}
		if len(brands) == 0 {
			continue
		}

		records[i].Brands = brands
		enriched++
	}

	log.Info().Int("enriched", enriched).Int("total", len(records)).Msg("brand enrichment finished")
	return enriched, nil
}

func (c *Client) cachedEntry(ctx context.Context, key string) (brandsCacheEntry, bool) {
	if c.cache == nil {
		return brandsCacheEntry{}, false
	}
	value, err := c.cache.Get(ctx, key)
	if err != nil {
		return brandsCacheEntry{}, false
	}
	// Values come back as plain JSON data; re-marshal to recover the entry.
	data, err := json.Marshal(value)
	if err != nil {
		return brandsCacheEntry{}, false
	}
	var entry brandsCacheEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return brandsCacheEntry{}, false
	}
	return entry, true
}

func (c *Client) storeEntry(ctx context.Context, key string, entry brandsCacheEntry) {
	if c.cache == nil {
		return
	}
	if err := c.cache.Set(ctx, key, entry, c.cacheTTL); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("brand cache write failed")
	}
}

func splitBrands(raw string) []string {
	var brands []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			brands = append(brands, part)
		}
	}
	return brands
}
