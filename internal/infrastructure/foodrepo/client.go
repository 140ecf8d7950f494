package foodrepo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/welfaremap/backend/internal/domain"
)

const (
	defaultBaseURL           = "https://www.foodrepo.org/api/v3"
	defaultRequestsPerSecond = 5.0
	requestTimeout           = 30 * time.Second
	maxRetries               = 3
)

// Config holds the FoodRepo client settings.
type Config struct {
	APIKey            string
	BaseURL           string
	RequestsPerSecond float64
}

// Client pages through the FoodRepo v3 product catalog. Requests are
// rate-limited and retried with linear backoff; credential rejections are
// never retried.
type Client struct {
	httpClient  *http.Client
	apiKey      string
	baseURL     string
	rateLimiter *rate.Limiter
}

// NewClient creates a catalog client. The API key is required.
func NewClient(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: foodrepo api key", domain.ErrMissingCredentials)
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = defaultRequestsPerSecond
	}

	return &Client{
		httpClient:  &http.Client{Timeout: requestTimeout},
		apiKey:      cfg.APIKey,
		baseURL:     strings.TrimRight(baseURL, "/"),
		rateLimiter: rate.NewLimiter(rate.Limit(rps), 1),
	}, nil
}

// ForEachProduct walks the catalog page by page, invoking fn for every record
// that carries a barcode. It stops after limit records when limit is positive
// and propagates the first error from fn.
func (c *Client) ForEachProduct(ctx context.Context, limit int, fn func(domain.ProductRecord) error) error {
	pageURL := c.baseURL + "/products"
	count := 0

	for pageURL != "" {
		page, err := c.fetchPage(ctx, pageURL)
		if err != nil {
			return err
		}

		log.Debug().
			Str("url", pageURL).
			Int("entries", len(page.Data)).
			Int("collected", count).
			Msg("fetched catalog page")

		for _, entry := range page.Data {
			record, ok := mapProduct(entry)
			if !ok {
				continue
			}
			if err := fn(record); err != nil {
				return err
			}
			count++
			if limit > 0 && count >= limit {
				return nil
			}
		}

		pageURL = page.Links.Next
	}

	return nil
}

// FetchProducts collects catalog records into a slice. For large pulls prefer
// ForEachProduct.
func (c *Client) FetchProducts(ctx context.Context, limit int) ([]domain.ProductRecord, error) {
	var records []domain.ProductRecord
	err := c.ForEachProduct(ctx, limit, func(record domain.ProductRecord) error {
		records = append(records, record)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

func (c *Client) fetchPage(ctx context.Context, pageURL string) (*productsResponse, error) {
	var lastErr error

	for attempt := 1; attempt <= maxRetries; attempt++ {
		if err := c.rateLimiter.Wait(ctx); err != nil {
			return nil, err
		}

		page, err := c.doRequest(ctx, pageURL)
		if err == nil {
			return page, nil
		}
		lastErr = err

		if errors.Is(err, domain.ErrMissingCredentials) {
			return nil, err
		}
		if attempt < maxRetries {
			log.Warn().
				Err(err).
				Int("attempt", attempt).
				Str("url", pageURL).
				Msg("catalog request failed, retrying")
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(time.Duration(attempt*500) * time.Millisecond):
			}
		}
	}

	return nil, lastErr
}

func (c *Client) doRequest(ctx context.Context, pageURL string) (*productsResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", fmt.Sprintf("Token token=\"%s\"", c.apiKey))
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrCatalogUnavailable, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusUnauthorized, http.StatusForbidden:
		return nil, fmt.Errorf("%w: catalog rejected request with status %d", domain.ErrMissingCredentials, resp.StatusCode)
	case http.StatusTooManyRequests:
		return nil, domain.ErrRateLimited
	default:
		return nil, fmt.Errorf("%w: unexpected status %d", domain.ErrCatalogUnavailable, resp.StatusCode)
	}

	var page productsResponse
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, fmt.Errorf("%w: decoding response: %v", domain.ErrCatalogUnavailable, err)
	}

	return &page, nil
}
