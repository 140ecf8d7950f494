package domain

import (
	"context"
	"time"
)

// CacheRepository defines the interface for caching operations
type CacheRepository interface {
	Get(ctx context.Context, key string) (interface{}, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}

// CatalogClient defines the interface for the paginated product catalog.
// Implementations own pagination, rate limiting, and retries; callers see
// a plain sequence of records.
type CatalogClient interface {
	// FetchProducts collects up to limit records (0 means all pages).
	FetchProducts(ctx context.Context, limit int) ([]ProductRecord, error)

	// ForEachProduct streams records through fn without buffering pages.
	// A non-nil error from fn stops the iteration and is returned as-is.
	ForEachProduct(ctx context.Context, limit int, fn func(ProductRecord) error) error
}

// BrandProvider enriches catalog records with brand data by barcode.
type BrandProvider interface {
	ProductBrands(ctx context.Context, barcode string) ([]string, error)
}

// PageFetcher retrieves one reference page. Implementations own caching
// and rate limiting; any failure surfaces as a wrapped ErrPageFetchFailed.
type PageFetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// FallbackClassifier is the optional external classifier consulted when
// rule confidence is insufficient. A (nil, nil) return means "no answer"
// and must never abort the record being processed.
type FallbackClassifier interface {
	Classify(ctx context.Context, text string) (*ClassificationResult, error)
}
