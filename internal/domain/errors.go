package domain

import "errors"

var (
	// ErrProductNotFound is returned when a product cannot be found upstream
	ErrProductNotFound = errors.New("product not found")

	// ErrRateLimited is returned when an upstream rate limit is exceeded
	ErrRateLimited = errors.New("rate limit exceeded")

	// ErrInvalidRequest is returned when request parameters are invalid
	ErrInvalidRequest = errors.New("invalid request parameters")

	// ErrCatalogUnavailable is returned when a catalog API request fails
	ErrCatalogUnavailable = errors.New("catalog API request failed")

	// ErrMissingCredentials is returned when a required API key is not configured
	ErrMissingCredentials = errors.New("missing API credentials")

	// ErrPageFetchFailed is returned when a reference page cannot be fetched
	ErrPageFetchFailed = errors.New("page fetch failed")

	// ErrExtractionFailed is returned when neither extraction strategy
	// recovered both the tier and the step count from a page
	ErrExtractionFailed = errors.New("rating extraction failed")

	// ErrDuplicateRating is returned when a table build sees the same
	// (animal, label) key twice
	ErrDuplicateRating = errors.New("duplicate rating table key")

	// ErrAmbiguousRating is returned when a lookup hits a key that was
	// marked ambiguous during the table build
	ErrAmbiguousRating = errors.New("ambiguous rating table key")

	// ErrRatingNotFound is returned when the table has no entry for a key
	ErrRatingNotFound = errors.New("no rating for key")

	// ErrLabelUnresolved is returned when a label matches zero or more than
	// one canonical key
	ErrLabelUnresolved = errors.New("label could not be resolved to a canonical key")

	// ErrFallbackUnavailable is returned when the fallback classifier
	// cannot be reached or answered unusably
	ErrFallbackUnavailable = errors.New("fallback classifier unavailable")

	// ErrCacheMiss is returned when data is not found in cache
	ErrCacheMiss = errors.New("cache miss")

	// ErrCacheUnavailable is returned when cache service is unavailable
	ErrCacheUnavailable = errors.New("cache service unavailable")
)
