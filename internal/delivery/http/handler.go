package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/welfaremap/backend/internal/domain"
	"github.com/welfaremap/backend/internal/textnorm"
	"github.com/welfaremap/backend/internal/usecase"
)

// Handler holds dependencies for HTTP handlers
type Handler struct {
	pipeline *usecase.PipelineService
	table    *domain.RatingTable
	resolver *usecase.RatingResolver
	brands   domain.BrandProvider
	cache    domain.CacheRepository
	cacheTTL time.Duration
}

// HandlerConfig wires the optional handler collaborators. A nil Brands
// provider disables barcode enrichment, a nil Cache disables response
// caching.
type HandlerConfig struct {
	Brands   domain.BrandProvider
	Cache    domain.CacheRepository
	CacheTTL time.Duration
}

// NewHandler creates a new HTTP handler
func NewHandler(pipeline *usecase.PipelineService, table *domain.RatingTable, resolver *usecase.RatingResolver, cfg HandlerConfig) *Handler {
	return &Handler{
		pipeline: pipeline,
		table:    table,
		resolver: resolver,
		brands:   cfg.Brands,
		cache:    cfg.Cache,
		cacheTTL: cfg.CacheTTL,
	}
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":        "healthy",
		"service":       "welfaremap-backend",
		"table_entries": h.table.Len(),
	})
}

// ListRatings returns every entry of the loaded rating table.
func (h *Handler) ListRatings(c *gin.Context) {
	records := h.table.Records()
	c.JSON(http.StatusOK, gin.H{
		"count":   len(records),
		"ratings": records,
	})
}

// GetRating looks up one (animal, label) pair with the resolver, so URL
// labels get the same key folding and collapse retry as pipeline labels.
func (h *Handler) GetRating(c *gin.Context) {
	animal := domain.ParseAnimal(c.Param("animal"))
	if animal == domain.AnimalUnknown {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown animal category"})
		return
	}

	label := textnorm.LabelKey(c.Param("label"))
	record, status, _ := h.resolver.Resolve(animal, label)
	switch status {
	case domain.StatusMatched:
		c.JSON(http.StatusOK, gin.H{"status": status, "rating": record})
	case domain.StatusAmbiguous:
		c.JSON(http.StatusInternalServerError, gin.H{
			"status": status,
			"error":  "rating table holds conflicting entries for this label",
		})
	default:
		c.JSON(http.StatusNotFound, gin.H{
			"status": status,
			"error":  "no rating for this animal and label",
		})
	}
}

// Classify runs one ad-hoc product through the live pipeline. Barcode-only
// requests are enriched with Open Food Facts brands when a provider is
// configured, and cached by barcode; requests carrying their own text are
// answered fresh because the result depends on that text.
func (h *Handler) Classify(c *gin.Context) {
	var req domain.ClassifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if req.Name == "" && req.Barcode == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name or barcode is required"})
		return
	}

	cacheable := req.Name == "" && req.Barcode != ""
	if cacheable {
		if cached, ok := h.cachedResult(c.Request.Context(), req.Barcode); ok {
			c.JSON(http.StatusOK, cached)
			return
		}
	}

	record := req.Record()
	if record.Name == "" && len(record.Brands) == 0 && h.brands != nil {
		brands, err := h.brands.ProductBrands(c.Request.Context(), record.Barcode)
		switch {
		case err == nil:
			record.Brands = brands
		case !errors.Is(err, domain.ErrProductNotFound):
			log.Warn().Err(err).Str("barcode", record.Barcode).Msg("brand lookup failed")
		}
	}

	result := h.pipeline.Process(c.Request.Context(), record)

	if cacheable && h.cache != nil {
		if err := h.cache.Set(c.Request.Context(), classifyCacheKey(req.Barcode), result, h.cacheTTL); err != nil {
			log.Warn().Err(err).Str("barcode", req.Barcode).Msg("could not cache classification")
		}
	}

	c.JSON(http.StatusOK, result)
}

func (h *Handler) cachedResult(ctx context.Context, barcode string) (*domain.MappingResult, bool) {
	if h.cache == nil {
		return nil, false
	}
	value, err := h.cache.Get(ctx, classifyCacheKey(barcode))
	if err != nil {
		return nil, false
	}

	// The cache stores decoded JSON; round-trip back into the typed form.
	data, err := json.Marshal(value)
	if err != nil {
		return nil, false
	}
	var result domain.MappingResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, false
	}
	return &result, true
}

func classifyCacheKey(barcode string) string {
	return "classify:" + barcode
}
