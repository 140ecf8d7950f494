package cli

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/welfaremap/backend/internal/domain"
	"github.com/welfaremap/backend/internal/export"
	"github.com/welfaremap/backend/internal/infrastructure/cache"
	"github.com/welfaremap/backend/internal/infrastructure/cohere"
	"github.com/welfaremap/backend/internal/infrastructure/foodrepo"
	"github.com/welfaremap/backend/internal/infrastructure/openfoodfacts"
	"github.com/welfaremap/backend/internal/usecase"
)

var (
	mapRatingsPath   string
	mapProductsCache string
	mapRefresh       bool
	mapLimit         int
	mapWorkers       int
	mapNoFallback    bool
	mapOutputDir     string
)

// newMapCommand creates the map command.
func newMapCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "map",
		Short: "Map the product catalog to welfare ratings",
		Long: `Loads the scraped rating table, fetches the FoodRepo product
catalog, runs every product through the classification pipeline, and
writes the barcode mappings as mappings.csv, mappings.json and
summary.json.

The catalog download is cached on disk. Products without any usable
text get brand names from Open Food Facts when enrichment is enabled.
Rule classifications below the confidence threshold consult the Cohere
fallback classifier unless --no-fallback is set.

Requires FOOD_REPO_API_KEY for the catalog fetch and COHERE_API_KEY
while the fallback is active.

Examples:
  welfaremap map
  welfaremap map --limit 1000 --workers 8
  welfaremap map --no-fallback --refresh`,
		RunE: runMap,
	}

	cmd.Flags().StringVar(&mapRatingsPath, "ratings", "", "ratings CSV from scrape (default <output-dir>/ratings.csv)")
	cmd.Flags().StringVar(&mapProductsCache, "products-cache", "", "catalog cache file (default <output-dir>/products.json)")
	cmd.Flags().BoolVar(&mapRefresh, "refresh", false, "re-download the catalog even when cached")
	cmd.Flags().IntVar(&mapLimit, "limit", 0, "fetch at most this many products, 0 for the configured page limit")
	cmd.Flags().IntVar(&mapWorkers, "workers", 0, "pipeline workers (default from config)")
	cmd.Flags().BoolVar(&mapNoFallback, "no-fallback", false, "disable the model fallback classifier")
	cmd.Flags().StringVar(&mapOutputDir, "output-dir", "", "directory for mapping artifacts (default from config)")

	return cmd
}

func runMap(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	outputDir := mapOutputDir
	if outputDir == "" {
		outputDir = cfg.Output.Dir
	}
	ratingsPath := mapRatingsPath
	if ratingsPath == "" {
		ratingsPath = filepath.Join(outputDir, "ratings.csv")
	}

	rows, skipped, err := export.ReadRatingsCSV(ratingsPath)
	if err != nil {
		return fmt.Errorf("loading ratings: %w", err)
	}
	table, duplicates := usecase.BuildRatingTable(rows)
	if table.Len() == 0 {
		return fmt.Errorf("rating table from %s is empty, run scrape first", ratingsPath)
	}
	log.Info().
		Int("keys", table.Len()).
		Int("skipped_rows", skipped).
		Int("duplicates", duplicates).
		Msg("rating table loaded")

	records, err := loadProducts(ctx, outputDir)
	if err != nil {
		return err
	}

	if cfg.OpenFoodFacts.Enabled {
		off := openfoodfacts.NewClient(openfoodfacts.Config{
			BaseURL:           cfg.OpenFoodFacts.BaseURL,
			UserAgent:         cfg.OpenFoodFacts.UserAgent,
			RequestsPerSecond: cfg.OpenFoodFacts.RateLimit,
		}, cache.NewMemoryCache())
		if _, err := off.EnrichBrands(ctx, records); err != nil {
			return fmt.Errorf("brand enrichment: %w", err)
		}
	}

	fallback, err := buildFallback(table.LabelKeys())
	if err != nil {
		return err
	}

	pipeline := usecase.NewPipelineService(
		usecase.NewMeatDetector(),
		usecase.NewRuleClassifier(),
		usecase.NewLabelNormalizer(table.LabelKeys(), usecase.DefaultLabelAliases()),
		usecase.NewRatingResolver(table, cfg.Resolver.CollapseTokens),
		fallback,
		usecase.PipelineConfig{
			FallbackThreshold: cfg.Classifier.FallbackThreshold,
			Workers:           pipelineWorkers(),
		},
	)

	results, err := pipeline.Run(ctx, records)
	if err != nil {
		return fmt.Errorf("pipeline run: %w", err)
	}
	summary := usecase.Summarize(results)

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	if err := export.WriteMappingsCSV(filepath.Join(outputDir, "mappings.csv"), results); err != nil {
		return err
	}
	if err := export.WriteMappingsJSON(filepath.Join(outputDir, "mappings.json"), results); err != nil {
		return err
	}
	if err := export.WriteSummaryJSON(filepath.Join(outputDir, "summary.json"), summary); err != nil {
		return err
	}

	printRunSummary(cmd, summary)
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote mappings and summary to %s\n", outputDir)

	return nil
}

// loadProducts returns catalog records from the cache file, fetching and
// caching them first when missing or refreshing.
func loadProducts(ctx context.Context, outputDir string) ([]domain.ProductRecord, error) {
	cachePath := mapProductsCache
	if cachePath == "" {
		cachePath = filepath.Join(outputDir, "products.json")
	}

	if !mapRefresh {
		records, err := export.ReadProductsJSON(cachePath)
		if err == nil {
			log.Info().Int("products", len(records)).Str("path", cachePath).Msg("catalog loaded from cache")
			return records, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	client, err := foodrepo.NewClient(foodrepo.Config{
		APIKey:            cfg.FoodRepo.APIKey,
		BaseURL:           cfg.FoodRepo.BaseURL,
		RequestsPerSecond: cfg.FoodRepo.RateLimit,
	})
	if err != nil {
		return nil, fmt.Errorf("%w (set FOOD_REPO_API_KEY)", err)
	}

	limit := mapLimit
	if limit == 0 {
		limit = cfg.FoodRepo.PageLimit
	}

	log.Info().Int("limit", limit).Msg("fetching product catalog")
	records, err := client.FetchProducts(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("fetching catalog: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(cachePath), 0755); err != nil {
		return nil, fmt.Errorf("creating cache directory: %w", err)
	}
	if err := export.WriteProductsJSON(cachePath, records); err != nil {
		return nil, err
	}
	log.Info().Int("products", len(records)).Str("path", cachePath).Msg("catalog cached")

	return records, nil
}

// buildFallback constructs the Cohere fallback classifier, or nil when the
// fallback is disabled. With the fallback active, a missing key aborts the
// run instead of silently degrading every borderline record.
func buildFallback(labels []string) (domain.FallbackClassifier, error) {
	if mapNoFallback || !cfg.Classifier.FallbackEnabled {
		return nil, nil
	}

	classifier, err := cohere.NewClassifier(cohere.Config{
		APIKey: cfg.Cohere.APIKey,
		Model:  cfg.Cohere.Model,
		Labels: labels,
	})
	if err != nil {
		return nil, fmt.Errorf("fallback classifier: %w (set COHERE_API_KEY or pass --no-fallback)", err)
	}
	return classifier, nil
}

func pipelineWorkers() int {
	if mapWorkers > 0 {
		return mapWorkers
	}
	return cfg.Pipeline.Workers
}

// printRunSummary writes the per-status and per-tier counts in a stable
// order.
func printRunSummary(cmd *cobra.Command, summary domain.RunSummary) {
	out := cmd.OutOrStdout()

	fmt.Fprintf(out, "Products: %d\n", summary.Total)
	for _, status := range []domain.Status{
		domain.StatusMatched,
		domain.StatusNoMatch,
		domain.StatusAmbiguous,
		domain.StatusLabelUnresolved,
		domain.StatusUnresolvedClassification,
		domain.StatusNotApplicable,
	} {
		if n := summary.ByStatus[status]; n > 0 {
			fmt.Fprintf(out, "  %-26s %d\n", status, n)
		}
	}

	if len(summary.ByTier) > 0 {
		fmt.Fprintln(out, "Tiers:")
		for _, tier := range []domain.Tier{domain.TierTop, domain.TierOK, domain.TierUncool, domain.TierNoGo} {
			if n := summary.ByTier[tier]; n > 0 {
				fmt.Fprintf(out, "  %-26s %d\n", tier, n)
			}
		}
	}
}
