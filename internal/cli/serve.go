package cli

import (
	"context"
	"fmt"
	"net/http"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	httpDelivery "github.com/welfaremap/backend/internal/delivery/http"
	"github.com/welfaremap/backend/internal/domain"
	"github.com/welfaremap/backend/internal/export"
	"github.com/welfaremap/backend/internal/infrastructure/cache"
	"github.com/welfaremap/backend/internal/infrastructure/cohere"
	"github.com/welfaremap/backend/internal/infrastructure/openfoodfacts"
	"github.com/welfaremap/backend/internal/usecase"
)

const shutdownTimeout = 10 * time.Second

var (
	servePort    string
	serveRatings string
)

// newServeCommand creates the serve command.
func newServeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve rating lookups and classification over HTTP",
		Long: `Loads the scraped rating table and starts the HTTP API.

Endpoints:
  GET  /health
  GET  /api/v1/ratings
  GET  /api/v1/ratings/:animal/:label
  POST /api/v1/classify

Examples:
  welfaremap serve
  welfaremap serve --port 9000 --ratings output/ratings.csv`,
		RunE: runServe,
	}

	cmd.Flags().StringVar(&servePort, "port", "", "listen port (default from config)")
	cmd.Flags().StringVar(&serveRatings, "ratings", "", "ratings CSV from scrape (default <output-dir>/ratings.csv)")

	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	if servePort != "" {
		cfg.Server.Port = servePort
	}

	ratingsPath := serveRatings
	if ratingsPath == "" {
		ratingsPath = filepath.Join(cfg.Output.Dir, "ratings.csv")
	}
	rows, skipped, err := export.ReadRatingsCSV(ratingsPath)
	if err != nil {
		return fmt.Errorf("loading ratings: %w", err)
	}
	table, duplicates := usecase.BuildRatingTable(rows)
	log.Info().
		Int("keys", table.Len()).
		Int("skipped_rows", skipped).
		Int("duplicates", duplicates).
		Msg("rating table loaded")

	resolver := usecase.NewRatingResolver(table, cfg.Resolver.CollapseTokens)

	// The API keeps serving rule classifications when no Cohere key is
	// configured; only an actual construction failure is fatal.
	var fallback domain.FallbackClassifier
	if cfg.Classifier.FallbackEnabled && cfg.Cohere.APIKey != "" {
		classifier, err := cohere.NewClassifier(cohere.Config{
			APIKey: cfg.Cohere.APIKey,
			Model:  cfg.Cohere.Model,
			Labels: table.LabelKeys(),
		})
		if err != nil {
			return fmt.Errorf("fallback classifier: %w", err)
		}
		fallback = classifier
	} else if cfg.Classifier.FallbackEnabled {
		log.Warn().Msg("fallback enabled but COHERE_API_KEY is not set, serving rule classifications only")
	}

	pipeline := usecase.NewPipelineService(
		usecase.NewMeatDetector(),
		usecase.NewRuleClassifier(),
		usecase.NewLabelNormalizer(table.LabelKeys(), usecase.DefaultLabelAliases()),
		resolver,
		fallback,
		usecase.PipelineConfig{
			FallbackThreshold: cfg.Classifier.FallbackThreshold,
			Workers:           cfg.Pipeline.Workers,
		},
	)

	// One memory cache backs both classify responses and brand lookups;
	// the key prefixes keep them apart.
	memoryCache := cache.NewMemoryCache()
	var brands domain.BrandProvider
	if cfg.OpenFoodFacts.Enabled {
		brands = openfoodfacts.NewClient(openfoodfacts.Config{
			BaseURL:           cfg.OpenFoodFacts.BaseURL,
			UserAgent:         cfg.OpenFoodFacts.UserAgent,
			RequestsPerSecond: cfg.OpenFoodFacts.RateLimit,
		}, memoryCache)
	}

	handler := httpDelivery.NewHandler(pipeline, table, resolver, httpDelivery.HandlerConfig{
		Brands:   brands,
		Cache:    memoryCache,
		CacheTTL: cfg.Server.CacheTTL,
	})
	router := httpDelivery.SetupRouter(cfg, handler)

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Str("environment", cfg.Server.Environment).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server: %w", err)
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
