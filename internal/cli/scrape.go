package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/welfaremap/backend/internal/export"
	"github.com/welfaremap/backend/internal/infrastructure/emh"
	"github.com/welfaremap/backend/internal/usecase"
)

var (
	scrapeOutputDir string
	scrapeLimit     int
	scrapeRefresh   bool
)

// newScrapeCommand creates the scrape command.
func newScrapeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scrape",
		Short: "Harvest welfare ratings from the label directory",
		Long: `Walks the Essen mit Herz label directory, extracts the welfare
rating of every listed animal product, and writes the reference table
as ratings.csv and ratings.json.

Fetched pages land in an on-disk cache, so repeated runs only hit the
site for pages it has not seen. Use --refresh to re-download.

Examples:
  welfaremap scrape
  welfaremap scrape --limit 5 --output-dir /tmp/ratings
  welfaremap scrape --refresh`,
		RunE: runScrape,
	}

	cmd.Flags().StringVar(&scrapeOutputDir, "output-dir", "", "directory for rating artifacts (default from config)")
	cmd.Flags().IntVar(&scrapeLimit, "limit", 0, "visit at most this many labels, 0 for all")
	cmd.Flags().BoolVar(&scrapeRefresh, "refresh", false, "re-download pages even when cached")

	return cmd
}

func runScrape(cmd *cobra.Command, args []string) error {
	fetcher := emh.NewFetcher(emh.FetcherConfig{
		RequestsPerSecond: cfg.EMH.RateLimit,
		UserAgent:         cfg.EMH.UserAgent,
		CacheDir:          cfg.EMH.CacheDir,
		Refresh:           scrapeRefresh,
	})
	scraper := emh.NewScraper(fetcher, cfg.EMH.BaseURL)

	rows, summary, err := scraper.HarvestAll(cmd.Context(), scrapeLimit)
	if err != nil {
		return fmt.Errorf("harvesting ratings: %w", err)
	}

	outputDir := scrapeOutputDir
	if outputDir == "" {
		outputDir = cfg.Output.Dir
	}
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	csvPath := filepath.Join(outputDir, "ratings.csv")
	if err := export.WriteRatingsCSV(csvPath, rows); err != nil {
		return err
	}
	jsonPath := filepath.Join(outputDir, "ratings.json")
	if err := export.WriteRatingsJSON(jsonPath, rows); err != nil {
		return err
	}

	table, duplicates := usecase.BuildRatingTable(rows)

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Labels visited: %d\n", summary.Labels)
	fmt.Fprintf(out, "Pages fetched:  %d\n", summary.PagesFetched)
	fmt.Fprintf(out, "Ratings:        %d\n", summary.Ratings)
	fmt.Fprintf(out, "Table keys:     %d (%d duplicates)\n", table.Len(), duplicates)
	fmt.Fprintf(out, "Failures:       %d\n", summary.Failures)
	for _, failedURL := range summary.FailedURLs {
		fmt.Fprintf(out, "  failed: %s\n", failedURL)
	}
	fmt.Fprintf(out, "Wrote %s and %s\n", csvPath, jsonPath)

	return nil
}
