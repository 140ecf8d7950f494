package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/welfaremap/backend/internal/domain"
)

// ratingsColumns is the on-disk column order of the ratings CSV. Readers
// match columns by header name, so new columns may be appended but these
// must keep their names.
var ratingsColumns = []string{"label", "animal", "tier", "steps_to_go", "product_title", "product_url", "label_url"}

// WriteRatingsCSV writes scraped rating rows as CSV.
func WriteRatingsCSV(path string, rows []domain.ScrapedRating) error {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(ratingsColumns); err != nil {
		return fmt.Errorf("encoding %s: %w", path, err)
	}
	for _, row := range rows {
		record := []string{
			row.Label,
			string(row.Animal),
			string(row.Tier),
			strconv.Itoa(row.StepsToGo),
			row.ProductTitle,
			row.ProductURL,
			row.LabelURL,
		}
		if err := w.Write(record); err != nil {
			return fmt.Errorf("encoding %s: %w", path, err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("encoding %s: %w", path, err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// WriteRatingsJSON writes scraped rating rows with their provenance.
func WriteRatingsJSON(path string, rows []domain.ScrapedRating) error {
	return writeJSON(path, rows)
}

// ReadRatingsCSV loads rating rows from CSV, matching columns by header
// name. Rows without a recognizable animal, tier, or step count are
// skipped; the count of skipped rows is returned alongside the rows.
func ReadRatingsCSV(path string) ([]domain.ScrapedRating, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	header, err := reader.Read()
	if err != nil {
		return nil, 0, fmt.Errorf("reading %s: %w", path, err)
	}

	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.TrimSpace(name)] = i
	}
	for _, name := range []string{"label", "animal", "tier", "steps_to_go"} {
		if _, ok := col[name]; !ok {
			return nil, 0, fmt.Errorf("%s: missing column %q", path, name)
		}
	}

	field := func(row []string, name string) string {
		idx, ok := col[name]
		if !ok || idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx])
	}

	var rows []domain.ScrapedRating
	skipped := 0
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, 0, fmt.Errorf("reading %s: %w", path, err)
		}

		animal := domain.ParseAnimal(field(row, "animal"))
		if animal == domain.AnimalUnknown {
			skipped++
			continue
		}
		tier, ok := domain.ParseTier(field(row, "tier"))
		if !ok {
			skipped++
			continue
		}
		steps, err := strconv.Atoi(field(row, "steps_to_go"))
		if err != nil {
			skipped++
			continue
		}

		rows = append(rows, domain.ScrapedRating{
			Label:        field(row, "label"),
			LabelURL:     field(row, "label_url"),
			Animal:       animal,
			ProductTitle: field(row, "product_title"),
			ProductURL:   field(row, "product_url"),
			Tier:         tier,
			StepsToGo:    steps,
		})
	}

	return rows, skipped, nil
}
