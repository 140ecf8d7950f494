// Package export reads and writes the pipeline's file artifacts: the
// product catalog snapshot, the scraped ratings table, and the final
// barcode mappings.
package export

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/welfaremap/backend/internal/domain"
)

// WriteProductsJSON snapshots fetched catalog records so later runs can
// skip the API.
func WriteProductsJSON(path string, records []domain.ProductRecord) error {
	return writeJSON(path, records)
}

// ReadProductsJSON loads a catalog snapshot written by WriteProductsJSON.
func ReadProductsJSON(path string) ([]domain.ProductRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var records []domain.ProductRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	return records, nil
}

func writeJSON(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
