package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"github.com/welfaremap/backend/internal/domain"
)

// mappingColumns is the on-disk column order of the mappings CSV. Tier
// and step cells stay empty for rows that did not reach MATCHED.
var mappingColumns = []string{"barcode", "animal", "label", "tier", "steps_to_go", "confidence", "status"}

// WriteMappingsCSV writes one row per processed product.
func WriteMappingsCSV(path string, results []domain.MappingResult) error {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(mappingColumns); err != nil {
		return fmt.Errorf("encoding %s: %w", path, err)
	}
	for _, result := range results {
		steps := ""
		if result.StepsToGo != nil {
			steps = strconv.Itoa(*result.StepsToGo)
		}
		record := []string{
			result.Barcode,
			string(result.Animal),
			result.Label,
			string(result.Tier),
			steps,
			strconv.FormatFloat(result.Confidence, 'f', 2, 64),
			string(result.Status),
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

// WriteMappingsJSON writes the full results, product names included, for
// human review.
func WriteMappingsJSON(path string, results []domain.MappingResult) error {
	return writeJSON(path, results)
}

// WriteSummaryJSON writes the aggregated run counts.
func WriteSummaryJSON(path string, summary domain.RunSummary) error {
	return writeJSON(path, summary)
}
