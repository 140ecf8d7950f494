package usecase

import (
	"errors"
	"strings"

	"github.com/welfaremap/backend/internal/domain"
	"github.com/welfaremap/backend/internal/textnorm"
)

// Lookup certainty by how the key was found. Certainty caps the final mapping
// confidence so a collapsed lookup can never report more certainty than an
// exact one.
const (
	certaintyExact     = 1.0
	certaintyCollapsed = 0.9
)

// DefaultCollapseTokens are the qualifier tokens stripped from the end of a
// label key for the one retry lookup after an exact miss. "suisse" stays off
// the list because it ends several program names.
func DefaultCollapseTokens() []string {
	return []string{"bio", "schweiz", "d", "de"}
}

// RatingResolver answers (animal, canonical label) lookups against a built
// rating table. It never guesses across animals.
type RatingResolver struct {
	table          *domain.RatingTable
	collapseTokens map[string]bool
}

// NewRatingResolver creates a resolver over table. A nil or empty token list
// falls back to DefaultCollapseTokens.
func NewRatingResolver(table *domain.RatingTable, collapseTokens []string) *RatingResolver {
	if len(collapseTokens) == 0 {
		collapseTokens = DefaultCollapseTokens()
	}
	tokens := make(map[string]bool, len(collapseTokens))
	for _, token := range collapseTokens {
		tokens[textnorm.Fold(token)] = true
	}
	return &RatingResolver{table: table, collapseTokens: tokens}
}

// Resolve looks up the rating for an animal and canonical label key. After an
// exact miss it retries once with trailing qualifier tokens collapsed. The
// returned certainty is certaintyExact, certaintyCollapsed or 0.
func (r *RatingResolver) Resolve(animal domain.Animal, label string) (*domain.RatingRecord, domain.Status, float64) {
	if animal == "" || animal == domain.AnimalUnknown || label == "" || label == "unknown" {
		return nil, domain.StatusNoMatch, 0
	}

	record, err := r.table.Get(animal, label)
	if err == nil {
		return record, domain.StatusMatched, certaintyExact
	}
	if errors.Is(err, domain.ErrAmbiguousRating) {
		return nil, domain.StatusAmbiguous, 0
	}

	if collapsed := r.collapse(label); collapsed != label {
		record, err = r.table.Get(animal, collapsed)
		if err == nil {
			return record, domain.StatusMatched, certaintyCollapsed
		}
		if errors.Is(err, domain.ErrAmbiguousRating) {
			return nil, domain.StatusAmbiguous, 0
		}
	}

	return nil, domain.StatusNoMatch, 0
}

// collapse strips trailing collapse tokens from the label key, always leaving
// at least one token.
func (r *RatingResolver) collapse(label string) string {
	fields := strings.Fields(label)
	for len(fields) > 1 && r.collapseTokens[fields[len(fields)-1]] {
		fields = fields[:len(fields)-1]
	}
	return strings.Join(fields, " ")
}

// BuildRatingTable canonicalizes scraped rows into a lookup table. Rows
// without a recognizable animal are skipped; the site lists a few programs
// without an animal column. The second return value counts duplicate keys,
// which the table keeps marked as ambiguous.
func BuildRatingTable(rows []domain.ScrapedRating) (*domain.RatingTable, int) {
	table := domain.NewRatingTable()
	duplicates := 0

	for _, row := range rows {
		animal := domain.ParseAnimal(string(row.Animal))
		if animal == domain.AnimalUnknown {
			continue
		}

		record := row.Record()
		record.Animal = animal
		record.Label = textnorm.LabelKey(row.Label)
		if record.Label == "" {
			continue
		}

		key := domain.TableKey{Animal: animal, Label: record.Label}
		if err := table.Add(key, record); err != nil {
			duplicates++
		}
	}

	return table, duplicates
}
