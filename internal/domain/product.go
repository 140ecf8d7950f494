package domain

import (
	"encoding/json"
	"strings"
)

// ProductRecord represents one catalog product as fetched from FoodRepo.
// Records are immutable for the duration of a pipeline run; brand data may
// be filled in by Open Food Facts enrichment before the run starts.
type ProductRecord struct {
	Barcode         string     `json:"barcode"`
	Name            string     `json:"name"`
	Brands          []string   `json:"brands,omitempty"`
	Categories      StringList `json:"categories,omitempty"`
	IngredientsText string     `json:"ingredients_text,omitempty"`
	Origins         StringList `json:"origins,omitempty"`
	Language        string     `json:"language,omitempty"`
}

// SearchText joins the fields used for detection and classification.
// Ingredient text is capped because long ingredient lists bury the signal.
func (p ProductRecord) SearchText() string {
	ingredients := p.IngredientsText
	if len(ingredients) > 200 {
		ingredients = ingredients[:200]
	}

	parts := []string{p.Name}
	parts = append(parts, p.Brands...)
	parts = append(parts, p.Categories...)
	parts = append(parts, ingredients)

	var nonEmpty []string
	for _, part := range parts {
		if strings.TrimSpace(part) != "" {
			nonEmpty = append(nonEmpty, part)
		}
	}
	return strings.Join(nonEmpty, " ")
}

// StringList is a []string that also accepts a single JSON string.
// The catalog serves categories both ways; a bare string is split on commas.
type StringList []string

// UnmarshalJSON implements json.Unmarshaler.
func (s *StringList) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "null" || trimmed == `""` {
		*s = nil
		return nil
	}

	if strings.HasPrefix(trimmed, "[") {
		var list []string
		if err := json.Unmarshal(data, &list); err != nil {
			return err
		}
		*s = list
		return nil
	}

	var single string
	if err := json.Unmarshal(data, &single); err != nil {
		return err
	}

	var list []string
	for _, part := range strings.Split(single, ",") {
		if part = strings.TrimSpace(part); part != "" {
			list = append(list, part)
		}
	}
	*s = list
	return nil
}
