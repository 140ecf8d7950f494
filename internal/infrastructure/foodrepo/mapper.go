package foodrepo

import "github.com/welfaremap/backend/internal/domain"

// productsResponse is one page of the JSON:API style catalog listing.
type productsResponse struct {
	Data  []productEntry `json:"data"`
	Links pageLinks      `json:"links"`
}

type pageLinks struct {
	Next string `json:"next"`
}

type productEntry struct {
	Attributes productAttributes `json:"attributes"`
}

// productAttributes carries the subset of catalog fields the pipeline reads.
// The v3 API serves brands and categories inconsistently, sometimes as a
// comma-joined string, so those fields decode through domain.StringList.
type productAttributes struct {
	Barcode         string            `json:"barcode"`
	Name            string            `json:"name"`
	Brands          domain.StringList `json:"brands"`
	Categories      domain.StringList `json:"categories"`
	IngredientsText string            `json:"ingredients_text"`
	Origins         domain.StringList `json:"origins"`
}

// mapProduct converts an API entry into a domain record. Entries without a
// barcode are dropped because nothing downstream can address them.
func mapProduct(entry productEntry) (domain.ProductRecord, bool) {
	attrs := entry.Attributes
	if attrs.Barcode == "" {
		return domain.ProductRecord{}, false
	}

	return domain.ProductRecord{
		Barcode:         attrs.Barcode,
		Name:            attrs.Name,
		Brands:          attrs.Brands,
		Categories:      attrs.Categories,
		IngredientsText: attrs.IngredientsText,
		Origins:         attrs.Origins,
	}, true
}
