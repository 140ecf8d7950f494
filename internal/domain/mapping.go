package domain

// Status describes how far one product made it through the pipeline.
type Status string

const (
	// StatusNotApplicable means the detector rejected the record.
	StatusNotApplicable Status = "NOT_APPLICABLE"

	// StatusUnresolvedClassification means no classifier produced confidence above zero.
	StatusUnresolvedClassification Status = "UNRESOLVED_CLASSIFICATION"

	// StatusLabelUnresolved means no canonical label key could be determined.
	StatusLabelUnresolved Status = "LABEL_UNRESOLVED"

	// StatusNoMatch means the table has no entry for the resolved key.
	StatusNoMatch Status = "NO_MATCH"

	// StatusAmbiguous signals a table invariant violation detected at resolve time.
	StatusAmbiguous Status = "AMBIGUOUS"

	// StatusMatched is full success.
	StatusMatched Status = "MATCHED"
)

// MappingResult is the final per-product outcome, one per catalog record,
// emitted in input order. Confidence is the minimum of the classification
// confidence and the resolution certainty. Never mutated after creation.
type MappingResult struct {
	Barcode    string  `json:"barcode"`
	Name       string  `json:"name,omitempty"`
	Animal     Animal  `json:"animal"`
	Label      string  `json:"label"`
	Tier       Tier    `json:"tier,omitempty"`
	StepsToGo  *int    `json:"steps_to_go,omitempty"`
	Confidence float64 `json:"confidence"`
	Source     Source  `json:"source,omitempty"`
	Status     Status  `json:"status"`
}

// ClassifyRequest is the HTTP request body for ad-hoc classification.
// Either Name or Barcode must be present; a bare barcode relies on
// Open Food Facts enrichment for text to classify.
type ClassifyRequest struct {
	Barcode     string     `json:"barcode,omitempty"`
	Name        string     `json:"name,omitempty"`
	Brands      []string   `json:"brands,omitempty"`
	Categories  StringList `json:"categories,omitempty"`
	Ingredients string     `json:"ingredients,omitempty"`
}

// Record converts the request into a ProductRecord for the pipeline.
func (r ClassifyRequest) Record() ProductRecord {
	return ProductRecord{
		Barcode:         r.Barcode,
		Name:            r.Name,
		Brands:          r.Brands,
		Categories:      r.Categories,
		IngredientsText: r.Ingredients,
	}
}

// RunSummary aggregates one pipeline run for reporting.
type RunSummary struct {
	Total    int            `json:"total"`
	ByStatus map[Status]int `json:"by_status"`
	ByTier   map[Tier]int   `json:"by_tier"`
	ByAnimal map[Animal]int `json:"by_animal"`
}

// ScrapeSummary aggregates one table-build run. Failed pages are recorded
// and excluded from the table rather than aborting the build.
type ScrapeSummary struct {
	Labels       int      `json:"labels"`
	PagesFetched int      `json:"pages_fetched"`
	Ratings      int      `json:"ratings"`
	Failures     int      `json:"failures"`
	FailedURLs   []string `json:"failed_urls,omitempty"`
}
