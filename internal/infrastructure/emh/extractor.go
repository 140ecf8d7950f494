// Package emh scrapes the Essen mit Herz label directory into welfare
// rating rows.
package emh

import (
	"bytes"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/welfaremap/backend/internal/domain"
)

// Strategy names the extraction path that produced a result.
type Strategy string

const (
	StrategyStructured Strategy = "structured"
	StrategyFallback   Strategy = "fallback"
)

var (
	ratingPattern = regexp.MustCompile(`(?i)\b(TOP|OK|UNCOOL|NO GO)\b`)
	stepsPattern  = regexp.MustCompile(`(?i)(\d+)\s+steps?\s+to\s+go`)
	numberPattern = regexp.MustCompile(`\d+`)
)

// ExtractionResult is a complete tier and step-count reading from one page.
type ExtractionResult struct {
	Strategy  Strategy
	Tier      domain.Tier
	StepsToGo int
}

// Extractor pulls the welfare tier and step count out of a product page.
// It tries structural markers first and falls back to scanning the page
// text; the fallback shares no parsing state with the structured phase.
// A result always has both fields, a page yielding only one is a failure.
type Extractor struct{}

// NewExtractor creates an extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract parses the page and runs both phases in order.
func (e *Extractor) Extract(page []byte) (ExtractionResult, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page))
	if err != nil {
		return ExtractionResult{}, fmt.Errorf("%w: parsing page: %v", domain.ErrExtractionFailed, err)
	}
	return e.ExtractFromDocument(doc)
}

// ExtractFromDocument runs both phases against an already parsed page.
func (e *Extractor) ExtractFromDocument(doc *goquery.Document) (ExtractionResult, error) {
	if result, ok := e.extractStructured(doc); ok {
		return result, nil
	}
	if result, ok := e.extractFromText(doc); ok {
		return result, nil
	}
	return ExtractionResult{}, fmt.Errorf("%w: no tier and step count on page", domain.ErrExtractionFailed)
}

// extractStructured reads the dedicated rating markup.
func (e *Extractor) extractStructured(doc *goquery.Document) (ExtractionResult, bool) {
	tierText := strings.TrimSpace(doc.Find(".rating-tier").First().Text())
	tier, ok := domain.ParseTier(tierText)
	if !ok {
		return ExtractionResult{}, false
	}

	stepsText := doc.Find(".rating-steps").First().Text()
	match := numberPattern.FindString(stepsText)
	if match == "" {
		return ExtractionResult{}, false
	}
	steps, err := strconv.Atoi(match)
	if err != nil {
		return ExtractionResult{}, false
	}

	return ExtractionResult{Strategy: StrategyStructured, Tier: tier, StepsToGo: steps}, true
}

// extractFromText scans the article text, or the whole page when there is
// no article element, for the tier keyword and the "N steps to go" phrase.
func (e *Extractor) extractFromText(doc *goquery.Document) (ExtractionResult, bool) {
	content := doc.Find("article").First()
	var text string
	if content.Length() > 0 {
		text = content.Text()
	} else {
		text = doc.Text()
	}

	tierMatch := ratingPattern.FindStringSubmatch(text)
	if tierMatch == nil {
		return ExtractionResult{}, false
	}
	tier, ok := domain.ParseTier(tierMatch[1])
	if !ok {
		return ExtractionResult{}, false
	}

	stepsMatch := stepsPattern.FindStringSubmatch(text)
	if stepsMatch == nil {
		return ExtractionResult{}, false
	}
	steps, err := strconv.Atoi(stepsMatch[1])
	if err != nil {
		return ExtractionResult{}, false
	}

	return ExtractionResult{Strategy: StrategyFallback, Tier: tier, StepsToGo: steps}, true
}
