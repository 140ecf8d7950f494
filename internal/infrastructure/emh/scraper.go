package emh

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog/log"

	"github.com/welfaremap/backend/internal/domain"
)

const (
	defaultBaseURL = "https://essenmitherz.ch"
	labelIndexPath = "/label-und-marken/"

	// Product links shorter than this are image wrappers, not captions.
	minLinkTextLength = 5
)

// animalSlugs are the category slugs the site uses in product URLs and
// link captions.
var animalSlugs = []string{"rindfleisch", "kalbfleisch", "poulet", "schweinefleisch", "eier", "milch"}

// ProductLink is one animal product reference found on a label page.
type ProductLink struct {
	Text   string
	URL    string
	Animal domain.Animal
}

// LabelPage is the parsed form of one label page.
type LabelPage struct {
	Title    string
	URL      string
	Products []ProductLink
}

// ProductRating is the parsed form of one product page.
type ProductRating struct {
	Title     string
	URL       string
	Animal    domain.Animal
	Tier      domain.Tier
	StepsToGo int
	Strategy  Strategy
}

// Scraper walks the label directory and turns product pages into rating
// rows. Individual page failures are tolerated and reported in the
// summary so a single broken page cannot sink a full harvest.
type Scraper struct {
	fetcher   domain.PageFetcher
	extractor *Extractor
	baseURL   string
}

// NewScraper creates a scraper on top of the given page fetcher. An empty
// baseURL selects the production site.
func NewScraper(fetcher domain.PageFetcher, baseURL string) *Scraper {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Scraper{
		fetcher:   fetcher,
		extractor: NewExtractor(),
		baseURL:   strings.TrimRight(baseURL, "/"),
	}
}

// DiscoverLabels returns the sorted set of label page URLs linked from
// the label index.
func (s *Scraper) DiscoverLabels(ctx context.Context) ([]string, error) {
	doc, err := s.fetchDocument(ctx, s.baseURL+labelIndexPath)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	doc.Find("a[href*='/label-']").Each(func(_ int, sel *goquery.Selection) {
		href, ok := sel.Attr("href")
		if !ok || href == "" {
			return
		}
		seen[s.resolveURL(href)] = true
	})

	urls := make([]string, 0, len(seen))
	for u := range seen {
		urls = append(urls, u)
	}
	sort.Strings(urls)
	return urls, nil
}

// ParseLabelPage extracts the label title and its product links.
func (s *Scraper) ParseLabelPage(ctx context.Context, pageURL string) (*LabelPage, error) {
	doc, err := s.fetchDocument(ctx, pageURL)
	if err != nil {
		return nil, err
	}

	page := &LabelPage{Title: labelTitle(doc), URL: pageURL}

	// Product links sit inside the first post-grid widget.
	doc.Find("div[id^='post-grid-']").First().Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		if !hrefHasAnimal(href) {
			return
		}
		text := strings.Join(strings.Fields(sel.Text()), " ")
		if len(text) < minLinkTextLength {
			return
		}
		page.Products = append(page.Products, ProductLink{
			Text:   text,
			URL:    s.resolveURL(href),
			Animal: linkAnimal(text, href),
		})
	})

	return page, nil
}

// ParseProductPage extracts the product title, animal, and rating. Pages
// without a complete rating are an error.
func (s *Scraper) ParseProductPage(ctx context.Context, pageURL string) (*ProductRating, error) {
	doc, err := s.fetchDocument(ctx, pageURL)
	if err != nil {
		return nil, err
	}

	result, err := s.extractor.ExtractFromDocument(doc)
	if err != nil {
		return nil, err
	}

	title := strings.TrimSpace(doc.Find("h1").First().Text())
	return &ProductRating{
		Title:     title,
		URL:       pageURL,
		Animal:    pageAnimal(title, pageURL),
		Tier:      result.Tier,
		StepsToGo: result.StepsToGo,
		Strategy:  result.Strategy,
	}, nil
}

// HarvestAll walks every label and its products, returning the harvested
// rating rows and a summary of what was fetched and what failed. A
// labelLimit above zero caps how many labels are visited.
func (s *Scraper) HarvestAll(ctx context.Context, labelLimit int) ([]domain.ScrapedRating, domain.ScrapeSummary, error) {
	var summary domain.ScrapeSummary

	labelURLs, err := s.DiscoverLabels(ctx)
	if err != nil {
		return nil, summary, err
	}
	summary.PagesFetched++
	if labelLimit > 0 && len(labelURLs) > labelLimit {
		labelURLs = labelURLs[:labelLimit]
	}
	summary.Labels = len(labelURLs)
	log.Info().Int("labels", len(labelURLs)).Msg("discovered labels")

	var rows []domain.ScrapedRating
	for i, labelURL := range labelURLs {
		if err := ctx.Err(); err != nil {
			return rows, summary, err
		}

		label, err := s.ParseLabelPage(ctx, labelURL)
		summary.PagesFetched++
		if err != nil {
			summary.Failures++
			summary.FailedURLs = append(summary.FailedURLs, labelURL)
			log.Warn().Err(err).Str("url", labelURL).Msg("label page failed")
			continue
		}
		log.Info().
			Int("index", i+1).
			Int("total", len(labelURLs)).
			Str("label", label.Title).
			Int("products", len(label.Products)).
			Msg("processing label")

		for _, link := range label.Products {
			if err := ctx.Err(); err != nil {
				return rows, summary, err
			}

			product, err := s.ParseProductPage(ctx, link.URL)
			summary.PagesFetched++
			if err != nil {
				summary.Failures++
				summary.FailedURLs = append(summary.FailedURLs, link.URL)
				log.Warn().Err(err).Str("url", link.URL).Msg("product page failed")
				continue
			}

			// The link caption names the animal more reliably than the
			// product page itself.
			animal := link.Animal
			if animal == domain.AnimalUnknown {
				animal = product.Animal
			}
			rows = append(rows, domain.ScrapedRating{
				Label:        label.Title,
				LabelURL:     labelURL,
				Animal:       animal,
				ProductTitle: product.Title,
				ProductURL:   product.URL,
				Tier:         product.Tier,
				StepsToGo:    product.StepsToGo,
			})
			log.Debug().Str("product", product.Title).Str("tier", string(product.Tier)).Msg("harvested rating")
		}
	}

	summary.Ratings = len(rows)
	return rows, summary, nil
}

func (s *Scraper) fetchDocument(ctx context.Context, pageURL string) (*goquery.Document, error) {
	page, err := s.fetcher.Fetch(ctx, pageURL)
	if err != nil {
		return nil, err
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page))
	if err != nil {
		return nil, fmt.Errorf("%w: parsing %s: %v", domain.ErrExtractionFailed, pageURL, err)
	}
	return doc, nil
}

// resolveURL resolves a possibly relative href against the site base.
func (s *Scraper) resolveURL(href string) string {
	base, err := url.Parse(s.baseURL)
	if err != nil {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return base.ResolveReference(ref).String()
}

func hrefHasAnimal(href string) bool {
	for _, slug := range animalSlugs {
		if strings.Contains(href, slug) {
			return true
		}
	}
	return false
}

// labelTitle reads the page <title>; label pages carry no h1. The site
// suffix after the dash and the "Label " prefix are trimmed off.
func labelTitle(doc *goquery.Document) string {
	title := strings.TrimSpace(doc.Find("title").First().Text())
	if idx := strings.Index(title, " – "); idx >= 0 {
		title = title[:idx]
	}
	title = strings.TrimPrefix(title, "Label ")
	return strings.TrimSpace(title)
}

// linkAnimal detects the animal from the link caption or the URL slug.
func linkAnimal(text, href string) domain.Animal {
	lower := strings.ToLower(text)
	for _, slug := range animalSlugs {
		if strings.HasPrefix(lower, slug) || strings.Contains(href, "/"+slug+"-") {
			return domain.ParseAnimal(slug)
		}
	}
	return domain.AnimalUnknown
}

// pageAnimal detects the animal from the product title, falling back to
// the URL path.
func pageAnimal(title, pageURL string) domain.Animal {
	lower := strings.ToLower(title)
	for _, slug := range animalSlugs {
		if strings.HasPrefix(lower, slug) {
			return domain.ParseAnimal(slug)
		}
	}
	for _, slug := range animalSlugs {
		if strings.Contains(pageURL, "/"+slug+"-") || strings.Contains(pageURL, "/"+slug+"/") {
			return domain.ParseAnimal(slug)
		}
	}
	return domain.AnimalUnknown
}
