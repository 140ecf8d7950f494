package usecase

import (
	"context"
	"math"
	"sync"

	"github.com/welfaremap/backend/internal/domain"
)

// PipelineConfig tunes a pipeline run.
type PipelineConfig struct {
	// FallbackThreshold is the rule confidence below which the fallback
	// classifier is consulted.
	FallbackThreshold float64
	// Workers is the number of records processed concurrently by Run.
	Workers int
}

// DefaultPipelineConfig returns the default tuning.
func DefaultPipelineConfig() PipelineConfig {
	return PipelineConfig{
		FallbackThreshold: 0.8,
		Workers:           4,
	}
}

// PipelineService chains detect, classify, normalize and resolve into one
// per-record pass. Records are independent of each other, so Run can spread
// them over workers while emitting results in input order.
type PipelineService struct {
	detector   *MeatDetector
	classifier *RuleClassifier
	normalizer *LabelNormalizer
	resolver   *RatingResolver
	fallback   domain.FallbackClassifier
	config     PipelineConfig
}

// NewPipelineService wires the pipeline stages. A nil fallback disables the
// fallback stage entirely; zero config values get defaults.
func NewPipelineService(detector *MeatDetector, classifier *RuleClassifier, normalizer *LabelNormalizer, resolver *RatingResolver, fallback domain.FallbackClassifier, config PipelineConfig) *PipelineService {
	defaults := DefaultPipelineConfig()
	if config.FallbackThreshold <= 0 {
		config.FallbackThreshold = defaults.FallbackThreshold
	}
	if config.Workers <= 0 {
		config.Workers = defaults.Workers
	}

	return &PipelineService{
		detector:   detector,
		classifier: classifier,
		normalizer: normalizer,
		resolver:   resolver,
		fallback:   fallback,
		config:     config,
	}
}

// Process runs one record through the full chain. It always returns a
// result; every early exit is encoded in the Status field.
func (s *PipelineService) Process(ctx context.Context, record domain.ProductRecord) domain.MappingResult {
	result := domain.MappingResult{
		Barcode: record.Barcode,
		Name:    record.Name,
		Animal:  domain.AnimalUnknown,
		Label:   "unknown",
		Source:  domain.SourceNone,
	}

	if !s.detector.IsAnimalProduct(record) {
		result.Status = domain.StatusNotApplicable
		return result
	}

	classification := s.classify(ctx, record.SearchText())
	result.Animal = classification.Animal
	result.Label = classification.Label
	result.Source = classification.Source

	if classification.Confidence == 0 {
		result.Status = domain.StatusUnresolvedClassification
		return result
	}

	canonical, err := s.normalizer.Normalize(classification.Label)
	if err != nil {
		result.Status = domain.StatusLabelUnresolved
		return result
	}
	result.Label = canonical

	rating, status, certainty := s.resolver.Resolve(classification.Animal, canonical)
	result.Status = status
	result.Confidence = math.Min(classification.Confidence, certainty)
	if rating != nil {
		result.Tier = rating.Tier
		steps := rating.StepsToGo
		result.StepsToGo = &steps
	}
	return result
}

// classify runs the rule table and, below the confidence threshold, the
// fallback classifier. The more confident answer wins; a fallback error or
// nil answer degrades to the rule result.
func (s *PipelineService) classify(ctx context.Context, text string) domain.ClassificationResult {
	ruled := s.classifier.Classify(text)
	if s.fallback == nil || ruled.Confidence >= s.config.FallbackThreshold {
		return ruled
	}

	answer, err := s.fallback.Classify(ctx, text)
	if err != nil || answer == nil {
		return ruled
	}
	if answer.Confidence > ruled.Confidence {
		adopted := *answer
		adopted.Source = domain.SourceFallback
		return adopted
	}
	return ruled
}

// Run processes records with the configured number of workers, keeping input
// order in the result slice. On cancellation it returns the results completed
// so far together with the context error.
func (s *PipelineService) Run(ctx context.Context, records []domain.ProductRecord) ([]domain.MappingResult, error) {
	results := make([]domain.MappingResult, len(records))

	workers := s.config.Workers
	if workers > len(records) {
		workers = len(records)
	}
	if workers <= 1 {
		for i, record := range records {
			select {
			case <-ctx.Done():
				return results[:i], ctx.Err()
			default:
			}
			results[i] = s.Process(ctx, record)
		}
		return results, nil
	}

	type job struct {
		index  int
		record domain.ProductRecord
	}

	jobs := make(chan job)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				results[j.index] = s.Process(ctx, j.record)
			}
		}()
	}

	fed := 0
	var runErr error
feed:
	for i, record := range records {
		select {
		case <-ctx.Done():
			runErr = ctx.Err()
			break feed
		case jobs <- job{index: i, record: record}:
			fed = i + 1
		}
	}
	close(jobs)
	wg.Wait()

	if runErr != nil {
		return results[:fed], runErr
	}
	return results, nil
}

// Summarize aggregates run results into counts by status, tier and animal.
func Summarize(results []domain.MappingResult) domain.RunSummary {
	summary := domain.RunSummary{
		Total:    len(results),
		ByStatus: make(map[domain.Status]int),
		ByTier:   make(map[domain.Tier]int),
		ByAnimal: make(map[domain.Animal]int),
	}
	for _, result := range results {
		summary.ByStatus[result.Status]++
		if result.Tier != "" {
			summary.ByTier[result.Tier]++
		}
		if result.Animal != "" && result.Animal != domain.AnimalUnknown {
			summary.ByAnimal[result.Animal]++
		}
	}
	return summary
}
