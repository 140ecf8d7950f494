// Package cohere backs the classification fallback with a Cohere chat
// model.
package cohere

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	cohere "github.com/cohere-ai/cohere-go/v2"
	cohereclient "github.com/cohere-ai/cohere-go/v2/client"
	"github.com/rs/zerolog/log"

	"github.com/welfaremap/backend/internal/domain"
	"github.com/welfaremap/backend/internal/textnorm"
)

const defaultModel = "command-r-08-2024"

// jsonBlockPattern grabs the outermost JSON object from a reply that may
// wrap it in prose or a code fence.
var jsonBlockPattern = regexp.MustCompile(`(?s)\{.*\}`)

// Config holds settings for the model-backed classifier.
type Config struct {
	APIKey string
	Model  string
	// Labels is the canonical label vocabulary the model may answer with,
	// normally the label keys of the loaded rating table.
	Labels []string
}

// Classifier asks a Cohere chat model to classify product text the rule
// table was not confident about. It implements domain.FallbackClassifier.
type Classifier struct {
	client *cohereclient.Client
	model  string
	labels []string
}

// NewClassifier creates a classifier. The API key is required.
func NewClassifier(cfg Config) (*Classifier, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: cohere api key", domain.ErrMissingCredentials)
	}
	model := cfg.Model
	if model == "" {
		model = defaultModel
	}

	return &Classifier{
		client: cohereclient.NewClient(cohereclient.WithToken(cfg.APIKey)),
		model:  model,
		labels: append([]string(nil), cfg.Labels...),
	}, nil
}

// Classify sends the product text to the model and maps its JSON answer
// onto the canonical vocabulary. A reply that names neither an animal nor
// a label is returned as (nil, nil) so callers keep the rule result.
func (c *Classifier) Classify(ctx context.Context, text string) (*domain.ClassificationResult, error) {
	model := c.model
	resp, err := c.client.Chat(ctx, &cohere.ChatRequest{
		Message: c.buildPrompt(text),
		Model:   &model,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrFallbackUnavailable, err)
	}

	answer, err := parseAnswer(resp.Text)
	if err != nil {
		return nil, err
	}

	result := resultFromAnswer(*answer)
	if result == nil {
		log.Debug().Str("text", text).Msg("model offered no classification")
		return nil, nil
	}
	log.Debug().
		Str("animal", string(result.Animal)).
		Str("label", result.Label).
		Float64("confidence", result.Confidence).
		Msg("model classification")
	return result, nil
}

func (c *Classifier) buildPrompt(text string) string {
	animals := make([]string, 0, len(domain.Animals()))
	for _, animal := range domain.Animals() {
		animals = append(animals, string(animal))
	}

	var b strings.Builder
	b.WriteString("You classify Swiss grocery products for an animal welfare lookup.\n\n")
	b.WriteString("Product text:\n")
	b.WriteString(text)
	b.WriteString("\n\nAnimal categories: ")
	b.WriteString(strings.Join(animals, ", "))
	b.WriteString("\n")
	if len(c.labels) > 0 {
		b.WriteString("Known welfare labels: ")
		b.WriteString(strings.Join(c.labels, ", "))
		b.WriteString("\n")
	}
	b.WriteString("\nRespond with a single JSON object of the form ")
	b.WriteString(`{"animal": "...", "label": "...", "confidence": 0.0, "reasoning": "..."}.`)
	b.WriteString("\nUse \"unknown\" when the text names no animal category or no known label. ")
	b.WriteString("Confidence is a number between 0 and 1.")
	return b.String()
}

// modelAnswer is the JSON shape the prompt asks for.
type modelAnswer struct {
	Animal     string  `json:"animal"`
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
	Reasoning  string  `json:"reasoning"`
}

func parseAnswer(reply string) (*modelAnswer, error) {
	block := jsonBlockPattern.FindString(reply)
	if block == "" {
		return nil, fmt.Errorf("%w: no JSON object in model reply", domain.ErrFallbackUnavailable)
	}

	var answer modelAnswer
	if err := json.Unmarshal([]byte(block), &answer); err != nil {
		return nil, fmt.Errorf("%w: decoding model reply: %v", domain.ErrFallbackUnavailable, err)
	}
	return &answer, nil
}

// resultFromAnswer maps a model answer onto the canonical vocabulary.
// Animals outside the vocabulary become unknown, labels are folded to
// key form, and the confidence is clamped to [0, 1]. An answer naming
// nothing, or one the model itself gives zero confidence, is no answer.
func resultFromAnswer(answer modelAnswer) *domain.ClassificationResult {
	animal := domain.ParseAnimal(answer.Animal)

	label := textnorm.LabelKey(answer.Label)
	if label == "unknown" {
		label = ""
	}

	if animal == domain.AnimalUnknown && label == "" {
		return nil
	}

	confidence := answer.Confidence
	if confidence > 1 {
		confidence = 1
	}
	if confidence <= 0 {
		return nil
	}

	if label == "" {
		label = "unknown"
	}
	return &domain.ClassificationResult{
		Animal:     animal,
		Label:      label,
		Confidence: confidence,
		Source:     domain.SourceFallback,
	}
}
