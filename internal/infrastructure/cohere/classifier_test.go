package cohere

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/welfaremap/backend/internal/domain"
)

func TestNewClassifierRequiresAPIKey(t *testing.T) {
	_, err := NewClassifier(Config{})
	assert.ErrorIs(t, err, domain.ErrMissingCredentials)
}

func TestParseAnswer(t *testing.T) {
	tests := []struct {
		name    string
		reply   string
		want    *modelAnswer
		wantErr bool
	}{
		{
			name:  "bare JSON",
			reply: `{"animal": "beef", "label": "natura beef", "confidence": 0.8, "reasoning": "title names the program"}`,
			want:  &modelAnswer{Animal: "beef", Label: "natura beef", Confidence: 0.8, Reasoning: "title names the program"},
		},
		{
			name: "JSON inside a code fence",
			reply: "Here is my answer:\n```json\n" +
				`{"animal": "pork", "label": "unknown", "confidence": 0.6}` +
				"\n```\nLet me know if you need more.",
			want: &modelAnswer{Animal: "pork", Label: "unknown", Confidence: 0.6},
		},
		{
			name:    "no JSON at all",
			reply:   "I cannot classify this product.",
			wantErr: true,
		},
		{
			name:    "malformed JSON",
			reply:   `{"animal": "beef", "confidence": }`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			answer, err := parseAnswer(tt.reply)
			if tt.wantErr {
				assert.ErrorIs(t, err, domain.ErrFallbackUnavailable)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, answer)
		})
	}
}

func TestResultFromAnswer(t *testing.T) {
	tests := []struct {
		name   string
		answer modelAnswer
		want   *domain.ClassificationResult
	}{
		{
			name:   "animal and label",
			answer: modelAnswer{Animal: "chicken", Label: "Coop Naturafarm", Confidence: 0.7},
			want:   &domain.ClassificationResult{Animal: domain.AnimalChicken, Label: "coop naturafarm", Confidence: 0.7, Source: domain.SourceFallback},
		},
		{
			name:   "german animal alias",
			answer: modelAnswer{Animal: "Rindfleisch", Label: "unknown", Confidence: 0.5},
			want:   &domain.ClassificationResult{Animal: domain.AnimalBeef, Label: "unknown", Confidence: 0.5, Source: domain.SourceFallback},
		},
		{
			name:   "label only",
			answer: modelAnswer{Animal: "unknown", Label: "ip-suisse", Confidence: 0.6},
			want:   &domain.ClassificationResult{Animal: domain.AnimalUnknown, Label: "ip suisse", Confidence: 0.6, Source: domain.SourceFallback},
		},
		{
			name:   "confidence clamped to one",
			answer: modelAnswer{Animal: "milk", Label: "unknown", Confidence: 3},
			want:   &domain.ClassificationResult{Animal: domain.AnimalMilk, Label: "unknown", Confidence: 1, Source: domain.SourceFallback},
		},
		{
			name:   "nothing named",
			answer: modelAnswer{Animal: "unknown", Label: "unknown", Confidence: 0.9},
			want:   nil,
		},
		{
			name:   "invented animal without label",
			answer: modelAnswer{Animal: "fish", Label: "", Confidence: 0.9},
			want:   nil,
		},
		{
			name:   "zero confidence is no answer",
			answer: modelAnswer{Animal: "beef", Label: "natura beef", Confidence: 0},
			want:   nil,
		},
		{
			name:   "negative confidence is no answer",
			answer: modelAnswer{Animal: "beef", Label: "natura beef", Confidence: -0.3},
			want:   nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, resultFromAnswer(tt.answer))
		})
	}
}

func TestBuildPromptCarriesVocabulary(t *testing.T) {
	classifier, err := NewClassifier(Config{
		APIKey: "test-key",
		Labels: []string{"natura beef", "coop naturafarm"},
	})
	require.NoError(t, err)

	prompt := classifier.buildPrompt("Bio Poulet aus der Schweiz")

	assert.Contains(t, prompt, "Bio Poulet aus der Schweiz")
	for _, animal := range domain.Animals() {
		assert.Contains(t, prompt, string(animal))
	}
	assert.Contains(t, prompt, "natura beef")
	assert.Contains(t, prompt, "coop naturafarm")
	assert.Contains(t, prompt, "JSON")
}
