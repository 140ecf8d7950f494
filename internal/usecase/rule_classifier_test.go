package usecase

import (
	"reflect"
	"testing"

	"github.com/welfaremap/backend/internal/domain"
)

func TestRuleClassifierClassify(t *testing.T) {
	classifier := NewRuleClassifier()

	tests := []struct {
		name           string
		text           string
		wantAnimal     domain.Animal
		wantLabel      string
		wantConfidence float64
	}{
		{
			name:           "program rule pins both",
			text:           "Natura-Beef Entrecôte",
			wantAnimal:     domain.AnimalBeef,
			wantLabel:      "natura beef",
			wantConfidence: 0.9,
		},
		{
			name:           "animal and label from separate rules",
			text:           "Bio Poulet Naturafarm",
			wantAnimal:     domain.AnimalChicken,
			wantLabel:      "naturafarm",
			wantConfidence: 0.9,
		},
		{
			name:           "animal only",
			text:           "Rindfleisch geschnetzelt",
			wantAnimal:     domain.AnimalBeef,
			wantLabel:      "unknown",
			wantConfidence: 0.7,
		},
		{
			name:           "label only",
			text:           "IP-Suisse Wochenaktion",
			wantAnimal:     domain.AnimalUnknown,
			wantLabel:      "ip suisse",
			wantConfidence: 0.75,
		},
		{
			name:           "compound beats generic animal term",
			text:           "Kalbfleisch vom Rind-Metzger",
			wantAnimal:     domain.AnimalVeal,
			wantLabel:      "unknown",
			wantConfidence: 0.7,
		},
		{
			name:           "longer program beats its prefix",
			text:           "Nature Suisse Bio Poulet",
			wantAnimal:     domain.AnimalChicken,
			wantLabel:      "nature suisse bio",
			wantConfidence: 0.9,
		},
		{
			name:           "bio weide beef beats weide beef",
			text:           "Migros Bio Weide-Beef Hackfleisch",
			wantAnimal:     domain.AnimalBeef,
			wantLabel:      "migros bio weide beef",
			wantConfidence: 0.9,
		},
		{
			name:           "diacritics folded before matching",
			text:           "KRÄUTERSCHWEIN Bratwurst",
			wantAnimal:     domain.AnimalPork,
			wantLabel:      "krauterschwein",
			wantConfidence: 0.9,
		},
		{
			name:           "no match",
			text:           "Mineralwasser mit Kohlensäure",
			wantAnimal:     domain.AnimalUnknown,
			wantLabel:      "unknown",
			wantConfidence: 0,
		},
		{
			name:           "empty text",
			text:           "",
			wantAnimal:     domain.AnimalUnknown,
			wantLabel:      "unknown",
			wantConfidence: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classifier.Classify(tt.text)

			if got.Animal != tt.wantAnimal {
				t.Errorf("Animal = %q, want %q", got.Animal, tt.wantAnimal)
			}
			if got.Label != tt.wantLabel {
				t.Errorf("Label = %q, want %q", got.Label, tt.wantLabel)
			}
			if got.Confidence != tt.wantConfidence {
				t.Errorf("Confidence = %v, want %v", got.Confidence, tt.wantConfidence)
			}
			if tt.wantConfidence == 0 && got.Source != domain.SourceNone {
				t.Errorf("Source = %q, want %q", got.Source, domain.SourceNone)
			}
			if tt.wantConfidence > 0 && got.Source != domain.SourceRule {
				t.Errorf("Source = %q, want %q", got.Source, domain.SourceRule)
			}
		})
	}
}

func TestRuleClassifierDeterministic(t *testing.T) {
	classifier := NewRuleClassifier()
	inputs := []string{
		"Bio Poulet Naturafarm",
		"Natura-Beef Entrecôte",
		"Silvestri Bio-Weiderind",
		"Vollmilch",
		"",
	}

	for _, input := range inputs {
		first := classifier.Classify(input)
		for i := 0; i < 5; i++ {
			if got := classifier.Classify(input); !reflect.DeepEqual(got, first) {
				t.Errorf("Classify(%q) not deterministic: %+v vs %+v", input, got, first)
			}
		}
	}
}

func TestRuleClassifierConfidenceZeroMeansUnknown(t *testing.T) {
	classifier := NewRuleClassifier()
	inputs := []string{"", "Apfelsaft", "Tomatensauce Basilikum", "Bio Suisse Knospe"}

	for _, input := range inputs {
		got := classifier.Classify(input)
		if got.Confidence == 0 && got.Animal != domain.AnimalUnknown {
			t.Errorf("Classify(%q): confidence 0 but animal %q", input, got.Animal)
		}
	}
}

func TestRuleClassifierRulesCopy(t *testing.T) {
	classifier := NewRuleClassifier()

	rules := classifier.Rules()
	if len(rules) == 0 {
		t.Fatal("Rules() returned empty table")
	}
	rules[0].Label = "tampered"

	if fresh := classifier.Rules(); fresh[0].Label == "tampered" {
		t.Error("Rules() exposes internal table")
	}
}
