package domain

import "strings"

// Animal identifies the animal category a product was classified as.
type Animal string

const (
	AnimalBeef    Animal = "beef"
	AnimalVeal    Animal = "veal"
	AnimalPork    Animal = "pork"
	AnimalChicken Animal = "chicken"
	AnimalEggs    Animal = "eggs"
	AnimalMilk    Animal = "milk"
	AnimalUnknown Animal = "unknown"
)

// animalAliases maps site slugs and common variants to canonical animals.
// The reference site uses German slugs; the pipeline speaks English.
var animalAliases = map[string]Animal{
	"beef":            AnimalBeef,
	"rindfleisch":     AnimalBeef,
	"rind":            AnimalBeef,
	"veal":            AnimalVeal,
	"kalbfleisch":     AnimalVeal,
	"kalb":            AnimalVeal,
	"pork":            AnimalPork,
	"schweinefleisch": AnimalPork,
	"schwein":         AnimalPork,
	"chicken":         AnimalChicken,
	"poulet":          AnimalChicken,
	"pouletfleisch":   AnimalChicken,
	"eggs":            AnimalEggs,
	"eier":            AnimalEggs,
	"milk":            AnimalMilk,
	"milch":           AnimalMilk,
}

// ParseAnimal canonicalizes an animal name. Unrecognized input maps to
// AnimalUnknown rather than an error so callers can degrade per record.
func ParseAnimal(s string) Animal {
	if animal, ok := animalAliases[strings.ToLower(strings.TrimSpace(s))]; ok {
		return animal
	}
	return AnimalUnknown
}

// Animals lists the canonical animal categories, excluding unknown.
func Animals() []Animal {
	return []Animal{AnimalBeef, AnimalVeal, AnimalPork, AnimalChicken, AnimalEggs, AnimalMilk}
}

// Source tells which stage produced a classification.
type Source string

const (
	SourceRule     Source = "rule"
	SourceFallback Source = "fallback"
	SourceNone     Source = "none"
)

// ClassificationResult is the outcome of classifying one product's text.
// Invariant: Confidence 0 implies Animal == AnimalUnknown.
type ClassificationResult struct {
	Animal     Animal  `json:"animal"`
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
	Source     Source  `json:"source"`
}

// Unclassified is the zero-confidence result for text no rule matched.
func Unclassified() ClassificationResult {
	return ClassificationResult{
		Animal:     AnimalUnknown,
		Label:      "unknown",
		Confidence: 0,
		Source:     SourceNone,
	}
}
