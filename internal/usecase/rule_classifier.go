package usecase

import (
	"regexp"

	"github.com/welfaremap/backend/internal/domain"
	"github.com/welfaremap/backend/internal/textnorm"
)

// Rule is a single classifier table entry. A rule may pin the animal, a label
// token, or both. Specificity ranks competing matches within each dimension;
// a tie keeps the rule declared first.
type Rule struct {
	Pattern     *regexp.Regexp
	Animal      domain.Animal
	Label       string
	Specificity int
}

// Confidence ladder for rule classifications. A result that pins both animal
// and label may come from two separate rules matching the same text.
const (
	confidenceBoth       = 0.9
	confidenceLabelOnly  = 0.75
	confidenceAnimalOnly = 0.7
)

// defaultRules is the built-in classification table. Patterns run against
// folded text, so they are lowercase and diacritic-free. Label tokens are the
// shortest distinctive form of a program name; the normalizer expands them to
// full table keys. Program rules that also fix the animal come first, then
// label-only programs, then plain animal vocabulary.
var defaultRules = []Rule{
	// Programs tied to a single animal
	{Pattern: regexp.MustCompile(`\bsilvestri\b.*\bbio\b.*\bweiderind\b`), Animal: domain.AnimalBeef, Label: "silvestri bio weiderind", Specificity: 88},
	{Pattern: regexp.MustCompile(`\bmigros\b.*\bbio\b.*\bweide[- ]?beef\b`), Animal: domain.AnimalBeef, Label: "migros bio weide beef", Specificity: 86},
	{Pattern: regexp.MustCompile(`\bsilvestri\b.*\balpschwein\b`), Animal: domain.AnimalPork, Label: "silvestri alpschwein", Specificity: 84},
	{Pattern: regexp.MustCompile(`\bsilvestri\b.*\bweiderind\b`), Animal: domain.AnimalBeef, Label: "silvestri weiderind", Specificity: 82},
	{Pattern: regexp.MustCompile(`\bsilvestri\b.*\bfreiland`), Animal: domain.AnimalPork, Label: "silvestri freilandschwein", Specificity: 80},
	{Pattern: regexp.MustCompile(`\bmigros\b.*\bweide[- ]?beef\b`), Animal: domain.AnimalBeef, Label: "migros weide beef", Specificity: 80},
	{Pattern: regexp.MustCompile(`\bswiss black angus\b`), Animal: domain.AnimalBeef, Label: "swiss black angus", Specificity: 78},
	{Pattern: regexp.MustCompile(`\bnatura[- ]?beef\b`), Animal: domain.AnimalBeef, Label: "natura beef", Specificity: 76},
	{Pattern: regexp.MustCompile(`\bnatura[- ]?veal\b`), Animal: domain.AnimalVeal, Label: "natura veal", Specificity: 76},
	{Pattern: regexp.MustCompile(`\bpuurachalb\b`), Animal: domain.AnimalVeal, Label: "puurachalb", Specificity: 74},
	{Pattern: regexp.MustCompile(`\bkrauterschwein\b`), Animal: domain.AnimalPork, Label: "krauterschwein", Specificity: 72},
	{Pattern: regexp.MustCompile(`\boptigal\b`), Animal: domain.AnimalChicken, Label: "optigal", Specificity: 72},
	{Pattern: regexp.MustCompile(`\bheumilch\b`), Animal: domain.AnimalMilk, Label: "heumilch", Specificity: 72},
	{Pattern: regexp.MustCompile(`\bheidimilch\b`), Animal: domain.AnimalMilk, Label: "heidimilch", Specificity: 72},
	{Pattern: regexp.MustCompile(`\bcowpassion\b`), Animal: domain.AnimalMilk, Label: "cowpassion", Specificity: 72},
	{Pattern: regexp.MustCompile(`\bfaire milch\b`), Animal: domain.AnimalMilk, Label: "faire milch", Specificity: 70},

	// Programs that span several animals
	{Pattern: regexp.MustCompile(`\bnature suisse bio\b`), Label: "nature suisse bio", Specificity: 56},
	{Pattern: regexp.MustCompile(`\bmigros\b.*\bbio\b.*\bschweiz`), Label: "migros bio mit schweizerkreuz", Specificity: 54},
	{Pattern: regexp.MustCompile(`\bbio natur plus\b`), Label: "bio natur plus", Specificity: 52},
	{Pattern: regexp.MustCompile(`\bretour aux sources\b`), Label: "retour aux sources", Specificity: 52},
	{Pattern: regexp.MustCompile(`\bip[- ]?suisse\b`), Label: "ip suisse", Specificity: 50},
	{Pattern: regexp.MustCompile(`\bsuisse\s*garantie\b`), Label: "suisse garantie", Specificity: 50},
	{Pattern: regexp.MustCompile(`\bagri\s*natura\b`), Label: "agri natura", Specificity: 50},
	{Pattern: regexp.MustCompile(`\bnature suisse\b`), Label: "nature suisse", Specificity: 50},
	{Pattern: regexp.MustCompile(`\bkag\s*freiland\b`), Label: "kagfreiland", Specificity: 48},
	{Pattern: regexp.MustCompile(`\bpro montagna\b`), Label: "pro montagna", Specificity: 48},
	{Pattern: regexp.MustCompile(`\bnatura[- ]?plan\b`), Label: "naturaplan", Specificity: 46},
	{Pattern: regexp.MustCompile(`\bnatura[- ]?farm\b`), Label: "naturafarm", Specificity: 46},
	{Pattern: regexp.MustCompile(`\b(bio[- ]?suisse|bio[- ]?knospe|knospe)\b`), Label: "bio suisse", Specificity: 44},
	{Pattern: regexp.MustCompile(`\bdemeter\b`), Label: "demeter", Specificity: 42},

	// Animal vocabulary, German compound forms before the generic words
	{Pattern: regexp.MustCompile(`\bkalbfleisch\b`), Animal: domain.AnimalVeal, Specificity: 30},
	{Pattern: regexp.MustCompile(`\brindfleisch\b`), Animal: domain.AnimalBeef, Specificity: 30},
	{Pattern: regexp.MustCompile(`\bschweinefleisch\b`), Animal: domain.AnimalPork, Specificity: 30},
	{Pattern: regexp.MustCompile(`\bkalb\b`), Animal: domain.AnimalVeal, Specificity: 24},
	{Pattern: regexp.MustCompile(`\b(veal|veau|vitello)\b`), Animal: domain.AnimalVeal, Specificity: 24},
	{Pattern: regexp.MustCompile(`\b(rind|beef|boeuf|manzo)\b`), Animal: domain.AnimalBeef, Specificity: 22},
	{Pattern: regexp.MustCompile(`\b(schwein|pork|porc|maiale)\b`), Animal: domain.AnimalPork, Specificity: 22},
	{Pattern: regexp.MustCompile(`\b(poulet|huhn|chicken|pollo|hahnchen)\b`), Animal: domain.AnimalChicken, Specificity: 22},
	{Pattern: regexp.MustCompile(`\b(eier|eggs|oeufs|uova)\b`), Animal: domain.AnimalEggs, Specificity: 22},
	{Pattern: regexp.MustCompile(`\bmilch\b`), Animal: domain.AnimalMilk, Specificity: 22},
	{Pattern: regexp.MustCompile(`\b(milk|lait|latte)\b`), Animal: domain.AnimalMilk, Specificity: 20},
}

// RuleClassifier classifies product text with an ordered pattern table. It is
// pure and deterministic, which keeps results cacheable and testable.
type RuleClassifier struct {
	rules []Rule
}

// NewRuleClassifier creates a classifier with the built-in rule table.
func NewRuleClassifier() *RuleClassifier {
	return &RuleClassifier{rules: defaultRules}
}

// Rules returns a copy of the classifier's table.
func (c *RuleClassifier) Rules() []Rule {
	rules := make([]Rule, len(c.rules))
	copy(rules, c.rules)
	return rules
}

// Classify folds the text and evaluates every rule. The animal and the label
// are selected independently: the highest-specificity match that pins each
// dimension wins, so "Bio Poulet Naturafarm" resolves the animal from the
// poulet rule and the label from the naturafarm rule.
func (c *RuleClassifier) Classify(text string) domain.ClassificationResult {
	result := domain.Unclassified()

	folded := textnorm.Fold(text)
	if folded == "" {
		return result
	}

	var animalRule, labelRule *Rule
	for i := range c.rules {
		rule := &c.rules[i]
		if !rule.Pattern.MatchString(folded) {
			continue
		}
		if rule.Animal != "" {
			if animalRule == nil || rule.Specificity > animalRule.Specificity {
				animalRule = rule
			}
		}
		if rule.Label != "" {
			if labelRule == nil || rule.Specificity > labelRule.Specificity {
				labelRule = rule
			}
		}
	}

	switch {
	case animalRule != nil && labelRule != nil:
		result.Animal = animalRule.Animal
		result.Label = labelRule.Label
		result.Confidence = confidenceBoth
	case labelRule != nil:
		result.Label = labelRule.Label
		result.Confidence = confidenceLabelOnly
	case animalRule != nil:
		result.Animal = animalRule.Animal
		result.Confidence = confidenceAnimalOnly
	default:
		return result
	}

	result.Source = domain.SourceRule
	return result
}
