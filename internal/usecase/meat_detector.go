package usecase

import (
	"regexp"
	"strings"

	"github.com/welfaremap/backend/internal/domain"
	"github.com/welfaremap/backend/internal/textnorm"
)

// Category terms that mark a product as animal-based. FoodRepo carries
// German, French and Italian catalog data plus some international products,
// so every language the catalog uses is represented.
var animalCategoryTerms = []string{
	// German
	"fleisch", "rindfleisch", "schweinefleisch", "kalbfleisch", "lammfleisch",
	"geflügel", "poulet", "huhn", "ente", "gans", "truthahn", "pute",
	"wurst", "wurstware", "aufschnitt", "speck", "schinken",
	"hackfleisch", "gehacktes", "bratwurst", "leberwurst",

	// French
	"viande", "boeuf", "porc", "veau", "agneau", "mouton",
	"volaille", "canard", "oie", "dinde", "dindon",
	"charcuterie", "jambon", "saucisse", "saucisson", "pâté",
	"bacon", "lard", "rôti", "escalope", "côtelette",

	// Italian
	"carne", "manzo", "maiale", "vitello", "agnello", "montone",
	"pollame", "pollo", "anatra", "oca", "tacchino",
	"salumi", "prosciutto", "salame", "salsiccia", "pancetta",
	"braciola", "scaloppina", "bistecca",

	// English
	"meat", "beef", "pork", "veal", "lamb", "mutton",
	"poultry", "chicken", "duck", "goose", "turkey",
	"sausage", "ham", "salami", "pepperoni",
	"steak", "chops", "ground", "minced",

	// Eggs and dairy, which the rating site covers alongside meat
	"eier", "oeuf", "oeufs", "uova", "egg", "eggs",
	"milch", "lait", "latte", "milk",
}

// Ingredient terms checked against the ingredient list and the product name.
var animalIngredientTerms = []string{
	// Specific animals
	"rind", "schwein", "kalb", "lamm", "ziege", "kaninchen",
	"hirsch", "reh", "wildschwein", "bison",
	"boeuf", "porc", "veau", "agneau", "chèvre", "lapin",
	"cerf", "chevreuil", "sanglier",
	"manzo", "maiale", "vitello", "agnello", "capra", "coniglio",
	"cervo", "capriolo", "cinghiale",
	"beef", "pork", "veal", "lamb", "goat", "rabbit",
	"venison", "deer", "boar",

	// Poultry
	"huhn", "hähnchen", "hühnchen", "ente", "gans", "truthahn", "pute",
	"poulet", "canard", "oie", "dinde", "dindon", "caille",
	"pollo", "anatra", "oca", "tacchino", "quaglia",
	"chicken", "duck", "goose", "turkey", "quail", "fowl",

	// Fish and seafood
	"fisch", "lachs", "forelle", "thunfisch", "kabeljau", "hecht",
	"garnele", "krabbe", "hummer", "muschel", "tintenfisch",
	"poisson", "saumon", "truite", "thon", "cabillaud", "brochet",
	"crevette", "crabe", "homard", "moule", "calmar",
	"pesce", "salmone", "trota", "tonno", "merluzzo", "luccio",
	"gambero", "granchio", "aragosta", "cozza", "calamaro",
	"fish", "salmon", "trout", "tuna", "cod", "pike",
	"shrimp", "prawn", "crab", "lobster", "mussel", "squid", "octopus",

	// Processed meats
	"wurst", "schinken", "speck", "leberwurst", "blutwurst",
	"saucisse", "jambon", "lard", "boudin", "pâté", "rillettes",
	"salsiccia", "prosciutto", "pancetta", "mortadella", "salame",
	"sausage", "ham", "bacon", "salami", "pepperoni", "chorizo",
}

// Exclusion terms that veto detection before anything else is checked.
var exclusionTerms = []string{
	"vegetarisch", "vegan", "pflanzlich", "tofu", "seitan",
	"végétarien", "végétalien", "végétal", "soja",
	"vegetariano", "vegano", "vegetale", "soia",
	"vegetarian", "plant-based", "soy", "soya",
}

// MeatDetector decides whether a product record is animal-based at all.
// Matching is keyword-driven over folded text; false positives are tolerated
// because the classifier downstream resolves them to an unknown animal.
type MeatDetector struct {
	categoryPattern   *regexp.Regexp
	ingredientPattern *regexp.Regexp
	exclusionPattern  *regexp.Regexp
}

// DetectorStats summarizes how a batch of records was detected.
type DetectorStats struct {
	Total        int `json:"total"`
	Detected     int `json:"detected"`
	Excluded     int `json:"excluded"`
	ByCategory   int `json:"by_category"`
	ByIngredient int `json:"by_ingredient"`
	ByName       int `json:"by_name"`
}

// NewMeatDetector creates a detector with the built-in multilingual term sets.
func NewMeatDetector() *MeatDetector {
	return &MeatDetector{
		categoryPattern:   compileTermPattern(animalCategoryTerms),
		ingredientPattern: compileTermPattern(animalIngredientTerms),
		exclusionPattern:  compileTermPattern(exclusionTerms),
	}
}

// compileTermPattern folds the terms the same way input text is folded and
// joins them into a single word-bounded alternation.
func compileTermPattern(terms []string) *regexp.Regexp {
	seen := make(map[string]bool, len(terms))
	folded := make([]string, 0, len(terms))
	for _, term := range terms {
		f := textnorm.Fold(term)
		if f == "" || seen[f] {
			continue
		}
		seen[f] = true
		folded = append(folded, regexp.QuoteMeta(f))
	}
	return regexp.MustCompile(`\b(` + strings.Join(folded, "|") + `)\b`)
}

// IsAnimalProduct reports whether the record looks animal-based. Exclusions
// are checked first and veto everything else.
func (d *MeatDetector) IsAnimalProduct(record domain.ProductRecord) bool {
	if d.hasExclusion(record) {
		return false
	}
	if d.matchesCategories(record) {
		return true
	}
	if d.matchesIngredients(record) {
		return true
	}
	return d.matchesName(record)
}

func (d *MeatDetector) hasExclusion(record domain.ProductRecord) bool {
	text := textnorm.Fold(record.Name + " " + record.IngredientsText)
	return d.exclusionPattern.MatchString(text)
}

func (d *MeatDetector) matchesCategories(record domain.ProductRecord) bool {
	if len(record.Categories) == 0 {
		return false
	}
	return d.categoryPattern.MatchString(textnorm.Fold(strings.Join(record.Categories, " ")))
}

func (d *MeatDetector) matchesIngredients(record domain.ProductRecord) bool {
	if record.IngredientsText == "" {
		return false
	}
	return d.ingredientPattern.MatchString(textnorm.Fold(record.IngredientsText))
}

// matchesName scans the name together with the brand strings. Swiss brand
// names often carry the animal term ("Natura-Beef", "Optigal Poulet"),
// and brands can be the only text on a record enriched from a bare barcode.
func (d *MeatDetector) matchesName(record domain.ProductRecord) bool {
	text := record.Name
	if len(record.Brands) > 0 {
		text = strings.TrimSpace(text + " " + strings.Join(record.Brands, " "))
	}
	if text == "" {
		return false
	}
	folded := textnorm.Fold(text)
	return d.categoryPattern.MatchString(folded) || d.ingredientPattern.MatchString(folded)
}

// Stats runs detection over a batch and reports which checks fired. A record
// can count toward several checks at once.
func (d *MeatDetector) Stats(records []domain.ProductRecord) DetectorStats {
	stats := DetectorStats{Total: len(records)}
	for _, record := range records {
		if d.hasExclusion(record) {
			stats.Excluded++
			continue
		}
		detected := false
		if d.matchesCategories(record) {
			stats.ByCategory++
			detected = true
		}
		if d.matchesIngredients(record) {
			stats.ByIngredient++
			detected = true
		}
		if d.matchesName(record) {
			stats.ByName++
			detected = true
		}
		if detected {
			stats.Detected++
		}
	}
	return stats
}
