package usecase

import (
	"fmt"
	"sort"
	"strings"

	"github.com/welfaremap/backend/internal/domain"
	"github.com/welfaremap/backend/internal/textnorm"
)

// DefaultLabelAliases maps common written variants to canonical label keys.
// Only variants that the fold alone cannot resolve belong here; both sides
// are run through textnorm.LabelKey when the normalizer is built.
func DefaultLabelAliases() map[string]string {
	return map[string]string{
		"naturabeef": "natura beef",
		"naturaveal": "natura veal",
		// "weide beef" is contained in two canonical keys, so containment
		// alone cannot place it.
		"weide beef": "migros weide beef",
		"knospe":     "bio suisse bio knospe",
		"bio knospe": "bio suisse bio knospe",
		"bio suisse": "bio suisse bio knospe",
	}
}

// LabelNormalizer maps raw label text onto the canonical key set of a loaded
// rating table. Aliases whose target key is missing from the canonical set
// are dropped at construction, which keeps Normalize idempotent.
type LabelNormalizer struct {
	canonical map[string]bool
	keys      []string
	aliases   map[string]string
}

// NewLabelNormalizer builds a normalizer over the given canonical keys.
// A nil alias map falls back to DefaultLabelAliases.
func NewLabelNormalizer(canonicalKeys []string, aliases map[string]string) *LabelNormalizer {
	if aliases == nil {
		aliases = DefaultLabelAliases()
	}

	canonical := make(map[string]bool, len(canonicalKeys))
	keys := make([]string, 0, len(canonicalKeys))
	for _, raw := range canonicalKeys {
		key := textnorm.LabelKey(raw)
		if key == "" || canonical[key] {
			continue
		}
		canonical[key] = true
		keys = append(keys, key)
	}
	sort.Strings(keys)

	resolved := make(map[string]string, len(aliases))
	for variant, target := range aliases {
		targetKey := textnorm.LabelKey(target)
		if !canonical[targetKey] {
			continue
		}
		resolved[textnorm.LabelKey(variant)] = targetKey
	}

	return &LabelNormalizer{canonical: canonical, keys: keys, aliases: resolved}
}

// Normalize resolves raw label text to a canonical key. Resolution order:
// exact key match, alias table, then containment against the canonical set.
// Containment only succeeds when exactly one canonical key contains or is
// contained by the folded input; zero or several candidates fail with
// ErrLabelUnresolved.
func (n *LabelNormalizer) Normalize(raw string) (string, error) {
	key := textnorm.LabelKey(raw)
	if key == "" || key == "unknown" {
		return "", fmt.Errorf("%w: empty label", domain.ErrLabelUnresolved)
	}

	if n.canonical[key] {
		return key, nil
	}

	if target, ok := n.aliases[key]; ok {
		return target, nil
	}

	var match string
	candidates := 0
	for _, canonicalKey := range n.keys {
		if strings.Contains(canonicalKey, key) || strings.Contains(key, canonicalKey) {
			candidates++
			match = canonicalKey
		}
	}
	if candidates == 1 {
		return match, nil
	}

	return "", fmt.Errorf("%w: %q has %d canonical candidates", domain.ErrLabelUnresolved, raw, candidates)
}

// Keys returns the canonical key set in sorted order.
func (n *LabelNormalizer) Keys() []string {
	keys := make([]string, len(n.keys))
	copy(keys, n.keys)
	return keys
}
