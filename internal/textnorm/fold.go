// Package textnorm provides the shared text canonicalization used by the
// classifier, the label normalizer and the rating table. Every component that
// compares product text against label names goes through the same fold so the
// comparisons stay consistent.
package textnorm

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// stripMarks decomposes characters and drops combining marks, which turns
// accented letters into their ASCII base form ("Geflügel" -> "Geflugel").
var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Fold lowercases s, removes diacritics and collapses runs of whitespace into
// single spaces. The result is what classifier patterns match against.
func Fold(s string) string {
	folded, _, err := transform.String(stripMarks, s)
	if err != nil {
		// Malformed input falls back to the raw string rather than failing.
		folded = s
	}
	return strings.Join(strings.Fields(strings.ToLower(folded)), " ")
}

var keySeparators = strings.NewReplacer("-", " ", "_", " ", "/", " ")

// LabelKey derives the canonical lookup key for a label name. On top of Fold
// it treats hyphens, underscores and slashes as spaces and drops a single
// trailing "d" or "de" token, the country qualifier the label site appends to
// its page titles ("NATURA-BEEF D" -> "natura beef"). LabelKey is idempotent.
func LabelKey(s string) string {
	key := Fold(keySeparators.Replace(s))
	fields := strings.Fields(key)
	if n := len(fields); n > 1 {
		switch fields[n-1] {
		case "d", "de":
			fields = fields[:n-1]
		}
	}
	return strings.Join(fields, " ")
}
