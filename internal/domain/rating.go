package domain

import (
	"sort"
	"strings"
)

// Tier is one of the four ordinal welfare ratings, TOP > OK > UNCOOL > NO_GO.
type Tier string

const (
	TierTop    Tier = "TOP"
	TierOK     Tier = "OK"
	TierUncool Tier = "UNCOOL"
	TierNoGo   Tier = "NO_GO"
)

// ParseTier canonicalizes a tier string. Page text spells the lowest tier
// "NO GO"; the canonical form uses an underscore.
func ParseTier(s string) (Tier, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "TOP":
		return TierTop, true
	case "OK":
		return TierOK, true
	case "UNCOOL":
		return TierUncool, true
	case "NO GO", "NO_GO", "NO-GO":
		return TierNoGo, true
	}
	return "", false
}

// RatingRecord is one (animal, label) entry of the reference table.
type RatingRecord struct {
	Label     string `json:"label"`
	Animal    Animal `json:"animal"`
	Tier      Tier   `json:"tier"`
	StepsToGo int    `json:"steps_to_go"`
}

// ScrapedRating is a RatingRecord with its provenance on the reference site.
// The field set is the table-build output schema and must stay stable.
type ScrapedRating struct {
	Label        string `json:"label"`
	LabelURL     string `json:"label_url"`
	Animal       Animal `json:"animal"`
	ProductTitle string `json:"product_title"`
	ProductURL   string `json:"product_url"`
	Tier         Tier   `json:"tier"`
	StepsToGo    int    `json:"steps_to_go"`
}

// Record strips the provenance fields.
func (s ScrapedRating) Record() RatingRecord {
	return RatingRecord{
		Label:     s.Label,
		Animal:    s.Animal,
		Tier:      s.Tier,
		StepsToGo: s.StepsToGo,
	}
}

// TableKey addresses exactly one record in a RatingTable.
type TableKey struct {
	Animal Animal
	Label  string
}

// RatingTable maps (animal, canonical label key) to exactly one RatingRecord.
// Duplicate keys violate the build invariant; the table remembers them so
// lookups can surface the defect instead of silently picking a winner.
// Safe for concurrent reads once built.
type RatingTable struct {
	records   map[TableKey]RatingRecord
	ambiguous map[TableKey]bool
}

// NewRatingTable creates an empty table.
func NewRatingTable() *RatingTable {
	return &RatingTable{
		records:   make(map[TableKey]RatingRecord),
		ambiguous: make(map[TableKey]bool),
	}
}

// Add inserts a record under (animal, label key). Inserting a key twice
// marks it ambiguous and returns ErrDuplicateRating; the first record is
// kept so partial tables remain usable.
func (t *RatingTable) Add(key TableKey, rec RatingRecord) error {
	if _, exists := t.records[key]; exists {
		t.ambiguous[key] = true
		return ErrDuplicateRating
	}
	t.records[key] = rec
	return nil
}

// Get looks up the record for (animal, label key).
func (t *RatingTable) Get(animal Animal, label string) (*RatingRecord, error) {
	key := TableKey{Animal: animal, Label: label}
	if t.ambiguous[key] {
		return nil, ErrAmbiguousRating
	}
	rec, ok := t.records[key]
	if !ok {
		return nil, ErrRatingNotFound
	}
	return &rec, nil
}

// LabelKeys returns the sorted set of canonical label keys in the table.
func (t *RatingTable) LabelKeys() []string {
	seen := make(map[string]bool)
	var keys []string
	for key := range t.records {
		if !seen[key.Label] {
			seen[key.Label] = true
			keys = append(keys, key.Label)
		}
	}
	sort.Strings(keys)
	return keys
}

// Records returns all records ordered by label then animal.
func (t *RatingTable) Records() []RatingRecord {
	recs := make([]RatingRecord, 0, len(t.records))
	for _, rec := range t.records {
		recs = append(recs, rec)
	}
	sort.Slice(recs, func(i, j int) bool {
		if recs[i].Label != recs[j].Label {
			return recs[i].Label < recs[j].Label
		}
		return recs[i].Animal < recs[j].Animal
	})
	return recs
}

// Len returns the number of stored entries.
func (t *RatingTable) Len() int {
	return len(t.records)
}
