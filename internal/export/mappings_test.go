package export

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/welfaremap/backend/internal/domain"
)

func TestWriteMappingsCSV(t *testing.T) {
	steps := 8
	results := []domain.MappingResult{
		{
			Barcode:    "7610200111111",
			Name:       "Bio Poulet Naturafarm",
			Animal:     domain.AnimalChicken,
			Label:      "migros naturafarm",
			Tier:       domain.TierTop,
			StepsToGo:  &steps,
			Confidence: 0.9,
			Source:     domain.SourceRule,
			Status:     domain.StatusMatched,
		},
		{
			Barcode: "4001234567890",
			Name:    "Kalbfleisch Naturafarm",
			Animal:  domain.AnimalVeal,
			Label:   "coop naturafarm",
			Status:  domain.StatusNoMatch,
		},
	}

	path := filepath.Join(t.TempDir(), "mappings.csv")
	require.NoError(t, WriteMappingsCSV(path, results))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	want := `barcode,animal,label,tier,steps_to_go,confidence,status
7610200111111,chicken,migros naturafarm,TOP,8,0.90,MATCHED
4001234567890,veal,coop naturafarm,,,0.00,NO_MATCH
`
	assert.Equal(t, want, string(data))
}

func TestWriteMappingsJSONKeepsProductName(t *testing.T) {
	results := []domain.MappingResult{
		{
			Barcode: "7610200111111",
			Name:    "Bio Poulet Naturafarm",
			Animal:  domain.AnimalChicken,
			Label:   "migros naturafarm",
			Status:  domain.StatusMatched,
		},
	}

	path := filepath.Join(t.TempDir(), "mappings.json")
	require.NoError(t, WriteMappingsJSON(path, results))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var loaded []domain.MappingResult
	require.NoError(t, json.Unmarshal(data, &loaded))
	require.Len(t, loaded, 1)
	assert.Equal(t, "Bio Poulet Naturafarm", loaded[0].Name)
}

func TestWriteSummaryJSON(t *testing.T) {
	summary := domain.RunSummary{
		Total: 3,
		ByStatus: map[domain.Status]int{
			domain.StatusMatched: 2,
			domain.StatusNoMatch: 1,
		},
		ByTier: map[domain.Tier]int{
			domain.TierTop: 2,
		},
		ByAnimal: map[domain.Animal]int{
			domain.AnimalChicken: 2,
			domain.AnimalVeal:    1,
		},
	}

	path := filepath.Join(t.TempDir(), "summary.json")
	require.NoError(t, WriteSummaryJSON(path, summary))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var loaded domain.RunSummary
	require.NoError(t, json.Unmarshal(data, &loaded))
	assert.Equal(t, summary, loaded)
}
