package textnorm

import "testing"

func TestFold(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "lowercases",
			input: "Bio POULET",
			want:  "bio poulet",
		},
		{
			name:  "strips diacritics",
			input: "GEFLÜGEL Côtelette",
			want:  "geflugel cotelette",
		},
		{
			name:  "collapses whitespace",
			input: "  Natura \t Beef \n Edelstück ",
			want:  "natura beef edelstuck",
		},
		{
			name:  "keeps hyphens",
			input: "Natura-Beef",
			want:  "natura-beef",
		},
		{
			name:  "empty input",
			input: "",
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Fold(tt.input); got != tt.want {
				t.Errorf("Fold(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestLabelKey(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "splits hyphens",
			input: "NATURA-BEEF",
			want:  "natura beef",
		},
		{
			name:  "drops trailing country qualifier",
			input: "NATURA-BEEF D",
			want:  "natura beef",
		},
		{
			name:  "drops trailing de qualifier",
			input: "COOP NATURAFARM DE",
			want:  "coop naturafarm",
		},
		{
			name:  "keeps inner d tokens",
			input: "D Natura Beef",
			want:  "d natura beef",
		},
		{
			name:  "single token survives",
			input: "D",
			want:  "d",
		},
		{
			name:  "drops only one qualifier",
			input: "Weide-Beef D D",
			want:  "weide beef d",
		},
		{
			name:  "underscores and slashes",
			input: "bio_suisse/knospe",
			want:  "bio suisse knospe",
		},
		{
			name:  "diacritics folded",
			input: "Bündner Puurachalb",
			want:  "bundner puurachalb",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := LabelKey(tt.input); got != tt.want {
				t.Errorf("LabelKey(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}

	t.Run("idempotent", func(t *testing.T) {
		inputs := []string{"NATURA-BEEF D", "Migros Bio Weide-Beef", "IP-SUISSE", "Sélection Fermière"}
		for _, input := range inputs {
			once := LabelKey(input)
			if twice := LabelKey(once); twice != once {
				t.Errorf("LabelKey(LabelKey(%q)) = %q, want %q", input, twice, once)
			}
		}
	})
}
