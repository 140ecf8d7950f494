package cli

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/welfaremap/backend/internal/usecase"
)

var rulesOutput string

// newRulesCommand creates the rules command.
func newRulesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Print the classification rule table",
		Long: `Prints the built-in rule table and the label alias map. Useful
for checking why a product text classified the way it did: within each
dimension the matching rule with the highest rank wins.

Examples:
  welfaremap rules
  welfaremap rules --output json
  welfaremap rules --output yaml`,
		RunE: runRules,
	}

	cmd.Flags().StringVar(&rulesOutput, "output", "text", "output format: text, json, yaml")

	return cmd
}

// ruleEntry is the serializable form of one classifier rule.
type ruleEntry struct {
	Pattern string `json:"pattern" yaml:"pattern"`
	Animal  string `json:"animal,omitempty" yaml:"animal,omitempty"`
	Label   string `json:"label,omitempty" yaml:"label,omitempty"`
	Rank    int    `json:"rank" yaml:"rank"`
}

// ruleListing is the full rules output document.
type ruleListing struct {
	Rules   []ruleEntry       `json:"rules" yaml:"rules"`
	Aliases map[string]string `json:"aliases" yaml:"aliases"`
}

func runRules(cmd *cobra.Command, args []string) error {
	classifier := usecase.NewRuleClassifier()

	listing := ruleListing{Aliases: usecase.DefaultLabelAliases()}
	for _, rule := range classifier.Rules() {
		listing.Rules = append(listing.Rules, ruleEntry{
			Pattern: rule.Pattern.String(),
			Animal:  string(rule.Animal),
			Label:   rule.Label,
			Rank:    rule.Specificity,
		})
	}

	out := cmd.OutOrStdout()
	switch rulesOutput {
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(listing)
	case "yaml":
		data, err := yaml.Marshal(listing)
		if err != nil {
			return fmt.Errorf("encoding rules: %w", err)
		}
		_, err = out.Write(data)
		return err
	case "text":
		fmt.Fprintf(out, "%-5s %-8s %-30s %s\n", "RANK", "ANIMAL", "LABEL", "PATTERN")
		for _, entry := range listing.Rules {
			fmt.Fprintf(out, "%-5d %-8s %-30s %s\n", entry.Rank, entry.Animal, entry.Label, entry.Pattern)
		}

		fmt.Fprintln(out)
		fmt.Fprintln(out, "Aliases:")
		aliases := make([]string, 0, len(listing.Aliases))
		for alias := range listing.Aliases {
			aliases = append(aliases, alias)
		}
		sort.Strings(aliases)
		for _, alias := range aliases {
			fmt.Fprintf(out, "  %-30s -> %s\n", alias, listing.Aliases[alias])
		}
		return nil
	default:
		return fmt.Errorf("unknown output format %q, want text, json or yaml", rulesOutput)
	}
}
