package cmd

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/msto63/mcif/pkg/cif"
)

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Show how each dialect treats each construct",
	Long: `Prints the strategy table: for every construct whose reading differs
between the dialects, whether it passes through, is transformed, or is
rejected, and the rule id reported when CIF 2.0 rejects it.`,
	Args: cobra.NoArgs,
	RunE: runRules,
}

func init() {
	rootCmd.AddCommand(rulesCmd)
}

// strategyRow is one construct of the strategy table
type strategyRow struct {
	Construct cif.Construct `json:"construct" yaml:"construct"`
	CIF11     cif.Strategy  `json:"cif1" yaml:"cif1"`
	CIF20     cif.Strategy  `json:"cif2" yaml:"cif2"`
	Rule      cif.RuleID    `json:"rule,omitempty" yaml:"rule,omitempty"`
}

type rulesOutput struct {
	Strategies []strategyRow  `json:"strategies" yaml:"strategies"`
	Rules      []cif.RuleInfo `json:"rules" yaml:"rules"`
}

func strategyRows() []strategyRow {
	constructs := cif.Constructs()
	rows := make([]strategyRow, 0, len(constructs))
	for _, c := range constructs {
		row := strategyRow{
			Construct: c,
			CIF11:     cif.StrategyFor(cif.CIF11, c),
			CIF20:     cif.StrategyFor(cif.CIF20, c),
		}
		if id, ok := cif.RuleFor(c); ok {
			row.Rule = id
		}
		rows = append(rows, row)
	}
	return rows
}

func runRules(cmd *cobra.Command, args []string) error {
	out := rulesOutput{Strategies: strategyRows(), Rules: cif.Rules()}
	return writeOutput(cmd.OutOrStdout(), out, func(w io.Writer) error {
		return writeRules(w, out)
	})
}

func writeRules(w io.Writer, out rulesOutput) error {
	strategies := newTable("Construct", cif.CIF11.String(), cif.CIF20.String(), "Rule")
	for _, r := range out.Strategies {
		strategies.Row(r.Construct.String(), renderStrategy(r.CIF11), renderStrategy(r.CIF20), string(r.Rule))
	}

	rules := newTable("Rule", "Summary", "Suggestion")
	for _, r := range out.Rules {
		rules.Row(string(r.ID), r.Summary, r.Suggestion)
	}

	_, err := fmt.Fprintln(w, lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render("Strategies"),
		strategies.Render(),
		"",
		titleStyle.Render("Rules"),
		rules.Render(),
	))
	return err
}

func renderStrategy(s cif.Strategy) string {
	switch s {
	case cif.Reject:
		return errorStyle.Render(s.String())
	case cif.Transform:
		return warnStyle.Render(s.String())
	default:
		return okStyle.Render(s.String())
	}
}
