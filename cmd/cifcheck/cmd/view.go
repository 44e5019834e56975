package cmd

import (
	"github.com/spf13/cobra"

	"github.com/msto63/mcif/internal/tui/violationview"
	"github.com/msto63/mcif/pkg/cif"
)

var viewHide []string

var viewCmd = &cobra.Command{
	Use:   "view <file>",
	Short: "Browse a file's CIF 2.0 violations in the terminal",
	Long: `Opens an interactive viewer showing the source with every CIF 2.0
violation marked under the line it starts on.

Keys:
  n / p       Next / previous violation
  1-5         Toggle a rule (order as in "cifcheck rules")
  0           Show all rules
  r           Reload the file
  g / G       Top / bottom
  PgUp/PgDn   Scroll
  q           Quit

Rules listed in lint.allow start hidden.`,
	Args: cobra.ExactArgs(1),
	RunE: runView,
}

func init() {
	rootCmd.AddCommand(viewCmd)

	viewCmd.Flags().StringSliceVar(&viewHide, "hide", nil, "rule ids to hide initially (overrides lint.allow)")
}

func runView(cmd *cobra.Command, args []string) error {
	hidden := settings.Lint.Allow
	if cmd.Flags().Changed("hide") {
		hidden = viewHide
	}
	hide, err := ruleIDs(hidden)
	if err != nil {
		return err
	}

	// the TUI owns the terminal, so the parser gets no logger
	d, _ := cif.ParseDialect(settings.Parse.Dialect)
	return violationview.Run(violationview.Config{
		Path:   args[0],
		Parser: cif.NewParser(cif.Options{Dialect: d}),
		Hide:   hide,
	})
}
