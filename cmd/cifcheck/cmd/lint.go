package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/msto63/mcif/internal/lintstore"
	"github.com/msto63/mcif/pkg/cif"
	mdwerror "github.com/msto63/mcif/pkg/core/error"
	"github.com/msto63/mcif/pkg/core/log"
)

var (
	lintRecord bool
	lintAllow  []string
)

var lintCmd = &cobra.Command{
	Use:   "lint [file...]",
	Short: "Report what CIF 2.0 would reject",
	Long: `Lists every construct a strict CIF 2.0 reading would reject, for each
file (or stdin), without failing on the first one.

Violations of allowlisted rules are reported as allowed and do not fail the
run. The exit code is 1 when other violations remain and 2 when a file
could not be read or parsed.

Examples:
  cifcheck lint legacy.cif
  cifcheck lint --allow CIF2_EMPTY_BLOCK_NAME *.cif
  cifcheck lint --record -o json data/*.cif`,
	RunE: runLint,
}

func init() {
	rootCmd.AddCommand(lintCmd)

	lintCmd.Flags().BoolVar(&lintRecord, "record", false, "record the runs in the lint history")
	lintCmd.Flags().StringSliceVar(&lintAllow, "allow", nil, "rule ids that do not fail the lint (overrides lint.allow)")
}

// fileReport is the lint result of one file
type fileReport struct {
	Path       string          `json:"path" yaml:"path"`
	Dialect    cif.Dialect     `json:"dialect" yaml:"dialect"`
	Violations []cif.Violation `json:"violations" yaml:"violations"`
	Allowed    int             `json:"allowed" yaml:"allowed"`
	Stats      cif.Stats       `json:"stats" yaml:"stats"`
	RunID      string          `json:"run_id,omitempty" yaml:"run_id,omitempty"`
	Error      string          `json:"error,omitempty" yaml:"error,omitempty"`
}

func runLint(cmd *cobra.Command, args []string) error {
	allowed := settings.Lint.Allow
	if cmd.Flags().Changed("allow") {
		allowed = lintAllow
	}
	allow, err := ruleIDs(allowed)
	if err != nil {
		return err
	}

	parser := newParser(false)
	var (
		reports []fileReport
		runs    []*lintstore.Run
		failed  int
		dirty   int
	)
	for _, arg := range inputArgs(args) {
		name, src, err := readInput(cmd, arg)
		if err == nil {
			var report *cif.LintReport
			if report, err = parser.Lint(string(src)); err == nil {
				kept := cif.FilterViolations(report.Violations, allow)
				fr := fileReport{
					Path:       name,
					Dialect:    report.Dialect,
					Violations: kept,
					Allowed:    len(report.Violations) - len(kept),
					Stats:      report.Stats,
				}
				if lintRecord {
					run := lintstore.NewRun(name, src, report)
					fr.RunID = run.ID
					runs = append(runs, run)
				}
				if len(kept) > 0 {
					dirty++
				}
				reports = append(reports, fr)
				continue
			}
		}

		failed++
		logger.LogError(err)
		reports = append(reports, fileReport{Path: name, Violations: []cif.Violation{}, Error: err.Error()})
	}

	if len(runs) > 0 {
		if err := recordRuns(runs); err != nil {
			return err
		}
	}

	if err := writeOutput(cmd.OutOrStdout(), reports, func(w io.Writer) error {
		return writeLintReports(w, reports)
	}); err != nil {
		return err
	}

	switch {
	case failed > 0:
		return mdwerror.Newf("%d of %d files could not be linted", failed, len(reports)).
			WithCode(mdwerror.CodeInvalidInput).
			WithOperation("cifcheck.lint")
	case dirty > 0:
		return ErrViolations
	}
	return nil
}

// ruleIDs validates rule id strings against the known rules
func ruleIDs(ids []string) ([]cif.RuleID, error) {
	out := make([]cif.RuleID, 0, len(ids))
	for _, s := range ids {
		id := cif.RuleID(s)
		if _, ok := cif.LookupRule(id); !ok {
			return nil, mdwerror.Newf("unknown rule %q", s).
				WithCode(mdwerror.CodeInvalidInput).
				WithOperation("cifcheck.lint").
				WithDetail("rule_id", s)
		}
		out = append(out, id)
	}
	return out, nil
}

func recordRuns(runs []*lintstore.Run) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	accepted, rejected, err := store.RecordBatch(context.Background(), runs)
	if err != nil {
		return err
	}
	logger.Info("lint runs recorded", log.Fields{"accepted": accepted, "rejected": rejected})
	return nil
}

func writeLintReports(w io.Writer, reports []fileReport) error {
	for _, r := range reports {
		switch {
		case r.Error != "":
			fmt.Fprintf(w, "%s: %s %s\n", r.Path, errorStyle.Render("error"), r.Error)
			continue
		case len(r.Violations) == 0:
			fmt.Fprintf(w, "%s: %s", r.Path, okStyle.Render("ok"))
		default:
			fmt.Fprintf(w, "%s: %s", r.Path, warnStyle.Render(fmt.Sprintf("%d violations", len(r.Violations))))
		}
		fmt.Fprint(w, mutedStyle.Render(fmt.Sprintf(" (%s", r.Dialect)))
		if r.Allowed > 0 {
			fmt.Fprint(w, mutedStyle.Render(fmt.Sprintf(", %d allowed", r.Allowed)))
		}
		fmt.Fprintln(w, mutedStyle.Render(")"))
		for _, v := range r.Violations {
			fmt.Fprintf(w, "  %s\n", v)
		}
	}
	return nil
}
