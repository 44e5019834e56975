package cmd

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/msto63/mcif/internal/lintstore"
	"github.com/msto63/mcif/pkg/cif"
	"github.com/msto63/mcif/pkg/core/log"
)

var (
	historyPath       string
	historyRule       string
	historySince      time.Duration
	historyLimit      int
	historyViolations bool
	historyOlderThan  time.Duration
	historyVacuum     bool
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recorded lint runs",
	Long: `Lists lint runs recorded with "cifcheck lint --record", newest first.

Examples:
  cifcheck history
  cifcheck history --path legacy.cif --since 168h
  cifcheck history --rule CIF2_DOUBLED_QUOTE
  cifcheck history show <run-id>
  cifcheck history rules
  cifcheck history stats
  cifcheck history prune --older-than 720h`,
	Args: cobra.NoArgs,
	RunE: runHistory,
}

var historyShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Show one run with its violations",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryShow,
}

var historyRulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Count recorded violations per rule",
	Args:  cobra.NoArgs,
	RunE:  runHistoryRules,
}

var historyStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Summarize the lint history",
	Args:  cobra.NoArgs,
	RunE:  runHistoryStats,
}

var historyPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete old runs",
	Args:  cobra.NoArgs,
	RunE:  runHistoryPrune,
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.AddCommand(historyShowCmd, historyRulesCmd, historyStatsCmd, historyPruneCmd)

	historyCmd.PersistentFlags().StringVar(&historyPath, "path", "", "only runs of this file")
	historyCmd.PersistentFlags().StringVar(&historyRule, "rule", "", "only runs with a violation of this rule")
	historyCmd.PersistentFlags().DurationVar(&historySince, "since", 0, "only runs newer than this age, e.g. 24h")
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "maximum number of runs")
	historyCmd.Flags().BoolVar(&historyViolations, "violations", false, "include each run's violations")

	historyPruneCmd.Flags().DurationVar(&historyOlderThan, "older-than", 30*24*time.Hour, "delete runs older than this age")
	historyPruneCmd.Flags().BoolVar(&historyVacuum, "vacuum", false, "compact the database afterwards")
}

// historyFilter builds the run filter from the shared flags
func historyFilter() lintstore.RunFilter {
	f := lintstore.RunFilter{
		Path:   historyPath,
		RuleID: cif.RuleID(historyRule),
	}
	if historySince > 0 {
		f.StartTime = time.Now().UTC().Add(-historySince)
	}
	return f
}

// withStore opens the history store for the duration of fn
func withStore(fn func(ctx context.Context, store lintstore.Store) error) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(context.Background(), store)
}

func runHistory(cmd *cobra.Command, args []string) error {
	return withStore(func(ctx context.Context, store lintstore.Store) error {
		f := historyFilter()
		f.Limit = historyLimit
		f.WithViolations = historyViolations

		runs, err := store.Query(ctx, f)
		if err != nil {
			return err
		}
		if runs == nil {
			runs = []*lintstore.Run{}
		}
		return writeOutput(cmd.OutOrStdout(), runs, func(w io.Writer) error {
			return writeRuns(w, runs)
		})
	})
}

func runHistoryShow(cmd *cobra.Command, args []string) error {
	return withStore(func(ctx context.Context, store lintstore.Store) error {
		run, err := store.Get(ctx, args[0])
		if err != nil {
			return err
		}
		return writeOutput(cmd.OutOrStdout(), run, func(w io.Writer) error {
			fmt.Fprintf(w, "%s  %s\n", titleStyle.Render(run.Path), mutedStyle.Render(run.ID))
			fmt.Fprintf(w, "  %s  %s  sha256:%s\n", run.Timestamp.Local().Format(time.RFC3339), run.Dialect, run.Digest)
			for _, v := range run.Violations {
				fmt.Fprintf(w, "  %s\n", v)
			}
			return nil
		})
	})
}

func runHistoryRules(cmd *cobra.Command, args []string) error {
	return withStore(func(ctx context.Context, store lintstore.Store) error {
		counts, err := store.RuleCounts(ctx, historyFilter())
		if err != nil {
			return err
		}
		if counts == nil {
			counts = []lintstore.RuleCount{}
		}
		return writeOutput(cmd.OutOrStdout(), counts, func(w io.Writer) error {
			t := newTable("Rule", "Count", "Summary")
			for _, c := range counts {
				info, _ := cif.LookupRule(c.RuleID)
				t.Row(string(c.RuleID), strconv.Itoa(c.Count), info.Summary)
			}
			_, err := fmt.Fprintln(w, t.Render())
			return err
		})
	})
}

func runHistoryStats(cmd *cobra.Command, args []string) error {
	return withStore(func(ctx context.Context, store lintstore.Store) error {
		st, err := store.Stats(ctx)
		if err != nil {
			return err
		}
		return writeOutput(cmd.OutOrStdout(), st, func(w io.Writer) error {
			fmt.Fprintf(w, "runs:       %d (%d clean)\n", st.Runs, st.CleanRuns)
			fmt.Fprintf(w, "files:      %d\n", st.Files)
			fmt.Fprintf(w, "violations: %d\n", st.Violations)
			if st.Runs > 0 {
				fmt.Fprintf(w, "first run:  %s\n", st.FirstRun.Local().Format(time.RFC3339))
				fmt.Fprintf(w, "last run:   %s\n", st.LastRun.Local().Format(time.RFC3339))
			}
			return nil
		})
	})
}

func runHistoryPrune(cmd *cobra.Command, args []string) error {
	return withStore(func(ctx context.Context, store lintstore.Store) error {
		n, err := store.Prune(ctx, historyOlderThan)
		if err != nil {
			return err
		}
		if historyVacuum {
			if err := store.Vacuum(ctx); err != nil {
				return err
			}
		}
		logger.Info("history pruned", log.Fields{"runs": n, "older_than": historyOlderThan.String()})
		fmt.Fprintf(cmd.OutOrStdout(), "%d runs deleted\n", n)
		return nil
	})
}

func writeRuns(w io.Writer, runs []*lintstore.Run) error {
	if len(runs) == 0 {
		_, err := fmt.Fprintln(w, mutedStyle.Render("no runs recorded"))
		return err
	}
	t := newTable("Time", "Path", "Dialect", "Violations", "Run")
	for _, r := range runs {
		t.Row(r.Timestamp.Local().Format("2006-01-02 15:04:05"), r.Path, r.Dialect.Short(),
			strconv.Itoa(r.ViolationCount), r.ID)
	}
	if _, err := fmt.Fprintln(w, t.Render()); err != nil {
		return err
	}
	for _, r := range runs {
		for _, v := range r.Violations {
			fmt.Fprintf(w, "%s %s\n", mutedStyle.Render(r.Path), v)
		}
	}
	return nil
}
