package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/msto63/mcif/internal/lintstore"
	"github.com/msto63/mcif/pkg/cif"
	"github.com/msto63/mcif/pkg/core/config"
	mdwerror "github.com/msto63/mcif/pkg/core/error"
	"github.com/msto63/mcif/pkg/core/log"
)

var (
	cfgFile    string
	verbose    bool
	dialectArg string
	outputArg  string

	settings *config.Settings
	logger   = log.Discard()
)

// ErrViolations is returned when a lint leaves violations that are not
// allowlisted
var ErrViolations = errors.New("violations found")

var rootCmd = &cobra.Command{
	Use:   "cifcheck",
	Short: "CIF 1.1 / CIF 2.0 parser and linter",
	Long: `cifcheck parses Crystallographic Information Files in either dialect.

Files carrying the #\#CIF_2.0 marker are read as CIF 2.0 and every
construct CIF 2.0 rejects is an error. Unmarked files are read as CIF 1.1,
and lint reports what would have to change for them to pass as CIF 2.0.

Configuration is read from --config (TOML or YAML) and CIFCHECK_*
environment variables, for example CIFCHECK_PARSE_DIALECT=cif2.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
}

// Execute runs the root command and reports errors on stderr
func Execute() error {
	err := rootCmd.Execute()
	if err != nil && !errors.Is(err, ErrViolations) {
		printError(rootCmd.ErrOrStderr(), err)
	}
	return err
}

// ExitCode maps the result of Execute to a process exit code: 0 success,
// 1 violations, 2 any other failure
func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, ErrViolations):
		return 1
	default:
		return 2
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (TOML or YAML)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	rootCmd.PersistentFlags().StringVarP(&dialectArg, "dialect", "d", "", "dialect override: auto, cif1 or cif2")
	rootCmd.PersistentFlags().StringVarP(&outputArg, "output", "o", "", "output format: text, json or yaml")
}

// setup loads settings, applies flag overrides and builds the logger
func setup(cmd *cobra.Command, args []string) error {
	s, err := config.LoadSettings(cfgFile)
	if err != nil {
		return err
	}

	if cmd.Flags().Changed("dialect") {
		d, err := cif.ParseDialect(dialectArg)
		if err != nil {
			return err
		}
		s.Parse.Dialect = d.Short()
	}
	if cmd.Flags().Changed("output") {
		s.Output.Format = strings.ToLower(strings.TrimSpace(outputArg))
	}
	if verbose {
		s.Log.Level = "debug"
	}
	if err := s.Validate(); err != nil {
		return err
	}

	level, err := log.ParseLevel(s.Log.Level)
	if err != nil {
		return mdwerror.Wrap(err, "invalid log.level").
			WithCode(mdwerror.CodeInvalidConfig).
			WithOperation("cifcheck.setup")
	}
	format, err := log.ParseFormat(s.Log.Format)
	if err != nil {
		return mdwerror.Wrap(err, "invalid log.format").
			WithCode(mdwerror.CodeInvalidConfig).
			WithOperation("cifcheck.setup")
	}
	logger = log.NewWithConfig(log.Config{
		Level:  level,
		Format: format,
		Output: cmd.ErrOrStderr(),
		Name:   "cifcheck",
	})
	log.SetDefault(logger)
	settings = s

	logger.Debug("settings loaded", log.Fields{
		"config":  cfgFile,
		"dialect": s.Parse.Dialect,
		"output":  s.Output.Format,
		"store":   s.Store.Path,
	})
	return nil
}

// newParser builds a parser from the settings
func newParser(diagnostics bool) *cif.Parser {
	d, _ := cif.ParseDialect(settings.Parse.Dialect)
	return cif.NewParser(cif.Options{
		Dialect:     d,
		Diagnostics: diagnostics,
		Logger:      logger,
	})
}

// openStore opens the lint history database
func openStore() (lintstore.Store, error) {
	store, err := lintstore.NewSQLiteStore(lintstore.SQLiteConfig{
		Path:   settings.Store.Path,
		Logger: logger,
	})
	if err != nil {
		return nil, err
	}
	return store, nil
}

// readInput reads a named file, or stdin for "-"
func readInput(cmd *cobra.Command, path string) (string, []byte, error) {
	if path == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "<stdin>", nil, mdwerror.Wrap(err, "failed to read stdin").
				WithCode(mdwerror.CodeInvalidInput)
		}
		return "<stdin>", data, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		code := mdwerror.CodeInvalidInput
		if errors.Is(err, os.ErrNotExist) {
			code = mdwerror.CodeNotFound
		}
		return path, nil, mdwerror.Wrap(err, "failed to read "+path).
			WithCode(code).
			WithDetail("path", path)
	}
	return path, data, nil
}

// inputArgs returns the file arguments, stdin when there are none
func inputArgs(args []string) []string {
	if len(args) == 0 {
		return []string{"-"}
	}
	return args
}

func printError(w io.Writer, err error) {
	if sp, ok := mdwerror.SpanOf(err); ok {
		fmt.Fprintf(w, "Error: %s: %v\n", sp, err)
		return
	}
	fmt.Fprintf(w, "Error: %v\n", err)
}
