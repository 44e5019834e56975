package cmd

import (
	"fmt"
	"io"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/msto63/mcif/pkg/core/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Args:  cobra.NoArgs,
	RunE:  runVersion,
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

type versionOutput struct {
	Version     string            `json:"version" yaml:"version"`
	Commit      string            `json:"commit" yaml:"commit"`
	BuildDate   string            `json:"build_date" yaml:"build_date"`
	GoVersion   string            `json:"go_version" yaml:"go_version"`
	Platform    string            `json:"platform" yaml:"platform"`
	StoreSchema int               `json:"store_schema" yaml:"store_schema"`
	Components  map[string]string `json:"components" yaml:"components"`
}

func runVersion(cmd *cobra.Command, args []string) error {
	out := versionOutput{
		Version:     version.Toolkit,
		Commit:      version.Commit,
		BuildDate:   version.BuildDate,
		GoVersion:   runtime.Version(),
		Platform:    runtime.GOOS + "/" + runtime.GOARCH,
		StoreSchema: version.StoreSchema,
		Components:  make(map[string]string),
	}
	for _, c := range version.Components() {
		out.Components[c] = version.ComponentVersion(c)
	}

	return writeOutput(cmd.OutOrStdout(), out, func(w io.Writer) error {
		fmt.Fprintf(w, "cifcheck v%s\n", out.Version)
		fmt.Fprintf(w, "  Git Commit:   %s\n", out.Commit)
		fmt.Fprintf(w, "  Build Date:   %s\n", out.BuildDate)
		fmt.Fprintf(w, "  Go Version:   %s\n", out.GoVersion)
		fmt.Fprintf(w, "  OS/Arch:      %s\n", out.Platform)
		fmt.Fprintf(w, "  Store Schema: %d\n", out.StoreSchema)
		for _, c := range version.Components() {
			fmt.Fprintf(w, "  %-13s v%s\n", c+":", out.Components[c])
		}
		return nil
	})
}
