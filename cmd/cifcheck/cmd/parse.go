package cmd

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/msto63/mcif/pkg/cif"
	"github.com/msto63/mcif/pkg/cif/span"
	mdwerror "github.com/msto63/mcif/pkg/core/error"
)

var (
	parseDiagnostics bool
	parseAt          string
)

var parseCmd = &cobra.Command{
	Use:   "parse [file]",
	Short: "Parse a CIF file and print the document",
	Long: `Parses a CIF file (or stdin) and prints the resolved document.

The dialect is detected from the #\#CIF_2.0 marker unless --dialect is
given. A CIF 2.0 document with a construct CIF 2.0 rejects fails with the
first violation and its position.

Examples:
  cifcheck parse structure.cif
  cifcheck parse -o json structure.cif
  cifcheck parse --diagnostics legacy.cif
  cifcheck parse --at 12:5 structure.cif
  cat structure.cif | cifcheck parse`,
	Args: cobra.MaximumNArgs(1),
	RunE: runParse,
}

func init() {
	rootCmd.AddCommand(parseCmd)

	parseCmd.Flags().BoolVar(&parseDiagnostics, "diagnostics", false, "also report CIF 2.0 violations of CIF 1.1 input")
	parseCmd.Flags().StringVar(&parseAt, "at", "", "print the construct at LINE:COL instead of the document")
}

// parseOutput is the machine-readable form of a parse
type parseOutput struct {
	Path       string          `json:"path" yaml:"path"`
	Dialect    cif.Dialect     `json:"dialect" yaml:"dialect"`
	ParseID    string          `json:"parse_id" yaml:"parse_id"`
	Stats      cif.Stats       `json:"stats" yaml:"stats"`
	Document   *cif.Document   `json:"document" yaml:"document"`
	Violations []cif.Violation `json:"violations,omitempty" yaml:"violations,omitempty"`
}

// locationOutput is the machine-readable form of a located construct
type locationOutput struct {
	Block  string     `json:"block" yaml:"block"`
	Frame  string     `json:"frame,omitempty" yaml:"frame,omitempty"`
	Tag    string     `json:"tag,omitempty" yaml:"tag,omitempty"`
	Row    int        `json:"row" yaml:"row"`
	Column int        `json:"column" yaml:"column"`
	OnName bool       `json:"on_name,omitempty" yaml:"on_name,omitempty"`
	Path   []string   `json:"path,omitempty" yaml:"path,omitempty"`
	Value  *cif.Value `json:"value,omitempty" yaml:"value,omitempty"`
	Span   span.Span  `json:"span" yaml:"span"`
}

func runParse(cmd *cobra.Command, args []string) error {
	name, src, err := readInput(cmd, inputArgs(args)[0])
	if err != nil {
		return err
	}

	res, err := newParser(parseDiagnostics || settings.Parse.Diagnostics).Parse(string(src))
	if err != nil {
		return err
	}

	if parseAt != "" {
		line, col, err := parsePosition(parseAt)
		if err != nil {
			return err
		}
		loc, ok := res.Document.Locate(line, col)
		if !ok {
			return mdwerror.Newf("nothing at %d:%d in %s", line, col, name).
				WithCode(mdwerror.CodeNotFound).
				WithOperation("cifcheck.parse")
		}
		out := newLocationOutput(loc)
		return writeOutput(cmd.OutOrStdout(), out, func(w io.Writer) error {
			return writeLocation(w, out)
		})
	}

	out := parseOutput{
		Path:       name,
		Dialect:    res.Dialect,
		ParseID:    res.ParseID,
		Stats:      res.Document.Stats(),
		Document:   res.Document,
		Violations: res.Violations,
	}
	return writeOutput(cmd.OutOrStdout(), out, func(w io.Writer) error {
		return writeDocument(w, out)
	})
}

// parsePosition parses "LINE:COL"
func parsePosition(s string) (int, int, error) {
	l, c, ok := strings.Cut(strings.TrimSpace(s), ":")
	line, lerr := strconv.Atoi(l)
	col, cerr := strconv.Atoi(c)
	if !ok || lerr != nil || cerr != nil || line < 1 || col < 1 {
		return 0, 0, mdwerror.Newf("invalid position %q, want LINE:COL", s).
			WithCode(mdwerror.CodeInvalidInput).
			WithOperation("cifcheck.parse")
	}
	return line, col, nil
}

func newLocationOutput(loc cif.Location) locationOutput {
	out := locationOutput{
		Tag:    loc.Tag(),
		Row:    loc.Row,
		Column: loc.Column,
		OnName: loc.OnName,
		Path:   loc.Path,
		Value:  loc.Value,
		Span:   loc.Span,
	}
	if loc.Block != nil {
		out.Block = loc.Block.Name
	}
	if loc.Frame != nil {
		out.Frame = loc.Frame.Name
	}
	return out
}

// writeDocument prints the document as an indented outline
func writeDocument(w io.Writer, out parseOutput) error {
	fmt.Fprintf(w, "%s  %s\n", titleStyle.Render(out.Path), mutedStyle.Render(out.Dialect.String()))
	for _, b := range out.Document.Blocks {
		fmt.Fprintf(w, "data_%s\n", b.Name)
		writeContainer(w, "  ", b.Items, b.Loops)
		for _, f := range b.Frames {
			fmt.Fprintf(w, "  save_%s\n", f.Name)
			writeContainer(w, "    ", f.Items, f.Loops)
		}
	}
	for _, v := range out.Violations {
		fmt.Fprintf(w, "%s %s\n", warnStyle.Render("warning:"), v)
	}
	st := out.Stats
	fmt.Fprintln(w, mutedStyle.Render(fmt.Sprintf("%d blocks, %d frames, %d items, %d loops, %d values",
		st.Blocks, st.Frames, st.Items, st.Loops, st.Values)))
	return nil
}

func writeContainer(w io.Writer, indent string, items []cif.Item, loops []cif.Loop) {
	for _, it := range items {
		fmt.Fprintf(w, "%s%s %s\n", indent, it.Tag, formatValue(it.Value))
	}
	for _, l := range loops {
		fmt.Fprintf(w, "%sloop_ %s\n", indent, mutedStyle.Render(fmt.Sprintf("(%d rows)", l.Rows())))
		for _, tag := range l.Tags {
			fmt.Fprintf(w, "%s  %s\n", indent, tag)
		}
		for r := 0; r < l.Rows(); r++ {
			cells := make([]string, len(l.Tags))
			for c := range l.Tags {
				cells[c] = formatValue(l.Cell(r, c))
			}
			fmt.Fprintf(w, "%s  %s\n", indent, strings.Join(cells, "  "))
		}
	}
}

// formatValue quotes text values so empty and spaced strings stay visible
func formatValue(v cif.Value) string {
	if v.Kind == cif.KindText {
		return strconv.Quote(v.Text)
	}
	return v.String()
}

func writeLocation(w io.Writer, out locationOutput) error {
	fmt.Fprintf(w, "%s data_%s", out.Span, out.Block)
	if out.Frame != "" {
		fmt.Fprintf(w, " save_%s", out.Frame)
	}
	if out.Tag != "" {
		fmt.Fprintf(w, " %s", out.Tag)
	}
	if out.Row >= 0 {
		fmt.Fprintf(w, " row %d", out.Row+1)
	}
	for _, p := range out.Path {
		fmt.Fprint(w, p)
	}
	if out.Value != nil {
		fmt.Fprintf(w, " = %s (%s)", formatValue(*out.Value), out.Value.Kind)
	}
	if out.OnName {
		fmt.Fprint(w, " (name)")
	}
	fmt.Fprintln(w)
	return nil
}
