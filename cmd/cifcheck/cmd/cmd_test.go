package cmd

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/msto63/mcif/internal/lintstore"
	mdwerror "github.com/msto63/mcif/pkg/core/error"
)

const (
	legacySrc = "data_x\n_a 'it''s'\n_b 1.5(2)\n"
	markedSrc = "#\\#CIF_2.0\ndata_x\n_coords [1 2 3]\n"
	strictBad = "#\\#CIF_2.0\ndata_x\n_a 'it''s'\n"
)

// resetFlags restores every flag to its default between runs
func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			sv.Replace(nil)
		} else {
			f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

// isolate points the history store into a temp dir and returns its path
func isolate(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "history.db")
	t.Setenv("CIFCHECK_STORE_PATH", path)
	t.Setenv("CIFCHECK_PARSE_DIALECT", "auto")
	return path
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)

	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)

	err := rootCmd.Execute()
	return out.String(), err
}

func TestParse_Text(t *testing.T) {
	isolate(t)
	path := writeFile(t, "legacy.cif", legacySrc)

	out, err := execute(t, "", "parse", path)
	if err != nil {
		t.Fatalf("parse error = %v", err)
	}
	for _, want := range []string{"CIF 1.1", "data_x", `_a "it's"`, "_b 1.5(2)", "1 blocks"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestParse_JSON(t *testing.T) {
	isolate(t)
	path := writeFile(t, "marked.cif", markedSrc)

	out, err := execute(t, "", "parse", "-o", "json", path)
	if err != nil {
		t.Fatalf("parse error = %v", err)
	}
	var got struct {
		Dialect string `json:"dialect"`
		Stats   struct {
			Values int `json:"values"`
		} `json:"stats"`
		Document struct {
			Blocks []struct {
				Name string `json:"name"`
			} `json:"blocks"`
		} `json:"document"`
	}
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("invalid json: %v\n%s", err, out)
	}
	if got.Dialect != "cif2" {
		t.Errorf("dialect = %q, want cif2", got.Dialect)
	}
	if got.Stats.Values != 1 {
		t.Errorf("values = %d, want 1", got.Stats.Values)
	}
	if len(got.Document.Blocks) != 1 || got.Document.Blocks[0].Name != "x" {
		t.Errorf("blocks = %+v", got.Document.Blocks)
	}
}

func TestParse_Stdin(t *testing.T) {
	isolate(t)
	out, err := execute(t, legacySrc, "parse", "-o", "yaml")
	if err != nil {
		t.Fatalf("parse error = %v", err)
	}
	var got map[string]interface{}
	if err := yaml.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("invalid yaml: %v", err)
	}
	if got["path"] != "<stdin>" || got["dialect"] != "cif1" {
		t.Errorf("path = %v, dialect = %v", got["path"], got["dialect"])
	}
}

func TestParse_StrictFailure(t *testing.T) {
	isolate(t)
	path := writeFile(t, "bad.cif", strictBad)

	_, err := execute(t, "", "parse", path)
	if !mdwerror.HasCode(err, mdwerror.CodeDialectViolation) {
		t.Fatalf("error = %v, want dialect violation", err)
	}
	if ExitCode(err) != 2 {
		t.Errorf("exit code = %d, want 2", ExitCode(err))
	}

	// forcing CIF 1.1 reads the same text permissively
	if _, err := execute(t, "", "parse", "--dialect", "cif1", path); err != nil {
		t.Errorf("cif1 override error = %v", err)
	}
}

func TestParse_Diagnostics(t *testing.T) {
	isolate(t)
	path := writeFile(t, "legacy.cif", legacySrc)

	out, err := execute(t, "", "parse", "--diagnostics", path)
	if err != nil {
		t.Fatalf("parse error = %v", err)
	}
	if !strings.Contains(out, "CIF2_DOUBLED_QUOTE") {
		t.Errorf("diagnostics missing:\n%s", out)
	}
}

func TestParse_At(t *testing.T) {
	isolate(t)
	path := writeFile(t, "marked.cif", markedSrc)

	out, err := execute(t, "", "parse", "--at", "3:12", path)
	if err != nil {
		t.Fatalf("parse error = %v", err)
	}
	if !strings.Contains(out, "_coords[1] = 2") {
		t.Errorf("location = %q", out)
	}

	if _, err := execute(t, "", "parse", "--at", "x", path); !mdwerror.HasCode(err, mdwerror.CodeInvalidInput) {
		t.Errorf("bad position error = %v", err)
	}
}

func TestLint_ExitAndAllow(t *testing.T) {
	isolate(t)
	legacy := writeFile(t, "legacy.cif", legacySrc)
	clean := writeFile(t, "clean.cif", "data_x\n_a 1\n")

	tests := []struct {
		name    string
		args    []string
		wantErr error
		want    string
	}{
		{"violations", []string{"lint", legacy}, ErrViolations, "1 violations"},
		{"allowed", []string{"lint", "--allow", "CIF2_DOUBLED_QUOTE", legacy}, nil, "1 allowed"},
		{"clean", []string{"lint", clean}, nil, "ok"},
		{"mixed", []string{"lint", clean, legacy}, ErrViolations, "CIF2_DOUBLED_QUOTE"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := execute(t, "", tt.args...)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("error = %v, want %v", err, tt.wantErr)
			}
			if !strings.Contains(out, tt.want) {
				t.Errorf("output missing %q:\n%s", tt.want, out)
			}
		})
	}
}

func TestLint_Errors(t *testing.T) {
	isolate(t)
	legacy := writeFile(t, "legacy.cif", legacySrc)

	if _, err := execute(t, "", "lint", "--allow", "NO_SUCH_RULE", legacy); !mdwerror.HasCode(err, mdwerror.CodeInvalidInput) {
		t.Errorf("unknown rule error = %v", err)
	}

	missing := filepath.Join(t.TempDir(), "missing.cif")
	out, err := execute(t, "", "lint", "-o", "json", missing, legacy)
	if err == nil || errors.Is(err, ErrViolations) {
		t.Fatalf("error = %v, want read failure", err)
	}
	var reports []fileReport
	if err := json.Unmarshal([]byte(out), &reports); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if len(reports) != 2 || reports[0].Error == "" || len(reports[1].Violations) != 1 {
		t.Errorf("reports = %+v", reports)
	}
}

func TestLint_RecordAndHistory(t *testing.T) {
	storePath := isolate(t)
	legacy := writeFile(t, "legacy.cif", legacySrc)
	clean := writeFile(t, "clean.cif", "data_x\n_a 1\n")

	if _, err := execute(t, "", "lint", "--record", legacy, clean); !errors.Is(err, ErrViolations) {
		t.Fatalf("lint error = %v", err)
	}
	if _, err := os.Stat(storePath); err != nil {
		t.Fatalf("store not created: %v", err)
	}

	out, err := execute(t, "", "history", "-o", "json", "--violations")
	if err != nil {
		t.Fatalf("history error = %v", err)
	}
	var runs []lintstore.Run
	if err := json.Unmarshal([]byte(out), &runs); err != nil {
		t.Fatalf("invalid json: %v\n%s", err, out)
	}
	if len(runs) != 2 {
		t.Fatalf("runs = %d, want 2", len(runs))
	}

	out, err = execute(t, "", "history", "-o", "json", "--rule", "CIF2_DOUBLED_QUOTE")
	if err != nil {
		t.Fatalf("history --rule error = %v", err)
	}
	runs = nil
	if err := json.Unmarshal([]byte(out), &runs); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if len(runs) != 1 || runs[0].Path != legacy {
		t.Fatalf("filtered runs = %+v", runs)
	}

	out, err = execute(t, "", "history", "show", runs[0].ID)
	if err != nil || !strings.Contains(out, "CIF2_DOUBLED_QUOTE") {
		t.Errorf("show = %q, %v", out, err)
	}

	out, err = execute(t, "", "history", "rules")
	if err != nil || !strings.Contains(out, "CIF2_DOUBLED_QUOTE") {
		t.Errorf("rules = %q, %v", out, err)
	}

	out, err = execute(t, "", "history", "stats", "-o", "yaml")
	if err != nil {
		t.Fatalf("stats error = %v", err)
	}
	var st lintstore.Stats
	if err := yaml.Unmarshal([]byte(out), &st); err != nil {
		t.Fatalf("invalid yaml: %v", err)
	}
	if st.Runs != 2 || st.CleanRuns != 1 || st.Violations != 1 {
		t.Errorf("stats = %+v", st)
	}

	if _, err := execute(t, "", "history", "show", "missing"); !mdwerror.HasCode(err, mdwerror.CodeNotFound) {
		t.Errorf("show missing error = %v", err)
	}

	out, err = execute(t, "", "history", "prune", "--older-than", "0s", "--vacuum")
	if err != nil || !strings.Contains(out, "2 runs deleted") {
		t.Errorf("prune = %q, %v", out, err)
	}
}

func TestRules(t *testing.T) {
	isolate(t)
	out, err := execute(t, "", "rules", "-o", "json")
	if err != nil {
		t.Fatalf("rules error = %v", err)
	}
	var got struct {
		Strategies []struct {
			Construct string `json:"construct"`
			CIF11     string `json:"cif1"`
			CIF20     string `json:"cif2"`
			Rule      string `json:"rule"`
		} `json:"strategies"`
		Rules []struct {
			ID string `json:"id"`
		} `json:"rules"`
	}
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if len(got.Rules) != 5 {
		t.Errorf("rules = %d, want 5", len(got.Rules))
	}
	rejects := 0
	for _, s := range got.Strategies {
		if s.CIF11 == "reject" {
			t.Errorf("%s rejected under CIF 1.1", s.Construct)
		}
		if s.CIF20 == "reject" {
			rejects++
			if s.Rule == "" {
				t.Errorf("%s rejected without a rule", s.Construct)
			}
		}
	}
	if rejects != 5 {
		t.Errorf("CIF 2.0 rejects %d constructs, want 5", rejects)
	}

	text, err := execute(t, "", "rules")
	if err != nil || !strings.Contains(text, "Strategies") || !strings.Contains(text, "CIF2_EMPTY_FRAME_NAME") {
		t.Errorf("rules text = %q, %v", text, err)
	}
}

func TestVersion(t *testing.T) {
	isolate(t)
	out, err := execute(t, "", "version", "-o", "json")
	if err != nil {
		t.Fatalf("version error = %v", err)
	}
	var got versionOutput
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if got.Version == "" || got.Components["store"] == "" || got.StoreSchema < 1 {
		t.Errorf("version = %+v", got)
	}
}

func TestSetup_InvalidSettings(t *testing.T) {
	isolate(t)
	if _, err := execute(t, "", "version", "-o", "xml"); !mdwerror.HasCode(err, mdwerror.CodeInvalidConfig) {
		t.Errorf("bad output format error = %v", err)
	}
	if _, err := execute(t, "", "version", "--dialect", "cif3"); err == nil {
		t.Error("bad dialect accepted")
	}

	cfg := writeFile(t, "cifcheck.toml", "[output]\nformat = \"json\"\n")
	out, err := execute(t, "", "--config", cfg, "version")
	if err != nil || !strings.HasPrefix(strings.TrimSpace(out), "{") {
		t.Errorf("config output format not applied: %q, %v", out, err)
	}
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{nil, 0},
		{ErrViolations, 1},
		{mdwerror.New("boom"), 2},
	}
	for _, tt := range tests {
		if got := ExitCode(tt.err); got != tt.want {
			t.Errorf("ExitCode(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func TestParsePosition(t *testing.T) {
	tests := []struct {
		in        string
		line, col int
		ok        bool
	}{
		{"3:12", 3, 12, true},
		{" 1:1 ", 1, 1, true},
		{"0:1", 0, 0, false},
		{"3", 0, 0, false},
		{"a:b", 0, 0, false},
	}
	for _, tt := range tests {
		line, col, err := parsePosition(tt.in)
		if (err == nil) != tt.ok || line != tt.line || col != tt.col {
			t.Errorf("parsePosition(%q) = %d, %d, %v", tt.in, line, col, err)
		}
	}
}
