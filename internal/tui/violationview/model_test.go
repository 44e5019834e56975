package violationview

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/msto63/mcif/pkg/cif"
	"github.com/msto63/mcif/pkg/cif/span"
	mdwerror "github.com/msto63/mcif/pkg/core/error"
)

const sample = "data_x\n_a 'it''s'\n_b a]b\n_c 'x''y'\n"

func update(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	mm, ok := next.(Model)
	if !ok {
		t.Fatalf("Update returned %T", next)
	}
	return mm
}

func key(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// load sizes the window and feeds the result of one lint into the model
func load(t *testing.T, cfg Config, width, height int) Model {
	t.Helper()
	m := New(cfg)
	m = update(t, m, tea.WindowSizeMsg{Width: width, Height: height})
	return update(t, m, m.lint())
}

func TestModel_Lint(t *testing.T) {
	m := load(t, Config{Source: sample}, 120, 40)

	if m.loading {
		t.Error("still loading after lint")
	}
	if m.err != nil {
		t.Fatalf("err = %v", m.err)
	}
	if len(m.lines) != 5 {
		t.Errorf("lines = %d, want 5", len(m.lines))
	}

	want := []cif.RuleID{cif.RuleDoubledQuote, cif.RuleUnquotedBracket, cif.RuleDoubledQuote}
	if len(m.visible) != len(want) {
		t.Fatalf("visible = %d, want %d", len(m.visible), len(want))
	}
	for i, id := range want {
		if m.visible[i].RuleID != id {
			t.Errorf("visible[%d] = %s, want %s", i, m.visible[i].RuleID, id)
		}
	}
	if m.current != -1 {
		t.Errorf("current = %d, want -1", m.current)
	}

	view := m.viewport.View()
	if !strings.Contains(view, string(cif.RuleUnquotedBracket)) {
		t.Errorf("source view has no annotation:\n%s", view)
	}
	if !strings.Contains(m.View(), "cifcheck view") {
		t.Error("view has no title")
	}
}

func TestModel_Jump(t *testing.T) {
	m := load(t, Config{Source: sample}, 120, 40)

	steps := []struct {
		key  string
		want int
	}{
		{"n", 0},
		{"n", 1},
		{"n", 2},
		{"n", 0},
		{"p", 2},
		{"N", 1},
	}
	for _, s := range steps {
		m = update(t, m, key(s.key))
		if m.current != s.want {
			t.Fatalf("after %q current = %d, want %d", s.key, m.current, s.want)
		}
	}

	fresh := load(t, Config{Source: sample}, 120, 40)
	fresh = update(t, fresh, key("p"))
	if fresh.current != 2 {
		t.Errorf("p without selection = %d, want last", fresh.current)
	}

	clean := load(t, Config{Source: "data_x\n_a 1\n"}, 120, 40)
	clean = update(t, clean, key("n"))
	if clean.current != -1 {
		t.Errorf("n on clean source = %d", clean.current)
	}
}

func TestModel_JumpScrolls(t *testing.T) {
	var b strings.Builder
	b.WriteString("data_x\n")
	for i := 2; i < 150; i++ {
		fmt.Fprintf(&b, "_t%d %d\n", i, i)
	}
	b.WriteString("_bad a]b\n")
	for i := 151; i <= 200; i++ {
		fmt.Fprintf(&b, "_t%d %d\n", i, i)
	}

	m := load(t, Config{Source: b.String()}, 100, 20)
	if m.viewport.YOffset != 0 {
		t.Fatalf("initial offset = %d", m.viewport.YOffset)
	}
	m = update(t, m, key("n"))

	if m.rowOf[150] != 149 {
		t.Fatalf("row of line 150 = %d, want 149", m.rowOf[150])
	}
	want := 149 - m.viewport.Height/2
	if m.viewport.YOffset != want {
		t.Errorf("offset = %d, want %d", m.viewport.YOffset, want)
	}
	if m.rowOf[151] != 151 {
		t.Errorf("row of line 151 = %d, want 151 after one annotation row", m.rowOf[151])
	}
}

func TestModel_RuleFilter(t *testing.T) {
	m := load(t, Config{Source: sample}, 120, 40)

	// select the last violation, then hide the rule it belongs to
	for i := 0; i < 3; i++ {
		m = update(t, m, key("n"))
	}

	tests := []struct {
		key     string
		visible int
		current int
	}{
		{"1", 1, 0},  // CIF2_DOUBLED_QUOTE hidden
		{"3", 0, -1}, // CIF2_UNQUOTED_BRACKET hidden
		{"3", 1, -1},
		{"9", 1, -1}, // no ninth rule
		{"0", 3, -1},
	}
	for _, tt := range tests {
		m = update(t, m, key(tt.key))
		if len(m.visible) != tt.visible {
			t.Errorf("after %q visible = %d, want %d", tt.key, len(m.visible), tt.visible)
		}
		if m.current != tt.current {
			t.Errorf("after %q current = %d, want %d", tt.key, m.current, tt.current)
		}
	}
}

func TestModel_HideFromConfig(t *testing.T) {
	m := load(t, Config{Source: sample, Hide: []cif.RuleID{cif.RuleDoubledQuote}}, 120, 40)
	if len(m.visible) != 1 || m.visible[0].RuleID != cif.RuleUnquotedBracket {
		t.Errorf("visible = %+v", m.visible)
	}
	if len(m.report.Violations) != 3 {
		t.Errorf("report keeps hidden violations, got %d", len(m.report.Violations))
	}
}

func TestModel_Reload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "x.cif")
	if err := os.WriteFile(path, []byte(sample), 0644); err != nil {
		t.Fatal(err)
	}
	m := load(t, Config{Path: path}, 120, 40)
	if len(m.visible) != 3 {
		t.Fatalf("visible = %d, want 3", len(m.visible))
	}

	if err := os.WriteFile(path, []byte("data_x\n_a 'fixed'\n"), 0644); err != nil {
		t.Fatal(err)
	}
	m = update(t, m, key("r"))
	if !m.loading {
		t.Error("r did not start a reload")
	}
	m = update(t, m, m.lint())
	if len(m.visible) != 0 || len(m.report.Violations) != 0 {
		t.Errorf("violations after fix = %d", len(m.report.Violations))
	}
	if !strings.Contains(m.renderStatusBar(), "clean") {
		t.Errorf("status = %q", m.renderStatusBar())
	}
}

func TestModel_Errors(t *testing.T) {
	missing := load(t, Config{Path: filepath.Join(t.TempDir(), "missing.cif")}, 120, 40)
	if !mdwerror.HasCode(missing.err, mdwerror.CodeNotFound) {
		t.Errorf("missing file err = %v", missing.err)
	}

	bad := load(t, Config{Source: "data_x\nglobal_\n"}, 120, 40)
	if !mdwerror.HasCode(bad.err, mdwerror.CodeSyntax) {
		t.Fatalf("syntax err = %v", bad.err)
	}
	if got := errorSummary(bad.err); !strings.Contains(got, string(mdwerror.CodeSyntax)) {
		t.Errorf("errorSummary = %q", got)
	}
}

func TestAnnotation(t *testing.T) {
	tests := []struct {
		name string
		sp   span.Span
		line string
		want string
	}{
		{"single line", span.Span{StartLine: 3, StartCol: 4, EndLine: 3, EndCol: 7}, "_b a]b",
			"   ^^^ CIF2_UNQUOTED_BRACKET: m"},
		{"zero width", span.Span{StartLine: 1, StartCol: 1, EndLine: 1, EndCol: 1}, "data_",
			"^ CIF2_UNQUOTED_BRACKET: m"},
		{"multi line", span.Span{StartLine: 1, StartCol: 3, EndLine: 2, EndCol: 2}, "abcd",
			"  ^^ CIF2_UNQUOTED_BRACKET: m"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := cif.Violation{Span: tt.sp, RuleID: cif.RuleUnquotedBracket, Message: "m"}
			if got := annotation(v, tt.line); got != tt.want {
				t.Errorf("annotation = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSplitLines(t *testing.T) {
	got := splitLines("a\r\nb\tc\r\n")
	want := []string{"a", "b c", ""}
	if len(got) != len(want) {
		t.Fatalf("lines = %q", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("line %d = %q, want %q", i, got[i], want[i])
		}
	}
}
