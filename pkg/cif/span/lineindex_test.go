package span

import (
	"strings"
	"testing"
)

// naiveLineCol is the linear scan the index must agree with.
func naiveLineCol(src string, offset int) (int, int) {
	line, col := 1, 1
	for i := 0; i < offset && i < len(src); i++ {
		if src[i] == '\n' {
			line++
			col = 1
		} else {
			col++
		}
	}
	return line, col
}

func TestLineIndex_MatchesLinearScan(t *testing.T) {
	sources := []string{
		"",
		"x",
		"\n",
		"\n\n\n",
		"data_x\n_a 1\n",
		"data_x\n_a 1",
		"data_x\r\n_a 'it''s'\r\n",
		";\ntext field\n;\n",
		"no terminator at all",
		"héllo\nwörld\n",
	}

	for _, src := range sources {
		ix := NewLineIndex(src)
		for o := 0; o <= len(src); o++ {
			gotL, gotC := ix.LineCol(o)
			wantL, wantC := naiveLineCol(src, o)
			if gotL != wantL || gotC != wantC {
				t.Errorf("LineCol(%q, %d) = (%d,%d), want (%d,%d)", src, o, gotL, gotC, wantL, wantC)
			}
		}
	}
}

func TestLineIndex_LargeInput(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 20000; i++ {
		b.WriteString("_tag.value ")
		b.WriteString(strings.Repeat("x", i%17))
		b.WriteByte('\n')
	}
	src := b.String()
	ix := NewLineIndex(src)

	if ix.LineCount() != 20001 {
		t.Fatalf("LineCount() = %d, want 20001", ix.LineCount())
	}

	// spot check offsets spread across the document
	for o := 0; o <= len(src); o += 997 {
		gotL, gotC := ix.LineCol(o)
		wantL, wantC := naiveLineCol(src, o)
		if gotL != wantL || gotC != wantC {
			t.Fatalf("LineCol(%d) = (%d,%d), want (%d,%d)", o, gotL, gotC, wantL, wantC)
		}
	}
}

func TestLineIndex_Clamp(t *testing.T) {
	ix := NewLineIndex("ab\ncd")

	if l, c := ix.LineCol(-5); l != 1 || c != 1 {
		t.Errorf("LineCol(-5) = (%d,%d), want (1,1)", l, c)
	}
	if l, c := ix.LineCol(100); l != 2 || c != 3 {
		t.Errorf("LineCol(100) = (%d,%d), want (2,3)", l, c)
	}
}

func TestLineIndex_OffsetRoundTrip(t *testing.T) {
	src := "data_x\n_a 1\n\n_b 2"
	ix := NewLineIndex(src)

	for o := 0; o <= len(src); o++ {
		l, c := ix.LineCol(o)
		back, ok := ix.Offset(l, c)
		if !ok {
			t.Fatalf("Offset(%d,%d) reported not found for offset %d", l, c, o)
		}
		if back != o {
			t.Errorf("Offset(LineCol(%d)) = %d", o, back)
		}
	}

	if _, ok := ix.Offset(0, 1); ok {
		t.Error("Offset(0,1) should be out of range")
	}
	if _, ok := ix.Offset(2, 10); ok {
		t.Error("Offset(2,10) should be past the end of line 2")
	}
	if _, ok := ix.Offset(9, 1); ok {
		t.Error("Offset(9,1) should be past the last line")
	}
}

func TestLineIndex_Line(t *testing.T) {
	ix := NewLineIndex("first\nsecond\n")
	tests := []struct {
		line int
		want string
	}{
		{1, "first"},
		{2, "second"},
		{3, ""},
		{4, ""},
	}
	for _, tt := range tests {
		if got := ix.Line(tt.line); got != tt.want {
			t.Errorf("Line(%d) = %q, want %q", tt.line, got, tt.want)
		}
	}
}

func TestLineIndex_Span(t *testing.T) {
	ix := NewLineIndex("data_x\n_a 'it''s'\n")
	sp := ix.Span(10, 17)
	want := Span{StartLine: 2, StartCol: 4, EndLine: 2, EndCol: 11}
	if sp != want {
		t.Errorf("Span(10,17) = %v, want %v", sp, want)
	}
	if !sp.Valid() {
		t.Errorf("span %v should be valid", sp)
	}
}
