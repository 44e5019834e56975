package span

import "testing"

func TestSpan_Contains(t *testing.T) {
	sp := Span{StartLine: 2, StartCol: 3, EndLine: 4, EndCol: 1}

	tests := []struct {
		name      string
		line, col int
		want      bool
	}{
		{"before start line", 1, 10, false},
		{"before start col", 2, 2, false},
		{"at start", 2, 3, true},
		{"middle line", 3, 100, true},
		{"just before end", 3, 1, true},
		{"at exclusive end", 4, 1, false},
		{"after end", 5, 1, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := sp.Contains(tt.line, tt.col); got != tt.want {
				t.Errorf("Contains(%d,%d) = %v, want %v", tt.line, tt.col, got, tt.want)
			}
		})
	}
}

func TestSpan_ContainsZeroWidth(t *testing.T) {
	sp := Span{StartLine: 1, StartCol: 6, EndLine: 1, EndCol: 6}
	if !sp.Contains(1, 6) {
		t.Error("zero-width span should contain its start")
	}
	if sp.Contains(1, 7) {
		t.Error("zero-width span should not contain the next column")
	}
}

func TestSpan_Cover(t *testing.T) {
	a := Span{StartLine: 1, StartCol: 5, EndLine: 1, EndCol: 9}
	b := Span{StartLine: 3, StartCol: 1, EndLine: 3, EndCol: 4}

	got := a.Cover(b)
	want := Span{StartLine: 1, StartCol: 5, EndLine: 3, EndCol: 4}
	if got != want {
		t.Errorf("Cover() = %v, want %v", got, want)
	}
	if got := (Span{}).Cover(b); got != b {
		t.Errorf("zero.Cover(b) = %v, want %v", got, b)
	}
	if got := a.Cover(Span{}); got != a {
		t.Errorf("a.Cover(zero) = %v, want %v", got, a)
	}
}

func TestSpan_String(t *testing.T) {
	sp := Span{StartLine: 3, StartCol: 1, EndLine: 3, EndCol: 10}
	if sp.String() != "3:1-3:10" {
		t.Errorf("String() = %q", sp.String())
	}
	if sp.Start().String() != "3:1" {
		t.Errorf("Start().String() = %q", sp.Start().String())
	}
}
