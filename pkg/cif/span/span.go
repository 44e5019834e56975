// File: span.go
// Title: Source Spans
// Description: Defines the Span and Position types attached to every parsed
//              CIF construct. Spans are 1-indexed line/column ranges with an
//              exclusive end and are used for diagnostics, hover and
//              go-to-definition in downstream tooling.
// Author: msto63
// Version: v0.1.0
// Created: 2026-10-12
// Modified: 2026-10-12
//
// Change History:
// - 2026-10-12 v0.1.0: Initial implementation

package span

import "fmt"

// Position is a 1-indexed line/column pair. Columns count bytes.
type Position struct {
	Line int `json:"line" yaml:"line"`
	Col  int `json:"col" yaml:"col"`
}

// Before reports whether p precedes o.
func (p Position) Before(o Position) bool {
	return p.Line < o.Line || (p.Line == o.Line && p.Col < o.Col)
}

// String returns "line:col".
func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Col)
}

// Span is a source range. Start is inclusive, end is exclusive.
type Span struct {
	StartLine int `json:"start_line" yaml:"start_line"`
	StartCol  int `json:"start_col" yaml:"start_col"`
	EndLine   int `json:"end_line" yaml:"end_line"`
	EndCol    int `json:"end_col" yaml:"end_col"`
}

// New builds a span from two positions.
func New(start, end Position) Span {
	return Span{StartLine: start.Line, StartCol: start.Col, EndLine: end.Line, EndCol: end.Col}
}

// Start returns the inclusive start position.
func (s Span) Start() Position { return Position{Line: s.StartLine, Col: s.StartCol} }

// End returns the exclusive end position.
func (s Span) End() Position { return Position{Line: s.EndLine, Col: s.EndCol} }

// IsZero reports whether the span was never set.
func (s Span) IsZero() bool { return s == Span{} }

// Valid reports whether start precedes or equals end.
func (s Span) Valid() bool {
	return s.StartLine >= 1 && s.StartCol >= 1 && !s.End().Before(s.Start())
}

// Contains reports whether the position (line, col) lies inside the span.
// An empty span contains its own start position so that zero-width
// constructs (an empty block name, say) remain addressable.
func (s Span) Contains(line, col int) bool {
	p := Position{Line: line, Col: col}
	if p.Before(s.Start()) {
		return false
	}
	if s.Start() == s.End() {
		return p == s.Start()
	}
	return p.Before(s.End())
}

// Cover returns the smallest span enclosing both s and o. A zero span is
// treated as absent.
func (s Span) Cover(o Span) Span {
	switch {
	case s.IsZero():
		return o
	case o.IsZero():
		return s
	}
	out := s
	if o.Start().Before(s.Start()) {
		out.StartLine, out.StartCol = o.StartLine, o.StartCol
	}
	if s.End().Before(o.End()) {
		out.EndLine, out.EndCol = o.EndLine, o.EndCol
	}
	return out
}

// String renders the span as "3:1-3:10".
func (s Span) String() string {
	return fmt.Sprintf("%d:%d-%d:%d", s.StartLine, s.StartCol, s.EndLine, s.EndCol)
}
