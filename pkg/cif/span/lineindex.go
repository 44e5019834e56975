// File: lineindex.go
// Title: Line Index
// Description: Precomputes the byte offsets of every line terminator of one
//              source text so that offset to (line, col) conversion is a
//              binary search instead of a rescan from the start of the
//              document. A LineIndex belongs to exactly one parse call.
// Author: msto63
// Version: v0.1.0
// Created: 2026-10-12
// Modified: 2026-10-14
//
// Change History:
// - 2026-10-12 v0.1.0: Initial implementation
// - 2026-10-14 v0.1.0: Added Offset and Line for viewer/hover support

package span

import "sort"

// LineIndex maps byte offsets of a single source text to line/column pairs.
//
// Only '\n' terminates a line. In a "\r\n" pair the '\r' is the last column
// of the line it ends, which is what a naive terminator count yields as well.
type LineIndex struct {
	src      string
	newlines []int // byte offsets of every '\n', ascending
}

// NewLineIndex scans src once and records every terminator offset.
func NewLineIndex(src string) *LineIndex {
	ix := &LineIndex{src: src}
	for i := 0; i < len(src); i++ {
		if src[i] == '\n' {
			ix.newlines = append(ix.newlines, i)
		}
	}
	return ix
}

// Len returns the length of the indexed source in bytes.
func (ix *LineIndex) Len() int { return len(ix.src) }

// LineCount returns the number of lines. A trailing terminator opens a final
// empty line, matching what an editor shows.
func (ix *LineIndex) LineCount() int { return len(ix.newlines) + 1 }

// LineCol converts a byte offset into a 1-indexed (line, col) pair. Offsets
// outside [0, len(src)] are clamped; len(src) addresses the position just
// past the last byte, which exclusive span ends need.
func (ix *LineIndex) LineCol(offset int) (line, col int) {
	offset = ix.clamp(offset)
	// number of terminators strictly before offset
	i := sort.SearchInts(ix.newlines, offset)
	if i == 0 {
		return 1, offset + 1
	}
	return i + 1, offset - ix.newlines[i-1]
}

// Position is LineCol packed into a Position.
func (ix *LineIndex) Position(offset int) Position {
	l, c := ix.LineCol(offset)
	return Position{Line: l, Col: c}
}

// Span converts a half-open byte range into a Span.
func (ix *LineIndex) Span(start, end int) Span {
	if end < start {
		end = start
	}
	return New(ix.Position(start), ix.Position(end))
}

// Offset is the inverse of LineCol. It reports false when the position does
// not address a byte of the source (or the end-of-source position).
func (ix *LineIndex) Offset(line, col int) (int, bool) {
	if line < 1 || line > ix.LineCount() || col < 1 {
		return 0, false
	}
	start := ix.lineStart(line)
	end := len(ix.src)
	if line <= len(ix.newlines) {
		end = ix.newlines[line-1]
	}
	off := start + col - 1
	if off > end {
		return 0, false
	}
	return off, true
}

// Line returns the text of the given 1-indexed line without its terminator.
func (ix *LineIndex) Line(line int) string {
	if line < 1 || line > ix.LineCount() {
		return ""
	}
	start := ix.lineStart(line)
	end := len(ix.src)
	if line <= len(ix.newlines) {
		end = ix.newlines[line-1]
	}
	return ix.src[start:end]
}

func (ix *LineIndex) lineStart(line int) int {
	if line == 1 {
		return 0
	}
	return ix.newlines[line-2] + 1
}

func (ix *LineIndex) clamp(offset int) int {
	if offset < 0 {
		return 0
	}
	if offset > len(ix.src) {
		return len(ix.src)
	}
	return offset
}
