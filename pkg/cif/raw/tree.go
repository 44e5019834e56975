// File: tree.go
// Title: Raw Tree
// Description: Lossless intermediate tree between the grammar and dialect
//              resolution. Every syntactic construct is kept as written;
//              lists and tables carry both their source slice and their
//              parsed elements so a later pass can degrade them to text
//              without parsing again.
// Author: msto63
// Version: v0.1.1
// Created: 2026-10-14
// Modified: 2026-10-18
//
// Change History:
// - 2026-10-14 v0.1.0: Initial implementation
// - 2026-10-18 v0.1.1: Table keys keep their quoted raw value

package raw

import (
	"github.com/msto63/mcif/pkg/cif/span"
)

// Value is one raw value construct. The set of implementations is closed:
// *Quoted, *TripleQuoted, *TextField, *Unquoted, *List and *Table.
type Value interface {
	Location() span.Span
	rawValue()
}

// Quoted is a single-line string delimited by ' or "
type Quoted struct {
	Content          string // text between the delimiters, unresolved
	Quote            byte
	HasDoubledQuotes bool // Content holds two adjacent delimiter characters
	Span             span.Span
}

// HasEmbeddedQuote reports whether Content holds a delimiter character that
// is not part of a doubled pair
func (q *Quoted) HasEmbeddedQuote() bool {
	for i := 0; i < len(q.Content); i++ {
		if q.Content[i] != q.Quote {
			continue
		}
		if i+1 < len(q.Content) && q.Content[i+1] == q.Quote {
			i++
			continue
		}
		return true
	}
	return false
}

// TripleQuoted is a string delimited by ''' or """
type TripleQuoted struct {
	Content string // text between the delimiters
	Raw     string // the whole delimited slice
	Quote   byte
	Span    span.Span
}

// TextField is a semicolon-delimited multi-line string
type TextField struct {
	Content string
	Span    span.Span
}

// Unquoted is a bare whitespace-delimited value
type Unquoted struct {
	Text string
	Span span.Span
}

// List is a bracketed list of values
type List struct {
	Raw      string // source slice including the brackets
	Elements []Value
	Span     span.Span
}

// Table is a braced key/value table
type Table struct {
	Raw     string // source slice including the braces
	Entries []TableEntry
	Span    span.Span
}

// TableEntry is one key:value pair of a table, in source order
type TableEntry struct {
	Key      string // key text without its delimiters
	KeySpan  span.Span
	KeyValue Value // the key as written, *Quoted or *TripleQuoted
	Value    Value
}

func (v *Quoted) Location() span.Span       { return v.Span }
func (v *TripleQuoted) Location() span.Span { return v.Span }
func (v *TextField) Location() span.Span    { return v.Span }
func (v *Unquoted) Location() span.Span     { return v.Span }
func (v *List) Location() span.Span         { return v.Span }
func (v *Table) Location() span.Span        { return v.Span }

func (*Quoted) rawValue()       {}
func (*TripleQuoted) rawValue() {}
func (*TextField) rawValue()    {}
func (*Unquoted) rawValue()     {}
func (*List) rawValue()         {}
func (*Table) rawValue()        {}

// Item is a tag/value pair. Duplicate tags are kept in source order.
type Item struct {
	Tag   string
	Value Value
	Span  span.Span
}

// Loop is a table of values under declared column tags. Values are stored
// row-major: row R column C is Values[R*len(Tags)+C].
type Loop struct {
	Tags   []string
	Values []Value
	Span   span.Span
}

// Rows returns the number of complete rows
func (l *Loop) Rows() int {
	if len(l.Tags) == 0 {
		return 0
	}
	return len(l.Values) / len(l.Tags)
}

// Cell returns the value at row r, column c
func (l *Loop) Cell(r, c int) Value {
	return l.Values[r*len(l.Tags)+c]
}

// Frame is a save frame. Frames do not nest.
type Frame struct {
	Name     string
	NameSpan span.Span
	Items    []Item
	Loops    []Loop
	Span     span.Span
}

// Block is a data block. A block built from content that precedes every
// data heading has an empty name and is marked Implicit.
type Block struct {
	Name     string
	NameSpan span.Span
	Implicit bool
	Items    []Item
	Loops    []Loop
	Frames   []Frame
	Span     span.Span
}

// Document is the raw tree of one source text
type Document struct {
	Blocks    []Block
	HasMarker bool // the source starts with the CIF 2.0 marker
	Span      span.Span
}
