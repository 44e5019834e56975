// File: value.go
// Title: Typed CIF Values
// Description: The resolved value type of the typed document. A value is
//              text, a number with or without a standard uncertainty, one
//              of the two CIF markers, or (CIF 2.0 only) a list or table.
// Author: msto63
// Version: v0.1.0
// Created: 2026-10-15
// Modified: 2026-10-15
//
// Change History:
// - 2026-10-15 v0.1.0: Initial implementation

package cif

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/msto63/mcif/pkg/cif/span"
)

// Kind classifies a Value
type Kind int

const (
	KindText Kind = iota
	KindNumeric
	KindNumericWithUncertainty
	KindUnknown       // ?
	KindNotApplicable // .
	KindList
	KindTable
)

// String returns the kind's stable name
func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindNumeric:
		return "numeric"
	case KindNumericWithUncertainty:
		return "numeric_su"
	case KindUnknown:
		return "unknown"
	case KindNotApplicable:
		return "not_applicable"
	case KindList:
		return "list"
	case KindTable:
		return "table"
	default:
		return "invalid"
	}
}

// MarshalText implements encoding.TextMarshaler
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Value is a resolved CIF value
type Value struct {
	Kind Kind

	// Text is the string content for text values and the source text for
	// numbers and markers
	Text string

	Number      float64
	Uncertainty float64

	List      []Value
	Table     map[string]Value
	TableKeys []string // table keys in source order

	Span span.Span
}

// NewText creates a text value
func NewText(text string, sp span.Span) Value {
	return Value{Kind: KindText, Text: text, Span: sp}
}

// NewNumeric creates a number without uncertainty
func NewNumeric(text string, n float64, sp span.Span) Value {
	return Value{Kind: KindNumeric, Text: text, Number: n, Span: sp}
}

// NewNumericWithUncertainty creates a number with a standard uncertainty
func NewNumericWithUncertainty(text string, n, su float64, sp span.Span) Value {
	return Value{Kind: KindNumericWithUncertainty, Text: text, Number: n, Uncertainty: su, Span: sp}
}

// NewUnknown creates the '?' marker value
func NewUnknown(sp span.Span) Value {
	return Value{Kind: KindUnknown, Text: "?", Span: sp}
}

// NewNotApplicable creates the '.' marker value
func NewNotApplicable(sp span.Span) Value {
	return Value{Kind: KindNotApplicable, Text: ".", Span: sp}
}

// NewList creates a list value
func NewList(elems []Value, sp span.Span) Value {
	if elems == nil {
		elems = []Value{}
	}
	return Value{Kind: KindList, List: elems, Span: sp}
}

// NewTable creates a table value. keys gives the source order; a repeated
// key keeps its first position and its last value.
func NewTable(keys []string, values []Value, sp span.Span) Value {
	v := Value{Kind: KindTable, Table: make(map[string]Value, len(keys)), TableKeys: []string{}, Span: sp}
	for i, k := range keys {
		if _, seen := v.Table[k]; !seen {
			v.TableKeys = append(v.TableKeys, k)
		}
		v.Table[k] = values[i]
	}
	return v
}

// IsNumeric reports whether v holds a number
func (v Value) IsNumeric() bool {
	return v.Kind == KindNumeric || v.Kind == KindNumericWithUncertainty
}

// IsMarker reports whether v is '?' or '.'
func (v Value) IsMarker() bool {
	return v.Kind == KindUnknown || v.Kind == KindNotApplicable
}

// Float returns the numeric value
func (v Value) Float() (float64, bool) {
	if !v.IsNumeric() {
		return 0, false
	}
	return v.Number, true
}

// Get returns the table entry for key
func (v Value) Get(key string) (Value, bool) {
	if v.Kind != KindTable {
		return Value{}, false
	}
	e, ok := v.Table[key]
	return e, ok
}

// Len returns the element count of a list or table, and 0 otherwise
func (v Value) Len() int {
	switch v.Kind {
	case KindList:
		return len(v.List)
	case KindTable:
		return len(v.TableKeys)
	default:
		return 0
	}
}

// String renders the value the way it would read in a report
func (v Value) String() string {
	switch v.Kind {
	case KindNumeric, KindNumericWithUncertainty, KindUnknown, KindNotApplicable:
		return v.Text
	case KindList:
		parts := make([]string, len(v.List))
		for i, e := range v.List {
			parts[i] = e.String()
		}
		return "[" + strings.Join(parts, " ") + "]"
	case KindTable:
		parts := make([]string, len(v.TableKeys))
		for i, k := range v.TableKeys {
			parts[i] = strconv.Quote(k) + ":" + v.Table[k].String()
		}
		return "{" + strings.Join(parts, " ") + "}"
	default:
		return v.Text
	}
}

// GoString renders the value with its kind, for test failures
func (v Value) GoString() string {
	switch v.Kind {
	case KindNumeric:
		return fmt.Sprintf("Numeric(%g)", v.Number)
	case KindNumericWithUncertainty:
		return fmt.Sprintf("NumericWithUncertainty(%g, %g)", v.Number, v.Uncertainty)
	case KindText:
		return fmt.Sprintf("Text(%q)", v.Text)
	default:
		return fmt.Sprintf("%s(%s)", v.Kind, v.String())
	}
}

// valueView is the serialized form shared by JSON and YAML output
type valueView struct {
	Kind        Kind        `json:"kind" yaml:"kind"`
	Text        string      `json:"text,omitempty" yaml:"text,omitempty"`
	Number      *float64    `json:"value,omitempty" yaml:"value,omitempty"`
	Uncertainty *float64    `json:"uncertainty,omitempty" yaml:"uncertainty,omitempty"`
	Items       []Value     `json:"items,omitempty" yaml:"items,omitempty"`
	Entries     []entryView `json:"entries,omitempty" yaml:"entries,omitempty"`
	Span        span.Span   `json:"span" yaml:"span"`
}

type entryView struct {
	Key   string `json:"key" yaml:"key"`
	Value Value  `json:"value" yaml:"value"`
}

func (v Value) view() valueView {
	out := valueView{Kind: v.Kind, Span: v.Span}
	switch v.Kind {
	case KindNumeric:
		n := v.Number
		out.Text, out.Number = v.Text, &n
	case KindNumericWithUncertainty:
		n, su := v.Number, v.Uncertainty
		out.Text, out.Number, out.Uncertainty = v.Text, &n, &su
	case KindList:
		out.Items = v.List
	case KindTable:
		for _, k := range v.TableKeys {
			out.Entries = append(out.Entries, entryView{Key: k, Value: v.Table[k]})
		}
	case KindText:
		out.Text = v.Text
	}
	return out
}

// MarshalJSON keeps table entries in source order
func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.view())
}

// MarshalYAML keeps table entries in source order
func (v Value) MarshalYAML() (interface{}, error) {
	return v.view(), nil
}
