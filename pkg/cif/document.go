// File: document.go
// Title: Typed CIF Document
// Description: The immutable result of a parse. Containers keep source
//              order; item lookup is by tag, case-insensitively, and a
//              duplicate tag keeps its first position but takes its last
//              value.
// Author: msto63
// Version: v0.1.2
// Created: 2026-10-15
// Modified: 2026-10-18
//
// Change History:
// - 2026-10-15 v0.1.0: Initial implementation
// - 2026-10-16 v0.1.1: Column access and frame lookup
// - 2026-10-18 v0.1.2: Implicit block flag

package cif

import (
	"strings"

	"github.com/msto63/mcif/pkg/cif/span"
)

// Item is a tag/value pair
type Item struct {
	Tag   string    `json:"tag" yaml:"tag"`
	Value Value     `json:"value" yaml:"value"`
	Span  span.Span `json:"span" yaml:"span"`
}

// Loop holds row-major values under its column tags
type Loop struct {
	Tags   []string  `json:"tags" yaml:"tags"`
	Values []Value   `json:"values" yaml:"values"`
	Span   span.Span `json:"span" yaml:"span"`
}

// Rows returns the number of rows
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

// ColumnIndex returns the column of tag
func (l *Loop) ColumnIndex(tag string) int {
	for i, t := range l.Tags {
		if strings.EqualFold(t, tag) {
			return i
		}
	}
	return -1
}

// Column returns every value of one column, top to bottom
func (l *Loop) Column(tag string) ([]Value, bool) {
	c := l.ColumnIndex(tag)
	if c < 0 {
		return nil, false
	}
	out := make([]Value, l.Rows())
	for r := range out {
		out[r] = l.Cell(r, c)
	}
	return out, true
}

// Row returns the values of row r keyed by tag
func (l *Loop) Row(r int) map[string]Value {
	out := make(map[string]Value, len(l.Tags))
	for c, t := range l.Tags {
		out[t] = l.Cell(r, c)
	}
	return out
}

// container is the item and loop storage blocks and frames share
type container struct {
	Items []Item `json:"items" yaml:"items"`
	Loops []Loop `json:"loops" yaml:"loops"`

	index map[string]int
}

func newContainer() container {
	return container{Items: []Item{}, Loops: []Loop{}, index: make(map[string]int)}
}

func (c *container) addItem(it Item) {
	key := strings.ToLower(it.Tag)
	if i, ok := c.index[key]; ok {
		c.Items[i].Value = it.Value
		c.Items[i].Span = it.Span
		return
	}
	c.index[key] = len(c.Items)
	c.Items = append(c.Items, it)
}

// Get returns the value of the item tagged tag
func (c *container) Get(tag string) (Value, bool) {
	if it, ok := c.Item(tag); ok {
		return it.Value, true
	}
	return Value{}, false
}

// Item returns the item tagged tag
func (c *container) Item(tag string) (*Item, bool) {
	if c.index != nil {
		i, ok := c.index[strings.ToLower(tag)]
		if !ok {
			return nil, false
		}
		return &c.Items[i], true
	}
	// containers built by hand have no index
	for i := len(c.Items) - 1; i >= 0; i-- {
		if strings.EqualFold(c.Items[i].Tag, tag) {
			return &c.Items[i], true
		}
	}
	return nil, false
}

// Loop returns the loop declaring tag
func (c *container) Loop(tag string) (*Loop, bool) {
	for i := range c.Loops {
		if c.Loops[i].ColumnIndex(tag) >= 0 {
			return &c.Loops[i], true
		}
	}
	return nil, false
}

// Lookup finds tag as an item or as a loop column
func (c *container) Lookup(tag string) ([]Value, bool) {
	if v, ok := c.Get(tag); ok {
		return []Value{v}, true
	}
	if l, ok := c.Loop(tag); ok {
		return l.Column(tag)
	}
	return nil, false
}

// Tags lists item tags in source order
func (c *container) Tags() []string {
	out := make([]string, len(c.Items))
	for i, it := range c.Items {
		out[i] = it.Tag
	}
	return out
}

// Frame is a save frame
type Frame struct {
	Name      string    `json:"name" yaml:"name"`
	NameSpan  span.Span `json:"name_span" yaml:"name_span"`
	container `yaml:",inline"`
	Span      span.Span `json:"span" yaml:"span"`
}

// Block is a data block
type Block struct {
	Name      string    `json:"name" yaml:"name"`
	NameSpan  span.Span `json:"name_span" yaml:"name_span"`
	// Implicit marks content that preceded the first data heading; its
	// NameSpan is the zero-width position of that content
	Implicit  bool      `json:"implicit,omitempty" yaml:"implicit,omitempty"`
	container `yaml:",inline"`
	Frames    []Frame   `json:"frames" yaml:"frames"`
	Span      span.Span `json:"span" yaml:"span"`
}

// Frame returns the last frame named name
func (b *Block) Frame(name string) (*Frame, bool) {
	for i := len(b.Frames) - 1; i >= 0; i-- {
		if strings.EqualFold(b.Frames[i].Name, name) {
			return &b.Frames[i], true
		}
	}
	return nil, false
}

// Document is a resolved CIF document
type Document struct {
	Blocks  []Block   `json:"blocks" yaml:"blocks"`
	Dialect Dialect   `json:"dialect" yaml:"dialect"`
	Span    span.Span `json:"span" yaml:"span"`
}

// Block returns the last block named name
func (d *Document) Block(name string) (*Block, bool) {
	for i := len(d.Blocks) - 1; i >= 0; i-- {
		if strings.EqualFold(d.Blocks[i].Name, name) {
			return &d.Blocks[i], true
		}
	}
	return nil, false
}

// First returns the first block, the usual entry point for single-block files
func (d *Document) First() (*Block, bool) {
	if len(d.Blocks) == 0 {
		return nil, false
	}
	return &d.Blocks[0], true
}

// Stats summarizes a document for logs and reports
type Stats struct {
	Blocks int `json:"blocks" yaml:"blocks"`
	Frames int `json:"frames" yaml:"frames"`
	Items  int `json:"items" yaml:"items"`
	Loops  int `json:"loops" yaml:"loops"`
	Values int `json:"values" yaml:"values"`
}

// Stats counts the containers and values of d
func (d *Document) Stats() Stats {
	var s Stats
	add := func(c *container) {
		s.Items += len(c.Items)
		s.Loops += len(c.Loops)
		s.Values += len(c.Items)
		for _, l := range c.Loops {
			s.Values += len(l.Values)
		}
	}
	for i := range d.Blocks {
		b := &d.Blocks[i]
		s.Blocks++
		add(&b.container)
		for j := range b.Frames {
			s.Frames++
			add(&b.Frames[j].container)
		}
	}
	return s
}
