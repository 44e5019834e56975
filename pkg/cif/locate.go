// File: locate.go
// Title: Position Lookup
// Description: Maps a source position to the innermost construct of a
//              typed document for hover and go-to-definition tooling.
// Author: msto63
// Version: v0.1.1
// Created: 2026-10-16
// Modified: 2026-10-18
//
// Change History:
// - 2026-10-16 v0.1.0: Initial implementation
// - 2026-10-18 v0.1.1: Implicit blocks have no addressable name

package cif

import (
	"strconv"

	"github.com/msto63/mcif/pkg/cif/span"
)

// Location is the innermost construct found at a source position. Pointers
// refer into the searched document; a value inside a table is a copy.
type Location struct {
	Block *Block
	Frame *Frame
	Item  *Item
	Loop  *Loop

	// Row and Column address the loop cell, -1 outside a cell
	Row    int
	Column int

	// OnName is set when the position falls on a block or frame name
	OnName bool

	// Value is the innermost value, nil when the position is on a container
	Value *Value

	// Path descends from the item or cell value into lists ("[1]") and
	// tables ("{key}")
	Path []string

	Span span.Span
}

// Tag returns the tag of the located item or loop column
func (l Location) Tag() string {
	switch {
	case l.Item != nil:
		return l.Item.Tag
	case l.Loop != nil && l.Column >= 0:
		return l.Loop.Tags[l.Column]
	}
	return ""
}

// Locate maps a 1-indexed line and column to the innermost construct
func (d *Document) Locate(line, col int) (Location, bool) {
	loc := Location{Row: -1, Column: -1}
	for i := range d.Blocks {
		b := &d.Blocks[i]
		onName := !b.Implicit && b.NameSpan.Contains(line, col)
		if !b.Span.Contains(line, col) && !onName {
			continue
		}
		loc.Block, loc.Span = b, b.Span
		if onName {
			loc.OnName, loc.Span = true, b.NameSpan
			return loc, true
		}
		for j := range b.Frames {
			f := &b.Frames[j]
			if !f.Span.Contains(line, col) {
				continue
			}
			loc.Frame, loc.Span = f, f.Span
			if f.NameSpan.Contains(line, col) {
				loc.OnName, loc.Span = true, f.NameSpan
				return loc, true
			}
			locateIn(&f.container, line, col, &loc)
			return loc, true
		}
		locateIn(&b.container, line, col, &loc)
		return loc, true
	}
	return Location{}, false
}

func locateIn(c *container, line, col int, loc *Location) {
	for i := range c.Items {
		it := &c.Items[i]
		if it.Span.Contains(line, col) {
			loc.Item, loc.Span = it, it.Span
			descend(&it.Value, line, col, loc)
			return
		}
	}
	for i := range c.Loops {
		l := &c.Loops[i]
		if !l.Span.Contains(line, col) {
			continue
		}
		loc.Loop, loc.Span = l, l.Span
		for k := range l.Values {
			if l.Values[k].Span.Contains(line, col) {
				loc.Row, loc.Column = k/len(l.Tags), k%len(l.Tags)
				descend(&l.Values[k], line, col, loc)
				return
			}
		}
		return
	}
}

// descend records v and steps into the list element or table entry that
// holds the position
func descend(v *Value, line, col int, loc *Location) {
	if !v.Span.Contains(line, col) {
		return
	}
	loc.Value, loc.Span = v, v.Span
	switch v.Kind {
	case KindList:
		for i := range v.List {
			if v.List[i].Span.Contains(line, col) {
				loc.Path = append(loc.Path, "["+strconv.Itoa(i)+"]")
				descend(&v.List[i], line, col, loc)
				return
			}
		}
	case KindTable:
		for _, k := range v.TableKeys {
			e := v.Table[k]
			if e.Span.Contains(line, col) {
				loc.Path = append(loc.Path, "{"+k+"}")
				descend(&e, line, col, loc)
				return
			}
		}
	}
}
