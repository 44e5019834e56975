// File: collect.go
// Title: Violation Collection
// Description: Checks for every construct CIF 2.0 rejects. Strict
//              resolution stops at the first failing check; collection
//              runs all of them and reports violations in source order.
// Author: msto63
// Version: v0.1.1
// Created: 2026-10-15
// Modified: 2026-10-18
//
// Change History:
// - 2026-10-15 v0.1.0: Initial implementation
// - 2026-10-18 v0.1.1: Table keys checked by the quoting rules

package cif

import (
	"sort"
	"strings"

	"github.com/msto63/mcif/pkg/cif/raw"
	"github.com/msto63/mcif/pkg/cif/span"
)

// checkQuoted applies the two quoting rules. A doubled pair is reported in
// preference to a lone delimiter so one string yields one violation.
func checkQuoted(q *raw.Quoted) (Violation, bool) {
	switch {
	case q.HasDoubledQuotes:
		return newViolation(RuleDoubledQuote, q.Span,
			"doubled %c escape in quoted string", q.Quote), true
	case q.HasEmbeddedQuote():
		return newViolation(RuleEmbeddedQuote, q.Span,
			"quoted string contains its delimiter %c", q.Quote), true
	}
	return Violation{}, false
}

func checkUnquoted(u *raw.Unquoted) (Violation, bool) {
	if strings.ContainsAny(u.Text, "[]{}") {
		return newViolation(RuleUnquotedBracket, u.Span,
			"unquoted value %q contains a bracket or brace", u.Text), true
	}
	return Violation{}, false
}

func checkBlockName(name string, sp span.Span) (Violation, bool) {
	if name == "" {
		return newViolation(RuleEmptyBlockName, sp, "data block has no name"), true
	}
	return Violation{}, false
}

func checkFrameName(name string, sp span.Span) (Violation, bool) {
	if name == "" {
		return newViolation(RuleEmptyFrameName, sp, "save frame has no name"), true
	}
	return Violation{}, false
}

// CollectViolations reports every construct CIF 2.0 would reject, without
// stopping at the first. Violations come back in source order.
func CollectViolations(doc *raw.Document) []Violation {
	if doc == nil {
		return nil
	}
	c := &collector{}
	for i := range doc.Blocks {
		b := &doc.Blocks[i]
		c.add(checkBlockName(b.Name, b.NameSpan))
		c.items(b.Items, b.Loops)
		for j := range b.Frames {
			f := &b.Frames[j]
			c.add(checkFrameName(f.Name, f.NameSpan))
			c.items(f.Items, f.Loops)
		}
	}
	sort.SliceStable(c.out, func(i, j int) bool {
		return c.out[i].Span.Start().Before(c.out[j].Span.Start())
	})
	return c.out
}

type collector struct {
	out []Violation
}

func (c *collector) add(v Violation, bad bool) {
	if bad {
		c.out = append(c.out, v)
	}
}

func (c *collector) items(items []raw.Item, loops []raw.Loop) {
	for _, it := range items {
		c.value(it.Value)
	}
	for _, l := range loops {
		for _, v := range l.Values {
			c.value(v)
		}
	}
}

func (c *collector) value(v raw.Value) {
	switch rv := v.(type) {
	case *raw.Quoted:
		c.add(checkQuoted(rv))
	case *raw.Unquoted:
		c.add(checkUnquoted(rv))
	case *raw.List:
		for _, e := range rv.Elements {
			c.value(e)
		}
	case *raw.Table:
		for _, e := range rv.Entries {
			c.value(e.KeyValue)
			c.value(e.Value)
		}
	}
}
