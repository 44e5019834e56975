// File: resolve.go
// Title: Dialect Resolver
// Description: Pass 2. Turns a raw document into a typed document under
//              one dialect. Each dialect is a rule set: one function per
//              construct kind. CIF 1.1 never fails on dialect grounds;
//              CIF 2.0 stops at the first rejected construct.
// Author: msto63
// Version: v0.1.2
// Created: 2026-10-15
// Modified: 2026-10-18
//
// Change History:
// - 2026-10-15 v0.1.0: Initial implementation
// - 2026-10-16 v0.1.1: Embedded quote and unquoted bracket rules
// - 2026-10-18 v0.1.2: Table key quoting rules; constructs resolved in source order

package cif

import (
	"sort"
	"strings"

	"github.com/msto63/mcif/pkg/cif/raw"
	"github.com/msto63/mcif/pkg/cif/span"
	mdwerror "github.com/msto63/mcif/pkg/core/error"
)

// ruleSet resolves each construct kind under one dialect
type ruleSet struct {
	quoted    func(q *raw.Quoted) (Value, error)
	triple    func(t *raw.TripleQuoted) Value
	unquoted  func(u *raw.Unquoted) (Value, error)
	list      func(r *resolver, l *raw.List) (Value, error)
	table     func(r *resolver, t *raw.Table) (Value, error)
	blockName func(name string, sp span.Span) error
	frameName func(name string, sp span.Span) error
}

var permissive = &ruleSet{
	quoted: func(q *raw.Quoted) (Value, error) {
		return NewText(unescapeDoubled(q), q.Span), nil
	},
	triple: func(t *raw.TripleQuoted) Value {
		return NewText(t.Raw, t.Span)
	},
	unquoted: func(u *raw.Unquoted) (Value, error) {
		return resolveScalar(u.Text, u.Span), nil
	},
	list: func(_ *resolver, l *raw.List) (Value, error) {
		return NewText(l.Raw, l.Span), nil
	},
	table: func(_ *resolver, t *raw.Table) (Value, error) {
		return NewText(t.Raw, t.Span), nil
	},
	blockName: acceptName,
	frameName: acceptName,
}

var strict = &ruleSet{
	quoted: func(q *raw.Quoted) (Value, error) {
		if v, bad := checkQuoted(q); bad {
			return Value{}, v.AsError()
		}
		return NewText(q.Content, q.Span), nil
	},
	triple: func(t *raw.TripleQuoted) Value {
		return NewText(t.Content, t.Span)
	},
	unquoted: func(u *raw.Unquoted) (Value, error) {
		if v, bad := checkUnquoted(u); bad {
			return Value{}, v.AsError()
		}
		return resolveScalar(u.Text, u.Span), nil
	},
	list: func(r *resolver, l *raw.List) (Value, error) {
		elems := make([]Value, 0, len(l.Elements))
		for _, e := range l.Elements {
			v, err := r.value(e)
			if err != nil {
				return Value{}, err
			}
			elems = append(elems, v)
		}
		return NewList(elems, l.Span), nil
	},
	table: func(r *resolver, t *raw.Table) (Value, error) {
		keys := make([]string, 0, len(t.Entries))
		vals := make([]Value, 0, len(t.Entries))
		for _, e := range t.Entries {
			if q, ok := e.KeyValue.(*raw.Quoted); ok {
				if v, bad := checkQuoted(q); bad {
					return Value{}, v.AsError()
				}
			}
			v, err := r.value(e.Value)
			if err != nil {
				return Value{}, err
			}
			keys = append(keys, e.Key)
			vals = append(vals, v)
		}
		return NewTable(keys, vals, t.Span), nil
	},
	blockName: func(name string, sp span.Span) error {
		if v, bad := checkBlockName(name, sp); bad {
			return v.AsError()
		}
		return nil
	},
	frameName: func(name string, sp span.Span) error {
		if v, bad := checkFrameName(name, sp); bad {
			return v.AsError()
		}
		return nil
	},
}

var ruleSets = map[Dialect]*ruleSet{
	CIF11: permissive,
	CIF20: strict,
}

func acceptName(string, span.Span) error { return nil }

// unescapeDoubled collapses each doubled delimiter to one literal quote
func unescapeDoubled(q *raw.Quoted) string {
	if !q.HasDoubledQuotes {
		return q.Content
	}
	d := string([]byte{q.Quote, q.Quote})
	return strings.ReplaceAll(q.Content, d, string(q.Quote))
}

// Resolve applies dialect d to a raw document. DialectAuto picks CIF 2.0
// when the source carried the marker.
func Resolve(doc *raw.Document, d Dialect) (*Document, error) {
	if doc == nil {
		return nil, mdwerror.New("raw document is nil").
			WithCode(mdwerror.CodeInvalidInput).
			WithOperation("cif.Resolve")
	}
	if d == DialectAuto {
		d = CIF11
		if doc.HasMarker {
			d = CIF20
		}
	}
	switch d {
	case CIF11:
		return resolvePermissive(doc)
	case CIF20:
		return resolveStrict(doc)
	default:
		return nil, mdwerror.Newf("unsupported dialect %s", d).
			WithCode(mdwerror.CodeInvalidInput).
			WithOperation("cif.Resolve")
	}
}

// resolvePermissive transforms or passes through every construct; its only
// error is an internal one
func resolvePermissive(doc *raw.Document) (*Document, error) {
	return (&resolver{dialect: CIF11, rules: ruleSets[CIF11]}).document(doc)
}

// resolveStrict fails with the first CIF 2.0 violation
func resolveStrict(doc *raw.Document) (*Document, error) {
	return (&resolver{dialect: CIF20, rules: ruleSets[CIF20]}).document(doc)
}

type resolver struct {
	dialect Dialect
	rules   *ruleSet
}

func (r *resolver) document(doc *raw.Document) (*Document, error) {
	out := &Document{Blocks: make([]Block, 0, len(doc.Blocks)), Dialect: r.dialect, Span: doc.Span}
	for i := range doc.Blocks {
		b, err := r.block(&doc.Blocks[i])
		if err != nil {
			return nil, err
		}
		out.Blocks = append(out.Blocks, b)
	}
	return out, nil
}

func (r *resolver) block(b *raw.Block) (Block, error) {
	if err := r.rules.blockName(b.Name, b.NameSpan); err != nil {
		return Block{}, err
	}
	out := Block{Name: b.Name, NameSpan: b.NameSpan, Implicit: b.Implicit, container: newContainer(), Frames: make([]Frame, 0, len(b.Frames)), Span: b.Span}
	for _, p := range sourceOrder(b.Items, b.Loops, b.Frames) {
		if p.frame == nil {
			if err := r.part(&out.container, p); err != nil {
				return Block{}, err
			}
			continue
		}
		frame, err := r.frame(p.frame)
		if err != nil {
			return Block{}, err
		}
		out.Frames = append(out.Frames, frame)
	}
	return out, nil
}

func (r *resolver) frame(f *raw.Frame) (Frame, error) {
	if err := r.rules.frameName(f.Name, f.NameSpan); err != nil {
		return Frame{}, err
	}
	out := Frame{Name: f.Name, NameSpan: f.NameSpan, container: newContainer(), Span: f.Span}
	for _, p := range sourceOrder(f.Items, f.Loops, nil) {
		if err := r.part(&out.container, p); err != nil {
			return Frame{}, err
		}
	}
	return out, nil
}

// part is one item, loop or frame of a container
type part struct {
	start span.Position
	item  *raw.Item
	loop  *raw.Loop
	frame *raw.Frame
}

// sourceOrder merges a container's items, loops and frames by start
// position so strict resolution fails at the earliest rejected construct
func sourceOrder(items []raw.Item, loops []raw.Loop, frames []raw.Frame) []part {
	parts := make([]part, 0, len(items)+len(loops)+len(frames))
	for i := range items {
		parts = append(parts, part{start: items[i].Span.Start(), item: &items[i]})
	}
	for i := range loops {
		parts = append(parts, part{start: loops[i].Span.Start(), loop: &loops[i]})
	}
	for i := range frames {
		parts = append(parts, part{start: frames[i].Span.Start(), frame: &frames[i]})
	}
	sort.SliceStable(parts, func(i, j int) bool {
		return parts[i].start.Before(parts[j].start)
	})
	return parts
}

// part resolves an item or loop into c
func (r *resolver) part(c *container, p part) error {
	if it := p.item; it != nil {
		v, err := r.value(it.Value)
		if err != nil {
			return err
		}
		c.addItem(Item{Tag: it.Tag, Value: v, Span: it.Span})
		return nil
	}
	l := p.loop
	loop := Loop{Tags: append([]string(nil), l.Tags...), Values: make([]Value, 0, len(l.Values)), Span: l.Span}
	for _, rv := range l.Values {
		v, err := r.value(rv)
		if err != nil {
			return err
		}
		loop.Values = append(loop.Values, v)
	}
	c.Loops = append(c.Loops, loop)
	return nil
}

func (r *resolver) value(v raw.Value) (Value, error) {
	switch rv := v.(type) {
	case *raw.Quoted:
		return r.rules.quoted(rv)
	case *raw.TripleQuoted:
		return r.rules.triple(rv), nil
	case *raw.TextField:
		return NewText(rv.Content, rv.Span), nil
	case *raw.Unquoted:
		return r.rules.unquoted(rv)
	case *raw.List:
		return r.rules.list(r, rv)
	case *raw.Table:
		return r.rules.table(r, rv)
	default:
		return Value{}, mdwerror.Newf("unknown raw value %T", v).
			WithCode(mdwerror.CodeInternal).
			WithOperation("cif.Resolve")
	}
}
