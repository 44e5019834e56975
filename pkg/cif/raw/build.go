// File: build.go
// Title: Raw Tree Construction
// Description: Walks the generic parse tree once and produces the raw tree.
//              Dispatch is on node rule only. No dialect decision is made
//              here: doubled quotes are flagged, lists and tables keep
//              their source slice, and loop laws are enforced through the
//              assembler.
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
	"fmt"
	"strings"

	"github.com/msto63/mcif/pkg/cif/span"
	"github.com/msto63/mcif/pkg/cif/syntax"
	mdwerror "github.com/msto63/mcif/pkg/core/error"
)

const headingPrefixLen = len("data_") // same length as "save_"

// Build converts a RuleFile tree into a raw Document. ix must index src; a
// nil ix is built on demand.
func Build(src string, root *syntax.Node, ix *span.LineIndex) (*Document, error) {
	if root == nil || root.Rule != syntax.RuleFile {
		return nil, mdwerror.New("raw.Build requires a file node").
			WithCode(mdwerror.CodeInvalidInput).
			WithOperation("raw.Build")
	}
	if ix == nil {
		ix = span.NewLineIndex(src)
	}
	b := &builder{src: src, ix: ix}

	doc := &Document{
		HasMarker: syntax.HasMarker(src),
		Span:      ix.Span(0, len(src)),
	}

	var (
		implicit []*syntax.Node
		blocks   []*syntax.Node
	)
	for _, n := range root.Children {
		if n.Rule == syntax.RuleDataBlock {
			blocks = append(blocks, n)
		} else {
			implicit = append(implicit, n)
		}
	}

	if len(implicit) > 0 {
		blk, err := b.implicitBlock(implicit)
		if err != nil {
			return nil, err
		}
		doc.Blocks = append(doc.Blocks, *blk)
	}
	for _, n := range blocks {
		blk, err := b.block(n)
		if err != nil {
			return nil, err
		}
		doc.Blocks = append(doc.Blocks, *blk)
	}
	return doc, nil
}

type builder struct {
	src string
	ix  *span.LineIndex
}

func (b *builder) span(n *syntax.Node) span.Span {
	return b.ix.Span(n.Start, n.End)
}

// heading splits a data_ or save_ heading into its name and name span. An
// empty name is located at the keyword itself.
func (b *builder) heading(n *syntax.Node) (string, span.Span) {
	name := b.src[n.Start+headingPrefixLen : n.End]
	if name == "" {
		return "", b.span(n)
	}
	return name, b.ix.Span(n.Start+headingPrefixLen, n.End)
}

func (b *builder) implicitBlock(nodes []*syntax.Node) (*Block, error) {
	first, last := nodes[0], nodes[len(nodes)-1]
	asm := NewAssembler("", b.ix.Span(first.Start, first.Start), b.ix.Span(first.Start, last.End))
	if err := b.content(asm, nodes); err != nil {
		return nil, err
	}
	blk, err := asm.Finish()
	if err != nil {
		return nil, err
	}
	blk.Implicit = true
	return blk, nil
}

func (b *builder) block(n *syntax.Node) (*Block, error) {
	name, nameSpan := b.heading(n.Children[0])
	asm := NewAssembler(name, nameSpan, b.span(n))
	if err := b.content(asm, n.Children[1:]); err != nil {
		return nil, err
	}
	return asm.Finish()
}

func (b *builder) content(asm *Assembler, nodes []*syntax.Node) error {
	for _, n := range nodes {
		switch n.Rule {
		case syntax.RuleItem:
			value, err := b.value(n.Children[1])
			if err != nil {
				return err
			}
			item := Item{Tag: n.Children[0].Text(b.src), Value: value, Span: b.span(n)}
			if err := asm.AddItem(item); err != nil {
				return err
			}

		case syntax.RuleLoop:
			var tags []string
			var values []*syntax.Node
			for _, c := range n.Children {
				switch {
				case c.Rule == syntax.RuleTag:
					tags = append(tags, c.Text(b.src))
				case c.IsValue():
					values = append(values, c)
				}
			}
			if err := asm.BeginLoop(tags, b.span(n)); err != nil {
				return err
			}
			for _, c := range values {
				value, err := b.value(c)
				if err != nil {
					return err
				}
				if err := asm.AddLoopValue(value); err != nil {
					return err
				}
			}

		case syntax.RuleSaveFrame:
			name, nameSpan := b.heading(n.Children[0])
			child, err := asm.BeginFrame(name, nameSpan, b.span(n))
			if err != nil {
				return err
			}
			body := n.Children[1:]
			if len(body) > 0 && body[len(body)-1].Rule == syntax.RuleSaveEnd {
				body = body[:len(body)-1]
			}
			if err := b.content(child, body); err != nil {
				return err
			}
			if err := child.EndFrame(); err != nil {
				return err
			}

		default:
			return b.unexpected(n)
		}
	}
	return nil
}

func (b *builder) value(n *syntax.Node) (Value, error) {
	text := n.Text(b.src)
	sp := b.span(n)

	switch n.Rule {
	case syntax.RuleSingleQuoted, syntax.RuleDoubleQuoted:
		q := text[0]
		content := text[1 : len(text)-1]
		return &Quoted{
			Content:          content,
			Quote:            q,
			HasDoubledQuotes: strings.Contains(content, string([]byte{q, q})),
			Span:             sp,
		}, nil

	case syntax.RuleTripleSingle, syntax.RuleTripleDouble:
		return &TripleQuoted{Content: text[3 : len(text)-3], Raw: text, Quote: text[0], Span: sp}, nil

	case syntax.RuleTextField:
		// ";" content "\n;"
		content := strings.TrimSuffix(text[1:len(text)-2], "\r")
		return &TextField{Content: content, Span: sp}, nil

	case syntax.RuleUnquoted:
		return &Unquoted{Text: text, Span: sp}, nil

	case syntax.RuleList:
		list := &List{Raw: text, Span: sp, Elements: make([]Value, 0, len(n.Children))}
		for _, c := range n.Children {
			v, err := b.value(c)
			if err != nil {
				return nil, err
			}
			list.Elements = append(list.Elements, v)
		}
		return list, nil

	case syntax.RuleTable:
		table := &Table{Raw: text, Span: sp, Entries: make([]TableEntry, 0, len(n.Children))}
		for _, entry := range n.Children {
			key := entry.Children[0]
			kv, err := b.value(key)
			if err != nil {
				return nil, err
			}
			v, err := b.value(entry.Children[1])
			if err != nil {
				return nil, err
			}
			table.Entries = append(table.Entries, TableEntry{
				Key:      tableKey(key.Rule, key.Text(b.src)),
				KeySpan:  b.span(key),
				KeyValue: kv,
				Value:    v,
			})
		}
		return table, nil
	}
	return nil, b.unexpected(n)
}

func tableKey(rule syntax.Rule, text string) string {
	switch rule {
	case syntax.RuleTripleSingle, syntax.RuleTripleDouble:
		return text[3 : len(text)-3]
	default:
		return text[1 : len(text)-1]
	}
}

func (b *builder) unexpected(n *syntax.Node) error {
	return mdwerror.New(fmt.Sprintf("unexpected %s node", n.Rule)).
		WithCode(mdwerror.CodeInternal).
		WithOperation("raw.Build").
		WithSpan(b.span(n))
}
