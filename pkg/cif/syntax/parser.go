// File: parser.go
// Title: CIF Recursive Descent Grammar
// Description: Builds the generic rule tree from the token stream. The
//              grammar is the superset of CIF 1.1, CIF 2.0 and STAR nested
//              save frames; it makes no dialect decisions. Content before the
//              first data heading is attached to the file node directly.
// Author: msto63
// Version: v0.2.0
// Created: 2025-01-25
// Modified: 2026-10-14
//
// Change History:
// - 2025-01-25 v0.1.0: Initial parser implementation
// - 2026-10-14 v0.2.0: Rewritten as the CIF grammar superset

package syntax

import (
	"errors"
	"fmt"
	"strings"

	"github.com/msto63/mcif/pkg/cif/span"
)

// Error is a tokenizer or grammar failure with its own location
type Error struct {
	Offset int
	Line   int
	Col    int
	Msg    string
}

func (e *Error) Error() string {
	return fmt.Sprintf("syntax error at %d:%d: %s", e.Line, e.Col, e.Msg)
}

// Parser implements recursive descent parsing for CIF. It holds no state
// between calls and may be shared.
type Parser struct{}

// NewParser creates a new CIF grammar
func NewParser() *Parser {
	return &Parser{}
}

// Parse parses src into a tree rooted at a RuleFile node
func Parse(src string) (*Node, error) {
	return NewParser().Parse(src)
}

// Parse parses src into a tree rooted at a RuleFile node
func (*Parser) Parse(src string) (*Node, error) {
	st := &state{src: src, lexer: NewLexer(src)}
	if err := st.advance(); err != nil {
		return nil, st.wrap(err)
	}
	root, err := st.parseFile()
	if err != nil {
		return nil, st.wrap(err)
	}
	return root, nil
}

// state is the per-call parser state
type state struct {
	src     string
	lexer   *Lexer
	current Token
	depth   int // list/table nesting
	index   *span.LineIndex
}

func (p *state) advance() error {
	p.lexer.SetBracketMode(p.depth > 0)
	tok, err := p.lexer.NextToken()
	if err != nil {
		return err
	}
	p.current = tok
	return nil
}

func (p *state) errorAt(offset int, format string, args ...interface{}) error {
	return &Error{Offset: offset, Msg: fmt.Sprintf(format, args...)}
}

// wrap fills in line and column on the way out so the index is built only
// for failing inputs
func (p *state) wrap(err error) error {
	if p.index == nil {
		p.index = span.NewLineIndex(p.src)
	}
	var lexErr *LexError
	if errors.As(err, &lexErr) {
		err = &Error{Offset: lexErr.Offset, Msg: lexErr.Msg}
	}
	var synErr *Error
	if errors.As(err, &synErr) {
		synErr.Line, synErr.Col = p.index.LineCol(synErr.Offset)
	}
	return err
}

func (p *state) leaf(rule Rule) *Node {
	return &Node{Rule: rule, Start: p.current.Start, End: p.current.End}
}

func (p *state) parseFile() (*Node, error) {
	root := &Node{Rule: RuleFile, Start: 0, End: len(p.src)}

	if err := p.parseContent(root, false); err != nil {
		return nil, err
	}
	for p.current.Type == TokenDataHeading {
		block := &Node{Rule: RuleDataBlock, Start: p.current.Start}
		block.Children = append(block.Children, p.leaf(RuleDataHeading))
		block.End = p.current.End
		if err := p.advance(); err != nil {
			return nil, err
		}
		if err := p.parseContent(block, false); err != nil {
			return nil, err
		}
		root.Children = append(root.Children, block)
	}
	if p.current.Type != TokenEOF {
		return nil, p.errorAt(p.current.Start, "unexpected %s", p.describe(p.current))
	}
	return root, nil
}

// parseContent appends items, loops and frames to parent until a data
// heading, end of input or, inside a frame, the closing save_
func (p *state) parseContent(parent *Node, inFrame bool) error {
	for {
		switch tt := p.current.Type; {
		case tt == TokenEOF, tt == TokenDataHeading:
			return nil
		case tt == TokenSaveHeading && p.isFrameEnd():
			if inFrame {
				return nil
			}
			if err := p.parseFrame(parent); err != nil {
				return err
			}
		case tt == TokenSaveHeading:
			if err := p.parseFrame(parent); err != nil {
				return err
			}
		case tt == TokenTag:
			if err := p.parseItem(parent); err != nil {
				return err
			}
		case tt == TokenLoop:
			if err := p.parseLoop(parent); err != nil {
				return err
			}
		case tt == TokenReserved:
			return p.errorAt(p.current.Start, "reserved word %q", p.current.Text(p.src))
		case tt.IsValue():
			return p.errorAt(p.current.Start, "value %s without a tag", p.describe(p.current))
		default:
			return p.errorAt(p.current.Start, "unexpected %s", p.describe(p.current))
		}
	}
}

// isFrameEnd reports whether the current save heading has no name
func (p *state) isFrameEnd() bool {
	return p.current.End-p.current.Start == len("save_")
}

func (p *state) parseFrame(parent *Node) error {
	heading := p.leaf(RuleSaveHeading)
	frame := &Node{Rule: RuleSaveFrame, Start: heading.Start, End: heading.End, Children: []*Node{heading}}
	if err := p.advance(); err != nil {
		return err
	}
	if err := p.parseContent(frame, true); err != nil {
		return err
	}
	if p.current.Type != TokenSaveHeading || !p.isFrameEnd() {
		return p.errorAt(heading.Start, "save frame %q is not terminated", heading.Text(p.src))
	}
	end := p.leaf(RuleSaveEnd)
	frame.Children = append(frame.Children, end)
	frame.End = end.End
	parent.Children = append(parent.Children, frame)
	growTo(parent, frame.End)
	return p.advance()
}

func (p *state) parseItem(parent *Node) error {
	tag := p.leaf(RuleTag)
	if err := p.advance(); err != nil {
		return err
	}
	if !p.current.Type.IsValue() {
		return p.errorAt(tag.Start, "tag %s has no value", tag.Text(p.src))
	}
	value, err := p.parseValue()
	if err != nil {
		return err
	}
	item := &Node{Rule: RuleItem, Start: tag.Start, End: value.End, Children: []*Node{tag, value}}
	parent.Children = append(parent.Children, item)
	growTo(parent, item.End)
	return nil
}

// parseLoop reads loop_, then every following tag, then every following
// value. Tag and value counts are left to the consumer.
func (p *state) parseLoop(parent *Node) error {
	kw := p.leaf(RuleLoopKeyword)
	loop := &Node{Rule: RuleLoop, Start: kw.Start, End: kw.End, Children: []*Node{kw}}
	if err := p.advance(); err != nil {
		return err
	}
	for p.current.Type == TokenTag {
		tag := p.leaf(RuleTag)
		loop.Children = append(loop.Children, tag)
		loop.End = tag.End
		if err := p.advance(); err != nil {
			return err
		}
	}
	for p.current.Type.IsValue() {
		value, err := p.parseValue()
		if err != nil {
			return err
		}
		loop.Children = append(loop.Children, value)
		loop.End = value.End
	}
	parent.Children = append(parent.Children, loop)
	growTo(parent, loop.End)
	return nil
}

func (p *state) parseValue() (*Node, error) {
	switch p.current.Type {
	case TokenLeftBracket:
		return p.parseList()
	case TokenLeftBrace:
		return p.parseTable()
	case TokenSingleQuoted, TokenDoubleQuoted, TokenTripleSingle, TokenTripleDouble,
		TokenTextField, TokenUnquoted:
		n := p.leaf(tokenRule(p.current.Type))
		return n, p.advance()
	default:
		return nil, p.errorAt(p.current.Start, "expected a value, found %s", p.describe(p.current))
	}
}

func (p *state) parseList() (*Node, error) {
	list := &Node{Rule: RuleList, Start: p.current.Start}
	p.depth++
	if err := p.advance(); err != nil {
		return nil, err
	}
	for {
		switch {
		case p.current.Type == TokenRightBracket:
			list.End = p.current.End
			p.depth--
			return list, p.advance()
		case p.current.Type == TokenEOF:
			return nil, p.errorAt(list.Start, "unterminated list")
		case p.current.Type.IsValue():
			value, err := p.parseValue()
			if err != nil {
				return nil, err
			}
			list.Children = append(list.Children, value)
		default:
			return nil, p.errorAt(p.current.Start, "unexpected %s in list", p.describe(p.current))
		}
	}
}

func (p *state) parseTable() (*Node, error) {
	table := &Node{Rule: RuleTable, Start: p.current.Start}
	p.depth++
	if err := p.advance(); err != nil {
		return nil, err
	}
	for {
		switch {
		case p.current.Type == TokenRightBrace:
			table.End = p.current.End
			p.depth--
			return table, p.advance()
		case p.current.Type == TokenEOF:
			return nil, p.errorAt(table.Start, "unterminated table")
		case !p.current.Type.IsQuoted():
			return nil, p.errorAt(p.current.Start, "table key must be a quoted string, found %s", p.describe(p.current))
		}

		key := p.leaf(tokenRule(p.current.Type))
		if p.lexer.peekByte() != ':' {
			return nil, p.errorAt(key.End, "expected ':' after table key")
		}
		p.lexer.skip(1)
		if err := p.advance(); err != nil {
			return nil, err
		}
		if !p.current.Type.IsValue() {
			return nil, p.errorAt(key.Start, "table key %s has no value", key.Text(p.src))
		}
		value, err := p.parseValue()
		if err != nil {
			return nil, err
		}
		table.Children = append(table.Children, &Node{
			Rule:     RuleTableEntry,
			Start:    key.Start,
			End:      value.End,
			Children: []*Node{key, value},
		})
	}
}

func (p *state) describe(tok Token) string {
	if tok.Type == TokenEOF {
		return "end of input"
	}
	text := tok.Text(p.src)
	if i := strings.IndexByte(text, '\n'); i >= 0 {
		text = text[:i] + "..."
	}
	return fmt.Sprintf("%s %q", strings.ToLower(tok.Type.String()), text)
}

func growTo(n *Node, end int) {
	if n.Rule != RuleFile && end > n.End {
		n.End = end
	}
}
