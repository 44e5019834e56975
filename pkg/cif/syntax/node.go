// File: node.go
// Title: Generic Parse Tree
// Description: Defines the rule-tagged parse tree produced by the grammar.
//              Every node carries its rule, its exact byte range in the
//              source and its ordered children. Consumers dispatch on the
//              rule alone.
// Author: msto63
// Version: v0.2.0
// Created: 2025-01-25
// Modified: 2026-10-14
//
// Change History:
// - 2025-01-25 v0.1.0: Initial AST node definitions
// - 2026-10-14 v0.2.0: Replaced typed AST with a generic rule tree

package syntax

import (
	"fmt"
	"strings"
)

// Rule identifies the grammar rule that produced a node
type Rule string

const (
	RuleFile         Rule = "file"
	RuleDataBlock    Rule = "data_block"
	RuleDataHeading  Rule = "data_heading"
	RuleSaveFrame    Rule = "save_frame"
	RuleSaveHeading  Rule = "save_heading"
	RuleSaveEnd      Rule = "save_end"
	RuleItem         Rule = "item"
	RuleTag          Rule = "tag"
	RuleLoop         Rule = "loop"
	RuleLoopKeyword  Rule = "loop_keyword"
	RuleSingleQuoted Rule = "single_quoted"
	RuleDoubleQuoted Rule = "double_quoted"
	RuleTripleSingle Rule = "triple_single"
	RuleTripleDouble Rule = "triple_double"
	RuleTextField    Rule = "text_field"
	RuleUnquoted     Rule = "unquoted"
	RuleList         Rule = "list"
	RuleTable        Rule = "table"
	RuleTableEntry   Rule = "table_entry"
)

// Node is one node of the generic parse tree
type Node struct {
	Rule     Rule
	Start    int // Byte offset of the first character
	End      int // Byte offset after the last character
	Children []*Node
}

// Text returns the node's source slice
func (n *Node) Text(src string) string {
	return src[n.Start:n.End]
}

// Child returns the first child with the given rule, or nil
func (n *Node) Child(rule Rule) *Node {
	for _, c := range n.Children {
		if c.Rule == rule {
			return c
		}
	}
	return nil
}

// ChildrenOf returns all children with the given rule
func (n *Node) ChildrenOf(rule Rule) []*Node {
	var out []*Node
	for _, c := range n.Children {
		if c.Rule == rule {
			out = append(out, c)
		}
	}
	return out
}

// IsValue reports whether the node is a value construct
func (n *Node) IsValue() bool {
	switch n.Rule {
	case RuleSingleQuoted, RuleDoubleQuoted, RuleTripleSingle, RuleTripleDouble,
		RuleTextField, RuleUnquoted, RuleList, RuleTable:
		return true
	default:
		return false
	}
}

// Dump renders the tree as an indented outline, one node per line
func Dump(n *Node, src string) string {
	var b strings.Builder
	var walk func(*Node, int)
	walk = func(n *Node, depth int) {
		b.WriteString(strings.Repeat("  ", depth))
		if len(n.Children) == 0 {
			fmt.Fprintf(&b, "%s %q\n", n.Rule, n.Text(src))
		} else {
			fmt.Fprintf(&b, "%s [%d,%d)\n", n.Rule, n.Start, n.End)
		}
		for _, c := range n.Children {
			walk(c, depth+1)
		}
	}
	walk(n, 0)
	return b.String()
}

func tokenRule(tt TokenType) Rule {
	switch tt {
	case TokenSingleQuoted:
		return RuleSingleQuoted
	case TokenDoubleQuoted:
		return RuleDoubleQuoted
	case TokenTripleSingle:
		return RuleTripleSingle
	case TokenTripleDouble:
		return RuleTripleDouble
	case TokenTextField:
		return RuleTextField
	case TokenTag:
		return RuleTag
	default:
		return RuleUnquoted
	}
}
