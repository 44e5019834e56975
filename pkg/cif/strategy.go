// File: strategy.go
// Title: Construct Strategies
// Description: Per-dialect treatment of every construct whose reading
//              differs between CIF 1.1 and CIF 2.0, and the rule id
//              reported when CIF 2.0 rejects it.
// Author: msto63
// Version: v0.1.1
// Created: 2026-10-15
// Modified: 2026-10-16
//
// Change History:
// - 2026-10-15 v0.1.0: Initial implementation
// - 2026-10-16 v0.1.1: Embedded quote and unquoted bracket constructs

package cif

import "fmt"

// Strategy is how a dialect treats one construct
type Strategy int

const (
	PassThrough Strategy = iota
	Transform
	Reject
)

func (s Strategy) String() string {
	switch s {
	case PassThrough:
		return "pass-through"
	case Transform:
		return "transform"
	case Reject:
		return "reject"
	default:
		return fmt.Sprintf("Strategy(%d)", int(s))
	}
}

// MarshalText implements encoding.TextMarshaler
func (s Strategy) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Construct is a syntactic construct whose meaning depends on the dialect
type Construct int

const (
	ConstructDoubledQuote Construct = iota
	ConstructEmbeddedQuote
	ConstructTripleQuoted
	ConstructTextField
	ConstructList
	ConstructTable
	ConstructUnquotedBracket
	ConstructEmptyBlockName
	ConstructEmptyFrameName
)

var constructNames = [...]string{
	ConstructDoubledQuote:    "doubled quote",
	ConstructEmbeddedQuote:   "embedded quote",
	ConstructTripleQuoted:    "triple-quoted string",
	ConstructTextField:       "text field",
	ConstructList:            "list",
	ConstructTable:           "table",
	ConstructUnquotedBracket: "unquoted bracket",
	ConstructEmptyBlockName:  "empty block name",
	ConstructEmptyFrameName:  "empty frame name",
}

func (c Construct) String() string {
	if c < 0 || int(c) >= len(constructNames) {
		return fmt.Sprintf("Construct(%d)", int(c))
	}
	return constructNames[c]
}

// MarshalText implements encoding.TextMarshaler
func (c Construct) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// Constructs returns every dialect-dependent construct in table order
func Constructs() []Construct {
	out := make([]Construct, len(constructNames))
	for i := range out {
		out[i] = Construct(i)
	}
	return out
}

// strategies is indexed by construct, then {CIF11, CIF20}
var strategies = [...][2]Strategy{
	ConstructDoubledQuote:    {Transform, Reject},
	ConstructEmbeddedQuote:   {PassThrough, Reject},
	ConstructTripleQuoted:    {Transform, Transform},
	ConstructTextField:       {PassThrough, PassThrough},
	ConstructList:            {Transform, Transform},
	ConstructTable:           {Transform, Transform},
	ConstructUnquotedBracket: {PassThrough, Reject},
	ConstructEmptyBlockName:  {PassThrough, Reject},
	ConstructEmptyFrameName:  {PassThrough, Reject},
}

// StrategyFor returns how dialect d treats construct c. DialectAuto is
// answered as CIF 1.1, the dialect unmarked input resolves to.
func StrategyFor(d Dialect, c Construct) Strategy {
	if c < 0 || int(c) >= len(strategies) {
		return PassThrough
	}
	if d == CIF20 {
		return strategies[c][1]
	}
	return strategies[c][0]
}

// RuleFor returns the rule id that rejects c, if any dialect rejects it
func RuleFor(c Construct) (RuleID, bool) {
	for _, r := range ruleInfos {
		if r.Construct == c {
			return r.ID, true
		}
	}
	return "", false
}
