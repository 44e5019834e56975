// File: violation.go
// Title: Dialect Violations
// Description: Violation records and the stable rule identifiers of every
//              construct CIF 2.0 rejects. Rule ids are part of the public
//              contract: tooling filters and allowlists by them.
// Author: msto63
// Version: v0.1.0
// Created: 2026-10-15
// Modified: 2026-10-15
//
// Change History:
// - 2026-10-15 v0.1.0: Initial implementation

package cif

import (
	"errors"
	"fmt"

	"github.com/msto63/mcif/pkg/cif/span"
	mdwerror "github.com/msto63/mcif/pkg/core/error"
)

// RuleID identifies a reject rule
type RuleID string

const (
	RuleDoubledQuote    RuleID = "CIF2_DOUBLED_QUOTE"
	RuleEmbeddedQuote   RuleID = "CIF2_EMBEDDED_QUOTE"
	RuleUnquotedBracket RuleID = "CIF2_UNQUOTED_BRACKET"
	RuleEmptyBlockName  RuleID = "CIF2_EMPTY_BLOCK_NAME"
	RuleEmptyFrameName  RuleID = "CIF2_EMPTY_FRAME_NAME"
)

// RuleInfo describes one reject rule
type RuleInfo struct {
	ID         RuleID    `json:"id" yaml:"id"`
	Construct  Construct `json:"construct" yaml:"construct"`
	Summary    string    `json:"summary" yaml:"summary"`
	Suggestion string    `json:"suggestion,omitempty" yaml:"suggestion,omitempty"`
}

var ruleInfos = []RuleInfo{
	{
		ID:         RuleDoubledQuote,
		Construct:  ConstructDoubledQuote,
		Summary:    "doubled quote escape is not allowed in CIF 2.0",
		Suggestion: "use a triple-quoted string",
	},
	{
		ID:         RuleEmbeddedQuote,
		Construct:  ConstructEmbeddedQuote,
		Summary:    "quoted string contains its own delimiter",
		Suggestion: "use the other quote character or a triple-quoted string",
	},
	{
		ID:         RuleUnquotedBracket,
		Construct:  ConstructUnquotedBracket,
		Summary:    "unquoted value contains a bracket or brace",
		Suggestion: "quote the value",
	},
	{
		ID:        RuleEmptyBlockName,
		Construct: ConstructEmptyBlockName,
		Summary:   "data block name is required",
	},
	{
		ID:        RuleEmptyFrameName,
		Construct: ConstructEmptyFrameName,
		Summary:   "save frame name is required",
	},
}

// Rules returns every reject rule in a stable order
func Rules() []RuleInfo {
	return append([]RuleInfo(nil), ruleInfos...)
}

// LookupRule returns the description of id
func LookupRule(id RuleID) (RuleInfo, bool) {
	for _, r := range ruleInfos {
		if r.ID == id {
			return r, true
		}
	}
	return RuleInfo{}, false
}

// Violation describes one construct the strict dialect rejects
type Violation struct {
	Span       span.Span `json:"span" yaml:"span"`
	Message    string    `json:"message" yaml:"message"`
	RuleID     RuleID    `json:"rule_id" yaml:"rule_id"`
	Suggestion string    `json:"suggestion,omitempty" yaml:"suggestion,omitempty"`
}

func newViolation(id RuleID, sp span.Span, format string, args ...interface{}) Violation {
	v := Violation{Span: sp, Message: fmt.Sprintf(format, args...), RuleID: id}
	if info, ok := LookupRule(id); ok {
		v.Suggestion = info.Suggestion
	}
	return v
}

// String renders "3:4-3:11 CIF2_DOUBLED_QUOTE: message (suggestion)"
func (v Violation) String() string {
	s := fmt.Sprintf("%s %s: %s", v.Span, v.RuleID, v.Message)
	if v.Suggestion != "" {
		s += " (" + v.Suggestion + ")"
	}
	return s
}

// AsError converts the violation into the fatal error strict mode returns
func (v Violation) AsError() *mdwerror.Error {
	e := mdwerror.New(v.Message).
		WithCode(mdwerror.CodeDialectViolation).
		WithOperation("cif.Resolve").
		WithSpan(v.Span).
		WithDetail("rule_id", string(v.RuleID))
	if v.Suggestion != "" {
		e = e.WithDetail("suggestion", v.Suggestion)
	}
	return e
}

// ViolationOf recovers the violation behind a strict-mode error
func ViolationOf(err error) (Violation, bool) {
	var e *mdwerror.Error
	if !errors.As(err, &e) || e.Code() != mdwerror.CodeDialectViolation {
		return Violation{}, false
	}
	sp, _ := e.Span()
	v := Violation{Span: sp, Message: e.Message()}
	if id, ok := e.Detail("rule_id"); ok {
		v.RuleID = RuleID(fmt.Sprint(id))
	}
	if s, ok := e.Detail("suggestion"); ok {
		v.Suggestion = fmt.Sprint(s)
	}
	return v, true
}

// FilterViolations drops violations whose rule id is allowlisted
func FilterViolations(vs []Violation, allow []RuleID) []Violation {
	if len(allow) == 0 {
		return vs
	}
	skip := make(map[RuleID]bool, len(allow))
	for _, id := range allow {
		skip[id] = true
	}
	out := make([]Violation, 0, len(vs))
	for _, v := range vs {
		if !skip[v.RuleID] {
			out = append(out, v)
		}
	}
	return out
}

// CountByRule tallies violations per rule id
func CountByRule(vs []Violation) map[RuleID]int {
	counts := make(map[RuleID]int)
	for _, v := range vs {
		counts[v.RuleID]++
	}
	return counts
}
