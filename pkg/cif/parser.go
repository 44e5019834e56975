// File: parser.go
// Title: CIF Document Parser
// Description: The driver. Builds the line index, runs the grammar, Pass 1
//              (raw tree), dialect detection and Pass 2 (resolution), and
//              optionally collects CIF 2.0 violations for CIF 1.1 input.
//              A Parser holds configuration only; every call owns its index
//              and trees, so one Parser serves concurrent callers.
// Author: msto63
// Version: v0.1.0
// Created: 2026-10-15
// Modified: 2026-10-16
//
// Change History:
// - 2026-10-15 v0.1.0: Initial implementation
// - 2026-10-16 v0.1.1: Lint entry point and parse ids

package cif

import (
	"errors"

	"github.com/google/uuid"

	"github.com/msto63/mcif/pkg/cif/raw"
	"github.com/msto63/mcif/pkg/cif/span"
	"github.com/msto63/mcif/pkg/cif/syntax"
	mdwerror "github.com/msto63/mcif/pkg/core/error"
	"github.com/msto63/mcif/pkg/core/log"
)

// Grammar produces the generic rule tree for a source text
type Grammar interface {
	Parse(src string) (*syntax.Node, error)
}

// Options configures a Parser
type Options struct {
	// Dialect overrides detection when not DialectAuto
	Dialect Dialect

	// Diagnostics collects CIF 2.0 violations when the document resolves
	// as CIF 1.1
	Diagnostics bool

	// Logger receives debug output; nil discards it
	Logger *log.Logger

	// Grammar replaces the built-in grammar
	Grammar Grammar
}

// Result is the output of one parse call
type Result struct {
	Document   *Document
	Violations []Violation
	Dialect    Dialect
	ParseID    string
}

// LintReport lists everything CIF 2.0 would reject in a source text
type LintReport struct {
	Dialect    Dialect     `json:"dialect" yaml:"dialect"`
	Violations []Violation `json:"violations" yaml:"violations"`
	Stats      Stats       `json:"stats" yaml:"stats"`
	ParseID    string      `json:"parse_id" yaml:"parse_id"`
}

// Parser parses CIF text into typed documents
type Parser struct {
	opts Options
}

// NewParser creates a parser with the given options
func NewParser(opts Options) *Parser {
	if opts.Logger == nil {
		opts.Logger = log.Discard()
	}
	if opts.Grammar == nil {
		opts.Grammar = syntax.NewParser()
	}
	return &Parser{opts: opts}
}

// Parse parses src with auto-detection and no diagnostics
func Parse(src string) (*Document, error) {
	res, err := NewParser(Options{}).Parse(src)
	if err != nil {
		return nil, err
	}
	return res.Document, nil
}

// ParseWith parses src with opts
func ParseWith(src string, opts Options) (*Result, error) {
	return NewParser(opts).Parse(src)
}

// Parse runs the whole pipeline on src
func (p *Parser) Parse(src string) (*Result, error) {
	id := uuid.NewString()
	logger := p.opts.Logger.WithParseID(id)
	timer := logger.StartTimer("cif.Parse")

	rawDoc, ix, err := p.buildRaw(src, id, logger)
	if err != nil {
		timer.StopWithError(err)
		return nil, err
	}

	dialect := p.opts.Dialect
	if dialect == DialectAuto {
		dialect = CIF11
		if rawDoc.HasMarker {
			dialect = CIF20
		}
	}
	logger.Debug("dialect selected", log.Fields{
		"dialect":    dialect.String(),
		"has_marker": rawDoc.HasMarker,
		"override":   p.opts.Dialect != DialectAuto,
		"lines":      ix.LineCount(),
	})

	doc, err := Resolve(rawDoc, dialect)
	if err != nil {
		err = withParseID(err, id)
		logger.WarnWithErr("strict resolution failed", err, log.Fields{"dialect": dialect.String()})
		timer.StopWithError(err)
		return nil, err
	}

	res := &Result{Document: doc, Dialect: dialect, ParseID: id}
	if p.opts.Diagnostics && dialect == CIF11 {
		res.Violations = CollectViolations(rawDoc)
		logger.Debug("violations collected", log.Fields{"count": len(res.Violations)})
	}

	stats := doc.Stats()
	timer.WithField("blocks", stats.Blocks).WithField("values", stats.Values).Stop()
	return res, nil
}

// Lint reports every CIF 2.0 violation in src without resolving it
func (p *Parser) Lint(src string) (*LintReport, error) {
	id := uuid.NewString()
	logger := p.opts.Logger.WithParseID(id)
	timer := logger.StartTimer("cif.Lint")

	rawDoc, _, err := p.buildRaw(src, id, logger)
	if err != nil {
		timer.StopWithError(err)
		return nil, err
	}

	dialect := p.opts.Dialect
	if dialect == DialectAuto {
		dialect = DetectDialect(src)
	}
	report := &LintReport{
		Dialect:    dialect,
		Violations: CollectViolations(rawDoc),
		ParseID:    id,
	}
	if report.Violations == nil {
		report.Violations = []Violation{}
	}
	// Stats come from the permissive reading, which cannot fail on
	// dialect grounds.
	if doc, err := resolvePermissive(rawDoc); err == nil {
		report.Stats = doc.Stats()
	}

	timer.WithField("violations", len(report.Violations)).Stop()
	return report, nil
}

// buildRaw runs the grammar and Pass 1
func (p *Parser) buildRaw(src, id string, logger *log.Logger) (*raw.Document, *span.LineIndex, error) {
	ix := span.NewLineIndex(src)

	root, err := p.opts.Grammar.Parse(src)
	if err != nil {
		return nil, nil, syntaxError(err, ix, id)
	}
	logger.Trace("grammar done", log.Fields{"nodes": len(root.Children)})

	rawDoc, err := raw.Build(src, root, ix)
	if err != nil {
		return nil, nil, withParseID(err, id)
	}
	logger.Debug("raw tree built", log.Fields{"blocks": len(rawDoc.Blocks)})
	return rawDoc, ix, nil
}

// syntaxError wraps a grammar failure, keeping the grammar's own location
func syntaxError(err error, ix *span.LineIndex, id string) error {
	e := mdwerror.Wrap(err, "parse failed").
		WithCode(mdwerror.CodeSyntax).
		WithOperation("cif.Parse").
		WithRequestID(id)

	var se *syntax.Error
	if errors.As(err, &se) {
		end := se.Offset + 1
		if end > ix.Len() {
			end = ix.Len()
		}
		e = e.WithSpan(ix.Span(se.Offset, end)).WithDetail("offset", se.Offset)
	}
	return e
}

func withParseID(err error, id string) error {
	var e *mdwerror.Error
	if errors.As(err, &e) {
		e.WithRequestID(id)
	}
	return err
}
