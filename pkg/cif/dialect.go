// File: dialect.go
// Title: CIF Dialects
// Description: The two CIF dialects, their names on the command line and in
//              serialized output, and detection of the CIF 2.0 marker
//              line at the start of the source.
// Author: msto63
// Version: v0.1.0
// Created: 2026-10-15
// Modified: 2026-10-15
//
// Change History:
// - 2026-10-15 v0.1.0: Initial implementation

package cif

import (
	"fmt"
	"strings"

	"github.com/msto63/mcif/pkg/cif/syntax"
)

// Dialect selects the rule set used to resolve a raw document
type Dialect int

const (
	// DialectAuto detects the dialect from the CIF 2.0 marker
	DialectAuto Dialect = iota

	// CIF11 is the permissive dialect and the default for unmarked input
	CIF11

	// CIF20 is the strict dialect selected by the #\#CIF_2.0 marker
	CIF20
)

// String returns the dialect's display name
func (d Dialect) String() string {
	switch d {
	case DialectAuto:
		return "auto"
	case CIF11:
		return "CIF 1.1"
	case CIF20:
		return "CIF 2.0"
	default:
		return fmt.Sprintf("Dialect(%d)", int(d))
	}
}

// Short returns the config spelling of the dialect
func (d Dialect) Short() string {
	switch d {
	case CIF11:
		return "cif1"
	case CIF20:
		return "cif2"
	default:
		return "auto"
	}
}

// MarshalText implements encoding.TextMarshaler
func (d Dialect) MarshalText() ([]byte, error) {
	return []byte(d.Short()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (d *Dialect) UnmarshalText(b []byte) error {
	parsed, err := ParseDialect(string(b))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// ParseDialect parses a dialect name such as "auto", "cif1" or "2.0"
func ParseDialect(s string) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return DialectAuto, nil
	case "cif1", "cif1.1", "cif_1.1", "1.1", "1":
		return CIF11, nil
	case "cif2", "cif2.0", "cif_2.0", "2.0", "2":
		return CIF20, nil
	default:
		return DialectAuto, fmt.Errorf("unknown dialect %q", s)
	}
}

// DetectDialect returns CIF20 when src opens with the CIF 2.0 marker and
// CIF11 otherwise
func DetectDialect(src string) Dialect {
	if syntax.HasMarker(src) {
		return CIF20
	}
	return CIF11
}
