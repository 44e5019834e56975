// File: numeric.go
// Title: Numeric Values
// Description: Recognizes the unknown and not-applicable markers and the
//              CIF number grammar, including a standard uncertainty in
//              parentheses, for unquoted values.
// Author: msto63
// Version: v0.1.0
// Created: 2026-10-15
// Modified: 2026-10-15
//
// Change History:
// - 2026-10-15 v0.1.0: Initial implementation

package cif

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/msto63/mcif/pkg/cif/span"
)

// numericPattern matches a CIF number: optional sign, mantissa, optional
// exponent and an optional standard uncertainty in parentheses
var numericPattern = regexp.MustCompile(`^([+-]?(?:\d+\.?\d*|\.\d+))(?:[eE]([+-]?\d+))?(?:\((\d+)\))?$`)

// ParseNumeric parses text as a CIF number. The uncertainty applies to the
// least significant digit of the mantissa, so 7.470(6) has uncertainty
// 0.006 and 12.3e2(4) has uncertainty 40.
func ParseNumeric(text string) (value, uncertainty float64, hasUncertainty, ok bool) {
	m := numericPattern.FindStringSubmatch(text)
	if m == nil {
		return 0, 0, false, false
	}
	mantissa, expText, suDigits := m[1], m[2], m[3]

	exp := 0
	if expText != "" {
		e, err := strconv.Atoi(expText)
		if err != nil {
			return 0, 0, false, false
		}
		exp = e
	}

	value, err := strconv.ParseFloat(mantissa+"e"+strconv.Itoa(exp), 64)
	if err != nil {
		return 0, 0, false, false
	}
	if suDigits == "" {
		return value, 0, false, true
	}

	decimals := 0
	if dot := strings.IndexByte(mantissa, '.'); dot >= 0 {
		decimals = len(mantissa) - dot - 1
	}
	uncertainty, err = strconv.ParseFloat(suDigits+"e"+strconv.Itoa(exp-decimals), 64)
	if err != nil {
		return 0, 0, false, false
	}
	return value, uncertainty, true, true
}

// resolveScalar applies marker and numeric resolution to unquoted text.
// The markers win over every other reading.
func resolveScalar(text string, sp span.Span) Value {
	switch text {
	case "?":
		return NewUnknown(sp)
	case ".":
		return NewNotApplicable(sp)
	}
	value, su, hasSU, ok := ParseNumeric(text)
	switch {
	case !ok:
		return NewText(text, sp)
	case hasSU:
		return NewNumericWithUncertainty(text, value, su, sp)
	default:
		return NewNumeric(text, value, sp)
	}
}
