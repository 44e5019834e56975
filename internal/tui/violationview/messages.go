// ============================================================================
// mcif - CIF 1.1 / CIF 2.0 parsing toolkit
// ============================================================================
//
// Package:     violationview
// Description: Message types for async operations in the violation viewer
// Author:      Mike Stoffels
// Created:     2026-10-17
// License:     MIT
// ============================================================================

package violationview

import (
	"github.com/msto63/mcif/pkg/cif"
)

// lintedMsg is sent when a lint of the source finished
type lintedMsg struct {
	source string
	report *cif.LintReport
	err    error
}
