// File: severity.go
// Title: Error Severity Levels
// Description: Defines severity levels for errors so that tooling can decide
//              how loudly to report them. The logger maps severities onto log
//              levels.
// Author: msto63
// Version: v0.2.0
// Created: 2025-01-24
// Modified: 2026-10-12
//
// Change History:
// - 2025-01-24 v0.1.0: Initial implementation with severity levels
// - 2026-10-12 v0.2.0: Severity defaults for CIF pipeline codes

package error

// Severity represents the severity level of an error
type Severity int

const (
	// SeverityLow indicates a minor problem, e.g. a missing optional file
	SeverityLow Severity = iota

	// SeverityMedium indicates a rejected but well-formed input, e.g. a
	// document that is valid CIF 1.1 but violates CIF 2.0
	SeverityMedium

	// SeverityHigh indicates input that could not be parsed at all
	SeverityHigh

	// SeverityCritical indicates a broken environment (database, internals)
	SeverityCritical
)

// String returns the string representation of the severity level
func (s Severity) String() string {
	switch s {
	case SeverityLow:
		return "low"
	case SeverityMedium:
		return "medium"
	case SeverityHigh:
		return "high"
	case SeverityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// Level returns the numeric level of the severity (0-3)
func (s Severity) Level() int {
	return int(s)
}

// GetSeverityFromCode determines appropriate severity level based on error code
func GetSeverityFromCode(code Code) Severity {
	switch code {
	case CodeInternal, CodeDatabaseError:
		return SeverityCritical
	case CodeSyntax, CodeStructure:
		return SeverityHigh
	case CodeDialectViolation, CodeConfigError, CodeInvalidConfig:
		return SeverityMedium
	case CodeInvalidInput, CodeNotFound:
		return SeverityLow
	default:
		return SeverityMedium
	}
}
