// File: codes.go
// Title: Error Code Definitions
// Description: Defines standardized error codes for classifying failures of
//              the CIF pipeline and the tooling around it. Codes let callers
//              tell tokenizer, structural and dialect failures apart without
//              parsing messages.
// Author: msto63
// Version: v0.2.0
// Created: 2025-01-24
// Modified: 2026-10-12
//
// Change History:
// - 2025-01-24 v0.1.0: Initial implementation with core error codes
// - 2026-10-12 v0.2.0: Replaced platform codes with CIF pipeline codes

package error

// Code represents a structured error code for categorizing errors
type Code string

const (
	// Generic codes
	CodeUnknown      Code = "UNKNOWN"
	CodeInternal     Code = "INTERNAL"
	CodeNotFound     Code = "NOT_FOUND"
	CodeInvalidInput Code = "INVALID_INPUT"

	// CIF pipeline
	CodeSyntax           Code = "CIF_SYNTAX"            // upstream tokenizer/grammar
	CodeStructure        Code = "CIF_STRUCTURE"         // Pass 1 structural failure
	CodeDialectViolation Code = "CIF_DIALECT_VIOLATION" // Pass 2 strict rejection

	// Tooling
	CodeConfigError   Code = "CONFIG_ERROR"
	CodeInvalidConfig Code = "INVALID_CONFIG"
	CodeDatabaseError Code = "DATABASE_ERROR"
)

// String returns the string representation of the error code
func (c Code) String() string {
	return string(c)
}

// IsValid checks if the error code is a known valid code
func (c Code) IsValid() bool {
	switch c {
	case CodeUnknown, CodeInternal, CodeNotFound, CodeInvalidInput,
		CodeSyntax, CodeStructure, CodeDialectViolation,
		CodeConfigError, CodeInvalidConfig, CodeDatabaseError:
		return true
	default:
		return false
	}
}

// Category returns the high-level category of the error code
func (c Code) Category() string {
	switch c {
	case CodeSyntax, CodeStructure, CodeDialectViolation:
		return "cif"
	case CodeConfigError, CodeInvalidConfig:
		return "configuration"
	case CodeDatabaseError:
		return "database"
	default:
		return "generic"
	}
}

// IsParseFailure reports whether the code denotes a failure to parse a
// document, as opposed to a tooling failure around the parse.
func (c Code) IsParseFailure() bool {
	return c.Category() == "cif"
}
