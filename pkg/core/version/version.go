// ============================================================================
// mcif - CIF 1.1 / CIF 2.0 parsing toolkit
// ============================================================================
//
// Package:     version
// Description: Central version management for the parser and cifcheck
// Author:      Mike Stoffels
// Created:     2025-12-06
// License:     MIT
// ============================================================================

package version

// Version constants for the toolkit and its components
const (
	// Toolkit version
	Toolkit = "0.3.0"

	// Component versions
	Syntax   = "0.3.0"
	Raw      = "0.2.0"
	Resolver = "0.3.0"
	CLI      = "0.3.0"
	Store    = "0.1.0"
	Viewer   = "0.1.0"

	// StoreSchema is bumped whenever the lint history tables change
	StoreSchema = 1
)

// Set at build time via -ldflags "-X github.com/msto63/mcif/pkg/core/version.Commit=..."
var (
	Commit    = "unknown"
	BuildDate = "unknown"
)

// ComponentVersion returns the version for a given component name
func ComponentVersion(name string) string {
	switch name {
	case "syntax":
		return Syntax
	case "raw":
		return Raw
	case "resolver":
		return Resolver
	case "cli", "cifcheck":
		return CLI
	case "store":
		return Store
	case "viewer":
		return Viewer
	default:
		return Toolkit
	}
}

// Components lists component names in display order
func Components() []string {
	return []string{"syntax", "raw", "resolver", "cli", "store", "viewer"}
}
