// ============================================================================
// mcif - CIF 1.1 / CIF 2.0 parsing toolkit
// ============================================================================
//
// Package:     violationview
// Description: Styles for the violation viewer TUI
// Author:      Mike Stoffels
// Created:     2026-10-17
// License:     MIT
// ============================================================================

package violationview

import (
	"github.com/charmbracelet/lipgloss"
)

// Color palette
var (
	ColorPrimary   = lipgloss.Color("#8B5CF6") // Violet
	ColorSecondary = lipgloss.Color("#06B6D4") // Cyan
	ColorSuccess   = lipgloss.Color("#10B981") // Emerald
	ColorWarning   = lipgloss.Color("#F59E0B") // Amber
	ColorError     = lipgloss.Color("#EF4444") // Red
	ColorDimmed    = lipgloss.Color("#374151") // Dark Gray

	ColorBgPanel    = lipgloss.Color("#1E293B") // Slate 800
	ColorBgSelected = lipgloss.Color("#3B0764") // Purple 950

	ColorText      = lipgloss.Color("#F8FAFC") // Slate 50
	ColorTextMuted = lipgloss.Color("#94A3B8") // Slate 400
	ColorTextDim   = lipgloss.Color("#64748B") // Slate 500
)

// Header styles
var (
	LogoStyle = lipgloss.NewStyle().
			Foreground(ColorPrimary).
			Bold(true)

	PathStyle = lipgloss.NewStyle().
			Foreground(ColorText).
			Bold(true)

	DialectStyle = lipgloss.NewStyle().
			Foreground(ColorSecondary)

	TitlePanelStyle = lipgloss.NewStyle().
			Border(lipgloss.DoubleBorder()).
			BorderForeground(ColorPrimary).
			Padding(0, 2)
)

// Source styles
var (
	GutterStyle = lipgloss.NewStyle().
			Foreground(ColorTextDim)

	SourceStyle = lipgloss.NewStyle().
			Foreground(ColorText)

	MarkerStyle = lipgloss.NewStyle().
			Foreground(ColorWarning).
			Bold(true)

	CurrentMarkerStyle = lipgloss.NewStyle().
				Foreground(ColorError).
				Bold(true)

	AnnotationStyle = lipgloss.NewStyle().
			Foreground(ColorWarning)

	CurrentAnnotationStyle = lipgloss.NewStyle().
				Foreground(ColorText).
				Background(ColorBgSelected).
				Bold(true)
)

// Panel styles
var (
	SourcePanelStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(ColorDimmed).
				Padding(0, 1)

	FilterBarStyle = lipgloss.NewStyle().
			Background(ColorBgPanel).
			Foreground(ColorText).
			Padding(0, 1)

	StatusBarStyle = lipgloss.NewStyle().
			Background(ColorBgPanel).
			Foreground(ColorText).
			Padding(0, 1)
)

// Status and filter styles
var (
	StatusCleanStyle = lipgloss.NewStyle().
				Foreground(ColorSuccess).
				Bold(true)

	StatusDirtyStyle = lipgloss.NewStyle().
				Foreground(ColorWarning).
				Bold(true)

	StatusErrorStyle = lipgloss.NewStyle().
				Foreground(ColorError).
				Bold(true)

	FilterActiveStyle = lipgloss.NewStyle().
				Foreground(ColorSuccess).
				Bold(true)

	FilterInactiveStyle = lipgloss.NewStyle().
				Foreground(ColorTextDim).
				Strikethrough(true)
)

// Help styles
var (
	HelpStyle = lipgloss.NewStyle().
			Foreground(ColorTextMuted)

	HelpKeyStyle = lipgloss.NewStyle().
			Foreground(ColorPrimary).
			Bold(true)

	HelpDescStyle = lipgloss.NewStyle().
			Foreground(ColorTextMuted)
)

// Markers
const (
	MarkerViolation = "●"
	MarkerNone      = " "
	Caret           = "^"
)

// Logo
const Logo = "cifcheck view"

// RenderKeyHint renders a keyboard shortcut hint
func RenderKeyHint(key, description string) string {
	return HelpKeyStyle.Render(key) + " " + HelpDescStyle.Render(description)
}

// RenderFilterStatus renders a rule filter indicator
func RenderFilterStatus(name string, active bool) string {
	if active {
		return FilterActiveStyle.Render(name)
	}
	return FilterInactiveStyle.Render(name)
}
