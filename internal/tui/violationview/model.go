// ============================================================================
// mcif - CIF 1.1 / CIF 2.0 parsing toolkit
// ============================================================================
//
// Package:     violationview
// Description: Bubbletea model that shows a CIF source with the CIF 2.0
//              violations found in it
// Author:      Mike Stoffels
// Created:     2026-10-17
// License:     MIT
// ============================================================================

package violationview

import (
	"fmt"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/msto63/mcif/pkg/cif"
	mdwerror "github.com/msto63/mcif/pkg/core/error"
	"github.com/msto63/mcif/pkg/core/version"
)

// Config holds viewer configuration
type Config struct {
	// Path is re-read on every reload; Source is used when Path is empty
	Path   string
	Source string

	// Parser lints the source; nil uses a default parser
	Parser *cif.Parser

	// Hide lists rules whose violations start hidden
	Hide []cif.RuleID
}

// Model is the Bubbletea model of the viewer
type Model struct {
	// State
	width   int
	height  int
	ready   bool
	loading bool
	err     error

	// Components
	viewport viewport.Model
	spinner  spinner.Model

	// Source and lint state
	path    string
	source  string
	lines   []string
	report  *cif.LintReport
	rules   []cif.RuleInfo
	hidden  map[cif.RuleID]bool
	visible []cif.Violation
	current int   // index into visible, -1 when nothing is selected
	rowOf   []int // viewport row of each 1-based source line

	parser *cif.Parser
}

// New creates a viewer model
func New(cfg Config) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(ColorPrimary)

	parser := cfg.Parser
	if parser == nil {
		parser = cif.NewParser(cif.Options{})
	}

	hidden := make(map[cif.RuleID]bool, len(cfg.Hide))
	for _, id := range cfg.Hide {
		hidden[id] = true
	}

	return Model{
		loading: true,
		spinner: sp,
		path:    cfg.Path,
		source:  cfg.Source,
		rules:   cif.Rules(),
		hidden:  hidden,
		current: -1,
		parser:  parser,
	}
}

// Init starts the first lint
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.lint)
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		headerHeight := 4 // title panel + filter bar
		footerHeight := 4 // panel border + status bar + help
		viewportHeight := msg.Height - headerHeight - footerHeight
		if viewportHeight < 1 {
			viewportHeight = 1
		}

		if !m.ready {
			m.viewport = viewport.New(msg.Width-4, viewportHeight)
			m.viewport.YPosition = headerHeight
			m.ready = true
		} else {
			m.viewport.Width = msg.Width - 4
			m.viewport.Height = viewportHeight
		}
		m.updateViewportContent()

	case spinner.TickMsg:
		if m.loading {
			m.spinner, cmd = m.spinner.Update(msg)
			cmds = append(cmds, cmd)
		}

	case lintedMsg:
		m.loading = false
		m.err = msg.err
		if msg.err == nil {
			m.source = msg.source
			m.lines = splitLines(msg.source)
			m.report = msg.report
			m.applyFilters()
			m.updateViewportContent()
		}
	}

	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

// handleKeyPress handles keyboard input
func (m Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC, tea.KeyEsc:
		return m, tea.Quit

	case tea.KeyRunes:
		key := string(msg.Runes)
		switch key {
		case "q":
			return m, tea.Quit

		// Show all rules
		case "0":
			m.hidden = make(map[cif.RuleID]bool)
			m.applyFilters()
			m.updateViewportContent()
			return m, nil

		case "n":
			m.jump(1)
			return m, nil

		case "p", "N":
			m.jump(-1)
			return m, nil

		case "r":
			m.loading = true
			return m, tea.Batch(m.spinner.Tick, m.lint)

		case "g":
			m.viewport.GotoTop()
			return m, nil

		case "G":
			m.viewport.GotoBottom()
			return m, nil
		}

		// Rule filters: number keys in rule order
		if len(msg.Runes) == 1 && msg.Runes[0] >= '1' && msg.Runes[0] <= '9' {
			if i := int(msg.Runes[0] - '1'); i < len(m.rules) {
				m.toggleRule(m.rules[i].ID)
			}
			return m, nil
		}

	case tea.KeyPgUp:
		m.viewport.ViewUp()
		return m, nil

	case tea.KeyPgDown:
		m.viewport.ViewDown()
		return m, nil

	case tea.KeyUp:
		m.viewport.LineUp(1)
		return m, nil

	case tea.KeyDown:
		m.viewport.LineDown(1)
		return m, nil
	}

	return m, nil
}

// toggleRule shows or hides the violations of one rule
func (m *Model) toggleRule(id cif.RuleID) {
	m.hidden[id] = !m.hidden[id]
	m.applyFilters()
	m.updateViewportContent()
}

// jump moves the selection by delta visible violations, wrapping around,
// and scrolls the selected violation into the middle of the viewport
func (m *Model) jump(delta int) {
	n := len(m.visible)
	if n == 0 {
		return
	}
	switch {
	case m.current < 0 && delta > 0:
		m.current = 0
	case m.current < 0:
		m.current = n - 1
	default:
		m.current = ((m.current+delta)%n + n) % n
	}
	m.updateViewportContent()

	line := m.visible[m.current].Span.StartLine
	if line < 1 || line >= len(m.rowOf) {
		return
	}
	offset := m.rowOf[line] - m.viewport.Height/2
	if offset < 0 {
		offset = 0
	}
	m.viewport.SetYOffset(offset)
}

// View renders the UI
func (m Model) View() string {
	if !m.ready {
		return "Loading viewer..."
	}

	var b strings.Builder

	b.WriteString(m.renderHeader())
	b.WriteString("\n")

	b.WriteString(m.renderFilterBar())
	b.WriteString("\n")

	b.WriteString(m.renderSourceArea())
	b.WriteString("\n")

	b.WriteString(m.renderStatusBar())
	b.WriteString("\n")

	b.WriteString(m.renderHelpBar())

	return b.String()
}

// renderHeader renders the title panel with path and dialect
func (m Model) renderHeader() string {
	name := m.path
	if name == "" {
		name = "<input>"
	}
	parts := []string{LogoStyle.Render(Logo), PathStyle.Render(name)}
	if m.report != nil {
		parts = append(parts, DialectStyle.Render(m.report.Dialect.String()))
	}
	header := strings.Join(parts, "   ")
	return TitlePanelStyle.Width(m.width - 4).Render(header)
}

// renderFilterBar renders one toggle per rule with its violation count
func (m Model) renderFilterBar() string {
	var counts map[cif.RuleID]int
	var total int
	if m.report != nil {
		counts = cif.CountByRule(m.report.Violations)
		total = len(m.report.Violations)
	}

	filters := make([]string, 0, len(m.rules))
	for i, r := range m.rules {
		label := fmt.Sprintf("%s(%d)", r.ID, counts[r.ID])
		filters = append(filters, fmt.Sprintf("%d:%s", i+1, RenderFilterStatus(label, !m.hidden[r.ID])))
	}
	countStr := HelpDescStyle.Render(fmt.Sprintf("[%d/%d shown]", len(m.visible), total))

	return FilterBarStyle.Width(m.width - 2).Render(strings.Join(filters, "  ") + "  " + countStr)
}

// renderSourceArea renders the source viewport
func (m Model) renderSourceArea() string {
	style := SourcePanelStyle.Width(m.width - 2).Height(m.viewport.Height)
	return style.Render(m.viewport.View())
}

// renderStatusBar renders the selection, version and lint state
func (m Model) renderStatusBar() string {
	var leftPart string
	if m.current >= 0 && m.current < len(m.visible) {
		v := m.visible[m.current]
		leftPart = HelpDescStyle.Render(fmt.Sprintf("%d/%d %s %s", m.current+1, len(m.visible), v.Span, v.RuleID))
	} else {
		leftPart = HelpDescStyle.Render(fmt.Sprintf("%d lines", len(m.lines)))
	}

	centerPart := HelpDescStyle.Render("v" + version.Viewer)

	var rightPart string
	switch {
	case m.loading:
		rightPart = m.spinner.View() + " Linting..."
	case m.err != nil:
		rightPart = StatusErrorStyle.Render(errorSummary(m.err))
	case m.report != nil && len(m.report.Violations) == 0:
		rightPart = StatusCleanStyle.Render("clean")
	case m.report != nil:
		rightPart = StatusDirtyStyle.Render(fmt.Sprintf("%d violations", len(m.report.Violations)))
	}

	leftLen := lipgloss.Width(leftPart)
	centerLen := lipgloss.Width(centerPart)
	rightLen := lipgloss.Width(rightPart)
	availableSpace := m.width - leftLen - centerLen - rightLen - 4
	if availableSpace < 2 {
		availableSpace = 2
	}
	leftPadding := availableSpace / 2
	rightPadding := availableSpace - leftPadding

	content := leftPart + strings.Repeat(" ", leftPadding) + centerPart + strings.Repeat(" ", rightPadding) + rightPart
	return StatusBarStyle.Width(m.width - 2).Render(content)
}

// renderHelpBar renders the help shortcuts bar
func (m Model) renderHelpBar() string {
	items := []string{
		RenderKeyHint(fmt.Sprintf("1-%d", len(m.rules)), "Rules"),
		RenderKeyHint("0", "All"),
		RenderKeyHint("n/p", "Next/Prev"),
		RenderKeyHint("r", "Reload"),
		RenderKeyHint("g/G", "Top/Bottom"),
		RenderKeyHint("q", "Quit"),
	}
	return HelpStyle.Render(strings.Join(items, "  "))
}

// updateViewportContent renders the numbered source with a marker column
// and one annotation row under each line per visible violation starting
// on it
func (m *Model) updateViewportContent() {
	byLine := make(map[int][]int)
	for i, v := range m.visible {
		byLine[v.Span.StartLine] = append(byLine[v.Span.StartLine], i)
	}

	digits := len(fmt.Sprint(len(m.lines)))
	blank := strings.Repeat(" ", digits+3)

	var content strings.Builder
	m.rowOf = make([]int, len(m.lines)+1)
	row := 0
	for n, line := range m.lines {
		lineNo := n + 1
		m.rowOf[lineNo] = row

		marker := MarkerNone
		for _, i := range byLine[lineNo] {
			if i == m.current {
				marker = CurrentMarkerStyle.Render(MarkerViolation)
				break
			}
			marker = MarkerStyle.Render(MarkerViolation)
		}
		content.WriteString(GutterStyle.Render(fmt.Sprintf("%*d ", digits, lineNo)))
		content.WriteString(marker + " ")
		content.WriteString(SourceStyle.Render(line))
		content.WriteString("\n")
		row++

		for _, i := range byLine[lineNo] {
			v := m.visible[i]
			style := AnnotationStyle
			if i == m.current {
				style = CurrentAnnotationStyle
			}
			content.WriteString(blank)
			content.WriteString(style.Render(annotation(v, line)))
			content.WriteString("\n")
			row++
		}
	}

	m.viewport.SetContent(content.String())
}

// applyFilters rebuilds the visible violations from the rule filter
func (m *Model) applyFilters() {
	m.visible = make([]cif.Violation, 0)
	if m.report != nil {
		for _, v := range m.report.Violations {
			if !m.hidden[v.RuleID] {
				m.visible = append(m.visible, v)
			}
		}
	}
	if m.current >= len(m.visible) {
		m.current = len(m.visible) - 1
	}
}

// lint reads and lints the source
func (m Model) lint() tea.Msg {
	src := m.source
	if m.path != "" {
		data, err := os.ReadFile(m.path)
		if err != nil {
			return lintedMsg{err: mdwerror.Wrap(err, "failed to read source").
				WithCode(mdwerror.CodeNotFound).
				WithOperation("violationview.lint").
				WithDetail("path", m.path)}
		}
		src = string(data)
	}
	report, err := m.parser.Lint(src)
	return lintedMsg{source: src, report: report, err: err}
}

// annotation renders carets under the violation's columns on line,
// followed by the rule and message
func annotation(v cif.Violation, line string) string {
	start := v.Span.StartCol
	if start < 1 {
		start = 1
	}
	end := v.Span.EndCol
	if v.Span.EndLine != v.Span.StartLine {
		end = utf8.RuneCountInString(line) + 1
	}
	width := end - start
	if width < 1 {
		width = 1
	}
	return strings.Repeat(" ", start-1) + strings.Repeat(Caret, width) + " " + string(v.RuleID) + ": " + v.Message
}

// splitLines splits src into display lines, expanding tabs to one column
// so carets stay aligned with span columns
func splitLines(src string) []string {
	src = strings.ReplaceAll(src, "\r\n", "\n")
	src = strings.ReplaceAll(src, "\r", " ")
	src = strings.ReplaceAll(src, "\t", " ")
	return strings.Split(src, "\n")
}

// errorSummary shortens an error for the status bar
func errorSummary(err error) string {
	if sp, ok := mdwerror.SpanOf(err); ok {
		return fmt.Sprintf("%s %s", sp, mdwerror.GetCode(err))
	}
	return err.Error()
}

// Run starts the viewer TUI
func Run(cfg Config) error {
	p := tea.NewProgram(New(cfg), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
