package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/randomizedcoder/go-perf-sweep/internal/logging"
	"github.com/randomizedcoder/go-perf-sweep/internal/stats"
	"github.com/randomizedcoder/go-perf-sweep/internal/supervisor"
)

// =============================================================================
// Main View Rendering
// =============================================================================

// renderSummaryView renders the dashboard.
func (m Model) renderSummaryView() string {
	sections := []string{
		m.renderHeader(),
		m.renderProgress(),
		m.renderCurrent(),
	}

	if m.showOutput {
		sections = append(sections, m.renderOutput())
	}

	sections = append(sections, m.renderFooter())

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// =============================================================================
// Header
// =============================================================================

func (m Model) renderHeader() string {
	p := m.progress
	header := fmt.Sprintf(
		" go-perf-sweep │ %s │ Experiments: %d/%d │ Elapsed: %s ",
		GetStateLabel(p.State, p.Cancelled),
		p.Executed,
		p.Total,
		stats.FormatDuration(p.Elapsed(m.now)),
	)

	return headerStyle.Width(m.width).Render(header)
}

// =============================================================================
// Progress Section
// =============================================================================

func (m Model) renderProgress() string {
	p := m.progress

	barWidth := m.width - 30
	if barWidth < 20 {
		barWidth = 20
	}
	progressBar := RenderProgressBar(p.Fraction(), barWidth)

	var status string
	switch {
	case p.State == supervisor.StateDone && p.Cancelled:
		status = statusError.Render(fmt.Sprintf("Cancelled after %d experiments", p.Executed))
	case p.State == supervisor.StateDone:
		status = statusOK.Render("✓ All experiments executed")
	default:
		status = statusInfo.Render(fmt.Sprintf("%d remaining", p.Remaining))
	}

	rows := []string{
		sectionHeaderStyle.Render("Sweep Progress"),
		progressBar,
		status,
		RenderKeyValue("Slot length", p.Slot.String()),
	}
	if !p.State.IsTerminal() && !p.StartTime.IsZero() {
		rows = append(rows,
			RenderKeyValue("Time remaining", stats.FormatDuration(p.ETA(m.now))),
			RenderKeyValue("Completion at", p.EstimatedCompletion(m.now).Format(time.DateTime)),
		)
	}
	if p.SpawnFailures > 0 {
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Left,
			labelStyle.Render("Spawn failures:"),
			valueBadStyle.Render(fmt.Sprintf("%d", p.SpawnFailures)),
		))
	}

	return boxStyle.Width(m.width - 2).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

// =============================================================================
// Current Experiment
// =============================================================================

func (m Model) renderCurrent() string {
	p := m.progress

	rows := []string{sectionHeaderStyle.Render("Current Experiment")}
	if p.CurrentLabel == "" {
		rows = append(rows, dimStyle.Render("waiting for the first slot"))
	} else {
		rows = append(rows, RenderKeyValue("Experiment", p.CurrentLabel))
		if p.State == supervisor.StateRunning {
			rows = append(rows, RenderKeyValue("Slot ends in", m.SlotRemaining().Round(time.Second).String()))
		}
		rows = append(rows, dimStyle.Render(truncate(p.CurrentCommand, m.width-6)))
	}

	return boxStyle.Width(m.width - 2).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

// =============================================================================
// Recent Output
// =============================================================================

func (m Model) renderOutput() string {
	rows := []string{sectionHeaderStyle.Render("Recent Output")}
	if len(m.lines) == 0 {
		rows = append(rows, dimStyle.Render("no output yet"))
	}
	for _, l := range m.lines {
		rows = append(rows, renderLine(l, m.width-6))
	}

	return boxStyle.Width(m.width - 2).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func renderLine(l logging.Line, width int) string {
	prefix := mutedStyle.Render(fmt.Sprintf("[%s] ", l.Source))
	text := truncate(l.Text, width-len(l.Source)-3)
	if logging.IsErrorLine(l.Text) {
		return prefix + warnLineStyle.Render(text)
	}
	return prefix + text
}

// =============================================================================
// Footer
// =============================================================================

func (m Model) renderFooter() string {
	var parts []string
	if m.outputDir != "" {
		parts = append(parts, "Output: "+m.outputDir)
	}
	if m.metricsAddr != "" {
		parts = append(parts, "Metrics: http://"+m.metricsAddr+"/metrics")
	}
	parts = append(parts, "o: toggle output", "q: cancel sweep")

	return footerStyle.Render(strings.Join(parts, " │ "))
}

// truncate shortens s to width runes, marking the cut with an ellipsis.
func truncate(s string, width int) string {
	if width < 4 {
		width = 4
	}
	r := []rune(s)
	if len(r) <= width {
		return s
	}
	return string(r[:width-1]) + "…"
}
