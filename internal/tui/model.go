package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/randomizedcoder/go-perf-sweep/internal/logging"
	"github.com/randomizedcoder/go-perf-sweep/internal/stats"
)

// recentLines is how many lines of child output the dashboard shows.
const recentLines = 8

// =============================================================================
// Messages
// =============================================================================

// TickMsg is sent periodically to update the display.
type TickMsg time.Time

// QuitMsg signals the TUI should exit.
type QuitMsg struct{}

// =============================================================================
// Model
// =============================================================================

// ProgressSource provides sweep snapshots and recent child output.
type ProgressSource interface {
	Progress() stats.Progress
	RecentLines(n int) []logging.Line
}

// Config holds TUI configuration.
type Config struct {
	OutputDir   string
	MetricsAddr string
	Source      ProgressSource

	// OnQuit is called when the user quits; it should cancel the sweep.
	OnQuit func()
}

// Model represents the TUI state.
type Model struct {
	// Configuration
	outputDir   string
	metricsAddr string
	source      ProgressSource
	onQuit      func()

	// Current state
	progress   stats.Progress
	lines      []logging.Line
	now        time.Time
	showOutput bool

	// Display options
	width  int
	height int

	quitting bool
}

// New creates a new TUI model.
func New(cfg Config) Model {
	m := Model{
		outputDir:   cfg.OutputDir,
		metricsAddr: cfg.MetricsAddr,
		source:      cfg.Source,
		onQuit:      cfg.OnQuit,
		now:         time.Now(),
		showOutput:  true,
		width:       80,
		height:      24,
	}
	m.refresh()
	return m
}

// =============================================================================
// Bubble Tea Interface
// =============================================================================

// Init initializes the model.
func (m Model) Init() tea.Cmd {
	// Note: tea.WithAltScreen() is passed when creating the program,
	// so we don't need tea.EnterAltScreen here.
	return tickCmd()
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.quitting = true
			if m.onQuit != nil {
				m.onQuit()
			}
			return m, tea.Quit
		case "o":
			m.showOutput = !m.showOutput
			return m, nil
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case TickMsg:
		m.now = time.Time(msg)
		m.refresh()
		return m, tickCmd()

	case QuitMsg:
		m.quitting = true
		return m, tea.Quit
	}

	return m, nil
}

// View renders the TUI.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	return m.renderSummaryView()
}

// refresh pulls a new snapshot from the source.
func (m *Model) refresh() {
	if m.source == nil {
		return
	}
	m.progress = m.source.Progress()
	m.lines = m.source.RecentLines(recentLines)
}

// =============================================================================
// Commands
// =============================================================================

// tickCmd returns a command that sends a tick after 500ms.
func tickCmd() tea.Cmd {
	return tea.Tick(500*time.Millisecond, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

// =============================================================================
// Accessors
// =============================================================================

// Progress returns the last snapshot shown.
func (m Model) Progress() stats.Progress {
	return m.progress
}

// SlotRemaining returns the time left in the running slot.
func (m Model) SlotRemaining() time.Duration {
	left := m.progress.Slot - m.progress.SlotElapsed(m.now)
	if left < 0 || m.progress.SlotStarted.IsZero() {
		return 0
	}
	return left
}

// =============================================================================
// Helper for external use
// =============================================================================

// SendQuit sends a quit message to the TUI.
func SendQuit(p *tea.Program) {
	if p != nil {
		p.Send(QuitMsg{})
	}
}
