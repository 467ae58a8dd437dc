package tui

import (
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"bilifollow/pkg/ui"
)

// Model is the bubbletea model of an export run
type Model struct {
	spinner  spinner.Model
	bar      progress.Model
	status   string
	progress ui.Progress

	errMsg string
	errSeq int

	done      bool
	doneMsg   string
	quitting  bool
	startTime time.Time
	width     int

	// onQuit runs when the user quits before the run finished
	onQuit func()
}

// NewModel creates a new TUI model
func NewModel(onQuit func()) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(biliBlue)

	p := progress.New(progress.WithGradient(string(biliBlue), string(biliPink)))
	p.Width = 40

	return Model{
		spinner:   s,
		bar:       p,
		status:    "starting",
		startTime: time.Now(),
		onQuit:    onQuit,
	}
}

// Init starts the spinner
func (m Model) Init() tea.Cmd {
	return m.spinner.Tick
}

// Status returns the current status line
func (m Model) Status() string {
	return m.status
}

// ErrorMessage returns the visible error, if any
func (m Model) ErrorMessage() string {
	return m.errMsg
}

// Finished reports whether the run completed
func (m Model) Finished() bool {
	return m.done
}
