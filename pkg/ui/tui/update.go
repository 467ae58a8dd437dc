package tui

import (
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"bilifollow/pkg/ui"
)

// StatusMsg replaces the status line
type StatusMsg struct {
	Message  string
	Progress ui.Progress
}

// ErrorMsg shows a transient error banner
type ErrorMsg struct {
	Message string
}

// DoneMsg ends the run
type DoneMsg struct {
	Message string
}

// clearErrorMsg hides the banner shown by error number seq
type clearErrorMsg struct {
	seq int
}

// Update handles all messages and updates the model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.quitting = true
			if !m.done && m.onQuit != nil {
				m.onQuit()
			}
			return m, tea.Quit
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		if w := msg.Width - 10; w > 10 && w < 60 {
			m.bar.Width = w
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case StatusMsg:
		m.status = msg.Message
		m.progress = msg.Progress
		return m, nil

	case ErrorMsg:
		m.errMsg = msg.Message
		m.errSeq++
		seq := m.errSeq
		return m, tea.Tick(ui.ErrorDisplayDuration, func(time.Time) tea.Msg {
			return clearErrorMsg{seq: seq}
		})

	case clearErrorMsg:
		if msg.seq == m.errSeq {
			m.errMsg = ""
		}
		return m, nil

	case DoneMsg:
		m.done = true
		m.doneMsg = msg.Message
		m.errMsg = ""
		return m, tea.Quit
	}

	return m, nil
}
