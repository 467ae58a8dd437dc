// Package tui is an optional bubbletea front end for an export run. TUI
// implements ui.Sink, so the exporter drives it like any other sink.
package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"bilifollow/pkg/ui"
)

// TUI represents the terminal user interface
type TUI struct {
	program *tea.Program
}

var _ ui.Sink = (*TUI)(nil)

// New creates a TUI. onQuit is called when the user quits early.
func New(onQuit func(), opts ...tea.ProgramOption) *TUI {
	model := NewModel(onQuit)
	return &TUI{program: tea.NewProgram(model, opts...)}
}

// Run blocks until the run finishes or the user quits
func (t *TUI) Run() error {
	_, err := t.program.Run()
	return err
}

// Quit stops the program
func (t *TUI) Quit() {
	t.program.Quit()
}

// Status implements ui.Sink
func (t *TUI) Status(message string, progress ui.Progress) {
	t.program.Send(StatusMsg{Message: message, Progress: progress})
}

// Error implements ui.Sink
func (t *TUI) Error(message string) {
	t.program.Send(ErrorMsg{Message: message})
}

// Done implements ui.Sink
func (t *TUI) Done(message string) {
	t.program.Send(DoneMsg{Message: message})
}
