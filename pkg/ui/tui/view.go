package tui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// View renders the run panel
func (m Model) View() string {
	if m.done {
		return successStyle.Render("✓ "+m.doneMsg) + "\n"
	}
	if m.quitting {
		return detailStyle.Render("cancelled") + "\n"
	}

	lines := []string{
		titleStyle.Render("bilifollow · B站关注列表导出"),
		"",
		m.spinner.View() + " " + statusStyle.Render(m.status),
	}

	if m.progress.Total > 0 {
		lines = append(lines, m.bar.ViewAs(m.progress.Fraction()))
	}
	if s := m.progress.String(); s != "" {
		lines = append(lines, detailStyle.Render(s))
	}

	lines = append(lines, detailStyle.Render(fmt.Sprintf("elapsed %s", time.Since(m.startTime).Truncate(time.Second))))

	if m.errMsg != "" {
		lines = append(lines, "", errorStyle.Render("✗ "+m.errMsg))
	}

	lines = append(lines, "", helpStyle.Render("q: quit"))

	return panelStyle.Render(lipgloss.JoinVertical(lipgloss.Left, lines...)) + "\n"
}
