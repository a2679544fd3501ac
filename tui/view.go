package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/nijaru/pitch-analyzer/display"
)

var (
	paneStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#45475a")).
			Padding(0, 1)
	helpKeyStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#89b4fa")).Bold(true)
	helpDescStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#a6adc8"))
	statusStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#f9e2af"))
)

func (m *Model) View() string {
	width := 0
	if m.width > 4 {
		width = m.width - 4
	}

	channels := display.RenderChannels(m.snap, m.selected())
	if m.editing != editNone {
		channels += "\n\n" + m.input.View()
	}

	result := display.RenderResult(m.snap, width)
	if m.snap.Loading.Any() {
		result = m.spinner.View() + " " + result
	}

	sections := []string{
		paneStyle.Render(channels),
		paneStyle.Render(result),
	}
	if m.showHistory {
		sections = append(sections, paneStyle.Render(m.renderHistory()))
	}
	if m.status != "" {
		sections = append(sections, statusStyle.Render(m.status))
	}
	sections = append(sections, m.renderHelp())
	return strings.Join(sections, "\n")
}

func (m *Model) renderHistory() string {
	if len(m.entries) == 0 {
		return "No submissions yet."
	}
	lines := []string{"Recent submissions"}
	for _, e := range m.entries {
		line := fmt.Sprintf("%s  %-10s  %-9s", e.StartedAt.Local().Format(time.TimeOnly), display.Label(e.Channel), e.Outcome)
		if d := e.Duration(); d > 0 {
			line += "  " + d.Round(time.Millisecond).String()
		}
		if e.Message != "" {
			line += "  " + e.Message
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

func (m *Model) renderHelp() string {
	bindings := m.keys.browse()
	if m.editing != editNone {
		bindings = m.keys.editing()
	}
	parts := make([]string, 0, len(bindings))
	for _, b := range bindings {
		h := b.Help()
		parts = append(parts, helpKeyStyle.Render(h.Key)+" "+helpDescStyle.Render(h.Desc))
	}
	return strings.Join(parts, "  ")
}
