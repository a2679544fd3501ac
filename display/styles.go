package display

import "github.com/charmbracelet/lipgloss"

const (
	colorRed     lipgloss.Color = "#f38ba8"
	colorGreen   lipgloss.Color = "#a6e3a1"
	colorYellow  lipgloss.Color = "#f9e2af"
	colorBlue    lipgloss.Color = "#89b4fa"
	colorMauve   lipgloss.Color = "#cba6f7"
	colorSubtext lipgloss.Color = "#a6adc8"
	colorOverlay lipgloss.Color = "#6c7086"
)

var (
	titleStyle   = lipgloss.NewStyle().Foreground(colorMauve).Bold(true)
	headingStyle = lipgloss.NewStyle().Foreground(colorBlue).Bold(true)
	errorStyle   = lipgloss.NewStyle().Foreground(colorRed).Bold(true)
	loadingStyle = lipgloss.NewStyle().Foreground(colorYellow)
	mutedStyle   = lipgloss.NewStyle().Foreground(colorSubtext)
	footerStyle  = lipgloss.NewStyle().Foreground(colorOverlay)

	statusStyles = map[string]lipgloss.Style{
		"idle":      mutedStyle,
		"pending":   loadingStyle,
		"succeeded": lipgloss.NewStyle().Foreground(colorGreen),
		"failed":    errorStyle,
	}
)
