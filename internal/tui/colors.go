package tui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// DisableColors switches lipgloss to plain ASCII output
func DisableColors() {
	lipgloss.SetColorProfile(termenv.Ascii)
}

func colorize(color, text string) string {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(color)).Render(text)
}

// ColorRed colors text red
func ColorRed(text string) string {
	return colorize("1", text)
}

// ColorGreen colors text green
func ColorGreen(text string) string {
	return colorize("2", text)
}

// ColorYellow colors text yellow
func ColorYellow(text string) string {
	return colorize("3", text)
}

// ColorCyan colors text cyan
func ColorCyan(text string) string {
	return colorize("6", text)
}

// ColorDim renders text in a muted gray
func ColorDim(text string) string {
	return colorize("240", text)
}

// Bold renders text in bold
func Bold(text string) string {
	return lipgloss.NewStyle().Bold(true).Render(text)
}
