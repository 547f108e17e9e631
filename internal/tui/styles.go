package tui

import (
	"github.com/charmbracelet/lipgloss"
)

// Colors
var (
	colorPrimary   = lipgloss.Color("#7C3AED")
	colorSecondary = lipgloss.Color("#10B981")
	colorAccent    = lipgloss.Color("#F59E0B")
	colorError     = lipgloss.Color("#EF4444")
	colorMuted     = lipgloss.Color("#6B7280")
)

// Styles
var (
	BannerStyle = lipgloss.NewStyle().
			Foreground(colorPrimary).
			Bold(true)

	// Run header, e.g. "Running tutorial at ..."
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorAccent)

	HeadingStyle = lipgloss.NewStyle().
			Bold(true)

	IndexStyle = lipgloss.NewStyle().
			Foreground(colorMuted)

	MutedStyle = lipgloss.NewStyle().
			Foreground(colorMuted).
			Italic(true)

	// Step status markers
	PassStyle = lipgloss.NewStyle().
			Foreground(colorSecondary).
			Bold(true)

	FailStyle = lipgloss.NewStyle().
			Foreground(colorError).
			Bold(true)

	ErrorMessageStyle = lipgloss.NewStyle().
				Foreground(colorError)

	SummaryOKStyle = lipgloss.NewStyle().
			Foreground(colorSecondary).
			Bold(true)

	SummaryErrorStyle = lipgloss.NewStyle().
				Foreground(colorError).
				Bold(true)

	// Stderr tail of a dead shell
	StderrBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorError).
			Padding(0, 1)
)

// Helper functions
func RenderTitle(title string) string {
	return TitleStyle.Render(title)
}

func RenderError(err string) string {
	return ErrorMessageStyle.Render("Error: " + err)
}
