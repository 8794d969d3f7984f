// Package cli renders gradebook output for the terminal with lipgloss.
package cli

import (
	"github.com/charmbracelet/lipgloss"
)

// Palette. The grade colors double as the pass, borderline and fail colors
// of accuracies, scores and verdicts.
var (
	PrimaryColor = lipgloss.Color("#5B8DEF")
	SuccessColor = lipgloss.Color("#4ECDC4")
	InfoColor    = lipgloss.Color("#95E1D3")
	SubtleColor  = lipgloss.Color("#666666")

	borderlineColor = lipgloss.Color("#FFE66D")
	failColor       = lipgloss.Color("#FF6B6B")
	rulerColor      = lipgloss.Color("#333")
)

// Shared styles. The analysis report and the dashboard build their themes
// from these.
var (
	TitleStyle    = lipgloss.NewStyle().Bold(true).Foreground(PrimaryColor).MarginBottom(1)
	SubtitleStyle = lipgloss.NewStyle().Foreground(SubtleColor).MarginBottom(1)
	SuccessStyle  = lipgloss.NewStyle().Foreground(SuccessColor)
	WarningStyle  = lipgloss.NewStyle().Foreground(borderlineColor)
	ErrorStyle    = lipgloss.NewStyle().Foreground(failColor)
	InfoStyle     = lipgloss.NewStyle().Foreground(InfoColor)
	SubtleStyle   = lipgloss.NewStyle().Foreground(SubtleColor)
	BoldStyle     = lipgloss.NewStyle().Bold(true)
	ProgressStyle = lipgloss.NewStyle().Foreground(PrimaryColor)

	TableHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				BorderStyle(lipgloss.NormalBorder()).
				BorderBottom(true).
				BorderForeground(rulerColor)

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(rulerColor).
			Padding(1, 2)

	promptStyle = lipgloss.NewStyle().Bold(true).Foreground(PrimaryColor)
)

// Box title icons.
const (
	TreeIcon  = "🌲"
	ChartIcon = "📊"
	CheckIcon = "✅"
)

const bookIcon = "📘"

// FormatSuccess prefixes message with a check mark.
func FormatSuccess(message string) string {
	return SuccessStyle.Render("✓ " + message)
}

// FormatError prefixes message with a cross. main prints every returned
// error through it.
func FormatError(message string) string {
	return ErrorStyle.Render("✗ " + message)
}

// FormatWarning is used for rejected prompt answers and skipped steps.
func FormatWarning(message string) string {
	return WarningStyle.Render("⚠️ " + message)
}

// FormatInfo is used for hints that follow another message.
func FormatInfo(message string) string {
	return InfoStyle.Render("ℹ️ " + message)
}

// FormatTitle renders a section heading.
func FormatTitle(title string) string {
	return TitleStyle.Render(bookIcon + " " + title)
}

// FormatPrompt renders the question asked for one model input.
func FormatPrompt(prompt string) string {
	return promptStyle.Render(prompt + " → ")
}

// RenderBox puts content under title inside a rounded border.
func RenderBox(title, content string) string {
	return boxStyle.Render(lipgloss.JoinVertical(
		lipgloss.Left,
		TitleStyle.UnsetMargins().Render(title),
		content,
	))
}
