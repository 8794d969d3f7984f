package analysis

import (
	"strings"

	"github.com/Veraticus/gradebook/internal/cli"
	"github.com/charmbracelet/lipgloss"
)

// Styles contains all styling definitions for analysis report formatting.
type Styles struct {
	// Base styles from CLI package
	Title    lipgloss.Style
	Subtitle lipgloss.Style
	Success  lipgloss.Style
	Warning  lipgloss.Style
	Error    lipgloss.Style
	Info     lipgloss.Style
	Subtle   lipgloss.Style
	Normal   lipgloss.Style

	// Analysis-specific styles
	Box           lipgloss.Style
	FocusBox      lipgloss.Style
	Header        lipgloss.Style
	Value         lipgloss.Style
	MaleBar       lipgloss.Style
	FemaleBar     lipgloss.Style
	ProgressFill  lipgloss.Style
	ProgressEmpty lipgloss.Style
}

// NewStyles creates a new Styles instance with default styling.
func NewStyles() *Styles {
	s := &Styles{
		Title:    cli.TitleStyle,
		Subtitle: cli.SubtitleStyle,
		Success:  cli.SuccessStyle,
		Warning:  cli.WarningStyle,
		Error:    cli.ErrorStyle,
		Info:     cli.InfoStyle,
		Subtle:   cli.SubtleStyle,
		Normal:   lipgloss.NewStyle(),
	}

	s.Box = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(cli.SubtleColor).
		Padding(0, 1)

	// Focus major box
	s.FocusBox = lipgloss.NewStyle().
		Border(lipgloss.DoubleBorder()).
		BorderForeground(cli.InfoColor).
		Padding(0, 1).
		MarginTop(1)

	s.Header = lipgloss.NewStyle().
		Bold(true).
		Foreground(cli.PrimaryColor)

	s.Value = lipgloss.NewStyle().
		Bold(true)

	s.MaleBar = lipgloss.NewStyle().
		Foreground(cli.PrimaryColor)

	s.FemaleBar = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#F28DB2"))

	s.ProgressFill = lipgloss.NewStyle().
		Foreground(cli.SuccessColor)

	s.ProgressEmpty = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#333333"))

	return s
}

// WithWidth returns a new Styles instance adjusted for the given terminal width.
func (s *Styles) WithWidth(width int) *Styles {
	newStyles := *s

	if width > 0 && width < 100 {
		newStyles.Box = s.Box.Width(width - 4)
		newStyles.FocusBox = s.FocusBox.Width(width - 4)
	}

	return &newStyles
}

// ForRate returns the style for a rate in [0,1] such as attendance or pass rate.
func (s *Styles) ForRate(rate float64) lipgloss.Style {
	switch {
	case rate >= 0.9:
		return s.Success
	case rate >= 0.7:
		return s.Warning
	default:
		return s.Error
	}
}

// ForScore returns the style for an exam score out of 100.
func (s *Styles) ForScore(score float64) lipgloss.Style {
	switch {
	case score >= 80:
		return s.Success
	case score >= PassMark:
		return s.Warning
	default:
		return s.Error
	}
}

// RenderProgressBar creates a progress bar of width cells.
func (s *Styles) RenderProgressBar(progress float64, width int) string {
	if width <= 0 {
		width = 30
	}

	filled := min(max(int(float64(width)*progress+0.5), 0), width)

	// Raw characters keep the width predictable
	return repeatChar("█", filled) + repeatChar("░", width-filled)
}

// RenderSplitBar renders two shares side by side, such as a male and
// female fraction, in width cells.
func (s *Styles) RenderSplitBar(left, right float64, width int) string {
	if width <= 0 {
		width = 30
	}
	l := min(max(int(float64(width)*left+0.5), 0), width)
	r := min(max(int(float64(width)*right+0.5), 0), width-l)
	return s.MaleBar.Render(repeatChar("█", l)) +
		s.FemaleBar.Render(repeatChar("█", r)) +
		s.ProgressEmpty.Render(repeatChar("░", width-l-r))
}

// RenderBox renders content in a styled box with optional title.
func (s *Styles) RenderBox(content string, title string, style lipgloss.Style) string {
	if title != "" {
		titleStyled := s.Info.Bold(true).Render(" " + title + " ")
		return style.Render(titleStyled + "\n" + content)
	}
	return style.Render(content)
}

// repeatChar repeats a character n times.
func repeatChar(char string, n int) string {
	if n <= 0 {
		return ""
	}
	return strings.Repeat(char, n)
}
