// Package themes holds the dashboard color palettes.
package themes

import "github.com/charmbracelet/lipgloss"

// Theme defines the visual style for the TUI.
type Theme struct {
	Title         lipgloss.Style
	Subtitle      lipgloss.Style
	Normal        lipgloss.Style
	Bold          lipgloss.Style
	Muted         lipgloss.Style
	ActiveTab     lipgloss.Style
	InactiveTab   lipgloss.Style
	RoundedBox    lipgloss.Style
	Label         lipgloss.Style
	FocusedLabel  lipgloss.Style
	StatusBar     lipgloss.Style
	StatusError   lipgloss.Style
	StatusWarning lipgloss.Style
	StatusSuccess lipgloss.Style
	ProgressFull  lipgloss.Style
	ProgressEmpty lipgloss.Style
	Primary       lipgloss.Color
	Secondary     lipgloss.Color
	Border        lipgloss.Color
	Foreground    lipgloss.Color
	Faint         lipgloss.Color
	Error         lipgloss.Color
	Warning       lipgloss.Color
	Success       lipgloss.Color
}

// Default is the default theme.
var Default = New(Palette{
	Primary:    lipgloss.Color("#5B8DEF"),
	Secondary:  lipgloss.Color("#95E1D3"),
	Success:    lipgloss.Color("#4ECDC4"),
	Warning:    lipgloss.Color("#FFE66D"),
	Error:      lipgloss.Color("#FF6B6B"),
	Foreground: lipgloss.Color("#FAFAFA"),
	Border:     lipgloss.Color("#404040"),
	Faint:      lipgloss.Color("#737373"),
})

// Chalk is a light-background variant.
var Chalk = New(Palette{
	Primary:    lipgloss.Color("#1D4ED8"),
	Secondary:  lipgloss.Color("#0F766E"),
	Success:    lipgloss.Color("#047857"),
	Warning:    lipgloss.Color("#B45309"),
	Error:      lipgloss.Color("#B91C1C"),
	Foreground: lipgloss.Color("#111827"),
	Border:     lipgloss.Color("#D1D5DB"),
	Faint:      lipgloss.Color("#6B7280"),
})

// Palette is the set of colors a Theme is derived from.
type Palette struct {
	Primary, Secondary, Success, Warning, Error lipgloss.Color
	Foreground, Border, Faint                   lipgloss.Color
}

// New derives every style from a palette.
func New(p Palette) Theme {
	return Theme{
		Primary:    p.Primary,
		Secondary:  p.Secondary,
		Success:    p.Success,
		Warning:    p.Warning,
		Error:      p.Error,
		Foreground: p.Foreground,
		Border:     p.Border,
		Faint:      p.Faint,

		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(p.Primary).
			MarginBottom(1),
		Subtitle: lipgloss.NewStyle().
			Foreground(p.Faint).
			MarginBottom(1),
		Normal: lipgloss.NewStyle().
			Foreground(p.Foreground),
		Bold: lipgloss.NewStyle().
			Bold(true).
			Foreground(p.Foreground),
		Muted: lipgloss.NewStyle().
			Foreground(p.Faint),

		ActiveTab: lipgloss.NewStyle().
			Bold(true).
			Foreground(p.Foreground).
			Background(p.Primary).
			Padding(0, 2),
		InactiveTab: lipgloss.NewStyle().
			Foreground(p.Faint).
			Padding(0, 2),

		RoundedBox: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(p.Border).
			Padding(1, 2),

		Label: lipgloss.NewStyle().
			Foreground(p.Faint).
			Width(22),
		FocusedLabel: lipgloss.NewStyle().
			Bold(true).
			Foreground(p.Primary).
			Width(22),

		StatusBar: lipgloss.NewStyle().
			Foreground(p.Faint).
			MarginTop(1),
		StatusSuccess: lipgloss.NewStyle().
			Foreground(p.Success).
			Bold(true),
		StatusWarning: lipgloss.NewStyle().
			Foreground(p.Warning).
			Bold(true),
		StatusError: lipgloss.NewStyle().
			Foreground(p.Error).
			Bold(true),

		ProgressFull: lipgloss.NewStyle().
			Foreground(p.Primary),
		ProgressEmpty: lipgloss.NewStyle().
			Foreground(p.Border),
	}
}

// ByName returns a named theme, falling back to Default.
func ByName(name string) Theme {
	if name == "chalk" {
		return Chalk
	}
	return Default
}
