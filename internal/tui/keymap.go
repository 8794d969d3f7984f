package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines all keyboard shortcuts.
type KeyMap struct {
	// Pages
	NextPage   key.Binding
	PrevPage   key.Binding
	Home       key.Binding
	Analysis   key.Binding
	Prediction key.Binding

	// Prediction form
	NextField key.Binding
	PrevField key.Binding
	Predict   key.Binding
	Edit      key.Binding
	Done      key.Binding
	Clear     key.Binding

	// Application
	Reload    key.Binding
	Help      key.Binding
	Quit      key.Binding
	ForceQuit key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		NextPage: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("Tab", "next page"),
		),
		PrevPage: key.NewBinding(
			key.WithKeys("shift+tab"),
			key.WithHelp("Shift+Tab", "previous page"),
		),
		Home: key.NewBinding(
			key.WithKeys("1"),
			key.WithHelp("1", "home"),
		),
		Analysis: key.NewBinding(
			key.WithKeys("2"),
			key.WithHelp("2", "analysis"),
		),
		Prediction: key.NewBinding(
			key.WithKeys("3"),
			key.WithHelp("3", "prediction"),
		),

		NextField: key.NewBinding(
			key.WithKeys("down"),
			key.WithHelp("↓", "next field"),
		),
		PrevField: key.NewBinding(
			key.WithKeys("up"),
			key.WithHelp("↑", "previous field"),
		),
		Predict: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("Enter", "predict"),
		),
		Edit: key.NewBinding(
			key.WithKeys("e", "i"),
			key.WithHelp("e", "edit inputs"),
		),
		Done: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("Esc", "stop editing"),
		),
		Clear: key.NewBinding(
			key.WithKeys("ctrl+u"),
			key.WithHelp("Ctrl+U", "clear form"),
		),

		Reload: key.NewBinding(
			key.WithKeys("r", "ctrl+r"),
			key.WithHelp("r", "reload data"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q"),
			key.WithHelp("q", "quit"),
		),
		ForceQuit: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("Ctrl+C", "force quit"),
		),
	}
}

// ShortHelp returns key bindings for the short help view.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.NextPage, k.Predict, k.Help, k.Quit}
}

// FullHelp returns all key bindings for the full help view.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.NextPage, k.PrevPage, k.Home, k.Analysis, k.Prediction},
		{k.NextField, k.PrevField, k.Predict, k.Edit, k.Done, k.Clear},
		{k.Reload, k.Help, k.Quit, k.ForceQuit},
	}
}
