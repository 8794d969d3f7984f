// Package tui implements the interactive dashboard: a home page, the student
// analysis report and a prediction form backed by the trained model.
package tui

import (
	"github.com/Veraticus/gradebook/internal/analysis"
	"github.com/Veraticus/gradebook/internal/dataset"
	"github.com/Veraticus/gradebook/internal/tui/themes"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
)

// Model holds the dashboard state.
type Model struct {
	theme      themes.Theme
	report     *analysis.Report
	reportErr  error
	formatter  *analysis.CLIFormatter
	config     Config
	keymap     KeyMap
	help       help.Model
	analysis   viewport.Model
	prediction predictionForm
	page       Page
	width      int
	height     int
	loading    bool
	quitting   bool
}

// New creates the dashboard model.
func New(opts ...Option) Model {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.Cache == nil {
		cfg.Cache = dataset.NewCache()
	}

	m := Model{
		config:     cfg,
		theme:      cfg.Theme,
		keymap:     DefaultKeyMap(),
		help:       help.New(),
		formatter:  analysis.NewCLIFormatter(),
		prediction: newPredictionForm(cfg.Model, cfg.Labels, cfg.Theme),
		page:       PageHome,
		width:      cfg.Width,
		height:     cfg.Height,
		loading:    true,
	}
	m.analysis = viewport.New(m.width, m.bodyHeight())
	return m
}

// Page returns the page on display.
func (m Model) Page() Page {
	return m.page
}

// Init starts loading the analysis report.
func (m Model) Init() tea.Cmd {
	return loadReport(m.config)
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		m.analysis.Width = msg.Width
		m.analysis.Height = m.bodyHeight()
		m.refreshAnalysis()
		return m, nil

	case reportLoadedMsg:
		m.loading = false
		m.report, m.reportErr = msg.report, msg.err
		m.refreshAnalysis()
		return m, nil

	case tea.KeyMsg:
		if cmd, handled := m.handleGlobalKeys(msg); handled {
			return m, cmd
		}
	}

	var cmd tea.Cmd
	switch m.page {
	case PageAnalysis:
		m.analysis, cmd = m.analysis.Update(msg)
	case PagePrediction:
		m.prediction, cmd = m.prediction.Update(msg, m.keymap)
	}
	if _, ok := msg.(predictionMsg); ok && m.page != PagePrediction {
		m.prediction, cmd = m.prediction.Update(msg, m.keymap)
	}
	return m, cmd
}

// handleGlobalKeys handles keys that work on every page. Page jumps and
// quit by letter are suspended while the prediction form takes input.
func (m *Model) handleGlobalKeys(msg tea.KeyMsg) (tea.Cmd, bool) {
	typing := m.page == PagePrediction && m.prediction.Editing()

	switch {
	case key.Matches(msg, m.keymap.ForceQuit):
		m.quitting = true
		return tea.Quit, true
	case key.Matches(msg, m.keymap.NextPage):
		m.page = m.page.Next()
		return nil, true
	case key.Matches(msg, m.keymap.PrevPage):
		m.page = m.page.Prev()
		return nil, true
	}
	if typing {
		return nil, false
	}

	switch {
	case key.Matches(msg, m.keymap.Quit):
		m.quitting = true
		return tea.Quit, true
	case key.Matches(msg, m.keymap.Home):
		m.page = PageHome
		return nil, true
	case key.Matches(msg, m.keymap.Analysis):
		m.page = PageAnalysis
		return nil, true
	case key.Matches(msg, m.keymap.Prediction):
		m.page = PagePrediction
		return nil, true
	case key.Matches(msg, m.keymap.Help):
		m.help.ShowAll = !m.help.ShowAll
		return nil, true
	case key.Matches(msg, m.keymap.Reload):
		m.config.Cache.Invalidate(m.config.DataPath)
		m.loading = true
		return loadReport(m.config), true
	}
	return nil, false
}

// refreshAnalysis re-renders the report into the scrollable viewport.
func (m *Model) refreshAnalysis() {
	if m.report == nil {
		return
	}
	m.analysis.SetContent(m.formatter.WithWidth(m.width).FormatReport(m.report))
}

// bodyHeight is the space left for page content under the tabs and above
// the status bar.
func (m Model) bodyHeight() int {
	return max(m.height-6, 5)
}
