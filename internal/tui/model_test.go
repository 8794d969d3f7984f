package tui

import (
	"path/filepath"
	"testing"

	"github.com/Veraticus/gradebook/internal/dataset"
	"github.com/Veraticus/gradebook/internal/testutil"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPageCycling(t *testing.T) {
	assert.Equal(t, PageAnalysis, PageHome.Next())
	assert.Equal(t, PageHome, PagePrediction.Next())
	assert.Equal(t, PagePrediction, PageHome.Prev())
	assert.Equal(t, "Prediction", PagePrediction.String())
	assert.Equal(t, "Unknown", Page(9).String())
}

func TestNavigation(t *testing.T) {
	m := New()
	assert.Equal(t, PageHome, m.Page())

	m, _ = send(t, m, tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, PageAnalysis, m.Page())

	m, _ = send(t, m, tea.KeyMsg{Type: tea.KeyShiftTab})
	assert.Equal(t, PageHome, m.Page())

	m, _ = send(t, m, keyRunes("3"))
	assert.Equal(t, PagePrediction, m.Page())

	// Without a model the form does not capture keys.
	m, _ = send(t, m, keyRunes("2"))
	assert.Equal(t, PageAnalysis, m.Page())

	m, _ = send(t, m, keyRunes("1"))
	assert.Equal(t, PageHome, m.Page())
}

func TestQuit(t *testing.T) {
	for _, msg := range []tea.KeyMsg{keyRunes("q"), {Type: tea.KeyCtrlC}} {
		m, cmd := send(t, New(), msg)
		require.NotNil(t, cmd)
		assert.IsType(t, tea.QuitMsg{}, cmd())
		assert.Empty(t, m.View())
	}
}

func TestAnalysisFallsBackToGeneratedData(t *testing.T) {
	m := New(WithData(filepath.Join(t.TempDir(), "missing.csv"), dataset.DefaultLoadOptions()))
	assert.Contains(t, stripANSI(m.View()), "loading")

	m = drain(t, m, m.Init())
	require.NoError(t, m.reportErr)
	require.NotNil(t, m.report)
	assert.True(t, m.report.Synthetic)
	assert.Equal(t, SyntheticRows, m.report.Rows)

	assert.Contains(t, stripANSI(m.View()), "generated students")

	m, _ = send(t, m, keyRunes("2"))
	view := stripANSI(m.View())
	assert.Contains(t, view, "Major Analysis")
	assert.Contains(t, view, "Gender ratio by major")
}

func TestAnalysisFromFile(t *testing.T) {
	path := testutil.WriteCSV(t, t.TempDir(), "students.csv", testutil.Students(t, 50, 9))
	m := New(WithData(path, dataset.DefaultLoadOptions()))
	m = drain(t, m, m.Init())

	require.NotNil(t, m.report)
	assert.False(t, m.report.Synthetic)
	assert.Equal(t, 50, m.report.Rows)
	assert.Contains(t, stripANSI(m.View()), "50 students from")

	// Reload goes through the cache and rebuilds the report.
	m, cmd := send(t, m, keyRunes("r"))
	assert.True(t, m.loading)
	m = drain(t, m, cmd)
	assert.False(t, m.loading)
	assert.Equal(t, 50, m.report.Rows)
}

func TestAnalysisErrorIsShown(t *testing.T) {
	dir := t.TempDir()
	table, err := dataset.NewTable([]string{"name"}, [][]string{{"x"}})
	require.NoError(t, err)
	path := testutil.WriteCSV(t, dir, "bad.csv", table)

	m := New(WithData(path, dataset.DefaultLoadOptions()))
	m = drain(t, m, m.Init())
	require.Error(t, m.reportErr)

	m, _ = send(t, m, keyRunes("2"))
	assert.Contains(t, stripANSI(m.View()), "Could not build the analysis")
}

func TestWindowResize(t *testing.T) {
	m, _ := send(t, New(), tea.WindowSizeMsg{Width: 70, Height: 20})
	assert.Equal(t, 70, m.width)
	assert.Equal(t, 14, m.analysis.Height)
}

func TestHelpToggle(t *testing.T) {
	m, _ := send(t, New(), keyRunes("?"))
	assert.True(t, m.help.ShowAll)
	assert.Contains(t, stripANSI(m.View()), "force quit")
}
