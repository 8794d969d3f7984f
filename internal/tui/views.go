package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// View renders the UI.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var body string
	switch m.page {
	case PageHome:
		body = m.renderHome()
	case PageAnalysis:
		body = m.renderAnalysis()
	case PagePrediction:
		body = m.renderPrediction()
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		m.renderTabs(),
		body,
		m.renderStatusBar(),
	)
}

func (m Model) renderTabs() string {
	tabs := make([]string, 0, len(pages))
	for i, p := range pages {
		label := fmt.Sprintf("%d %s", i+1, p)
		if p == m.page {
			tabs = append(tabs, m.theme.ActiveTab.Render(label))
		} else {
			tabs = append(tabs, m.theme.InactiveTab.Render(label))
		}
	}
	title := m.theme.Bold.Render("📘 gradebook  ")
	return lipgloss.JoinHorizontal(lipgloss.Center, title, strings.Join(tabs, " ")) + "\n"
}

func (m Model) renderHome() string {
	t := m.theme
	intro := strings.Join([]string{
		t.Title.Render("Student performance and species prediction"),
		t.Normal.Render("Explore how study habits relate to results across majors,"),
		t.Normal.Render("then predict a final exam score or a penguin species with the trained forest."),
	}, "\n")

	status := []string{
		t.Bold.Render("Dataset  ") + m.datasetStatus(),
		t.Bold.Render("Model    ") + m.modelStatus(),
	}

	guide := t.Muted.Render(strings.Join([]string{
		"2 Analysis    gender ratio, study time, attendance, focus major",
		"3 Prediction  enter feature values and predict a label",
	}, "\n"))

	return t.RoundedBox.Render(strings.Join([]string{intro, "", strings.Join(status, "\n"), "", guide}, "\n"))
}

func (m Model) datasetStatus() string {
	t := m.theme
	switch {
	case m.loading:
		return t.Muted.Render("loading…")
	case m.reportErr != nil:
		return t.StatusError.Render(m.reportErr.Error())
	case m.report == nil:
		return t.Muted.Render("no data")
	case m.report.Synthetic:
		return t.StatusWarning.Render(fmt.Sprintf("%d generated students (data file not found)", m.report.Rows))
	default:
		return t.StatusSuccess.Render(fmt.Sprintf("%d students from %s", m.report.Rows, m.report.Source))
	}
}

func (m Model) modelStatus() string {
	t := m.theme
	model := m.config.Model
	switch {
	case model != nil && model.Regression():
		return t.StatusSuccess.Render(fmt.Sprintf("%d trees predicting %s (score)",
			model.Trees(), model.Target))
	case model != nil:
		return t.StatusSuccess.Render(fmt.Sprintf("%d trees predicting %s (%d classes)",
			model.Trees(), model.Target, len(m.config.Labels)))
	case m.config.ModelErr != nil:
		return t.StatusWarning.Render("unavailable: " + m.config.ModelErr.Error())
	default:
		return t.StatusWarning.Render("unavailable")
	}
}

func (m Model) renderAnalysis() string {
	switch {
	case m.loading:
		return m.theme.Muted.Render("Loading student data…")
	case m.reportErr != nil:
		return m.theme.StatusError.Render("Could not build the analysis: " + m.reportErr.Error())
	case m.report == nil:
		return m.theme.Muted.Render("No data.")
	}
	return m.analysis.View()
}

func (m Model) renderPrediction() string {
	title := m.theme.Title.Render("🌲 Predict")
	if m.config.Model != nil {
		title = m.theme.Title.Render("🌲 Predict " + m.config.Model.Target)
	}
	return title + "\n" + m.prediction.View(m.width)
}

func (m Model) renderStatusBar() string {
	return m.theme.StatusBar.Render(m.help.View(m.keymap))
}
