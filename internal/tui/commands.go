package tui

import (
	"errors"
	"io/fs"
	"log/slog"
	"math/rand"

	"github.com/Veraticus/gradebook/internal/analysis"
	"github.com/Veraticus/gradebook/internal/dataset"
	"github.com/Veraticus/gradebook/internal/training"
	tea "github.com/charmbracelet/bubbletea"
)

// loadReport builds the analysis report. A missing data file falls back to
// generated students so the page always has something to show.
func loadReport(cfg Config) tea.Cmd {
	return func() tea.Msg {
		table, synthetic, err := loadStudents(cfg)
		if err != nil {
			return reportLoadedMsg{err: err}
		}
		report, err := analysis.BuildReport(table, cfg.Columns, cfg.FocusMajor)
		if err != nil {
			return reportLoadedMsg{err: err}
		}
		report.Source = cfg.DataPath
		report.Synthetic = synthetic
		return reportLoadedMsg{report: report}
	}
}

func loadStudents(cfg Config) (*dataset.Table, bool, error) {
	if cfg.DataPath != "" {
		var (
			table *dataset.Table
			err   error
		)
		if cfg.Cache != nil {
			table, err = cfg.Cache.Get(cfg.DataPath, cfg.Load)
		} else {
			table, err = dataset.Load(cfg.DataPath, cfg.Load)
		}
		if err == nil {
			return table, false, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, false, err
		}
		slog.Warn("Student data file not found, using generated data", "path", cfg.DataPath)
	}
	return dataset.GenerateStudents(SyntheticRows, rand.New(rand.NewSource(cfg.Seed))), true, nil
}

// predict runs the model on the form's values.
func predict(f predictionForm) tea.Cmd {
	values := f.Values()
	model, labels := f.model, f.labels
	return func() tea.Msg {
		if model.Regression() {
			value, err := model.PredictValue(values)
			if err != nil {
				return predictionMsg{err: err}
			}
			verdict, _ := training.Verdict(model.Target, value)
			return predictionMsg{value: value, verdict: verdict, scored: true}
		}

		label, err := model.PredictLabel(values, labels)
		if err != nil {
			return predictionMsg{err: err}
		}
		proba, err := model.PredictProba(values)
		if err != nil {
			return predictionMsg{err: err}
		}
		return predictionMsg{label: label, proba: proba}
	}
}
