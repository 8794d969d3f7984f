package tui

import "github.com/Veraticus/gradebook/internal/analysis"

// reportLoadedMsg carries the analysis report built from the data file.
type reportLoadedMsg struct {
	err    error
	report *analysis.Report
}

// predictionMsg carries the result of one prediction. A classifier fills
// label and proba; a regressor fills value and, for final scores, verdict.
type predictionMsg struct {
	err     error
	label   string
	verdict string
	proba   []float64
	value   float64
	scored  bool
}
