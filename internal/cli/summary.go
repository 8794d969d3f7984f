package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/Veraticus/gradebook/internal/storage"
	"github.com/charmbracelet/lipgloss"
)

// FormatAccuracy renders an accuracy in [0,1] as a percentage colored by
// how good it is.
func FormatAccuracy(acc float64) string {
	text := fmt.Sprintf("%.2f%%", acc*100)
	switch {
	case acc >= 0.9:
		return SuccessStyle.Render(text)
	case acc >= 0.7:
		return WarningStyle.Render(text)
	default:
		return ErrorStyle.Render(text)
	}
}

// FormatTrainSuccess is the single line printed after a training run.
func FormatTrainSuccess(acc float64) string {
	return FormatSuccess("Model trained and saved successfully. Accuracy: ") + FormatAccuracy(acc)
}

// FormatRegressionSuccess is FormatTrainSuccess for a regression run.
func FormatRegressionSuccess(r2, rmse float64) string {
	return FormatSuccess("Model trained and saved successfully. R²: ") + FormatR2(r2) +
		SubtleStyle.Render(fmt.Sprintf(" · RMSE: %.2f", rmse))
}

// FormatR2 colors a coefficient of determination with the accuracy scale.
func FormatR2(r2 float64) string {
	text := fmt.Sprintf("%.3f", r2)
	switch {
	case r2 >= 0.8:
		return SuccessStyle.Render(text)
	case r2 >= 0.5:
		return WarningStyle.Render(text)
	default:
		return ErrorStyle.Render(text)
	}
}

// FormatScore renders a predicted value followed by its verdict, if any.
func FormatScore(value float64, verdict string) string {
	text := fmt.Sprintf("%.1f", value)
	switch verdict {
	case "pass":
		return text + " " + SuccessStyle.Render("(pass)")
	case "fail":
		return text + " " + ErrorStyle.Render("(fail)")
	default:
		return text
	}
}

// RenderImportances lists the top features by importance. top <= 0 shows all.
func RenderImportances(columns []string, importances []float64, top int) string {
	type entry struct {
		name  string
		value float64
	}
	entries := make([]entry, 0, len(columns))
	for i, name := range columns {
		if i < len(importances) {
			entries = append(entries, entry{name: name, value: importances[i]})
		}
	}
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].value > entries[j].value })
	if top > 0 && len(entries) > top {
		entries = entries[:top]
	}

	width := 0
	for _, e := range entries {
		width = max(width, lipgloss.Width(e.name))
	}

	var b strings.Builder
	for _, e := range entries {
		bar := strings.Repeat("█", int(e.value*30+0.5))
		fmt.Fprintf(&b, "%-*s %s %s\n", width, e.name, ProgressStyle.Render(bar), SubtleStyle.Render(fmt.Sprintf("%.3f", e.value)))
	}
	return strings.TrimRight(b.String(), "\n")
}

// RenderConfusion renders a confusion matrix with true labels as rows.
func RenderConfusion(labels []string, m [][]int) string {
	width := 6
	for _, l := range labels {
		width = max(width, lipgloss.Width(l)+1)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%-*s", width, "")
	for _, l := range labels {
		b.WriteString(TableHeaderStyle.UnsetBorderBottom().Render(fmt.Sprintf("%*s", width, l)))
	}
	b.WriteString("\n")
	for i, row := range m {
		name := ""
		if i < len(labels) {
			name = labels[i]
		}
		fmt.Fprintf(&b, "%-*s", width, name)
		for j, n := range row {
			cell := fmt.Sprintf("%*d", width, n)
			if i == j {
				cell = SuccessStyle.Render(cell)
			}
			b.WriteString(cell)
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

// RenderProbabilities lists class probabilities, highest first.
func RenderProbabilities(labels []string, proba []float64) string {
	idx := make([]int, 0, len(proba))
	for i := range proba {
		idx = append(idx, i)
	}
	sort.SliceStable(idx, func(a, b int) bool { return proba[idx[a]] > proba[idx[b]] })

	var b strings.Builder
	for _, i := range idx {
		name := fmt.Sprintf("#%d", i)
		if i < len(labels) {
			name = labels[i]
		}
		fmt.Fprintf(&b, "  %-12s %6.2f%%\n", name, proba[i]*100)
	}
	return strings.TrimRight(b.String(), "\n")
}

// RenderRunsTable renders registry rows in the order given. SCORE is the
// test accuracy of a classifier or the R² of a regressor.
func RenderRunsTable(runs []storage.Run) string {
	if len(runs) == 0 {
		return SubtleStyle.Render("No training runs recorded.")
	}

	header := fmt.Sprintf("%-36s  %-19s  %-12s  %-8s  %9s  %5s  %s", "RUN", "CREATED", "TARGET", "TASK", "SCORE", "TREES", "DATASET")
	var b strings.Builder
	b.WriteString(TableHeaderStyle.Render(header))
	b.WriteString("\n")
	for _, r := range runs {
		fmt.Fprintf(&b, "%-36s  %-19s  %-12s  %-8s  %9s  %5d  %s\n",
			r.ID,
			r.CreatedAt.Local().Format("2006-01-02 15:04:05"),
			truncate(r.Target, 12),
			runTask(&r),
			runScore(&r),
			r.Trees,
			r.Dataset)
	}
	return strings.TrimRight(b.String(), "\n")
}

// RenderRun shows every recorded field of one run.
func RenderRun(r *storage.Run) string {
	rows := [][2]string{
		{"Run", r.ID},
		{"Created", r.CreatedAt.Local().Format("2006-01-02 15:04:05")},
		{"Dataset", r.Dataset},
		{"Fingerprint", r.Fingerprint},
		{"Target", r.Target},
		{"Task", runTask(r)},
	}
	if r.Task == storage.TaskRegress {
		rows = append(rows,
			[2]string{"Features", fmt.Sprintf("%d columns", len(r.Features))},
			[2]string{"R²", FormatR2(r.R2)},
			[2]string{"RMSE", fmt.Sprintf("%.3f", r.RMSE)},
		)
	} else {
		rows = append(rows,
			[2]string{"Classes", strings.Join(r.Classes, ", ")},
			[2]string{"Features", fmt.Sprintf("%d columns", len(r.Features))},
			[2]string{"Accuracy", FormatAccuracy(r.Accuracy)},
		)
	}
	rows = append(rows,
		[2]string{"Split", fmt.Sprintf("%d train / %d test (fraction %.2f)", r.TrainRows, r.TestRows, r.TrainFraction)},
		[2]string{"Trees", fmt.Sprintf("%d (seed %d)", r.Trees, r.Seed)},
		[2]string{"Duration", r.Duration.String()},
		[2]string{"Model", r.ModelPath},
		[2]string{"Labels", r.LabelsPath},
	)
	if r.CardPath != "" {
		rows = append(rows, [2]string{"Card", r.CardPath})
	}

	var b strings.Builder
	for _, row := range rows {
		fmt.Fprintf(&b, "%s %s\n", BoldStyle.Render(fmt.Sprintf("%-12s", row[0]+":")), row[1])
	}
	return RenderBox(TreeIcon+" Training run", strings.TrimRight(b.String(), "\n"))
}

func runTask(r *storage.Run) string {
	if r.Task == "" {
		return storage.TaskClassify
	}
	return r.Task
}

func runScore(r *storage.Run) string {
	if r.Task == storage.TaskRegress {
		return fmt.Sprintf("R² %.2f", r.R2)
	}
	return fmt.Sprintf("%.2f%%", r.Accuracy*100)
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	if n <= 1 {
		return string(runes[:n])
	}
	return string(runes[:n-1]) + "…"
}
