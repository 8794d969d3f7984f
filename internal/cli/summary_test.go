package cli

import (
	"strings"
	"testing"
	"time"

	"github.com/Veraticus/gradebook/internal/storage"
	"github.com/stretchr/testify/assert"
)

func TestFormatAccuracy(t *testing.T) {
	assert.Contains(t, FormatAccuracy(0.9756), "97.56%")
	assert.Contains(t, FormatAccuracy(0.5), "50.00%")
	assert.Contains(t, FormatTrainSuccess(1), "Model trained and saved successfully")
}

func TestFormatRegression(t *testing.T) {
	out := FormatRegressionSuccess(0.8712, 4.25)
	assert.Contains(t, out, "Model trained and saved successfully")
	assert.Contains(t, out, "0.871")
	assert.Contains(t, out, "RMSE: 4.25")

	assert.Contains(t, FormatScore(72.44, "pass"), "72.4")
	assert.Contains(t, FormatScore(72.44, "pass"), "(pass)")
	assert.Contains(t, FormatScore(41, "fail"), "(fail)")
	assert.Equal(t, "3.5", FormatScore(3.5, ""))
}

func TestRenderImportancesOrdersAndLimits(t *testing.T) {
	out := RenderImportances(
		[]string{"bill_length_mm", "body_mass_g", "island_Dream"},
		[]float64{0.2, 0.5, 0.3}, 2)

	lines := strings.Split(out, "\n")
	assert.Len(t, lines, 2)
	assert.Contains(t, lines[0], "body_mass_g")
	assert.Contains(t, lines[1], "island_Dream")
	assert.NotContains(t, out, "bill_length_mm")
}

func TestRenderConfusion(t *testing.T) {
	out := RenderConfusion([]string{"Adelie", "Gentoo"}, [][]int{{5, 1}, {0, 4}})
	lines := strings.Split(out, "\n")
	assert.Len(t, lines, 3)
	assert.Contains(t, lines[1], "Adelie")
	assert.Contains(t, lines[2], "4")
}

func TestRenderProbabilities(t *testing.T) {
	out := RenderProbabilities([]string{"Adelie", "Gentoo", "Chinstrap"}, []float64{0.1, 0.7, 0.2})
	lines := strings.Split(out, "\n")
	assert.Len(t, lines, 3)
	assert.Contains(t, lines[0], "Gentoo")
	assert.Contains(t, lines[0], "70.00%")
	assert.Contains(t, lines[2], "Adelie")
}

func TestRenderRunsTable(t *testing.T) {
	assert.Contains(t, RenderRunsTable(nil), "No training runs recorded")

	out := RenderRunsTable([]storage.Run{{
		ID:        "run-1",
		CreatedAt: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
		Target:    "species_of_penguin",
		Accuracy:  0.95,
		Trees:     100,
		Dataset:   "penguins.csv",
	}})
	assert.Contains(t, out, "run-1")
	assert.Contains(t, out, "95.00%")
	assert.Contains(t, out, "species_of_…")
	assert.Contains(t, out, "penguins.csv")
	assert.Contains(t, out, "classify")

	out = RenderRunsTable([]storage.Run{{
		ID:     "run-3",
		Target: "final_score",
		Task:   storage.TaskRegress,
		R2:     0.873,
	}})
	assert.Contains(t, out, "regress")
	assert.Contains(t, out, "R² 0.87")
	assert.NotContains(t, out, "%")
}

func TestRenderRun(t *testing.T) {
	out := RenderRun(&storage.Run{
		ID:       "run-2",
		Classes:  []string{"Adelie", "Gentoo"},
		Features: []string{"a", "b", "c"},
		CardPath: "out/model_card.yaml",
	})
	assert.Contains(t, out, "run-2")
	assert.Contains(t, out, "Adelie, Gentoo")
	assert.Contains(t, out, "3 columns")
	assert.Contains(t, out, "model_card.yaml")
	assert.Contains(t, out, "classify")

	out = RenderRun(&storage.Run{
		ID:   "run-4",
		Task: storage.TaskRegress,
		R2:   0.91,
		RMSE: 3.5,
	})
	assert.Contains(t, out, "regress")
	assert.Contains(t, out, "0.910")
	assert.Contains(t, out, "3.500")
	assert.NotContains(t, out, "Accuracy")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 3))
	assert.Equal(t, "ab…", truncate("abcd", 3))
	assert.Equal(t, "企鹅…", truncate("企鹅的种类", 3))
}
