package testutil

import (
	"context"
	"math/rand"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Veraticus/gradebook/internal/artifact"
	"github.com/Veraticus/gradebook/internal/dataset"
	"github.com/Veraticus/gradebook/internal/features"
	"github.com/Veraticus/gradebook/internal/forest"
)

// PenguinPredictors are the predictor columns of the penguin preset.
var PenguinPredictors = []string{
	dataset.ColIsland, dataset.ColBillLength, dataset.ColBillDepth,
	dataset.ColFlipperLength, dataset.ColBodyMass, dataset.ColSex,
}

// PenguinCategorical are the categorical penguin predictors.
var PenguinCategorical = []string{dataset.ColIsland, dataset.ColSex}

// Penguins returns n generated penguins.
func Penguins(t *testing.T, n int, seed int64) *dataset.Table {
	t.Helper()
	return dataset.GeneratePenguins(n, rand.New(rand.NewSource(seed)))
}

// Students returns n generated students.
func Students(t *testing.T, n int, seed int64) *dataset.Table {
	t.Helper()
	return dataset.GenerateStudents(n, rand.New(rand.NewSource(seed)))
}

// WriteCSV saves table under dir with the given file name and returns the path.
func WriteCSV(t *testing.T, dir, name string, table *dataset.Table) string {
	t.Helper()
	path := filepath.Join(dir, name)
	f, err := os.Create(path) // #nosec G304 - test path
	if err != nil {
		t.Fatalf("failed to create %s: %v", path, err)
	}
	defer f.Close()
	if err := dataset.WriteCSV(f, table); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
	return path
}

// TrainedPenguinModel fits a small forest on generated penguins and returns
// the model with its label table.
func TrainedPenguinModel(t *testing.T) (*artifact.Model, []string) {
	t.Helper()

	table := Penguins(t, 90, 3)
	species, err := table.Column(dataset.ColSpecies)
	if err != nil {
		t.Fatalf("species column: %v", err)
	}
	codes, labels := features.Factorize(species)

	schema, err := features.Fit(table, PenguinPredictors, PenguinCategorical)
	if err != nil {
		t.Fatalf("fit schema: %v", err)
	}
	x, err := schema.Transform(table)
	if err != nil {
		t.Fatalf("transform: %v", err)
	}

	params := forest.DefaultParams()
	params.NEstimators = 15
	params.Seed = 1
	f, err := forest.Fit(context.Background(), x, codes, len(labels), params)
	if err != nil {
		t.Fatalf("fit forest: %v", err)
	}

	return &artifact.Model{
		Schema:    schema,
		Forest:    f,
		Target:    dataset.ColSpecies,
		RunID:     "fixture",
		CreatedAt: time.Date(2024, 9, 1, 0, 0, 0, 0, time.UTC),
		Version:   artifact.FormatVersion,
	}, labels
}

// StudentPredictors are the predictor columns of the students presets.
var StudentPredictors = []string{
	dataset.ColGender, dataset.ColMajor, dataset.ColStudyHours,
	dataset.ColAttendance, dataset.ColMidterm, dataset.ColHomework,
}

// TrainedScoreModel fits a small regression forest predicting final_score
// on generated students.
func TrainedScoreModel(t *testing.T) *artifact.Model {
	t.Helper()

	table := Students(t, 120, 3)
	y, err := table.Float(dataset.ColFinal)
	if err != nil {
		t.Fatalf("final score column: %v", err)
	}
	schema, err := features.Fit(table, StudentPredictors, []string{dataset.ColGender, dataset.ColMajor})
	if err != nil {
		t.Fatalf("fit schema: %v", err)
	}
	x, err := schema.Transform(table)
	if err != nil {
		t.Fatalf("transform: %v", err)
	}

	params := forest.DefaultParams()
	params.NEstimators = 15
	params.Seed = 1
	r, err := forest.FitRegressor(context.Background(), x, y, params)
	if err != nil {
		t.Fatalf("fit regressor: %v", err)
	}

	return &artifact.Model{
		Schema:    schema,
		Regressor: r,
		Target:    dataset.ColFinal,
		RunID:     "fixture",
		CreatedAt: time.Date(2024, 9, 1, 0, 0, 0, 0, time.UTC),
		Version:   artifact.FormatVersion,
	}
}
