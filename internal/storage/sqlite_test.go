package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"
)

// Helper function to create test storage.
func createTestStorage(t *testing.T) (*SQLiteStorage, func()) {
	t.Helper()
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	store, err := NewSQLiteStorage(dbPath)
	if err != nil {
		t.Fatalf("Failed to create storage: %v", err)
	}

	ctx := context.Background()
	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		t.Fatalf("Failed to migrate: %v", err)
	}

	return store, func() { _ = store.Close() }
}

func makeTestRun(id string, createdAt time.Time) *Run {
	return &Run{
		ID:            id,
		Dataset:       "data/penguins.csv",
		Fingerprint:   "9f86d081884c7d65",
		Target:        "species",
		Features:      []string{"bill_length_mm", "island_Biscoe", "island_Dream"},
		Classes:       []string{"Adelie", "Gentoo", "Chinstrap"},
		Accuracy:      0.97,
		TrainFraction: 0.8,
		Seed:          42,
		Trees:         100,
		TrainRows:     266,
		TestRows:      67,
		ModelPath:     "artifacts/rfc_model.gob",
		LabelsPath:    "artifacts/output_uniques.json",
		Duration:      1500 * time.Millisecond,
		CreatedAt:     createdAt,
	}
}

func TestSQLiteStorage_RegressionRunRoundTrip(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	run := makeTestRun("run-r", time.Date(2024, 6, 2, 0, 0, 0, 0, time.UTC))
	run.Task = TaskRegress
	run.Target = "final_score"
	run.Classes = nil
	run.Accuracy = 0
	run.R2 = 0.81
	run.RMSE = 4.25
	if err := store.SaveRun(ctx, run); err != nil {
		t.Fatalf("SaveRun() error = %v", err)
	}

	got, err := store.GetRun(ctx, "run-r")
	if err != nil {
		t.Fatalf("GetRun() error = %v", err)
	}
	if got.Task != TaskRegress || got.R2 != 0.81 || got.RMSE != 4.25 {
		t.Errorf("GetRun() = %+v, want task %q r2 0.81 rmse 4.25", got, TaskRegress)
	}
}

func TestSQLiteStorage_SaveAndGetRun(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	created := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	want := makeTestRun("run-a", created)
	if err := store.SaveRun(ctx, want); err != nil {
		t.Fatalf("SaveRun() error = %v", err)
	}

	got, err := store.GetRun(ctx, "run-a")
	if err != nil {
		t.Fatalf("GetRun() error = %v", err)
	}
	if got.Target != want.Target || got.Accuracy != want.Accuracy || got.Seed != want.Seed {
		t.Errorf("GetRun() = %+v, want %+v", got, want)
	}
	if len(got.Features) != 3 || got.Features[1] != "island_Biscoe" {
		t.Errorf("Features = %v, want %v", got.Features, want.Features)
	}
	if len(got.Classes) != 3 || got.Classes[2] != "Chinstrap" {
		t.Errorf("Classes = %v, want %v", got.Classes, want.Classes)
	}
	if got.Duration != want.Duration {
		t.Errorf("Duration = %v, want %v", got.Duration, want.Duration)
	}
	if !got.CreatedAt.Equal(created) {
		t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, created)
	}

	if err := store.SaveRun(ctx, want); err == nil {
		t.Error("SaveRun() with duplicate ID should fail")
	}
}

func TestSQLiteStorage_GetRunNotFound(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()

	_, err := store.GetRun(context.Background(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("GetRun() error = %v, want ErrNotFound", err)
	}

	_, err = store.LatestRun(context.Background())
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("LatestRun() error = %v, want ErrNotFound", err)
	}
}

func TestSQLiteStorage_ListRuns(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	base := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range []string{"run-1", "run-2", "run-3"} {
		if err := store.SaveRun(ctx, makeTestRun(id, base.Add(time.Duration(i)*time.Hour))); err != nil {
			t.Fatalf("SaveRun(%s) error = %v", id, err)
		}
	}

	runs, err := store.ListRuns(ctx, 0)
	if err != nil {
		t.Fatalf("ListRuns() error = %v", err)
	}
	if len(runs) != 3 {
		t.Fatalf("ListRuns() returned %d runs, want 3", len(runs))
	}
	if runs[0].ID != "run-3" || runs[2].ID != "run-1" {
		t.Errorf("ListRuns() order = %s,%s,%s, want newest first", runs[0].ID, runs[1].ID, runs[2].ID)
	}

	limited, err := store.ListRuns(ctx, 2)
	if err != nil {
		t.Fatalf("ListRuns(2) error = %v", err)
	}
	if len(limited) != 2 {
		t.Errorf("ListRuns(2) returned %d runs", len(limited))
	}

	latest, err := store.LatestRun(ctx)
	if err != nil {
		t.Fatalf("LatestRun() error = %v", err)
	}
	if latest.ID != "run-3" {
		t.Errorf("LatestRun() = %s, want run-3", latest.ID)
	}

	byData, err := store.RunsForDataset(ctx, "9f86d081884c7d65")
	if err != nil {
		t.Fatalf("RunsForDataset() error = %v", err)
	}
	if len(byData) != 3 {
		t.Errorf("RunsForDataset() returned %d runs, want 3", len(byData))
	}
}

func TestSQLiteStorage_DeleteRun(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	if err := store.SaveRun(ctx, makeTestRun("run-x", time.Now())); err != nil {
		t.Fatalf("SaveRun() error = %v", err)
	}
	if err := store.DeleteRun(ctx, "run-x"); err != nil {
		t.Fatalf("DeleteRun() error = %v", err)
	}
	if err := store.DeleteRun(ctx, "run-x"); !errors.Is(err, ErrNotFound) {
		t.Errorf("second DeleteRun() error = %v, want ErrNotFound", err)
	}
}

func TestSQLiteStorage_InMemory(t *testing.T) {
	store, err := NewSQLiteStorage(":memory:")
	if err != nil {
		t.Fatalf("NewSQLiteStorage() error = %v", err)
	}
	defer func() { _ = store.Close() }()

	ctx := context.Background()
	if err := store.Migrate(ctx); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	if err := store.SaveRun(ctx, makeTestRun("mem", time.Now())); err != nil {
		t.Fatalf("SaveRun() error = %v", err)
	}
	if _, err := store.GetRun(ctx, "mem"); err != nil {
		t.Errorf("GetRun() error = %v", err)
	}
}
