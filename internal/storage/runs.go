package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Task names recorded in Run.Task.
const (
	TaskClassify = "classify"
	TaskRegress  = "regress"
)

// Run is one successful training run. Accuracy is set for classifiers, R2
// and RMSE for regressors.
type Run struct {
	CreatedAt     time.Time
	ID            string
	Dataset       string
	Fingerprint   string
	Target        string
	Task          string
	ModelPath     string
	LabelsPath    string
	CardPath      string
	Features      []string
	Classes       []string
	Accuracy      float64
	R2            float64
	RMSE          float64
	TrainFraction float64
	Seed          int64
	Duration      time.Duration
	Trees         int
	TrainRows     int
	TestRows      int
}

const runColumns = `id, dataset, fingerprint, target, features, classes,
	accuracy, train_fraction, seed, trees, train_rows, test_rows,
	model_path, labels_path, card_path, duration_ms, created_at,
	task, r2, rmse`

// SaveRun inserts a run. Runs are immutable; saving an existing ID fails.
func (s *SQLiteStorage) SaveRun(ctx context.Context, run *Run) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateRun(run); err != nil {
		return err
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}
	if run.Task == "" {
		run.Task = TaskClassify
	}

	featureJSON, err := json.Marshal(run.Features)
	if err != nil {
		return fmt.Errorf("failed to marshal features: %w", err)
	}
	classJSON, err := json.Marshal(run.Classes)
	if err != nil {
		return fmt.Errorf("failed to marshal classes: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO training_runs (`+runColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		run.ID, run.Dataset, run.Fingerprint, run.Target,
		string(featureJSON), string(classJSON),
		run.Accuracy, run.TrainFraction, run.Seed, run.Trees,
		run.TrainRows, run.TestRows,
		run.ModelPath, run.LabelsPath, run.CardPath,
		run.Duration.Milliseconds(), run.CreatedAt.UTC(),
		run.Task, run.R2, run.RMSE,
	)
	if err != nil {
		return fmt.Errorf("failed to save run: %w", err)
	}
	return nil
}

// GetRun returns the run with the given ID or ErrNotFound.
func (s *SQLiteStorage) GetRun(ctx context.Context, id string) (*Run, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM training_runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("run %q: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return run, nil
}

// LatestRun returns the most recently created run or ErrNotFound.
func (s *SQLiteStorage) LatestRun(ctx context.Context) (*Run, error) {
	runs, err := s.ListRuns(ctx, 1)
	if err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		return nil, fmt.Errorf("latest run: %w", ErrNotFound)
	}
	return &runs[0], nil
}

// ListRuns returns runs newest first. A limit of zero or less returns all.
func (s *SQLiteStorage) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = -1
	}
	return s.queryRuns(ctx, s.db, `
		SELECT `+runColumns+` FROM training_runs
		ORDER BY created_at DESC, id
		LIMIT ?
	`, limit)
}

// RunsForDataset returns every run trained on a file with the given
// fingerprint, newest first.
func (s *SQLiteStorage) RunsForDataset(ctx context.Context, fingerprint string) ([]Run, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(fingerprint, "fingerprint"); err != nil {
		return nil, err
	}
	return s.queryRuns(ctx, s.db, `
		SELECT `+runColumns+` FROM training_runs
		WHERE fingerprint = ?
		ORDER BY created_at DESC, id
	`, fingerprint)
}

// DeleteRun removes one run record. Artifact files are left alone.
func (s *SQLiteStorage) DeleteRun(ctx context.Context, id string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(id, "id"); err != nil {
		return err
	}
	result, err := s.db.ExecContext(ctx, `DELETE FROM training_runs WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete run: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check deleted rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("run %q: %w", id, ErrNotFound)
	}
	return nil
}

func (s *SQLiteStorage) queryRuns(ctx context.Context, q queryable, query string, args ...any) ([]Run, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, *run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate runs: %w", err)
	}
	return runs, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (*Run, error) {
	var (
		run         Run
		featureJSON string
		classJSON   string
		durationMS  int64
	)
	err := row.Scan(
		&run.ID, &run.Dataset, &run.Fingerprint, &run.Target,
		&featureJSON, &classJSON,
		&run.Accuracy, &run.TrainFraction, &run.Seed, &run.Trees,
		&run.TrainRows, &run.TestRows,
		&run.ModelPath, &run.LabelsPath, &run.CardPath,
		&durationMS, &run.CreatedAt,
		&run.Task, &run.R2, &run.RMSE,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(featureJSON), &run.Features); err != nil {
		return nil, fmt.Errorf("failed to unmarshal features: %w", err)
	}
	if err := json.Unmarshal([]byte(classJSON), &run.Classes); err != nil {
		return nil, fmt.Errorf("failed to unmarshal classes: %w", err)
	}
	run.Duration = time.Duration(durationMS) * time.Millisecond
	return &run, nil
}
