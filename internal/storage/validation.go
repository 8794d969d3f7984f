// Package storage provides the training run registry for gradebook.
package storage

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
)

// Validation and lookup errors.
var (
	ErrNilContext   = errors.New("context cannot be nil")
	ErrEmptyString  = errors.New("string parameter cannot be empty")
	ErrNilParameter = errors.New("parameter cannot be nil")
	ErrInvalidRun   = errors.New("invalid training run")
	ErrNotFound     = errors.New("not found")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

// validateRun checks the fields a run must carry before it is stored.
func validateRun(run *Run) error {
	if run == nil {
		return fmt.Errorf("%w: run", ErrNilParameter)
	}
	if strings.TrimSpace(run.ID) == "" {
		return fmt.Errorf("%w: missing ID", ErrInvalidRun)
	}
	if strings.TrimSpace(run.Dataset) == "" {
		return fmt.Errorf("%w: missing dataset", ErrInvalidRun)
	}
	if strings.TrimSpace(run.Target) == "" {
		return fmt.Errorf("%w: missing target", ErrInvalidRun)
	}
	switch run.Task {
	case "", TaskClassify, TaskRegress:
	default:
		return fmt.Errorf("%w: unknown task %q", ErrInvalidRun, run.Task)
	}
	if run.RMSE < 0 || math.IsNaN(run.RMSE) || math.IsNaN(run.R2) {
		return fmt.Errorf("%w: regression metrics must be numbers and RMSE not negative", ErrInvalidRun)
	}
	if run.Accuracy < 0 || run.Accuracy > 1 {
		return fmt.Errorf("%w: accuracy must be between 0 and 1", ErrInvalidRun)
	}
	if run.TrainFraction <= 0 || run.TrainFraction >= 1 {
		return fmt.Errorf("%w: train fraction must be between 0 and 1", ErrInvalidRun)
	}
	if run.ModelPath == "" || run.LabelsPath == "" {
		return fmt.Errorf("%w: missing artifact paths", ErrInvalidRun)
	}
	return nil
}
