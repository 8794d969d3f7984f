package training

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Veraticus/gradebook/internal/common"
	"github.com/Veraticus/gradebook/internal/forest"
)

// Config holds the split and forest settings for one training call.
type Config struct {
	Progress      func(done, total int)
	Forest        forest.Params
	TrainFraction float64
	Seed          int64
	Workers       int
	Stratify      bool
}

// DefaultConfig uses an 80/20 split and the default forest.
func DefaultConfig() Config {
	return Config{
		TrainFraction: 0.8,
		Forest:        forest.DefaultParams(),
	}
}

// Validate reports configuration problems as ConfigError.
func (c Config) Validate() error {
	if err := ValidateFraction(c.TrainFraction); err != nil {
		return err
	}
	return c.Forest.Validate()
}

// Result is the outcome of TrainEvaluate.
type Result struct {
	Model       *forest.Forest
	Train       []int
	Test        []int
	Predictions []int
	Confusion   [][]int
	Accuracy    float64
	NumClasses  int
	Duration    time.Duration
}

// TrainEvaluate splits x/y, fits a forest on the training rows only and
// scores it on the test rows. Configuration is checked before the data so an
// invalid fraction is reported as a ConfigError whatever the input.
func TrainEvaluate(ctx context.Context, x [][]float64, y []int, cfg Config) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	numClasses, err := checkData(x, y)
	if err != nil {
		return nil, err
	}

	opts := SplitOptions{Seed: cfg.Seed}
	if cfg.Stratify {
		opts.Stratify = y
	}
	trainIdx, testIdx, err := Split(len(x), cfg.TrainFraction, opts)
	if err != nil {
		return nil, err
	}

	xTrain, yTrain := subset(x, y, trainIdx)
	xTest, yTest := subset(x, y, testIdx)

	params := cfg.Forest
	params.Seed = cfg.Seed

	start := time.Now()
	model, err := forest.Fit(ctx, xTrain, yTrain, numClasses, params, cfg.fitOptions()...)
	if err != nil {
		return nil, err
	}
	elapsed := time.Since(start)

	preds, err := model.PredictBatch(xTest)
	if err != nil {
		return nil, fmt.Errorf("predict test rows: %w", err)
	}
	acc, err := Accuracy(yTest, preds)
	if err != nil {
		return nil, err
	}
	confusion, err := ConfusionMatrix(yTest, preds, numClasses)
	if err != nil {
		return nil, err
	}

	slog.Debug("Forest fitted",
		"trees", len(model.Trees),
		"train_rows", len(trainIdx),
		"test_rows", len(testIdx),
		"accuracy", acc,
		"duration", elapsed)

	return &Result{
		Model:       model,
		Train:       trainIdx,
		Test:        testIdx,
		Predictions: preds,
		Confusion:   confusion,
		Accuracy:    acc,
		NumClasses:  numClasses,
		Duration:    elapsed,
	}, nil
}

// RegressionResult is the outcome of TrainEvaluateRegression.
type RegressionResult struct {
	Model       *forest.Regressor
	Train       []int
	Test        []int
	Predictions []float64
	Metrics     RegressionMetrics
	Duration    time.Duration
}

// TrainEvaluateRegression is TrainEvaluate for a real-valued target. The
// split is never stratified.
func TrainEvaluateRegression(ctx context.Context, x [][]float64, y []float64, cfg Config) (*RegressionResult, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Stratify {
		return nil, common.NewConfigError("train",
			fmt.Errorf("%w: a stratified split needs class labels", common.ErrInvalidConfig))
	}
	if err := checkShape(x, len(y)); err != nil {
		return nil, err
	}

	trainIdx, testIdx, err := Split(len(x), cfg.TrainFraction, SplitOptions{Seed: cfg.Seed})
	if err != nil {
		return nil, err
	}
	xTrain, yTrain := subset(x, y, trainIdx)
	xTest, yTest := subset(x, y, testIdx)

	params := cfg.Forest
	params.Seed = cfg.Seed

	start := time.Now()
	model, err := forest.FitRegressor(ctx, xTrain, yTrain, params, cfg.fitOptions()...)
	if err != nil {
		return nil, err
	}
	elapsed := time.Since(start)

	preds, err := model.PredictBatch(xTest)
	if err != nil {
		return nil, fmt.Errorf("predict test rows: %w", err)
	}
	metrics, err := Regression(yTest, preds)
	if err != nil {
		return nil, err
	}

	slog.Debug("Regression forest fitted",
		"trees", len(model.Trees),
		"train_rows", len(trainIdx),
		"test_rows", len(testIdx),
		"r2", metrics.R2,
		"rmse", metrics.RMSE,
		"duration", elapsed)

	return &RegressionResult{
		Model:       model,
		Train:       trainIdx,
		Test:        testIdx,
		Predictions: preds,
		Metrics:     metrics,
		Duration:    elapsed,
	}, nil
}

func (c Config) fitOptions() []forest.Option {
	var opts []forest.Option
	if c.Workers > 0 {
		opts = append(opts, forest.WithWorkers(c.Workers))
	}
	if c.Progress != nil {
		opts = append(opts, forest.WithProgress(c.Progress))
	}
	return opts
}

// checkShape validates that x has n rows of equal width.
func checkShape(x [][]float64, n int) error {
	if len(x) == 0 || n == 0 {
		return common.NewDataError("train", common.ErrEmptyDataset)
	}
	if len(x) != n {
		return common.NewDataError("train",
			fmt.Errorf("%w: %d feature rows, %d targets", common.ErrLengthMismatch, len(x), n))
	}
	width := len(x[0])
	for i, row := range x {
		if len(row) != width {
			return common.NewDataError("train",
				fmt.Errorf("%w: row %d has %d columns, want %d", common.ErrRaggedRows, i, len(row), width))
		}
	}
	return nil
}

// checkData validates alignment and returns the class count max(y)+1.
func checkData(x [][]float64, y []int) (int, error) {
	if err := checkShape(x, len(y)); err != nil {
		return 0, err
	}
	numClasses := 0
	for i, c := range y {
		if c < 0 {
			return 0, common.NewDataError("train", fmt.Errorf("negative label %d at row %d", c, i))
		}
		numClasses = max(numClasses, c+1)
	}
	return numClasses, nil
}

func subset[T int | float64](x [][]float64, y []T, idx []int) ([][]float64, []T) {
	xs := make([][]float64, len(idx))
	ys := make([]T, len(idx))
	for i, j := range idx {
		xs[i] = x[j]
		ys[i] = y[j]
	}
	return xs, ys
}
