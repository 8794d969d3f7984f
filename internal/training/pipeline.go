package training

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/Veraticus/gradebook/internal/artifact"
	"github.com/Veraticus/gradebook/internal/common"
	"github.com/Veraticus/gradebook/internal/dataset"
	"github.com/Veraticus/gradebook/internal/features"
	"github.com/Veraticus/gradebook/internal/storage"
	"github.com/google/uuid"
)

// RunRecorder stores a completed training run.
type RunRecorder interface {
	SaveRun(ctx context.Context, run *storage.Run) error
}

// PipelineConfig describes one end-to-end training run.
type PipelineConfig struct {
	Derive      func(*dataset.Table) (*dataset.Table, error)
	DataPath    string
	Target      string
	OutDir      string
	Unknown     features.UnknownPolicy
	Names       artifact.Names
	Predictors  []string
	Categorical []string
	Task        Task
	Load        dataset.LoadOptions
	Train       Config
	WriteCard   bool
}

// DefaultPipelineConfig returns the penguin preset with an 80/20 split,
// writing artifacts to the current directory.
func DefaultPipelineConfig() PipelineConfig {
	cfg := PipelineConfig{
		Load:   dataset.DefaultLoadOptions(),
		Train:  DefaultConfig(),
		OutDir: ".",
		Names:  artifact.DefaultNames(),
	}
	p, _ := LookupPreset("penguins")
	cfg.ApplyPreset(p)
	return cfg
}

// ApplyPreset copies the preset's columns, target, task and encoding into
// cfg.
func (c *PipelineConfig) ApplyPreset(p Preset) {
	c.Target = p.Target
	c.Task = p.Task
	c.Predictors = slices.Clone(p.Predictors)
	c.Categorical = slices.Clone(p.Categorical)
	c.Derive = p.Derive
	if p.Encoding != "" {
		c.Load.Encoding = p.Encoding
	}
}

// Validate checks everything that can be checked without touching a file.
func (c PipelineConfig) Validate() error {
	if err := c.Train.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(c.DataPath) == "" {
		return common.NewConfigError("validate pipeline", fmt.Errorf("%w: data path", common.ErrMissingConfig))
	}
	if strings.TrimSpace(c.Target) == "" {
		return common.NewConfigError("validate pipeline", fmt.Errorf("%w: target column", common.ErrMissingConfig))
	}
	if len(c.Predictors) == 0 {
		return common.NewConfigError("validate pipeline", fmt.Errorf("%w: predictor columns", common.ErrMissingConfig))
	}
	if slices.Contains(c.Predictors, c.Target) {
		return common.NewConfigError("validate pipeline",
			fmt.Errorf("%w: target %q is also a predictor", common.ErrInvalidConfig, c.Target))
	}
	switch c.Task {
	case "", TaskClassify:
	case TaskRegress:
		if c.Train.Stratify {
			return common.NewConfigError("validate pipeline",
				fmt.Errorf("%w: a regression run cannot be stratified", common.ErrInvalidConfig))
		}
	default:
		return common.NewConfigError("validate pipeline",
			fmt.Errorf("%w: unknown task %q", common.ErrInvalidConfig, c.Task))
	}
	switch c.Unknown {
	case "", features.UnknownError, features.UnknownIgnore:
	default:
		return common.NewConfigError("validate pipeline",
			fmt.Errorf("%w: unknown category policy %q", common.ErrInvalidConfig, c.Unknown))
	}
	return nil
}

// Report summarizes a completed pipeline run.
type Report struct {
	Started     time.Time
	RunID       string
	Fingerprint string
	CardPath    string
	Paths       artifact.Paths
	Labels      []string
	Columns     []string
	Importances []float64
	Confusion   [][]int
	Task        Task
	Metrics     RegressionMetrics
	Accuracy    float64
	Rows        int
	Dropped     int
	TrainRows   int
	TestRows    int
	Duration    time.Duration
	Recorded    bool
}

// Pipeline runs load, encode, train, evaluate and persist in order.
type Pipeline struct {
	// Recorder is optional; when nil runs are not registered.
	Recorder RunRecorder
	newID    func() string
	now      func() time.Time
}

// NewPipeline returns a pipeline that records runs with recorder.
func NewPipeline(recorder RunRecorder) *Pipeline {
	return &Pipeline{
		Recorder: recorder,
		newID:    uuid.NewString,
		now:      time.Now,
	}
}

// Run executes the pipeline. No artifact is written unless every earlier
// stage succeeded, and the configuration is validated before any file is
// opened.
func (p *Pipeline) Run(ctx context.Context, cfg PipelineConfig) (*Report, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	started := p.now()
	runID := p.newID()
	logger := slog.With("run_id", runID)

	raw, err := dataset.Load(cfg.DataPath, cfg.Load)
	if err != nil {
		return nil, err
	}
	table := raw.DropMissing()
	logger.Info("Loaded dataset",
		"path", cfg.DataPath,
		"rows", raw.Len(),
		"dropped", raw.Len()-table.Len())
	if table.Len() == 0 {
		return nil, common.NewDataError("prepare dataset",
			fmt.Errorf("%w: no rows left after dropping missing values", common.ErrEmptyDataset))
	}

	if cfg.Derive != nil {
		if table, err = cfg.Derive(table); err != nil {
			return nil, err
		}
	}

	schema, err := features.Fit(table, cfg.Predictors, cfg.Categorical)
	if err != nil {
		return nil, err
	}
	if cfg.Unknown != "" {
		schema.Unknown = cfg.Unknown
	}
	x, err := schema.Transform(table)
	if err != nil {
		return nil, err
	}

	report := &Report{
		Started: started,
		RunID:   runID,
		Task:    TaskClassify,
		Columns: schema.Columns(),
		Rows:    table.Len(),
		Dropped: raw.Len() - table.Len(),
	}
	model := &artifact.Model{
		Schema:    schema,
		Target:    cfg.Target,
		RunID:     runID,
		CreatedAt: started.UTC(),
	}

	if cfg.Task == TaskRegress {
		err = fitRegressor(ctx, cfg, table, x, model, report)
	} else {
		err = fitClassifier(ctx, cfg, table, x, model, report)
	}
	if err != nil {
		return nil, err
	}

	fingerprint, err := dataset.Fingerprint(cfg.DataPath)
	if err != nil {
		return nil, err
	}
	report.Fingerprint = strconv.FormatUint(fingerprint, 16)

	names := cfg.Names.WithDefaults()
	var opts []artifact.SaveOption
	if cfg.WriteCard {
		opts = append(opts, artifact.WithCard(p.card(cfg, report, names)))
	}
	paths, err := artifact.Save(cfg.OutDir, model, report.Labels, names, opts...)
	if err != nil {
		return nil, err
	}
	report.Paths = paths
	report.CardPath = paths.Card

	if p.Recorder != nil {
		if err := p.Recorder.SaveRun(ctx, p.run(cfg, report)); err != nil {
			common.LogError(err, "Failed to record training run", common.Fields{"run_id": runID})
		} else {
			report.Recorded = true
		}
	}

	if report.Task == TaskRegress {
		logger.Info("Training complete",
			"task", report.Task,
			"r2", report.Metrics.R2,
			"rmse", report.Metrics.RMSE,
			"model", paths.Model)
	} else {
		logger.Info("Training complete",
			"task", report.Task,
			"accuracy", report.Accuracy,
			"classes", len(report.Labels),
			"model", paths.Model)
	}
	return report, nil
}

// fitClassifier factorizes the target and fits a classification forest.
func fitClassifier(ctx context.Context, cfg PipelineConfig, table *dataset.Table, x [][]float64, m *artifact.Model, r *Report) error {
	targetValues, err := table.Column(cfg.Target)
	if err != nil {
		return err
	}
	codes, labels := features.Factorize(targetValues)

	result, err := TrainEvaluate(ctx, x, codes, cfg.Train)
	if err != nil {
		return err
	}
	m.Forest = result.Model

	r.Labels = labels
	r.Importances = result.Model.Importances()
	r.Confusion = result.Confusion
	r.Accuracy = result.Accuracy
	r.TrainRows = len(result.Train)
	r.TestRows = len(result.Test)
	r.Duration = result.Duration
	return nil
}

// fitRegressor fits a regression forest on the numeric target. The label
// table of a regression run is empty.
func fitRegressor(ctx context.Context, cfg PipelineConfig, table *dataset.Table, x [][]float64, m *artifact.Model, r *Report) error {
	y, err := table.Float(cfg.Target)
	if err != nil {
		return err
	}

	result, err := TrainEvaluateRegression(ctx, x, y, cfg.Train)
	if err != nil {
		return err
	}
	m.Regressor = result.Model

	r.Task = TaskRegress
	r.Labels = []string{}
	r.Importances = result.Model.Importances()
	r.Metrics = result.Metrics
	r.TrainRows = len(result.Train)
	r.TestRows = len(result.Test)
	r.Duration = result.Duration
	return nil
}

func (p *Pipeline) card(cfg PipelineConfig, r *Report, names artifact.Names) artifact.Card {
	importances := make(map[string]float64, len(r.Columns))
	for i, name := range r.Columns {
		if i < len(r.Importances) {
			importances[name] = r.Importances[i]
		}
	}
	return artifact.Card{
		CreatedAt:     r.Started.UTC(),
		RunID:         r.RunID,
		Dataset:       cfg.DataPath,
		Target:        cfg.Target,
		ModelFile:     names.Model,
		LabelsFile:    names.Labels,
		Features:      r.Columns,
		Classes:       r.Labels,
		Importances:   importances,
		Task:          string(r.Task),
		Accuracy:      r.Accuracy,
		R2:            r.Metrics.R2,
		RMSE:          r.Metrics.RMSE,
		TrainFraction: cfg.Train.TrainFraction,
		Seed:          cfg.Train.Seed,
		Trees:         cfg.Train.Forest.NEstimators,
		TrainRows:     r.TrainRows,
		TestRows:      r.TestRows,
	}
}

func (p *Pipeline) run(cfg PipelineConfig, r *Report) *storage.Run {
	return &storage.Run{
		ID:            r.RunID,
		Dataset:       cfg.DataPath,
		Fingerprint:   r.Fingerprint,
		Target:        cfg.Target,
		Task:          string(r.Task),
		Features:      r.Columns,
		Classes:       r.Labels,
		Accuracy:      r.Accuracy,
		R2:            r.Metrics.R2,
		RMSE:          r.Metrics.RMSE,
		TrainFraction: cfg.Train.TrainFraction,
		Seed:          cfg.Train.Seed,
		Trees:         cfg.Train.Forest.NEstimators,
		TrainRows:     r.TrainRows,
		TestRows:      r.TestRows,
		ModelPath:     r.Paths.Model,
		LabelsPath:    r.Paths.Labels,
		CardPath:      r.CardPath,
		Duration:      r.Duration,
		CreatedAt:     r.Started.UTC(),
	}
}
