package main

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/Veraticus/gradebook/internal/cli"
	"github.com/Veraticus/gradebook/internal/features"
	"github.com/Veraticus/gradebook/internal/training"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func trainCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "train",
		Short: "Train a random forest and save the model and label table",
		Long: `Load a dataset, drop rows with missing values, one-hot encode the
categorical predictors, split into train and test sets, fit a random forest
and report its test accuracy. Regression presets such as students predict the
numeric target itself and report R² and RMSE instead. The fitted model and the
code to label lookup table are written to the output directory.

Presets: ` + strings.Join(training.PresetNames(), ", ") + `

Examples:
  # Train on the penguin dataset with the default 80/20 split
  gradebook train --data penguins-raw.csv

  # Predict final exam scores for students, with a model card
  gradebook train --preset students --data students.csv --card

  # Classify students directly as pass or fail
  gradebook train --preset students-pass --data students.csv --stratify

  # Custom columns
  gradebook train --data data.csv --target label \
    --features age,income,city --categorical city`,
		RunE: runTrain,
	}

	cmd.Flags().String("preset", "penguins", "dataset preset ("+strings.Join(training.PresetNames(), ", ")+")")
	cmd.Flags().String("data", "penguins-raw.csv", "input data file")
	cmd.Flags().String("encoding", "", "input encoding (utf-8, gbk, gb18030; default from preset)")
	cmd.Flags().String("delimiter", ",", "field delimiter (use 'tab' for tabs)")
	cmd.Flags().String("target", "", "target column (overrides preset)")
	cmd.Flags().String("task", "", "classify or regress (overrides preset)")
	cmd.Flags().StringSlice("features", nil, "predictor columns (overrides preset)")
	cmd.Flags().StringSlice("categorical", nil, "categorical predictor columns")
	cmd.Flags().Float64("train-fraction", 0.8, "fraction of rows used for training, in (0, 1)")
	cmd.Flags().Int64("seed", 0, "random seed for the split and the forest")
	cmd.Flags().Int("trees", 100, "number of trees")
	cmd.Flags().Int("max-depth", 0, "maximum tree depth (0 = unlimited)")
	cmd.Flags().Int("min-samples-leaf", 1, "minimum rows per leaf")
	cmd.Flags().Int("max-features", 0, "features tried per split (0 = sqrt)")
	cmd.Flags().Int("workers", 0, "trees fitted in parallel (0 = one per CPU)")
	cmd.Flags().Bool("stratify", false, "keep class proportions in both splits")
	cmd.Flags().String("out-dir", ".", "directory for the model and label files")
	cmd.Flags().Bool("card", false, "also write a YAML model card")
	cmd.Flags().Bool("allow-unknown", false, "encode categories unseen in training as all zeros instead of failing")
	cmd.Flags().Bool("no-record", false, "do not record the run in the registry")
	cmd.Flags().Bool("no-progress", false, "hide the progress bar")
	cmd.Flags().Bool("details", false, "print feature importances and the confusion matrix")

	return cmd
}

func runTrain(cmd *cobra.Command, _ []string) error {
	err := bindFlags(cmd, map[string]string{
		"train.preset":           "preset",
		"data.path":              "data",
		"data.delimiter":         "delimiter",
		"train.fraction":         "train-fraction",
		"train.seed":             "seed",
		"train.trees":            "trees",
		"train.max_depth":        "max-depth",
		"train.min_samples_leaf": "min-samples-leaf",
		"train.max_features":     "max-features",
		"train.workers":          "workers",
		"train.stratify":         "stratify",
		"artifacts.dir":          "out-dir",
		"artifacts.card":         "card",
	})
	if err != nil {
		return err
	}
	// Only explicit flags override the preset's columns and encoding.
	for key, flag := range map[string]string{
		"train.target":      "target",
		"train.task":        "task",
		"train.features":    "features",
		"train.categorical": "categorical",
		"data.encoding":     "encoding",
	} {
		if cmd.Flags().Changed(flag) {
			if err := bindFlags(cmd, map[string]string{key: flag}); err != nil {
				return err
			}
		}
	}
	if allow, _ := cmd.Flags().GetBool("allow-unknown"); allow {
		viper.Set("train.unknown", string(features.UnknownIgnore))
	}

	settings, err := loadSettings()
	if err != nil {
		return err
	}
	cfg, err := settings.Pipeline()
	if err != nil {
		return err
	}
	// Fail on bad parameters before touching the registry or any file.
	if err := cfg.Validate(); err != nil {
		return err
	}

	interruptHandler := cli.NewInterruptHandler(cmd.ErrOrStderr())
	ctx := interruptHandler.HandleInterrupts(cmd.Context(), "Training", true)

	if noProgress, _ := cmd.Flags().GetBool("no-progress"); !noProgress {
		cfg.Train.Progress = cli.NewTreeProgress(cmd.ErrOrStderr(), cfg.Train.Forest.NEstimators).Update
	}

	pipeline := training.NewPipeline(nil)
	noRecord, _ := cmd.Flags().GetBool("no-record")
	if !noRecord && !settings.Database.Disable {
		store, err := initStorage(ctx, settings)
		if err != nil {
			slog.Warn("Run registry unavailable, the run will not be recorded", "error", err)
		} else {
			defer func() { _ = store.Close() }()
			pipeline.Recorder = store
		}
	}

	report, err := pipeline.Run(ctx, cfg)
	if err != nil {
		if interruptHandler.WasInterrupted() {
			return fmt.Errorf("training interrupted: %w", err)
		}
		return err
	}

	out := cmd.OutOrStdout()
	regression := report.Task == training.TaskRegress
	if regression {
		fmt.Fprintln(out, cli.FormatRegressionSuccess(report.Metrics.R2, report.Metrics.RMSE))
	} else {
		fmt.Fprintln(out, cli.FormatTrainSuccess(report.Accuracy))
	}

	if details, _ := cmd.Flags().GetBool("details"); details {
		fmt.Fprintln(out)
		fmt.Fprintln(out, cli.RenderBox(cli.ChartIcon+" Feature importance", cli.RenderImportances(report.Columns, report.Importances, 10)))
		if regression {
			fmt.Fprintln(out, cli.SubtleStyle.Render(fmt.Sprintf("Mean absolute error on the test rows: %.3f", report.Metrics.MAE)))
		} else {
			fmt.Fprintln(out, cli.RenderBox(cli.CheckIcon+" Confusion matrix (rows: actual)", cli.RenderConfusion(report.Labels, report.Confusion)))
		}
		fmt.Fprintln(out, cli.SubtleStyle.Render(fmt.Sprintf(
			"%d rows (%d dropped) · %d train / %d test · run %s",
			report.Rows, report.Dropped, report.TrainRows, report.TestRows, report.RunID)))
	}

	slog.Debug("Artifacts written",
		"model", report.Paths.Model,
		"labels", report.Paths.Labels,
		"card", report.CardPath,
		"recorded", report.Recorded)
	return nil
}
