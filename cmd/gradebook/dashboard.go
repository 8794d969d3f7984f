package main

import (
	"github.com/Veraticus/gradebook/internal/artifact"
	"github.com/Veraticus/gradebook/internal/tui"
	"github.com/Veraticus/gradebook/internal/tui/themes"
	"github.com/spf13/cobra"
)

func dashboardCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Open the interactive analysis and prediction dashboard",
		Long: `Open a terminal dashboard with three pages: an overview of the dataset
and model, the student analysis, and a prediction form backed by the saved
model. Press ? for key bindings.`,
		RunE: runDashboard,
	}

	cmd.Flags().String("data", "student_data_adjusted_rounded.csv", "student data file")
	cmd.Flags().String("out-dir", ".", "directory holding the model and label files")
	cmd.Flags().String("major", "", "focus major for the analysis page")
	cmd.Flags().String("theme", "", "color theme (default, chalk)")
	cmd.Flags().Int64("seed", 42, "seed for generated data")

	return cmd
}

func runDashboard(cmd *cobra.Command, _ []string) error {
	err := bindFlags(cmd, map[string]string{
		"data.students":   "data",
		"artifacts.dir":   "out-dir",
		"analysis.major":  "major",
		"dashboard.theme": "theme",
	})
	if err != nil {
		return err
	}
	settings, err := loadSettings()
	if err != nil {
		return err
	}
	opts, err := settings.LoadOptions()
	if err != nil {
		return err
	}
	seed, _ := cmd.Flags().GetInt64("seed")

	tuiOpts := []tui.Option{
		tui.WithData(settings.Data.Students, opts),
		tui.WithColumns(settings.Students.Columns),
		tui.WithFocusMajor(settings.Analysis.Major),
		tui.WithTheme(themes.ByName(settings.Dashboard.Theme)),
		tui.WithSeed(seed),
	}

	// A missing model only disables the prediction page.
	modelPath, labelsPath := settings.ModelPaths()
	model, err := artifact.LoadModel(modelPath)
	if err == nil {
		var labels []string
		if labels, err = artifact.LoadLabels(labelsPath); err == nil {
			tuiOpts = append(tuiOpts, tui.WithModel(model, labels))
		}
	}
	if err != nil {
		tuiOpts = append(tuiOpts, tui.WithModelError(err))
	}

	return tui.Run(cmd.Context(), tuiOpts...)
}
