package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/Veraticus/gradebook/internal/artifact"
	"github.com/Veraticus/gradebook/internal/cli"
	"github.com/Veraticus/gradebook/internal/common"
	"github.com/Veraticus/gradebook/internal/features"
	"github.com/Veraticus/gradebook/internal/training"
	"github.com/spf13/cobra"
)

func predictCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "predict",
		Short: "Predict the class or score of one record with a saved model",
		Long: `Load a saved model and label table and predict one record. Values are
given as column=value pairs; with --interactive any missing column is asked
for on the terminal. A regression model prints the predicted value, and a
final_score prediction is followed by its pass or fail verdict.

Examples:
  gradebook predict --set island=Biscoe --set sex=MALE \
    --set "culmen length (mm)=45.1" ...

  gradebook predict --interactive --proba

  gradebook predict --out-dir students --set gender=female --set major=Physics ...`,
		RunE: runPredict,
	}

	cmd.Flags().String("out-dir", ".", "directory holding the model and label files")
	cmd.Flags().String("model", "", "model file (default: <out-dir>/"+artifact.DefaultModelFile+")")
	cmd.Flags().String("labels", "", "label file (default: <out-dir>/"+artifact.DefaultLabelsFile+")")
	cmd.Flags().StringArray("set", nil, "column=value pair (repeatable)")
	cmd.Flags().BoolP("interactive", "i", false, "prompt for missing values")
	cmd.Flags().Bool("allow-unknown", false, "encode unseen categories as all zeros instead of failing")
	cmd.Flags().Bool("proba", false, "print the probability of every class (classifiers only)")

	return cmd
}

func runPredict(cmd *cobra.Command, _ []string) error {
	if err := bindFlags(cmd, map[string]string{"artifacts.dir": "out-dir"}); err != nil {
		return err
	}
	settings, err := loadSettings()
	if err != nil {
		return err
	}

	modelPath, labelsPath := settings.ModelPaths()
	if path, _ := cmd.Flags().GetString("model"); path != "" {
		modelPath = path
	}
	if path, _ := cmd.Flags().GetString("labels"); path != "" {
		labelsPath = path
	}

	pairs, _ := cmd.Flags().GetStringArray("set")
	values, err := parseAssignments(pairs)
	if err != nil {
		return err
	}

	model, err := artifact.LoadModel(modelPath)
	if err != nil {
		return err
	}
	labels, err := artifact.LoadLabels(labelsPath)
	if err != nil {
		return err
	}
	if allow, _ := cmd.Flags().GetBool("allow-unknown"); allow {
		model.Schema.Unknown = features.UnknownIgnore
	}

	if interactive, _ := cmd.Flags().GetBool("interactive"); interactive {
		reader := cli.NewNonBlockingReader(cmd.InOrStdin())
		values, err = cli.PromptInputs(cmd.Context(), reader, cmd.ErrOrStderr(), model.Schema.Inputs, values)
		if err != nil {
			return err
		}
	}

	out := cmd.OutOrStdout()
	showProba, _ := cmd.Flags().GetBool("proba")

	if model.Regression() {
		value, err := model.PredictValue(values)
		if err != nil {
			return err
		}
		verdict, _ := training.Verdict(model.Target, value)
		if showProba {
			fmt.Fprintf(out, "%s %s\n", cli.BoldStyle.Render(model.Target+":"), cli.FormatScore(value, verdict))
			return nil
		}
		line := strconv.FormatFloat(value, 'f', 2, 64)
		if verdict != "" {
			line += " " + verdict
		}
		return writeLine(out, line)
	}

	label, err := model.PredictLabel(values, labels)
	if err != nil {
		return err
	}
	if showProba {
		proba, err := model.PredictProba(values)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%s %s\n", cli.BoldStyle.Render(model.Target+":"), cli.SuccessStyle.Render(label))
		fmt.Fprintln(out, cli.RenderProbabilities(labels, proba))
		return nil
	}
	return writeLine(out, label)
}

// writeLine prints plain output so it stays pipe friendly.
func writeLine(w io.Writer, line string) error {
	if _, err := fmt.Fprintln(w, line); err != nil {
		return common.NewIOError("write prediction", "stdout", err)
	}
	return nil
}
