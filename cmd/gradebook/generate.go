package main

import (
	"fmt"
	"math/rand"

	"github.com/Veraticus/gradebook/internal/cli"
	"github.com/Veraticus/gradebook/internal/common"
	"github.com/Veraticus/gradebook/internal/dataset"
	"github.com/spf13/cobra"
)

func generateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:       "generate students|penguins",
		Short:     "Write a synthetic dataset as CSV",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"students", "penguins"},
		RunE:      runGenerate,
	}

	cmd.Flags().Int("rows", 200, "number of rows")
	cmd.Flags().Int64("seed", 42, "random seed")
	cmd.Flags().StringP("out", "o", "-", "output file (- for stdout)")

	return cmd
}

func runGenerate(cmd *cobra.Command, args []string) error {
	rows, _ := cmd.Flags().GetInt("rows")
	seed, _ := cmd.Flags().GetInt64("seed")
	out, _ := cmd.Flags().GetString("out")

	if rows <= 0 {
		return common.NewConfigError("generate",
			fmt.Errorf("%w: --rows must be positive, got %d", common.ErrInvalidConfig, rows))
	}

	rng := rand.New(rand.NewSource(seed))
	var table *dataset.Table
	switch args[0] {
	case "students":
		table = dataset.GenerateStudents(rows, rng)
	case "penguins":
		table = dataset.GeneratePenguins(rows, rng)
	default:
		return common.NewConfigError("generate",
			fmt.Errorf("%w: unknown dataset %q (want students or penguins)", common.ErrInvalidConfig, args[0]))
	}

	if out == "-" {
		if err := dataset.WriteCSV(cmd.OutOrStdout(), table); err != nil {
			return common.NewIOError("write dataset", "stdout", err)
		}
		return nil
	}
	if err := dataset.Save(out, table); err != nil {
		return err
	}
	fmt.Fprintln(cmd.ErrOrStderr(), cli.FormatSuccess(fmt.Sprintf("Wrote %d %s rows to %s", table.Len(), args[0], out)))
	return nil
}
