package main

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/Veraticus/gradebook/internal/artifact"
	"github.com/Veraticus/gradebook/internal/cli"
	"github.com/Veraticus/gradebook/internal/storage"
	"github.com/spf13/cobra"
)

func runsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Inspect recorded training runs",
	}
	cmd.AddCommand(runsListCmd(), runsShowCmd(), runsDeleteCmd())
	return cmd
}

func runsListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List training runs, newest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			limit, _ := cmd.Flags().GetInt("limit")

			store, err := openRegistry(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			runs, err := store.ListRuns(cmd.Context(), limit)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), cli.RenderRunsTable(runs))
			return nil
		},
	}
	cmd.Flags().IntP("limit", "n", 20, "maximum runs to show (0 = all)")
	return cmd
}

func runsShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show ID|latest",
		Short: "Show one training run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openRegistry(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			var run *storage.Run
			if args[0] == "latest" {
				run, err = store.LatestRun(cmd.Context())
			} else {
				run, err = store.GetRun(cmd.Context(), args[0])
			}
			if errors.Is(err, storage.ErrNotFound) {
				fmt.Fprintln(cmd.OutOrStdout(), cli.FormatWarning("No training run "+args[0]))
				return nil
			}
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, cli.RenderRun(run))

			// The card may have been moved or deleted since the run.
			if run.CardPath != "" {
				card, err := artifact.ReadCard(run.CardPath)
				if err != nil {
					slog.Warn("Model card unreadable", "path", run.CardPath, "error", err)
					return nil
				}
				columns := make([]string, 0, len(card.Importances))
				values := make([]float64, 0, len(card.Importances))
				for name, v := range card.Importances {
					columns = append(columns, name)
					values = append(values, v)
				}
				fmt.Fprintln(out, cli.RenderBox(cli.ChartIcon+" Feature importance", cli.RenderImportances(columns, values, 10)))
			}
			return nil
		},
	}
}

func runsDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a run record (artifact files are kept)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openRegistry(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if err := store.DeleteRun(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess("Deleted run "+args[0]))
			return nil
		},
	}
}

func openRegistry(cmd *cobra.Command) (*storage.SQLiteStorage, error) {
	settings, err := loadSettings()
	if err != nil {
		return nil, err
	}
	return initStorage(cmd.Context(), settings)
}
