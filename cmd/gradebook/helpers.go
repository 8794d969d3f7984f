package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/Veraticus/gradebook/internal/common"
	"github.com/Veraticus/gradebook/internal/config"
	"github.com/Veraticus/gradebook/internal/storage"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// bindFlags binds command flags to viper keys. It runs when the command
// executes so that commands sharing a key do not override each other.
func bindFlags(cmd *cobra.Command, bindings map[string]string) error {
	for key, flag := range bindings {
		f := cmd.Flags().Lookup(flag)
		if f == nil {
			return fmt.Errorf("unknown flag %q", flag)
		}
		if err := viper.BindPFlag(key, f); err != nil {
			return fmt.Errorf("bind flag %q: %w", flag, err)
		}
	}
	return nil
}

// loadSettings merges config file, environment and bound flags.
func loadSettings() (*config.Settings, error) {
	return config.Load(viper.GetViper())
}

// initStorage opens and migrates the run registry.
func initStorage(ctx context.Context, settings *config.Settings) (*storage.SQLiteStorage, error) {
	store, err := storage.NewSQLiteStorage(settings.Database.Path)
	if err != nil {
		return nil, common.NewIOError("open registry", settings.Database.Path, err)
	}

	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

// parseAssignments turns column=value pairs into a record.
func parseAssignments(pairs []string) (map[string]string, error) {
	out := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		name, value, ok := strings.Cut(pair, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, common.NewConfigError("parse --set",
				fmt.Errorf("%w: %q is not column=value", common.ErrInvalidConfig, pair))
		}
		out[name] = strings.TrimSpace(value)
	}
	return out, nil
}
