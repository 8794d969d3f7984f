// Package config loads gradebook settings from the config file, GRADEBOOK_
// environment variables and command-line flags.
package config

import (
	"os"
	"path/filepath"
	"strings"
)

// EnvPrefix is the prefix of environment variables read by viper.
const EnvPrefix = "GRADEBOOK"

// ExpandPath expands a leading ~ and $VAR references in a file path.
func ExpandPath(path string) string {
	if path == "" {
		return path
	}

	if rest, ok := strings.CutPrefix(path, "~"); ok && (rest == "" || rest[0] == '/' || rest[0] == filepath.Separator) {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, rest)
		}
	}

	return os.ExpandEnv(path)
}

// DefaultConfigDir is the directory searched for config.yaml.
func DefaultConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "gradebook"), nil
}
