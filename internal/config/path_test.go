package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)
	t.Setenv("GRADEBOOK_DATA", "/srv/data")

	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "empty", in: "", want: ""},
		{name: "home", in: "~", want: home},
		{name: "under home", in: "~/models/rfc.gob", want: filepath.Join(home, "models", "rfc.gob")},
		{name: "tilde user untouched", in: "~alice/x", want: "~alice/x"},
		{name: "env var", in: "$GRADEBOOK_DATA/penguins.csv", want: "/srv/data/penguins.csv"},
		{name: "plain", in: "out/model.gob", want: "out/model.gob"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExpandPath(tt.in))
		})
	}
}

func TestDefaultConfigDir(t *testing.T) {
	dir, err := DefaultConfigDir()
	require.NoError(t, err)
	assert.Equal(t, "gradebook", filepath.Base(dir))
}
