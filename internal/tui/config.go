package tui

import (
	"github.com/Veraticus/gradebook/internal/analysis"
	"github.com/Veraticus/gradebook/internal/artifact"
	"github.com/Veraticus/gradebook/internal/dataset"
	"github.com/Veraticus/gradebook/internal/tui/themes"
)

// SyntheticRows is the size of the generated table shown when the student
// data file is missing.
const SyntheticRows = 200

// Config holds TUI configuration.
type Config struct {
	Theme      themes.Theme
	Cache      *dataset.Cache
	Model      *artifact.Model
	ModelErr   error
	DataPath   string
	FocusMajor string
	Labels     []string
	Load       dataset.LoadOptions
	Columns    analysis.StudentColumns
	Seed       int64
	Width      int
	Height     int
}

// Option is a functional option for configuring the TUI.
type Option func(*Config)

// defaultConfig returns the default configuration.
func defaultConfig() Config {
	return Config{
		Theme:      themes.Default,
		Load:       dataset.DefaultLoadOptions(),
		Columns:    analysis.DefaultStudentColumns(),
		FocusMajor: analysis.DefaultFocusMajor,
		Seed:       42,
		Width:      100,
		Height:     30,
	}
}

// WithData sets the student data file shown on the analysis page.
func WithData(path string, opts dataset.LoadOptions) Option {
	return func(c *Config) {
		c.DataPath = path
		c.Load = opts
	}
}

// WithCache shares a dataset cache with the caller.
func WithCache(cache *dataset.Cache) Option {
	return func(c *Config) {
		c.Cache = cache
	}
}

// WithColumns sets the student column mapping.
func WithColumns(cols analysis.StudentColumns) Option {
	return func(c *Config) {
		c.Columns = cols
	}
}

// WithFocusMajor sets the major reported in detail.
func WithFocusMajor(major string) Option {
	return func(c *Config) {
		c.FocusMajor = major
	}
}

// WithModel sets the classifier used by the prediction page.
func WithModel(model *artifact.Model, labels []string) Option {
	return func(c *Config) {
		c.Model = model
		c.Labels = labels
	}
}

// WithModelError records why no model could be loaded.
func WithModelError(err error) Option {
	return func(c *Config) {
		c.ModelErr = err
	}
}

// WithTheme sets the visual theme.
func WithTheme(theme themes.Theme) Option {
	return func(c *Config) {
		c.Theme = theme
	}
}

// WithSize sets the initial terminal size.
func WithSize(width, height int) Option {
	return func(c *Config) {
		c.Width = width
		c.Height = height
	}
}

// WithSeed sets the seed of the generated fallback data.
func WithSeed(seed int64) Option {
	return func(c *Config) {
		c.Seed = seed
	}
}
