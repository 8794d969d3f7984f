package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/Veraticus/gradebook/internal/analysis"
	"github.com/Veraticus/gradebook/internal/artifact"
	"github.com/Veraticus/gradebook/internal/common"
	"github.com/Veraticus/gradebook/internal/dataset"
	"github.com/Veraticus/gradebook/internal/features"
	"github.com/Veraticus/gradebook/internal/forest"
	"github.com/Veraticus/gradebook/internal/training"
	"github.com/spf13/viper"
)

// DefaultDatabasePath is where the run registry lives unless configured.
const DefaultDatabasePath = "$HOME/.local/share/gradebook/runs.db"

// Settings is the merged configuration file, environment and flags.
type Settings struct {
	Data      DataSettings      `mapstructure:"data"`
	Students  StudentSettings   `mapstructure:"students"`
	Analysis  AnalysisSettings  `mapstructure:"analysis"`
	Artifacts ArtifactSettings  `mapstructure:"artifacts"`
	Database  DatabaseSettings  `mapstructure:"database"`
	Dashboard DashboardSettings `mapstructure:"dashboard"`
	Train     TrainSettings     `mapstructure:"train"`
}

// DataSettings locates the training and student data files.
type DataSettings struct {
	Path     string `mapstructure:"path"`
	Students string `mapstructure:"students"`
	// Encoding is empty to use the preset's encoding, else utf-8.
	Encoding  string `mapstructure:"encoding"`
	Delimiter string `mapstructure:"delimiter"`
}

// StudentSettings maps analysis statistics onto column names.
type StudentSettings struct {
	Columns analysis.StudentColumns `mapstructure:"columns"`
}

// AnalysisSettings configures the analysis report.
type AnalysisSettings struct {
	Major     string `mapstructure:"major"`
	ChartsDir string `mapstructure:"charts_dir"`
}

// ArtifactSettings names the output directory and files.
type ArtifactSettings struct {
	Dir    string `mapstructure:"dir"`
	Model  string `mapstructure:"model"`
	Labels string `mapstructure:"labels"`
	Card   bool   `mapstructure:"card"`
}

// DatabaseSettings locates the run registry.
type DatabaseSettings struct {
	Path    string `mapstructure:"path"`
	Disable bool   `mapstructure:"disable"`
}

// DashboardSettings configures the interactive UI.
type DashboardSettings struct {
	Theme string `mapstructure:"theme"`
}

// TrainSettings are the split and forest hyperparameters.
type TrainSettings struct {
	Preset          string   `mapstructure:"preset"`
	Target          string   `mapstructure:"target"`
	Task            string   `mapstructure:"task"`
	Unknown         string   `mapstructure:"unknown"`
	Features        []string `mapstructure:"features"`
	Categorical     []string `mapstructure:"categorical"`
	TrainFraction   float64  `mapstructure:"fraction"`
	Seed            int64    `mapstructure:"seed"`
	Trees           int      `mapstructure:"trees"`
	MaxDepth        int      `mapstructure:"max_depth"`
	MinSamplesSplit int      `mapstructure:"min_samples_split"`
	MinSamplesLeaf  int      `mapstructure:"min_samples_leaf"`
	MaxFeatures     int      `mapstructure:"max_features"`
	Workers         int      `mapstructure:"workers"`
	Stratify        bool     `mapstructure:"stratify"`
}

// SetDefaults registers every default on v so that Load works without a
// config file.
func SetDefaults(v *viper.Viper) {
	forestDefaults := forest.DefaultParams()
	trainDefaults := training.DefaultConfig()
	names := artifact.DefaultNames()
	cols := analysis.DefaultStudentColumns()

	v.SetDefault("data.path", "penguins-raw.csv")
	v.SetDefault("data.students", "student_data_adjusted_rounded.csv")
	v.SetDefault("data.delimiter", ",")

	v.SetDefault("students.columns.major", cols.Major)
	v.SetDefault("students.columns.gender", cols.Gender)
	v.SetDefault("students.columns.study_hours", cols.StudyHours)
	v.SetDefault("students.columns.attendance", cols.Attendance)
	v.SetDefault("students.columns.midterm", cols.Midterm)
	v.SetDefault("students.columns.final", cols.Final)
	v.SetDefault("students.columns.male", cols.Male)
	v.SetDefault("students.columns.female", cols.Female)

	v.SetDefault("analysis.major", analysis.DefaultFocusMajor)

	v.SetDefault("artifacts.dir", ".")
	v.SetDefault("artifacts.model", names.Model)
	v.SetDefault("artifacts.labels", names.Labels)

	v.SetDefault("database.path", DefaultDatabasePath)

	v.SetDefault("dashboard.theme", "default")

	v.SetDefault("train.preset", "penguins")
	v.SetDefault("train.unknown", "error")
	v.SetDefault("train.fraction", trainDefaults.TrainFraction)
	v.SetDefault("train.trees", forestDefaults.NEstimators)
	v.SetDefault("train.max_depth", forestDefaults.MaxDepth)
	v.SetDefault("train.min_samples_split", forestDefaults.MinSamplesSplit)
	v.SetDefault("train.min_samples_leaf", forestDefaults.MinSamplesLeaf)
	v.SetDefault("train.max_features", forestDefaults.MaxFeatures)
}

// Load unmarshals v and expands every path.
func Load(v *viper.Viper) (*Settings, error) {
	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, common.NewConfigError("load settings", err)
	}
	s.Data.Path = ExpandPath(s.Data.Path)
	s.Data.Students = ExpandPath(s.Data.Students)
	s.Artifacts.Dir = ExpandPath(s.Artifacts.Dir)
	s.Analysis.ChartsDir = ExpandPath(s.Analysis.ChartsDir)
	s.Database.Path = ExpandPath(s.Database.Path)

	if _, err := s.LoadOptions(); err != nil {
		return nil, err
	}
	return &s, nil
}

// LoadOptions converts the data settings for dataset.Load.
func (s *Settings) LoadOptions() (dataset.LoadOptions, error) {
	opts := dataset.DefaultLoadOptions()
	if s.Data.Encoding != "" {
		opts.Encoding = s.Data.Encoding
	}
	switch d := s.Data.Delimiter; {
	case d == "":
	case d == `\t` || d == "tab":
		opts.Delimiter = '\t'
	case len([]rune(d)) == 1:
		opts.Delimiter = []rune(d)[0]
	default:
		return opts, common.NewConfigError("load settings",
			fmt.Errorf("%w: delimiter %q must be a single character", common.ErrInvalidConfig, d))
	}
	return opts, nil
}

// Pipeline builds the training configuration. A preset fills target and
// columns; explicit target or feature settings override it.
func (s *Settings) Pipeline() (training.PipelineConfig, error) {
	cfg := training.DefaultPipelineConfig()
	cfg.Derive = nil
	if s.Train.Preset != "" {
		preset, err := training.LookupPreset(s.Train.Preset)
		if err != nil {
			return cfg, err
		}
		cfg.ApplyPreset(preset)
	}

	load, err := s.LoadOptions()
	if err != nil {
		return cfg, err
	}
	// An unset encoding keeps the preset's.
	presetEncoding := cfg.Load.Encoding
	cfg.Load = load
	if s.Data.Encoding == "" {
		cfg.Load.Encoding = presetEncoding
	}

	if s.Train.Target != "" {
		cfg.Target = s.Train.Target
	}
	if s.Train.Task != "" {
		cfg.Task = training.Task(strings.ToLower(strings.TrimSpace(s.Train.Task)))
	}
	if len(s.Train.Features) > 0 {
		cfg.Predictors = trimAll(s.Train.Features)
		cfg.Categorical = trimAll(s.Train.Categorical)
	} else if len(s.Train.Categorical) > 0 {
		cfg.Categorical = trimAll(s.Train.Categorical)
	}

	cfg.DataPath = s.Data.Path
	cfg.OutDir = s.Artifacts.Dir
	cfg.Names = artifact.Names{Model: s.Artifacts.Model, Labels: s.Artifacts.Labels, Card: artifact.DefaultCardFile}
	cfg.WriteCard = s.Artifacts.Card
	cfg.Unknown = features.UnknownPolicy(s.Train.Unknown)

	cfg.Train.TrainFraction = s.Train.TrainFraction
	cfg.Train.Seed = s.Train.Seed
	cfg.Train.Workers = s.Train.Workers
	cfg.Train.Stratify = s.Train.Stratify
	cfg.Train.Forest = forest.Params{
		NEstimators:     s.Train.Trees,
		MaxDepth:        s.Train.MaxDepth,
		MinSamplesSplit: s.Train.MinSamplesSplit,
		MinSamplesLeaf:  s.Train.MinSamplesLeaf,
		MaxFeatures:     s.Train.MaxFeatures,
	}
	return cfg, nil
}

// ModelPaths returns the model and label files inside the artifact directory.
func (s *Settings) ModelPaths() (string, string) {
	return filepath.Join(s.Artifacts.Dir, s.Artifacts.Model), filepath.Join(s.Artifacts.Dir, s.Artifacts.Labels)
}

func trimAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
