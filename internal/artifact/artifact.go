// Package artifact persists a fitted model and its label lookup table.
//
// The model and the labels are two independent files so either can be
// reloaded without the other and without the training data. Save writes
// every file through a temp file and commits them together: if any rename
// fails, files already moved into place are rolled back to what was there
// before, so a failed save never leaves a partial or mismatched artifact set.
package artifact

import (
	"bytes"
	"encoding/gob"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Veraticus/gradebook/internal/common"
	"github.com/Veraticus/gradebook/internal/features"
	"github.com/Veraticus/gradebook/internal/forest"
)

// FormatVersion is bumped whenever the encoded Model layout changes
// incompatibly.
const FormatVersion = 1

// Default artifact file names.
const (
	DefaultModelFile  = "rfc_model.gob"
	DefaultLabelsFile = "output_uniques.json"
	DefaultCardFile   = "model_card.yaml"
)

// ErrFormatVersion is returned when a model file was written by an
// incompatible version.
var ErrFormatVersion = errors.New("unsupported model format version")

// ErrNotClassifier is returned when class probabilities are requested from
// a regression model.
var ErrNotClassifier = errors.New("model predicts values, not classes")

// ErrNotRegressor is returned when a value is requested from a classifier.
var ErrNotRegressor = errors.New("model predicts classes, not values")

// Model bundles a forest with the feature schema it was trained on. Exactly
// one of Forest and Regressor is set.
type Model struct {
	CreatedAt time.Time
	Schema    *features.Schema
	Forest    *forest.Forest
	Regressor *forest.Regressor
	Target    string
	RunID     string
	Version   int
}

// Regression reports whether the model predicts a numeric value.
func (m *Model) Regression() bool {
	return m.Regressor != nil
}

// Trees returns the ensemble size.
func (m *Model) Trees() int {
	if m.Regressor != nil {
		return len(m.Regressor.Trees)
	}
	if m.Forest != nil {
		return len(m.Forest.Trees)
	}
	return 0
}

func (m *Model) width() int {
	if m.Regressor != nil {
		return m.Regressor.NumFeatures
	}
	return m.Forest.NumFeatures
}

func (m *Model) complete() bool {
	return m != nil && m.Schema != nil && (m.Forest == nil) != (m.Regressor == nil)
}

// Names are the file names used inside the artifact directory.
type Names struct {
	Model  string
	Labels string
	Card   string
}

// DefaultNames returns the conventional artifact file names.
func DefaultNames() Names {
	return Names{Model: DefaultModelFile, Labels: DefaultLabelsFile, Card: DefaultCardFile}
}

// WithDefaults fills empty names with the defaults.
func (n Names) WithDefaults() Names {
	defaults := DefaultNames()
	if n.Model == "" {
		n.Model = defaults.Model
	}
	if n.Labels == "" {
		n.Labels = defaults.Labels
	}
	if n.Card == "" {
		n.Card = defaults.Card
	}
	return n
}

// Paths are the final locations of a saved artifact set. Card is empty when
// no card was written.
type Paths struct {
	Model  string
	Labels string
	Card   string
}

// SaveOption adds optional files to a Save call.
type SaveOption func(*saveOptions)

type saveOptions struct {
	card *Card
}

// WithCard writes card next to the model, committed with it.
func WithCard(card Card) SaveOption {
	return func(o *saveOptions) { o.card = &card }
}

// pending is a temp file waiting to be renamed onto final.
type pending struct {
	tmp   string
	final string
	op    string
}

// rename is swapped in tests to simulate a failing commit.
var rename = os.Rename

// Save writes the model and the label lookup table into dir. A regression
// model has no classes; its label table is empty.
func Save(dir string, m *Model, labels []string, names Names, opts ...SaveOption) (Paths, error) {
	if !m.complete() {
		return Paths{}, errors.New("save artifacts: model is incomplete")
	}
	var o saveOptions
	for _, opt := range opts {
		opt(&o)
	}
	names = names.WithDefaults()
	if m.Version == 0 {
		m.Version = FormatVersion
	}
	if labels == nil {
		labels = []string{}
	}

	var modelBuf bytes.Buffer
	if err := gob.NewEncoder(&modelBuf).Encode(m); err != nil {
		return Paths{}, fmt.Errorf("encode model: %w", err)
	}
	labelBytes, err := json.MarshalIndent(labels, "", "  ")
	if err != nil {
		return Paths{}, fmt.Errorf("encode labels: %w", err)
	}
	var cardBytes []byte
	if o.card != nil {
		if cardBytes, err = encodeCard(*o.card); err != nil {
			return Paths{}, err
		}
	}

	if err := os.MkdirAll(dir, 0750); err != nil {
		return Paths{}, common.NewIOError("create artifact directory", dir, err)
	}

	paths := Paths{
		Model:  filepath.Join(dir, names.Model),
		Labels: filepath.Join(dir, names.Labels),
	}
	type file struct {
		name string
		op   string
		data []byte
	}
	files := []file{
		{names.Labels, "write labels", labelBytes},
		{names.Model, "write model", modelBuf.Bytes()},
	}
	if cardBytes != nil {
		paths.Card = filepath.Join(dir, names.Card)
		files = append(files, file{names.Card, "write model card", cardBytes})
	}

	var staged []pending
	for _, f := range files {
		final := filepath.Join(dir, f.name)
		if err := checkTarget(final, f.op); err != nil {
			discard(staged)
			return Paths{}, err
		}
		tmp, err := writeTemp(dir, f.name, f.data)
		if err != nil {
			discard(staged)
			return Paths{}, err
		}
		staged = append(staged, pending{tmp: tmp, final: final, op: f.op})
	}

	if err := commit(staged); err != nil {
		return Paths{}, err
	}

	slog.Debug("Saved artifacts",
		"model", paths.Model,
		"labels", paths.Labels,
		"card", paths.Card,
		"classes", len(labels))
	return paths, nil
}

// checkTarget fails when final exists and is not a regular file. Renaming
// over a directory fails late, after other files may have been replaced.
func checkTarget(final, op string) error {
	info, err := os.Lstat(final)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return common.NewIOError(op, final, err)
	}
	if !info.Mode().IsRegular() {
		return common.NewIOError(op, final, fmt.Errorf("%s exists and is not a regular file", info.Mode().Type()))
	}
	return nil
}

// commit renames every temp file onto its final name. Existing files are
// first moved aside; on failure the new files are removed and the old ones
// restored.
func commit(files []pending) error {
	type moved struct {
		final  string
		backup string
	}
	var (
		placed  []string
		backups []moved
	)
	rollback := func(from int) {
		discard(files[from:])
		for _, final := range placed {
			removeQuietly(final)
		}
		for _, b := range backups {
			if err := rename(b.backup, b.final); err != nil {
				slog.Error("failed to restore artifact", "path", b.final, "backup", b.backup, "error", err)
			}
		}
	}

	for i, f := range files {
		if _, err := os.Lstat(f.final); err == nil {
			backup := strings.TrimSuffix(f.tmp, ".tmp") + ".bak"
			if err := rename(f.final, backup); err != nil {
				rollback(i)
				return common.NewIOError(f.op, f.final, err)
			}
			backups = append(backups, moved{final: f.final, backup: backup})
		}
		if err := rename(f.tmp, f.final); err != nil {
			rollback(i)
			return common.NewIOError(f.op, f.final, err)
		}
		placed = append(placed, f.final)
	}

	for _, b := range backups {
		removeQuietly(b.backup)
	}
	return nil
}

func discard(files []pending) {
	for _, f := range files {
		removeQuietly(f.tmp)
	}
}

// writeTemp writes data to a hidden temp file next to the final name and
// returns its path.
func writeTemp(dir, name string, data []byte) (string, error) {
	f, err := os.CreateTemp(dir, "."+name+"-*.tmp")
	if err != nil {
		return "", common.NewIOError("create temp file", filepath.Join(dir, name), err)
	}
	tmp := f.Name()

	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		removeQuietly(tmp)
		return "", common.NewIOError("write temp file", tmp, err)
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		removeQuietly(tmp)
		return "", common.NewIOError("sync temp file", tmp, err)
	}
	if err := f.Close(); err != nil {
		removeQuietly(tmp)
		return "", common.NewIOError("close temp file", tmp, err)
	}
	return tmp, nil
}

func removeQuietly(path string) {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Error("failed to remove file", "path", path, "error", err)
	}
}

// LoadModel reads a model written by Save.
func LoadModel(path string) (*Model, error) {
	f, err := os.Open(path) // #nosec G304 - path is chosen by the operator
	if err != nil {
		return nil, common.NewIOError("open model", path, err)
	}
	defer f.Close()

	var m Model
	if err := gob.NewDecoder(f).Decode(&m); err != nil {
		return nil, common.NewDataError("decode model", fmt.Errorf("%s: %w", path, err))
	}
	if m.Version != FormatVersion {
		return nil, common.NewDataError("decode model", fmt.Errorf("%w: %d", ErrFormatVersion, m.Version))
	}
	if !m.complete() {
		return nil, common.NewDataError("decode model", fmt.Errorf("%s: model is incomplete", path))
	}
	if m.Schema.Width() != m.width() {
		return nil, common.NewDataError("decode model",
			fmt.Errorf("%w: schema has %d columns, forest expects %d",
				common.ErrLengthMismatch, m.Schema.Width(), m.width()))
	}
	return &m, nil
}

// LoadLabels reads a label lookup table written by Save.
func LoadLabels(path string) ([]string, error) {
	data, err := os.ReadFile(path) // #nosec G304 - path is chosen by the operator
	if err != nil {
		return nil, common.NewIOError("read labels", path, err)
	}
	var labels []string
	if err := json.Unmarshal(data, &labels); err != nil {
		return nil, common.NewDataError("decode labels", fmt.Errorf("%s: %w", path, err))
	}
	return labels, nil
}

// Predict encodes a raw record with the model's schema and returns the
// predicted class code.
func (m *Model) Predict(row map[string]string) (int, error) {
	if m.Regression() {
		return 0, common.NewDataError("predict", ErrNotClassifier)
	}
	x, err := m.Schema.EncodeRow(row)
	if err != nil {
		return 0, err
	}
	return m.Forest.Predict(x)
}

// PredictProba returns the class probabilities for a raw record.
func (m *Model) PredictProba(row map[string]string) ([]float64, error) {
	if m.Regression() {
		return nil, common.NewDataError("predict", ErrNotClassifier)
	}
	x, err := m.Schema.EncodeRow(row)
	if err != nil {
		return nil, err
	}
	return m.Forest.PredictProba(x)
}

// PredictLabel predicts a record and maps the code through labels.
func (m *Model) PredictLabel(row map[string]string, labels []string) (string, error) {
	code, err := m.Predict(row)
	if err != nil {
		return "", err
	}
	label, ok := features.Lookup(labels, code)
	if !ok {
		return "", common.NewDataError("lookup label",
			fmt.Errorf("code %d has no entry in a table of %d labels", code, len(labels)))
	}
	return label, nil
}

// PredictValue returns a regression model's estimate for a raw record.
func (m *Model) PredictValue(row map[string]string) (float64, error) {
	if !m.Regression() {
		return 0, common.NewDataError("predict", ErrNotRegressor)
	}
	x, err := m.Schema.EncodeRow(row)
	if err != nil {
		return 0, err
	}
	return m.Regressor.Predict(x)
}

// Importances returns the per-column importances of whichever forest is set.
func (m *Model) Importances() []float64 {
	if m.Regressor != nil {
		return m.Regressor.Importances()
	}
	return m.Forest.Importances()
}
