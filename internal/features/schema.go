// Package features turns raw table columns into the numeric matrix consumed by
// the classifier. The fitted Schema is the feature contract between training
// and inference: it fixes the column set, the column order and the known
// categories of every categorical predictor.
package features

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/Veraticus/gradebook/internal/common"
	"github.com/Veraticus/gradebook/internal/dataset"
)

// Kind distinguishes numeric pass-through columns from one-hot indicators.
type Kind string

const (
	// KindNumeric copies a parsed numeric value.
	KindNumeric Kind = "numeric"
	// KindIndicator is 1 when the source column equals Value, else 0.
	KindIndicator Kind = "indicator"
)

// UnknownPolicy decides what happens to a category never seen during fit.
type UnknownPolicy string

const (
	// UnknownError rejects the row with ErrUnknownCategory.
	UnknownError UnknownPolicy = "error"
	// UnknownIgnore encodes the whole indicator block as zeros and logs a warning.
	UnknownIgnore UnknownPolicy = "ignore"
)

// Feature is one column of the encoded matrix.
type Feature struct {
	Name   string
	Source string
	Value  string
	Kind   Kind
}

// Input describes one raw column a caller must supply at inference time.
type Input struct {
	Name       string
	Categories []string
}

// Categorical reports whether the input takes one of a fixed set of values.
func (i Input) Categorical() bool {
	return len(i.Categories) > 0
}

// Schema is a fitted one-hot layout.
type Schema struct {
	Unknown  UnknownPolicy
	Features []Feature
	Inputs   []Input
}

// Fit derives the layout from a table. Numeric predictors keep their relative
// order and come first; each categorical predictor then contributes one
// indicator per distinct observed value, sorted, named source_value.
func Fit(table *dataset.Table, predictors, categorical []string) (*Schema, error) {
	if len(predictors) == 0 {
		return nil, common.NewConfigError("fit schema", fmt.Errorf("%w: no predictor columns", common.ErrMissingConfig))
	}

	isCat := make(map[string]bool, len(categorical))
	for _, name := range categorical {
		isCat[name] = true
	}
	seen := make(map[string]bool, len(predictors))
	for _, name := range predictors {
		if seen[name] {
			return nil, common.NewConfigError("fit schema", fmt.Errorf("%w: predictor %q listed twice", common.ErrInvalidConfig, name))
		}
		seen[name] = true
		if !table.Has(name) {
			return nil, common.NewDataError("fit schema", fmt.Errorf("%w: %q", common.ErrUnknownColumn, name))
		}
	}
	for _, name := range categorical {
		if !seen[name] {
			return nil, common.NewConfigError("fit schema",
				fmt.Errorf("%w: categorical column %q is not a predictor", common.ErrInvalidConfig, name))
		}
	}

	schema := &Schema{Unknown: UnknownError}
	var blocks []Feature

	for _, name := range predictors {
		if !isCat[name] {
			if _, err := table.Float(name); err != nil {
				return nil, err
			}
			schema.Features = append(schema.Features, Feature{Name: name, Source: name, Kind: KindNumeric})
			schema.Inputs = append(schema.Inputs, Input{Name: name})
			continue
		}

		distinct, err := table.Distinct(name)
		if err != nil {
			return nil, err
		}
		values := categories(distinct)
		for _, v := range values {
			blocks = append(blocks, Feature{
				Name:   name + "_" + v,
				Source: name,
				Value:  v,
				Kind:   KindIndicator,
			})
		}
		schema.Inputs = append(schema.Inputs, Input{Name: name, Categories: values})
	}

	schema.Features = append(schema.Features, blocks...)
	return schema, nil
}

// Width returns the number of encoded columns.
func (s *Schema) Width() int {
	return len(s.Features)
}

// Columns returns the encoded column names in matrix order.
func (s *Schema) Columns() []string {
	out := make([]string, len(s.Features))
	for i, f := range s.Features {
		out[i] = f.Name
	}
	return out
}

// Transform encodes every record of table.
func (s *Schema) Transform(table *dataset.Table) ([][]float64, error) {
	positions := make(map[string]int, len(s.Inputs))
	for _, in := range s.Inputs {
		p, err := table.ColumnIndex(in.Name)
		if err != nil {
			return nil, err
		}
		positions[in.Name] = p
	}

	matrix := make([][]float64, table.Len())
	for r, row := range table.Rows {
		encoded, err := s.encode(func(name string) (string, bool) {
			return row[positions[name]], true
		})
		if err != nil {
			return nil, common.NewDataError("transform", fmt.Errorf("row %d: %w", r+1, err))
		}
		matrix[r] = encoded
	}
	return matrix, nil
}

// EncodeRow encodes a single inference record given as column -> raw value.
// Extra keys are ignored.
func (s *Schema) EncodeRow(values map[string]string) ([]float64, error) {
	encoded, err := s.encode(func(name string) (string, bool) {
		v, ok := values[name]
		return v, ok
	})
	if err != nil {
		return nil, common.NewDataError("encode row", err)
	}
	return encoded, nil
}

func (s *Schema) encode(lookup func(string) (string, bool)) ([]float64, error) {
	raw := make(map[string]string, len(s.Inputs))
	for _, in := range s.Inputs {
		v, ok := lookup(in.Name)
		if !ok || dataset.IsMissing(v) {
			return nil, fmt.Errorf("missing value for %q", in.Name)
		}
		v = strings.TrimSpace(v)
		if in.Categorical() && !contains(in.Categories, v) {
			if s.Unknown != UnknownIgnore {
				return nil, fmt.Errorf("%w: %q for column %q", common.ErrUnknownCategory, v, in.Name)
			}
			slog.Warn("Unknown category encoded as all zeros",
				"column", in.Name,
				"value", v)
		}
		raw[in.Name] = v
	}

	out := make([]float64, len(s.Features))
	for i, f := range s.Features {
		switch f.Kind {
		case KindNumeric:
			v, err := dataset.ParseFloat(raw[f.Source])
			if err != nil {
				return nil, fmt.Errorf("column %q: %w", f.Source, err)
			}
			out[i] = v
		case KindIndicator:
			if raw[f.Source] == f.Value {
				out[i] = 1
			}
		default:
			return nil, fmt.Errorf("feature %q has unknown kind %q", f.Name, f.Kind)
		}
	}
	return out, nil
}

// categories normalizes observed values the same way encode normalizes
// inputs: trimmed, deduplicated, sorted, missing markers dropped.
func categories(values []string) []string {
	seen := make(map[string]bool, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if dataset.IsMissing(v) || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

func contains(values []string, v string) bool {
	i := sort.SearchStrings(values, v)
	return i < len(values) && values[i] == v
}
