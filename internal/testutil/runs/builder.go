// Package runs provides a fluent builder for seeding training runs into a
// test registry.
//
// Example usage:
//
//	seeded := runs.NewBuilder(t).
//		WithRun("run-a", 0.91).
//		WithHistory(3).
//		Build(ctx, store)
package runs

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/Veraticus/gradebook/internal/storage"
)

// Store is the part of the registry the builder writes to.
type Store interface {
	SaveRun(ctx context.Context, run *storage.Run) error
}

// Epoch is the creation time of the first seeded run. Each following run is
// one hour later so ordering is unambiguous.
var Epoch = time.Date(2024, 9, 1, 8, 0, 0, 0, time.UTC)

// Runs is a collection of seeded runs in insertion order.
type Runs []*storage.Run

// Find returns the run with the given id, or nil.
func (r Runs) Find(id string) *storage.Run {
	for _, run := range r {
		if run.ID == id {
			return run
		}
	}
	return nil
}

// MustFind returns the run with the given id or fails the test.
func (r Runs) MustFind(t *testing.T, id string) *storage.Run {
	t.Helper()
	run := r.Find(id)
	if run == nil {
		t.Fatalf("run %q not found in test data", id)
	}
	return run
}

// IDs returns the run ids in insertion order.
func (r Runs) IDs() []string {
	ids := make([]string, len(r))
	for i, run := range r {
		ids[i] = run.ID
	}
	return ids
}

// Builder collects runs to seed.
type Builder struct {
	t    *testing.T
	runs Runs
}

// NewBuilder creates a new run builder for the given test.
func NewBuilder(t *testing.T) *Builder {
	t.Helper()
	return &Builder{t: t}
}

// WithRun adds a penguin run with the given id and accuracy.
func (b *Builder) WithRun(id string, accuracy float64) *Builder {
	run := Penguin(id, Epoch.Add(time.Duration(len(b.runs))*time.Hour))
	run.Accuracy = accuracy
	b.runs = append(b.runs, run)
	return b
}

// WithHistory adds n runs named run-001, run-002 and so on.
func (b *Builder) WithHistory(n int) *Builder {
	for i := range n {
		b.WithRun(fmt.Sprintf("run-%03d", len(b.runs)+1), 0.8+float64(i%5)*0.03)
	}
	return b
}

// With adds a fully specified run.
func (b *Builder) With(run *storage.Run) *Builder {
	b.runs = append(b.runs, run)
	return b
}

// Build saves every run and returns them. Failures stop the test.
func (b *Builder) Build(ctx context.Context, store Store) Runs {
	b.t.Helper()
	for _, run := range b.runs {
		if err := store.SaveRun(ctx, run); err != nil {
			b.t.Fatalf("failed to seed run %q: %v", run.ID, err)
		}
	}
	return b.runs
}

// Penguin returns a valid run for the penguin preset.
func Penguin(id string, created time.Time) *storage.Run {
	return &storage.Run{
		ID:            id,
		Dataset:       "testdata/penguins.csv",
		Fingerprint:   "9f86d081884c7d65",
		Target:        "species",
		Features:      []string{"bill_length_mm", "body_mass_g", "island_Biscoe", "island_Dream"},
		Classes:       []string{"Adelie", "Gentoo", "Chinstrap"},
		Accuracy:      0.95,
		TrainFraction: 0.8,
		Seed:          42,
		Trees:         100,
		TrainRows:     266,
		TestRows:      67,
		ModelPath:     "out/rfc_model.gob",
		LabelsPath:    "out/output_uniques.json",
		Duration:      1500 * time.Millisecond,
		CreatedAt:     created,
	}
}
