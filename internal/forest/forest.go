package forest

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"runtime"
	"sync/atomic"

	"github.com/Veraticus/gradebook/internal/common"
	"golang.org/x/sync/errgroup"
)

// ErrNotFitted is returned when predicting with a forest that has no trees.
var ErrNotFitted = errors.New("forest has no trees")

// Params are the forest hyperparameters. Zero MaxDepth means unlimited and
// zero MaxFeatures means sqrt of the feature count.
type Params struct {
	NEstimators     int
	MaxDepth        int
	MinSamplesSplit int
	MinSamplesLeaf  int
	MaxFeatures     int
	Seed            int64
	NoBootstrap     bool
}

// DefaultParams mirrors the common random-forest defaults: 100 trees grown
// to purity with sqrt feature sampling.
func DefaultParams() Params {
	return Params{
		NEstimators:     100,
		MinSamplesSplit: 2,
		MinSamplesLeaf:  1,
	}
}

// Validate rejects hyperparameters that cannot produce a forest.
func (p Params) Validate() error {
	var problem string
	switch {
	case p.NEstimators < 1:
		problem = fmt.Sprintf("n_estimators must be at least 1, got %d", p.NEstimators)
	case p.MaxDepth < 0:
		problem = fmt.Sprintf("max_depth must not be negative, got %d", p.MaxDepth)
	case p.MinSamplesSplit < 2:
		problem = fmt.Sprintf("min_samples_split must be at least 2, got %d", p.MinSamplesSplit)
	case p.MinSamplesLeaf < 1:
		problem = fmt.Sprintf("min_samples_leaf must be at least 1, got %d", p.MinSamplesLeaf)
	case p.MaxFeatures < 0:
		problem = fmt.Sprintf("max_features must not be negative, got %d", p.MaxFeatures)
	default:
		return nil
	}
	return common.NewConfigError("validate forest params", fmt.Errorf("%w: %s", common.ErrInvalidConfig, problem))
}

func (p Params) featuresPerSplit(numFeatures int) int {
	if p.MaxFeatures > 0 {
		return min(p.MaxFeatures, numFeatures)
	}
	return max(1, int(math.Sqrt(float64(numFeatures))))
}

// Forest is a fitted classification ensemble. All fields are exported so the value can be
// encoded with encoding/gob.
type Forest struct {
	Trees       []Tree
	Params      Params
	NumClasses  int
	NumFeatures int
}

// Option configures a single Fit call.
type Option func(*fitOptions)

type fitOptions struct {
	progress func(done, total int)
	workers  int
}

// WithProgress registers a callback invoked after each tree is grown. It is
// called from worker goroutines and must be safe for concurrent use.
func WithProgress(fn func(done, total int)) Option {
	return func(o *fitOptions) { o.progress = fn }
}

// WithWorkers bounds the number of trees grown in parallel.
func WithWorkers(n int) Option {
	return func(o *fitOptions) { o.workers = n }
}

// Fit grows a forest on x (n rows of equal width) and y (codes in
// [0, numClasses)). Tree i is seeded with Params.Seed+i, so the result does
// not depend on scheduling.
func Fit(ctx context.Context, x [][]float64, y []int, numClasses int, params Params, opts ...Option) (*Forest, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	width, err := checkTraining(x, y, numClasses)
	if err != nil {
		return nil, err
	}

	trees, err := growTrees(ctx, x, params, opts, func() criterion {
		return newGini(y, numClasses)
	})
	if err != nil {
		return nil, err
	}
	return &Forest{
		Trees:       trees,
		Params:      params,
		NumClasses:  numClasses,
		NumFeatures: width,
	}, nil
}

// growTrees fits params.NEstimators trees in parallel. Each tree gets its own
// criterion from newCrit and its own seeded random source.
func growTrees(ctx context.Context, x [][]float64, params Params, opts []Option, newCrit func() criterion) ([]Tree, error) {
	o := fitOptions{workers: runtime.GOMAXPROCS(0)}
	for _, opt := range opts {
		opt(&o)
	}

	trees := make([]Tree, params.NEstimators)
	var done atomic.Int64
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, o.workers))

	for i := range params.NEstimators {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			rng := rand.New(rand.NewSource(params.Seed + int64(i)))
			samples := sampleRows(len(x), !params.NoBootstrap, rng)
			trees[i] = newBuilder(x, newCrit(), params, rng).build(samples)

			if o.progress != nil {
				o.progress(int(done.Add(1)), params.NEstimators)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("fit forest: %w", err)
	}
	return trees, nil
}

func checkTraining(x [][]float64, y []int, numClasses int) (int, error) {
	width, err := checkMatrix(x, len(y))
	if err != nil {
		return 0, err
	}
	if numClasses < 1 {
		return 0, common.NewDataError("fit forest", fmt.Errorf("need at least one class, got %d", numClasses))
	}
	for i, c := range y {
		if c < 0 || c >= numClasses {
			return 0, common.NewDataError("fit forest",
				fmt.Errorf("label %d at row %d outside [0,%d)", c, i, numClasses))
		}
	}
	return width, nil
}

// checkMatrix validates x against a target of length n and returns the row
// width.
func checkMatrix(x [][]float64, n int) (int, error) {
	if len(x) == 0 {
		return 0, common.NewDataError("fit forest", common.ErrEmptyDataset)
	}
	if len(x) != n {
		return 0, common.NewDataError("fit forest",
			fmt.Errorf("%w: %d feature rows, %d targets", common.ErrLengthMismatch, len(x), n))
	}
	width := len(x[0])
	if width == 0 {
		return 0, common.NewDataError("fit forest", errors.New("feature rows have no columns"))
	}
	for i, row := range x {
		if len(row) != width {
			return 0, common.NewDataError("fit forest",
				fmt.Errorf("%w: row %d has %d columns, want %d", common.ErrRaggedRows, i, len(row), width))
		}
	}
	return width, nil
}

// sampleRows draws a bootstrap sample of row indices, or returns every index
// when bootstrap is off.
func sampleRows(n int, bootstrap bool, rng *rand.Rand) []int {
	out := make([]int, n)
	for i := range out {
		if bootstrap {
			out[i] = rng.Intn(n)
		} else {
			out[i] = i
		}
	}
	return out
}

// PredictProba returns the mean of the trees' leaf distributions for row.
func (f *Forest) PredictProba(row []float64) ([]float64, error) {
	if len(f.Trees) == 0 {
		return nil, ErrNotFitted
	}
	if len(row) != f.NumFeatures {
		return nil, common.NewDataError("predict",
			fmt.Errorf("%w: row has %d columns, model expects %d", common.ErrLengthMismatch, len(row), f.NumFeatures))
	}
	out := make([]float64, f.NumClasses)
	for i := range f.Trees {
		for c, p := range f.Trees[i].leaf(row).Dist {
			out[c] += p
		}
	}
	for c := range out {
		out[c] /= float64(len(f.Trees))
	}
	return out, nil
}

// Predict returns the most probable class code. Ties go to the lower code.
func (f *Forest) Predict(row []float64) (int, error) {
	proba, err := f.PredictProba(row)
	if err != nil {
		return 0, err
	}
	return argmax(proba), nil
}

// PredictBatch predicts every row.
func (f *Forest) PredictBatch(rows [][]float64) ([]int, error) {
	out := make([]int, len(rows))
	for i, row := range rows {
		code, err := f.Predict(row)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		out[i] = code
	}
	return out, nil
}

// Importances returns the mean decrease in impurity per feature, normalized
// to sum to 1. A forest of stumps that never split returns all zeros.
func (f *Forest) Importances() []float64 {
	return importances(f.Trees, f.NumFeatures)
}

func importances(trees []Tree, width int) []float64 {
	out := make([]float64, width)
	for i := range trees {
		perTree := make([]float64, width)
		total := 0.0
		for _, n := range trees[i].Nodes {
			if n.Leaf {
				continue
			}
			perTree[n.Feature] += n.Gain
			total += n.Gain
		}
		if total == 0 {
			continue
		}
		for j := range perTree {
			out[j] += perTree[j] / total
		}
	}
	sum := 0.0
	for _, v := range out {
		sum += v
	}
	if sum > 0 {
		for j := range out {
			out[j] /= sum
		}
	}
	return out
}

func argmax(values []float64) int {
	best := 0
	for i := 1; i < len(values); i++ {
		if values[i] > values[best] {
			best = i
		}
	}
	return best
}
