package forest

import (
	"bytes"
	"context"
	"encoding/gob"
	"math"
	"math/rand"
	"sync/atomic"
	"testing"

	"github.com/Veraticus/gradebook/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// blobs returns two well separated clusters in two dimensions.
func blobs(n int, seed int64) ([][]float64, []int) {
	rng := rand.New(rand.NewSource(seed))
	x := make([][]float64, n)
	y := make([]int, n)
	for i := range n {
		c := i % 2
		x[i] = []float64{float64(c)*10 + rng.Float64(), rng.Float64()}
		y[i] = c
	}
	return x, y
}

func TestFitSeparatesClusters(t *testing.T) {
	x, y := blobs(40, 1)
	params := DefaultParams()
	params.NEstimators = 15
	params.MaxFeatures = 2
	params.Seed = 42

	f, err := Fit(context.Background(), x, y, 2, params)
	require.NoError(t, err)
	require.Len(t, f.Trees, 15)

	preds, err := f.PredictBatch(x)
	require.NoError(t, err)
	assert.Equal(t, y, preds)

	proba, err := f.PredictProba([]float64{10.5, 0.5})
	require.NoError(t, err)
	assert.InDelta(t, 1.0, proba[0]+proba[1], 1e-9)
	assert.Greater(t, proba[1], proba[0])

	imp := f.Importances()
	assert.Greater(t, imp[0], imp[1])
}

func TestFitIsDeterministic(t *testing.T) {
	x, y := blobs(30, 3)
	params := DefaultParams()
	params.NEstimators = 10
	params.Seed = 7

	a, err := Fit(context.Background(), x, y, 2, params, WithWorkers(1))
	require.NoError(t, err)
	b, err := Fit(context.Background(), x, y, 2, params, WithWorkers(8))
	require.NoError(t, err)

	assert.Equal(t, a.Trees, b.Trees)
}

func TestFitReportsProgress(t *testing.T) {
	x, y := blobs(10, 1)
	params := DefaultParams()
	params.NEstimators = 5

	var calls atomic.Int32
	_, err := Fit(context.Background(), x, y, 2, params, WithProgress(func(done, total int) {
		calls.Add(1)
		assert.Equal(t, 5, total)
		assert.LessOrEqual(t, done, total)
	}))
	require.NoError(t, err)
	assert.Equal(t, int32(5), calls.Load())
}

func TestFitHonorsCancellation(t *testing.T) {
	x, y := blobs(10, 1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Fit(ctx, x, y, 2, DefaultParams())
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFitRejectsBadInput(t *testing.T) {
	tests := []struct {
		check  func(error) bool
		name   string
		x      [][]float64
		y      []int
		params Params
	}{
		{name: "empty", params: DefaultParams(), check: common.IsDataError},
		{
			name:   "length mismatch",
			x:      [][]float64{{1}, {2}},
			y:      []int{0},
			params: DefaultParams(),
			check:  common.IsDataError,
		},
		{
			name:   "ragged rows",
			x:      [][]float64{{1, 2}, {2}},
			y:      []int{0, 1},
			params: DefaultParams(),
			check:  common.IsDataError,
		},
		{
			name:   "label out of range",
			x:      [][]float64{{1}, {2}},
			y:      []int{0, 2},
			params: DefaultParams(),
			check:  common.IsDataError,
		},
		{
			name:   "no trees",
			x:      [][]float64{{1}, {2}},
			y:      []int{0, 1},
			params: Params{MinSamplesSplit: 2, MinSamplesLeaf: 1},
			check:  common.IsConfigError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Fit(context.Background(), tt.x, tt.y, 2, tt.params)
			require.Error(t, err)
			assert.True(t, tt.check(err), "unexpected error: %v", err)
		})
	}
}

func TestPredictWrongWidth(t *testing.T) {
	x, y := blobs(10, 1)
	params := DefaultParams()
	params.NEstimators = 3
	f, err := Fit(context.Background(), x, y, 2, params)
	require.NoError(t, err)

	_, err = f.Predict([]float64{1})
	assert.True(t, common.IsDataError(err))

	_, err = (&Forest{}).Predict([]float64{1})
	assert.ErrorIs(t, err, ErrNotFitted)
}

func TestMaxDepthLimitsTrees(t *testing.T) {
	x, y := blobs(40, 5)
	params := DefaultParams()
	params.NEstimators = 4
	params.MaxDepth = 1

	f, err := Fit(context.Background(), x, y, 2, params)
	require.NoError(t, err)
	for i := range f.Trees {
		assert.LessOrEqual(t, f.Trees[i].Depth(), 1)
	}
}

func TestGobRoundTrip(t *testing.T) {
	x, y := blobs(20, 2)
	params := DefaultParams()
	params.NEstimators = 5
	f, err := Fit(context.Background(), x, y, 2, params)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, gob.NewEncoder(&buf).Encode(f))

	var back Forest
	require.NoError(t, gob.NewDecoder(&buf).Decode(&back))

	want, err := f.PredictBatch(x)
	require.NoError(t, err)
	got, err := back.PredictBatch(x)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestFitSeparatesAdjacentFloats(t *testing.T) {
	tests := []struct {
		name   string
		lo, hi float64
	}{
		{name: "decimal rounding", lo: 0.3, hi: 0.30000000000000004},
		{name: "next after", lo: 1.5, hi: math.Nextafter(1.5, 2)},
		{name: "negative", lo: math.Nextafter(-2, -3), hi: -2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			params := DefaultParams()
			params.NEstimators = 1
			params.NoBootstrap = true

			f, err := Fit(context.Background(), [][]float64{{tt.lo}, {tt.hi}}, []int{0, 1}, 2, params)
			require.NoError(t, err)
			require.Equal(t, 1, f.Trees[0].Depth())

			preds, err := f.PredictBatch([][]float64{{tt.lo}, {tt.hi}})
			require.NoError(t, err)
			assert.Equal(t, []int{0, 1}, preds)
		})
	}
}

func TestThresholdStaysBelowUpperValue(t *testing.T) {
	assert.InDelta(t, 1.5, threshold(1, 2), 0)
	assert.Equal(t, 0.3, threshold(0.3, 0.30000000000000004))

	lo := 1e300
	hi := math.Nextafter(lo, math.Inf(1))
	assert.Less(t, threshold(lo, hi), hi)
}

// line returns y = 3x + 1 for x in [0, n).
func line(n int) ([][]float64, []float64) {
	x := make([][]float64, n)
	y := make([]float64, n)
	for i := range n {
		x[i] = []float64{float64(i), float64(i % 3)}
		y[i] = 3*float64(i) + 1
	}
	return x, y
}

func TestFitRegressorFollowsTarget(t *testing.T) {
	x, y := line(60)
	params := DefaultParams()
	params.NEstimators = 20
	params.MaxFeatures = 2
	params.Seed = 4

	r, err := FitRegressor(context.Background(), x, y, params)
	require.NoError(t, err)
	require.Len(t, r.Trees, 20)

	got, err := r.Predict([]float64{30, 0})
	require.NoError(t, err)
	assert.InDelta(t, 91, got, 6)

	low, err := r.Predict([]float64{2, 2})
	require.NoError(t, err)
	assert.Less(t, low, got)

	imp := r.Importances()
	assert.Greater(t, imp[0], imp[1])
}

func TestFitRegressorIsDeterministic(t *testing.T) {
	x, y := line(30)
	params := DefaultParams()
	params.NEstimators = 6
	params.Seed = 9

	a, err := FitRegressor(context.Background(), x, y, params, WithWorkers(1))
	require.NoError(t, err)
	b, err := FitRegressor(context.Background(), x, y, params, WithWorkers(4))
	require.NoError(t, err)
	assert.Equal(t, a.Trees, b.Trees)
}

func TestFitRegressorAdjacentFloats(t *testing.T) {
	params := DefaultParams()
	params.NEstimators = 1
	params.NoBootstrap = true

	r, err := FitRegressor(context.Background(), [][]float64{{0.3}, {0.30000000000000004}}, []float64{10, 20}, params)
	require.NoError(t, err)

	got, err := r.PredictBatch([][]float64{{0.3}, {0.30000000000000004}})
	require.NoError(t, err)
	assert.Equal(t, []float64{10, 20}, got)
}

func TestFitRegressorRejectsBadInput(t *testing.T) {
	_, err := FitRegressor(context.Background(), nil, nil, DefaultParams())
	assert.ErrorIs(t, err, common.ErrEmptyDataset)

	_, err = FitRegressor(context.Background(), [][]float64{{1}, {2}}, []float64{1}, DefaultParams())
	assert.ErrorIs(t, err, common.ErrLengthMismatch)

	_, err = FitRegressor(context.Background(), [][]float64{{1}, {2}}, []float64{1, math.NaN()}, DefaultParams())
	assert.True(t, common.IsDataError(err))

	_, err = (&Regressor{}).Predict([]float64{1})
	assert.ErrorIs(t, err, ErrNotFitted)
}
