package forest

import (
	"context"
	"fmt"
	"math"

	"github.com/Veraticus/gradebook/internal/common"
)

// Regressor is a fitted regression ensemble. Its prediction is the mean of
// the trees' leaf means.
type Regressor struct {
	Trees       []Tree
	Params      Params
	NumFeatures int
}

// FitRegressor grows a regression forest on x and real targets y, splitting
// on variance reduction. Seeding follows Fit.
func FitRegressor(ctx context.Context, x [][]float64, y []float64, params Params, opts ...Option) (*Regressor, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	width, err := checkMatrix(x, len(y))
	if err != nil {
		return nil, err
	}
	for i, v := range y {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, common.NewDataError("fit forest",
				fmt.Errorf("%w: target %v at row %d", common.ErrNotNumeric, v, i))
		}
	}

	trees, err := growTrees(ctx, x, params, opts, func() criterion {
		return newMSE(y)
	})
	if err != nil {
		return nil, err
	}
	return &Regressor{
		Trees:       trees,
		Params:      params,
		NumFeatures: width,
	}, nil
}

// Predict returns the forest's estimate for row.
func (r *Regressor) Predict(row []float64) (float64, error) {
	if len(r.Trees) == 0 {
		return 0, ErrNotFitted
	}
	if len(row) != r.NumFeatures {
		return 0, common.NewDataError("predict",
			fmt.Errorf("%w: row has %d columns, model expects %d", common.ErrLengthMismatch, len(row), r.NumFeatures))
	}
	sum := 0.0
	for i := range r.Trees {
		sum += r.Trees[i].leaf(row).Value
	}
	return sum / float64(len(r.Trees)), nil
}

// PredictBatch predicts every row.
func (r *Regressor) PredictBatch(rows [][]float64) ([]float64, error) {
	out := make([]float64, len(rows))
	for i, row := range rows {
		v, err := r.Predict(row)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		out[i] = v
	}
	return out, nil
}

// Importances returns the normalized mean variance decrease per feature.
func (r *Regressor) Importances() []float64 {
	return importances(r.Trees, r.NumFeatures)
}
