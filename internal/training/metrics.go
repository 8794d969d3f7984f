package training

import (
	"fmt"
	"math"

	"github.com/Veraticus/gradebook/internal/common"
	"gonum.org/v1/gonum/stat"
)

// Accuracy is the fraction of positions where yTrue and yPred agree.
func Accuracy(yTrue, yPred []int) (float64, error) {
	if len(yTrue) != len(yPred) {
		return 0, common.NewDataError("accuracy",
			fmt.Errorf("%w: %d true labels, %d predictions", common.ErrLengthMismatch, len(yTrue), len(yPred)))
	}
	if len(yTrue) == 0 {
		return 0, common.NewDataError("accuracy", common.ErrEmptyDataset)
	}
	correct := 0
	for i := range yTrue {
		if yTrue[i] == yPred[i] {
			correct++
		}
	}
	return float64(correct) / float64(len(yTrue)), nil
}

// ConfusionMatrix counts predictions per (true, predicted) class pair.
// Row i holds the rows whose true class is i.
func ConfusionMatrix(yTrue, yPred []int, numClasses int) ([][]int, error) {
	if len(yTrue) != len(yPred) {
		return nil, common.NewDataError("confusion matrix",
			fmt.Errorf("%w: %d true labels, %d predictions", common.ErrLengthMismatch, len(yTrue), len(yPred)))
	}
	m := make([][]int, numClasses)
	for i := range m {
		m[i] = make([]int, numClasses)
	}
	for i := range yTrue {
		t, p := yTrue[i], yPred[i]
		if t < 0 || t >= numClasses || p < 0 || p >= numClasses {
			return nil, common.NewDataError("confusion matrix",
				fmt.Errorf("class pair (%d,%d) at row %d outside [0,%d)", t, p, i, numClasses))
		}
		m[t][p]++
	}
	return m, nil
}

// RegressionMetrics scores real-valued predictions on held-out rows.
type RegressionMetrics struct {
	MAE  float64
	RMSE float64
	R2   float64
}

// Regression computes mean absolute error, root mean squared error and the
// coefficient of determination. R2 is 0 when the true values are constant.
func Regression(yTrue, yPred []float64) (RegressionMetrics, error) {
	if len(yTrue) != len(yPred) {
		return RegressionMetrics{}, common.NewDataError("regression metrics",
			fmt.Errorf("%w: %d true values, %d predictions", common.ErrLengthMismatch, len(yTrue), len(yPred)))
	}
	if len(yTrue) == 0 {
		return RegressionMetrics{}, common.NewDataError("regression metrics", common.ErrEmptyDataset)
	}

	var abs, sq float64
	for i := range yTrue {
		d := yPred[i] - yTrue[i]
		abs += math.Abs(d)
		sq += d * d
	}
	n := float64(len(yTrue))
	m := RegressionMetrics{
		MAE:  abs / n,
		RMSE: math.Sqrt(sq / n),
		R2:   stat.RSquaredFrom(yPred, yTrue, nil),
	}
	if math.IsNaN(m.R2) || math.IsInf(m.R2, 0) {
		m.R2 = 0
	}
	return m, nil
}
