package regression

import (
	"errors"
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/stat"
)

// Evaluation holds hold-out metrics for a fitted model.
type Evaluation struct {
	R2           float64            `json:"r2"`
	RMSE         float64            `json:"rmse"`
	TrainSize    int                `json:"trainSize"`
	TestSize     int                `json:"testSize"`
	Coefficients map[string]float64 `json:"coefficients"`
	Importance   map[string]float64 `json:"importance"`
}

// Split returns shuffled train and test indices for n observations. The test
// share is ceil(n*testRatio), at least one observation when n > 1 and
// testRatio > 0. The same seed always yields the same split.
func Split(n int, testRatio float64, seed int64) (train, test []int, err error) {
	if n <= 0 {
		return nil, nil, ErrNotEnoughData
	}
	if testRatio < 0 || testRatio >= 1 {
		return nil, nil, fmt.Errorf("test ratio %v must be in [0, 1)", testRatio)
	}

	testSize := int(math.Ceil(float64(n) * testRatio))
	if testSize >= n {
		testSize = n - 1
	}

	perm := rand.New(rand.NewSource(seed)).Perm(n)
	return perm[testSize:], perm[:testSize], nil
}

// Evaluate scores the model on a hold-out set.
func Evaluate(m *LinearModel, x [][]float64, y []float64) (Evaluation, error) {
	eval := Evaluation{
		TestSize:     len(y),
		Coefficients: m.CoefficientMap(),
		Importance:   m.Importance(),
	}
	if len(y) == 0 {
		return eval, errors.New("empty evaluation set")
	}

	predictions, err := m.PredictAll(x)
	if err != nil {
		return eval, err
	}
	if len(predictions) != len(y) {
		return eval, fmt.Errorf("got %d predictions for %d targets", len(predictions), len(y))
	}

	sumSquares := 0.0
	for i := range y {
		diff := y[i] - predictions[i]
		sumSquares += diff * diff
	}
	eval.RMSE = math.Sqrt(sumSquares / float64(len(y)))
	eval.R2 = stat.RSquaredFrom(predictions, y, nil)
	return eval, nil
}

// Subset returns the rows of x and y selected by indices.
func Subset(x [][]float64, y []float64, indices []int) ([][]float64, []float64) {
	xs := make([][]float64, len(indices))
	ys := make([]float64, len(indices))
	for i, idx := range indices {
		xs[i] = x[idx]
		ys[i] = y[idx]
	}
	return xs, ys
}
