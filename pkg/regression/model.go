// Package regression fits and evaluates the linear model that estimates a
// vehicle's current depreciation from its registration year and mileage.
package regression

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// ErrNotEnoughData is returned when there are fewer observations than
// coefficients to estimate.
var ErrNotEnoughData = errors.New("not enough observations to fit the model")

// LinearModel is a fitted ordinary least squares model over standardized
// features. It is immutable and safe for concurrent use.
type LinearModel struct {
	FeatureNames []string  `json:"featureNames"`
	Means        []float64 `json:"means"`
	Scales       []float64 `json:"scales"`
	Intercept    float64   `json:"intercept"`
	// Coefficients apply to standardized features.
	Coefficients []float64 `json:"coefficients"`
}

// Fit standardizes each column of x (population mean and standard deviation,
// a constant column is left unscaled with a zero coefficient) and solves the
// least squares problem y = intercept + Σ coef_j * z_j.
func Fit(x [][]float64, y []float64, names []string) (*LinearModel, error) {
	if len(x) == 0 {
		return nil, ErrNotEnoughData
	}
	if len(x) != len(y) {
		return nil, fmt.Errorf("got %d feature rows for %d targets", len(x), len(y))
	}
	width := len(x[0])
	if width == 0 {
		return nil, errors.New("no features supplied")
	}
	if names != nil && len(names) != width {
		return nil, fmt.Errorf("got %d feature names for %d features", len(names), width)
	}
	for i, row := range x {
		if len(row) != width {
			return nil, fmt.Errorf("row %d has %d features, expected %d", i, len(row), width)
		}
	}
	if len(x) < width+1 {
		return nil, ErrNotEnoughData
	}

	model := &LinearModel{
		FeatureNames: featureNames(names, width),
		Means:        make([]float64, width),
		Scales:       make([]float64, width),
	}

	// A constant column carries no information; it keeps a zero coefficient
	// and stays out of the solve.
	var active []int
	column := make([]float64, len(x))
	for j := 0; j < width; j++ {
		for i, row := range x {
			column[i] = row[j]
		}
		mean, variance := stat.PopMeanVariance(column, nil)
		scale := math.Sqrt(variance)
		if scale == 0 {
			scale = 1
		} else {
			active = append(active, j)
		}
		model.Means[j] = mean
		model.Scales[j] = scale
	}

	design := mat.NewDense(len(x), len(active)+1, nil)
	for i, row := range x {
		design.Set(i, 0, 1)
		for k, j := range active {
			design.Set(i, k+1, (row[j]-model.Means[j])/model.Scales[j])
		}
	}

	var beta mat.VecDense
	if err := beta.SolveVec(design, mat.NewVecDense(len(y), append([]float64(nil), y...))); err != nil {
		return nil, fmt.Errorf("failed to solve least squares: %w", err)
	}

	model.Intercept = beta.AtVec(0)
	model.Coefficients = make([]float64, width)
	for k, j := range active {
		model.Coefficients[j] = beta.AtVec(k + 1)
	}
	return model, nil
}

// Predict returns the model's estimate for one observation.
func (m *LinearModel) Predict(features ...float64) (float64, error) {
	if len(features) != len(m.Coefficients) {
		return 0, fmt.Errorf("expected %d features, got %d", len(m.Coefficients), len(features))
	}
	prediction := m.Intercept
	for j, v := range features {
		prediction += m.Coefficients[j] * (v - m.Means[j]) / m.Scales[j]
	}
	return prediction, nil
}

// PredictAll returns one estimate per row of x.
func (m *LinearModel) PredictAll(x [][]float64) ([]float64, error) {
	predictions := make([]float64, len(x))
	for i, row := range x {
		p, err := m.Predict(row...)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		predictions[i] = p
	}
	return predictions, nil
}

// Importance returns each feature's share of the summed absolute
// standardized coefficients, in percent.
func (m *LinearModel) Importance() map[string]float64 {
	total := 0.0
	for _, c := range m.Coefficients {
		total += math.Abs(c)
	}
	importance := make(map[string]float64, len(m.Coefficients))
	for j, c := range m.Coefficients {
		if total == 0 {
			importance[m.FeatureNames[j]] = 0
			continue
		}
		importance[m.FeatureNames[j]] = math.Abs(c) / total * 100
	}
	return importance
}

// CoefficientMap returns the standardized coefficients keyed by feature name.
func (m *LinearModel) CoefficientMap() map[string]float64 {
	coefficients := make(map[string]float64, len(m.Coefficients))
	for j, c := range m.Coefficients {
		coefficients[m.FeatureNames[j]] = c
	}
	return coefficients
}

func featureNames(names []string, width int) []string {
	if names != nil {
		return append([]string(nil), names...)
	}
	generated := make([]string, width)
	for j := range generated {
		generated[j] = fmt.Sprintf("x%d", j)
	}
	return generated
}
