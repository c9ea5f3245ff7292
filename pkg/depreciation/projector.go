// Package depreciation projects the future value of a vehicle from an initial
// depreciation estimate using a geometrically decaying annual rate plus a
// constant mileage-driven component.
package depreciation

import (
	"github.com/iwvelando/depreciation-forecast/pkg/constants"
	"github.com/iwvelando/depreciation-forecast/pkg/mathutil"
)

// Params holds the inputs of a single projection.
type Params struct {
	// BaseYear is the valuation year of point 0.
	BaseYear int
	// BaseMileage is the odometer reading at BaseYear, in km.
	BaseMileage float64
	// ListPrice is the price of the vehicle when new.
	ListPrice float64
	// InitialDepreciationPct is the regression's estimate for BaseYear, 0-100.
	// It is not range checked.
	InitialDepreciationPct float64
	// HorizonYears is the number of years projected beyond BaseYear.
	HorizonYears int
	// AnnualMileage is the distance driven per projected year, in km.
	AnnualMileage float64
}

// ValuationPoint is the estimated state of the vehicle in one year.
type ValuationPoint struct {
	Year              int     `json:"year"`
	CumulativeMileage float64 `json:"cumulativeMileage"`
	DepreciationPct   float64 `json:"depreciationPct"`
	EstimatedValue    float64 `json:"estimatedValue"`
}

// YearlyLoss is the value lost in the transition into the point with the same index + 1.
type YearlyLoss struct {
	LossCurrency float64 `json:"lossCurrency"`
	LossPct      float64 `json:"lossPct"`
}

// ProjectionResult holds the projected points and the losses between them.
// len(Losses) == len(Points)-1.
type ProjectionResult struct {
	Points []ValuationPoint `json:"points"`
	Losses []YearlyLoss     `json:"losses"`
}

// Current returns point 0.
func (r ProjectionResult) Current() ValuationPoint {
	return r.Points[0]
}

// Final returns the last projected point.
func (r ProjectionResult) Final() ValuationPoint {
	return r.Points[len(r.Points)-1]
}

// Curve holds the tuned constants of the decay model.
type Curve struct {
	InitialRate        float64
	Decay              float64
	MileageReference   float64
	MileageCoefficient float64
}

// DefaultCurve returns the curve calibrated for the original dataset:
// 9% base rate decaying by 15% a year, plus 20% per 20,000 km driven annually.
func DefaultCurve() Curve {
	return Curve{
		InitialRate:        constants.InitialBaseRate,
		Decay:              constants.BaseRateDecay,
		MileageReference:   constants.MileageReference,
		MileageCoefficient: constants.MileageCoefficient,
	}
}

// MileageEffect returns the annual rate added for driving annualMileage km a year.
func (c Curve) MileageEffect(annualMileage float64) float64 {
	return (annualMileage / c.MileageReference) * c.MileageCoefficient
}

// Project runs the default curve.
func Project(p Params) (ProjectionResult, error) {
	return DefaultCurve().Project(p)
}

// Project computes the year-by-year valuation of the vehicle. Either the full
// result is returned or an error, never a partial result.
func (c Curve) Project(p Params) (ProjectionResult, error) {
	if err := c.validate(); err != nil {
		return ProjectionResult{}, err
	}
	if err := p.Validate(); err != nil {
		return ProjectionResult{}, err
	}

	currentValue := p.ListPrice * (1 - mathutil.PercentToRate(p.InitialDepreciationPct))

	result := ProjectionResult{
		Points: make([]ValuationPoint, 0, p.HorizonYears+1),
		Losses: make([]YearlyLoss, 0, p.HorizonYears),
	}
	result.Points = append(result.Points, ValuationPoint{
		Year:              p.BaseYear,
		CumulativeMileage: p.BaseMileage,
		DepreciationPct:   p.InitialDepreciationPct,
		EstimatedValue:    currentValue,
	})

	mileageEffect := c.MileageEffect(p.AnnualMileage)
	baseRate := c.InitialRate
	previousValue := currentValue

	for i := 1; i <= p.HorizonYears; i++ {
		baseRate *= c.Decay
		annualRate := baseRate + mileageEffect
		if annualRate > 1 {
			return ProjectionResult{}, &NonPhysicalRateError{Year: p.BaseYear + i, Rate: annualRate}
		}

		newValue := previousValue * (1 - annualRate)
		loss := previousValue - newValue

		result.Points = append(result.Points, ValuationPoint{
			Year:              p.BaseYear + i,
			CumulativeMileage: p.BaseMileage + p.AnnualMileage*float64(i),
			DepreciationPct:   mathutil.CalculatePercentage(p.ListPrice-newValue, p.ListPrice),
			EstimatedValue:    newValue,
		})
		result.Losses = append(result.Losses, YearlyLoss{
			LossCurrency: loss,
			LossPct:      mathutil.CalculatePercentage(loss, previousValue),
		})

		previousValue = newValue
	}

	return result, nil
}

// Validate checks the parameters that would make the recurrence meaningless.
func (p Params) Validate() error {
	if !mathutil.AllFinite(p.BaseMileage, p.ListPrice, p.InitialDepreciationPct, p.AnnualMileage) {
		return &InvalidParameterError{Field: "params", Value: p.ListPrice, Reason: "inputs must be finite"}
	}
	if p.ListPrice <= 0 {
		return &InvalidParameterError{Field: "list price", Value: p.ListPrice, Reason: "must be positive"}
	}
	if p.HorizonYears < 0 {
		return &InvalidParameterError{Field: "horizon years", Value: float64(p.HorizonYears), Reason: "must not be negative"}
	}
	if p.AnnualMileage < 0 {
		return &InvalidParameterError{Field: "annual mileage", Value: p.AnnualMileage, Reason: "must not be negative"}
	}
	if p.BaseMileage < 0 {
		return &InvalidParameterError{Field: "base mileage", Value: p.BaseMileage, Reason: "must not be negative"}
	}
	return nil
}

func (c Curve) validate() error {
	if !mathutil.AllFinite(c.InitialRate, c.Decay, c.MileageReference, c.MileageCoefficient) {
		return &InvalidParameterError{Field: "curve", Value: c.InitialRate, Reason: "constants must be finite"}
	}
	if c.MileageReference <= 0 {
		return &InvalidParameterError{Field: "mileage reference", Value: c.MileageReference, Reason: "must be positive"}
	}
	return nil
}
