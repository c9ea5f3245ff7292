// Package dataset loads used-car listings and computes the exploratory
// statistics and regression inputs derived from them.
package dataset

import (
	"context"
	"errors"

	"github.com/iwvelando/depreciation-forecast/pkg/mathutil"
)

// Feature names used for the regression inputs.
const (
	FeatureYear    = "year"
	FeatureMileage = "mileage"
)

// ErrNoListings is returned when a source yields no usable rows.
var ErrNoListings = errors.New("dataset contains no listings")

// Listing is one used-car advertisement.
type Listing struct {
	Year      int     `json:"year"`
	Mileage   float64 `json:"mileage"`
	ListPrice float64 `json:"listPrice"`
	Price     float64 `json:"price"`
	Condition string  `json:"condition,omitempty"`
}

// DepreciationPct is (ListPrice - Price) / ListPrice * 100.
func (l Listing) DepreciationPct() float64 {
	return mathutil.CalculatePercentage(l.ListPrice-l.Price, l.ListPrice)
}

// Source yields listings from a backing store.
type Source interface {
	Load(ctx context.Context) ([]Listing, error)
}

// Features returns the regression inputs (year, mileage) and targets
// (depreciation percentage) for the listings.
func Features(listings []Listing) ([][]float64, []float64) {
	x := make([][]float64, len(listings))
	y := make([]float64, len(listings))
	for i, l := range listings {
		x[i] = []float64{float64(l.Year), l.Mileage}
		y[i] = l.DepreciationPct()
	}
	return x, y
}

// FeatureNames returns the names matching the columns of Features.
func FeatureNames() []string {
	return []string{FeatureYear, FeatureMileage}
}

// MeanListPrice returns the average list price, the reference price used when
// a projection does not name one.
func MeanListPrice(listings []Listing) float64 {
	if len(listings) == 0 {
		return 0
	}
	total := 0.0
	for _, l := range listings {
		total += l.ListPrice
	}
	return total / float64(len(listings))
}

func validate(l Listing) error {
	if !mathutil.AllFinite(l.Mileage, l.ListPrice, l.Price) {
		return errors.New("values must be finite")
	}
	if l.ListPrice <= 0 {
		return errors.New("list price must be positive")
	}
	if l.Mileage < 0 {
		return errors.New("mileage must not be negative")
	}
	return nil
}
