// Package testutil provides common utility functions for testing.
package testutil

import (
	"math"

	"github.com/iwvelando/depreciation-forecast/internal/forecast"
)

// FindForecast finds a forecast by scenario name in the results slice.
// Returns a pointer to the forecast if found, nil otherwise.
func FindForecast(results []forecast.Forecast, name string) *forecast.Forecast {
	for i := range results {
		if results[i].Name == name {
			return &results[i]
		}
	}
	return nil
}

// LossesNonIncreasing reports whether every annual loss percentage is at most
// the previous one, allowing for tolerance.
func LossesNonIncreasing(result forecast.Forecast, tolerance float64) bool {
	losses := result.Projection.Losses
	for i := 1; i < len(losses); i++ {
		if losses[i].LossPct > losses[i-1].LossPct+math.Abs(tolerance) {
			return false
		}
	}
	return true
}
