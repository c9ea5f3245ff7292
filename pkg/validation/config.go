// Package validation provides configuration validation utilities.
package validation

import (
	"fmt"

	"github.com/iwvelando/depreciation-forecast/pkg/constants"
)

// ValidateInitialDepreciation warns when the regression's estimate falls
// outside [0, 100]; the projection is still computed but its values are not
// physical (e.g. worth more than the list price).
func ValidateInitialDepreciation(name string, pct float64) string {
	if pct < 0 {
		return fmt.Sprintf("Scenario '%s' initial depreciation %.2f%% is negative - estimated value exceeds the list price", name, pct)
	}
	if pct > 100 {
		return fmt.Sprintf("Scenario '%s' initial depreciation %.2f%% exceeds 100%% - estimated value is negative", name, pct)
	}
	return ""
}

// ValidateScenario checks a single vehicle scenario against the valuation year.
func ValidateScenario(s ScenarioConfig, valuationYear int) []string {
	var warnings []string

	if s.VehicleYear > valuationYear {
		warnings = append(warnings, fmt.Sprintf("Scenario '%s' vehicle year %d is after the valuation year %d",
			s.Name, s.VehicleYear, valuationYear))
	}

	if s.HorizonYears > constants.MaxHorizonYears {
		warnings = append(warnings, fmt.Sprintf("Scenario '%s' horizon of %d years exceeds the maximum of %d",
			s.Name, s.HorizonYears, constants.MaxHorizonYears))
	}

	mileageEffect := s.AnnualMileage / constants.MileageReference * constants.MileageCoefficient
	if mileageEffect+constants.InitialBaseRate*constants.BaseRateDecay > 1 {
		warnings = append(warnings, fmt.Sprintf("Scenario '%s' annual mileage of %.0f km implies an annual depreciation above 100%%",
			s.Name, s.AnnualMileage))
	}

	return warnings
}

// ConfigValidator holds the settings needed to validate a configuration.
type ConfigValidator struct {
	ValuationYear int
	DatasetDriver string
	Scenarios     []ScenarioConfig
}

// ScenarioConfig is the resolved view of one vehicle scenario.
type ScenarioConfig struct {
	Name          string
	Active        bool
	VehicleYear   int
	HorizonYears  int
	AnnualMileage float64
}

// ValidateAll validates the entire configuration and returns warnings
func (cv *ConfigValidator) ValidateAll() []string {
	var warnings []string

	if cv.DatasetDriver != "" {
		if err := ValidateDatasetDriver(cv.DatasetDriver); err != nil {
			warnings = append(warnings, err.Error())
		}
	}

	active := 0
	for _, scenario := range cv.Scenarios {
		if !scenario.Active {
			continue
		}
		active++
		warnings = append(warnings, ValidateScenario(scenario, cv.ValuationYear)...)
	}

	if active == 0 {
		warnings = append(warnings, "No active scenarios - nothing will be projected")
	}

	return warnings
}
