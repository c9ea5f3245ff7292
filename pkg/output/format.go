// Package output provides utilities for formatting and displaying forecast results.
package output

import (
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"

	"github.com/iwvelando/depreciation-forecast/internal/forecast"
	"github.com/iwvelando/depreciation-forecast/pkg/constants"
	"github.com/iwvelando/depreciation-forecast/pkg/depreciation"
	"github.com/iwvelando/depreciation-forecast/pkg/format"
)

// PrettyFormat outputs a human-readable rather than machine-readable table.
func PrettyFormat(results []forecast.Forecast) {
	for _, result := range results {
		current := result.Projection.Current()
		fmt.Printf("--- Results for scenario %s ---\n", result.Name)
		fmt.Printf("Vehicle year %d with %s, valued in %d\n",
			result.Scenario.VehicleYear, format.Kilometers(result.Scenario.Mileage), current.Year)
		fmt.Printf("List price: %s\n", format.Currency(result.Scenario.ListPrice))
		fmt.Printf("Estimated depreciation: %s\n", format.Percent(result.InitialDepreciationPct))
		fmt.Printf("Estimated current value: %s\n", format.Currency(current.EstimatedValue))
		fmt.Printf("\n")
		fmt.Printf("Year | Mileage      | Depreciation | Value        | Annual Loss  | Annual Loss %%\n")
		fmt.Printf("____ | ____________ | ____________ | ____________ | ____________ | _____________\n")
		for i, point := range result.Projection.Points {
			loss, lossPct := "-", "-"
			if i > 0 {
				loss = format.Currency(result.Projection.Losses[i-1].LossCurrency)
				lossPct = format.Percent(result.Projection.Losses[i-1].LossPct)
			}
			fmt.Printf("%d | %12s | %12s | %12s | %12s | %s\n",
				point.Year, format.Kilometers(point.CumulativeMileage), format.Percent(point.DepreciationPct),
				format.Currency(point.EstimatedValue), loss, lossPct)
		}
		fmt.Printf("\n")
		for _, line := range analysisLines(result) {
			fmt.Println(line)
		}
		for _, warning := range result.Warnings {
			fmt.Printf("Warning: %s\n", warning)
		}
		if len(results) > 1 {
			fmt.Printf("\n")
		}
	}
}

// CsvFormat outputs in comma-separated value format.
func CsvFormat(results []forecast.Forecast) {
	fmt.Print(CsvString(results))
}

// CsvString renders one row per scenario and projected year.
func CsvString(results []forecast.Forecast) string {
	var builder strings.Builder
	w := csv.NewWriter(&builder)
	_ = w.Write([]string{"scenario", "year", "mileage", "depreciation_pct", "value", "loss", "loss_pct"})
	for _, result := range results {
		for i, point := range result.Projection.Points {
			loss, lossPct := "", ""
			if i > 0 {
				loss = decimalString(result.Projection.Losses[i-1].LossCurrency)
				lossPct = decimalString(result.Projection.Losses[i-1].LossPct)
			}
			_ = w.Write([]string{
				result.Name,
				strconv.Itoa(point.Year),
				strconv.FormatFloat(point.CumulativeMileage, 'f', 0, 64),
				decimalString(point.DepreciationPct),
				decimalString(point.EstimatedValue),
				loss,
				lossPct,
			})
		}
	}
	w.Flush()
	return builder.String()
}

func decimalString(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// analysisLines describes the shape of the projection and the selling advice.
func analysisLines(result forecast.Forecast) []string {
	a := result.Analysis
	points := result.Projection.Points
	first, last := points[0], points[len(points)-1]

	lines := []string{
		fmt.Sprintf("Period %d-%d: value falls from %s to %s, a loss of %s (%s)",
			first.Year, last.Year, format.Currency(first.EstimatedValue), format.Currency(last.EstimatedValue),
			format.Currency(a.PeriodLoss), format.Percent(a.PeriodLossPct)),
	}
	if a.Trend == depreciation.TrendInsufficient {
		return append(lines, "Projection horizon too short to analyze the depreciation curve.")
	}

	for _, threshold := range constants.LossThresholds {
		if year, ok := a.ThresholdYear(threshold); ok {
			lines = append(lines, fmt.Sprintf("Annual loss falls below %g%% in %d", threshold, year))
		}
	}
	if a.Slowdown != nil {
		lines = append(lines, fmt.Sprintf("Largest slowdown in %d: annual loss goes from %.1f%% to %.1f%% (%.1f points)",
			a.Slowdown.Year, a.Slowdown.FromPct, a.Slowdown.ToPct, a.Slowdown.Delta))
	}

	return append(lines, recommendationText(a))
}

func recommendationText(a depreciation.Analysis) string {
	switch a.Recommendation {
	case depreciation.RecommendHoldBelow5:
		year, _ := a.ThresholdYear(5)
		return fmt.Sprintf("Recommendation: from %d the car loses less than 5%% a year, a good balance between depreciation and rising upkeep.", year)
	case depreciation.RecommendBelow8:
		year, _ := a.ThresholdYear(8)
		return fmt.Sprintf("Recommendation: depreciation falls below 8%% in %d but stays significant; consider this period if you plan to keep the car.", year)
	case depreciation.RecommendSustained:
		return "Recommendation: depreciation stays high for the whole period; consider selling earlier."
	}
	return "Recommendation: projection horizon too short."
}
