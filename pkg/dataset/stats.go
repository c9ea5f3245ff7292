package dataset

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Column names used in summaries.
const (
	ColumnYear         = "year"
	ColumnMileage      = "mileage"
	ColumnListPrice    = "listPrice"
	ColumnPrice        = "price"
	ColumnDepreciation = "depreciationPct"
)

// ColumnSummary holds descriptive statistics for one numeric column.
type ColumnSummary struct {
	Name   string  `json:"name"`
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	Std    float64 `json:"std"`
	Min    float64 `json:"min"`
	Q25    float64 `json:"q25"`
	Median float64 `json:"median"`
	Q75    float64 `json:"q75"`
	Max    float64 `json:"max"`
}

// YearMean is the mean depreciation of listings registered in Year.
type YearMean struct {
	Year  int     `json:"year"`
	Mean  float64 `json:"mean"`
	Count int     `json:"count"`
}

// ConditionMean is the mean depreciation of listings in Condition.
type ConditionMean struct {
	Condition string  `json:"condition"`
	Mean      float64 `json:"mean"`
	Count     int     `json:"count"`
}

// Summary is the exploratory analysis of a dataset.
type Summary struct {
	Columns     []ColumnSummary `json:"columns"`
	ByYear      []YearMean      `json:"byYear"`
	ByCondition []ConditionMean `json:"byCondition,omitempty"`
	// Correlations holds the Pearson correlation of each column with the
	// depreciation percentage.
	Correlations map[string]float64 `json:"correlations"`
}

// Summarize computes descriptive statistics, group means and correlations.
func Summarize(listings []Listing) Summary {
	columns := map[string][]float64{}
	order := []string{ColumnYear, ColumnMileage, ColumnListPrice, ColumnPrice, ColumnDepreciation}
	for _, l := range listings {
		columns[ColumnYear] = append(columns[ColumnYear], float64(l.Year))
		columns[ColumnMileage] = append(columns[ColumnMileage], l.Mileage)
		columns[ColumnListPrice] = append(columns[ColumnListPrice], l.ListPrice)
		columns[ColumnPrice] = append(columns[ColumnPrice], l.Price)
		columns[ColumnDepreciation] = append(columns[ColumnDepreciation], l.DepreciationPct())
	}

	summary := Summary{Correlations: make(map[string]float64)}
	if len(listings) == 0 {
		return summary
	}

	for _, name := range order {
		summary.Columns = append(summary.Columns, describe(name, columns[name]))
	}
	for _, name := range order {
		// Constant columns have no defined correlation.
		if r := stat.Correlation(columns[name], columns[ColumnDepreciation], nil); !math.IsNaN(r) {
			summary.Correlations[name] = r
		}
	}

	summary.ByYear = meanByYear(listings)
	summary.ByCondition = meanByCondition(listings)
	return summary
}

// Column returns the summary for name.
func (s Summary) Column(name string) (ColumnSummary, bool) {
	for _, c := range s.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return ColumnSummary{}, false
}

func describe(name string, values []float64) ColumnSummary {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	std := 0.0
	if len(sorted) > 1 {
		std = stat.StdDev(sorted, nil)
	}

	return ColumnSummary{
		Name:   name,
		Count:  len(sorted),
		Mean:   stat.Mean(sorted, nil),
		Std:    std,
		Min:    sorted[0],
		Q25:    stat.Quantile(0.25, stat.LinInterp, sorted, nil),
		Median: stat.Quantile(0.5, stat.LinInterp, sorted, nil),
		Q75:    stat.Quantile(0.75, stat.LinInterp, sorted, nil),
		Max:    sorted[len(sorted)-1],
	}
}

func meanByYear(listings []Listing) []YearMean {
	sums := make(map[int]float64)
	counts := make(map[int]int)
	for _, l := range listings {
		sums[l.Year] += l.DepreciationPct()
		counts[l.Year]++
	}

	means := make([]YearMean, 0, len(sums))
	for year, sum := range sums {
		means = append(means, YearMean{Year: year, Mean: sum / float64(counts[year]), Count: counts[year]})
	}
	sort.Slice(means, func(i, j int) bool { return means[i].Year < means[j].Year })
	return means
}

func meanByCondition(listings []Listing) []ConditionMean {
	sums := make(map[string]float64)
	counts := make(map[string]int)
	for _, l := range listings {
		if l.Condition == "" {
			continue
		}
		sums[l.Condition] += l.DepreciationPct()
		counts[l.Condition]++
	}

	means := make([]ConditionMean, 0, len(sums))
	for condition, sum := range sums {
		means = append(means, ConditionMean{Condition: condition, Mean: sum / float64(counts[condition]), Count: counts[condition]})
	}
	sort.Slice(means, func(i, j int) bool { return means[i].Condition < means[j].Condition })
	return means
}
