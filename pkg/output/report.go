package output

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/iwvelando/depreciation-forecast/internal/forecast"
	"github.com/iwvelando/depreciation-forecast/pkg/depreciation"
	"github.com/iwvelando/depreciation-forecast/pkg/format"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

var markdownRenderer = goldmark.New(goldmark.WithExtensions(extension.Table))

// MarkdownFormat outputs the markdown report.
func MarkdownFormat(results []forecast.Forecast) {
	fmt.Print(MarkdownString(results))
}

// MarkdownString renders a markdown report with one section per scenario.
func MarkdownString(results []forecast.Forecast) string {
	var b strings.Builder
	b.WriteString("# Depreciation report\n")
	for _, result := range results {
		current := result.Projection.Current()

		fmt.Fprintf(&b, "\n## %s\n\n", result.Name)
		fmt.Fprintf(&b, "- Vehicle year: %d\n", result.Scenario.VehicleYear)
		fmt.Fprintf(&b, "- Mileage: %s\n", format.Kilometers(result.Scenario.Mileage))
		fmt.Fprintf(&b, "- List price: %s\n", format.Currency(result.Scenario.ListPrice))
		fmt.Fprintf(&b, "- Estimated depreciation in %d: %s\n", current.Year, format.Percent(result.InitialDepreciationPct))
		fmt.Fprintf(&b, "- Estimated current value: %s\n", format.Currency(current.EstimatedValue))

		b.WriteString("\n| Year | Mileage | Depreciation | Value | Annual loss | Annual loss % |\n")
		b.WriteString("|---:|---:|---:|---:|---:|---:|\n")
		for i, point := range result.Projection.Points {
			loss, lossPct := "-", "-"
			if i > 0 {
				loss = format.Currency(result.Projection.Losses[i-1].LossCurrency)
				lossPct = format.Percent(result.Projection.Losses[i-1].LossPct)
			}
			fmt.Fprintf(&b, "| %d | %s | %s | %s | %s | %s |\n",
				point.Year, format.Kilometers(point.CumulativeMileage), format.Percent(point.DepreciationPct),
				format.Currency(point.EstimatedValue), loss, lossPct)
		}

		b.WriteString("\n### Analysis\n\n")
		for _, line := range analysisLines(result) {
			fmt.Fprintf(&b, "- %s\n", line)
		}
		if result.Analysis.Trend == depreciation.TrendSteep {
			fmt.Fprintf(&b, "- Classic depreciation curve: the annual loss flattens from %.1f%% to %.1f%%.\n",
				result.Analysis.FirstLossPct, result.Analysis.LastLossPct)
		} else if result.Analysis.Trend == depreciation.TrendFlat {
			b.WriteString("- The annual loss stays roughly constant; upkeep costs and personal needs should drive the decision.\n")
		}

		if len(result.Warnings) > 0 {
			b.WriteString("\n### Warnings\n\n")
			for _, warning := range result.Warnings {
				fmt.Fprintf(&b, "- %s\n", warning)
			}
		}
	}
	return b.String()
}

// HTMLString renders the markdown report as HTML.
func HTMLString(results []forecast.Forecast) (string, error) {
	var buf bytes.Buffer
	if err := markdownRenderer.Convert([]byte(MarkdownString(results)), &buf); err != nil {
		return "", fmt.Errorf("failed to render report: %w", err)
	}
	return buf.String(), nil
}
