package output

import (
	"fmt"
	"sort"

	"github.com/iwvelando/depreciation-forecast/pkg/dataset"
	"github.com/iwvelando/depreciation-forecast/pkg/regression"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// SummaryFormat outputs the exploratory statistics of the dataset and the
// evaluation of the fitted model.
func SummaryFormat(summary dataset.Summary, evaluation regression.Evaluation) {
	p := message.NewPrinter(language.English)

	fmt.Printf("--- Dataset summary ---\n")
	fmt.Printf("%-16s | %6s | %12s | %12s | %12s | %12s | %12s | %12s | %12s\n",
		"Column", "Count", "Mean", "Std", "Min", "25%", "50%", "75%", "Max")
	for _, c := range summary.Columns {
		_, _ = p.Printf("%-16s | %6d | %12.2f | %12.2f | %12.2f | %12.2f | %12.2f | %12.2f | %12.2f\n",
			c.Name, c.Count, c.Mean, c.Std, c.Min, c.Q25, c.Median, c.Q75, c.Max)
	}

	fmt.Printf("\nMean depreciation by year\n")
	for _, y := range summary.ByYear {
		fmt.Printf("%d | %6.2f%% | %d listings\n", y.Year, y.Mean, y.Count)
	}

	if len(summary.ByCondition) > 0 {
		fmt.Printf("\nMean depreciation by condition\n")
		for _, c := range summary.ByCondition {
			fmt.Printf("%-10s | %6.2f%% | %d listings\n", c.Condition, c.Mean, c.Count)
		}
	}

	fmt.Printf("\nCorrelation with depreciation\n")
	for _, name := range sortedKeys(summary.Correlations) {
		fmt.Printf("%-16s | %6.3f\n", name, summary.Correlations[name])
	}

	fmt.Printf("\n--- Model evaluation ---\n")
	fmt.Printf("Train/test listings: %d/%d\n", evaluation.TrainSize, evaluation.TestSize)
	fmt.Printf("R2: %.4f\n", evaluation.R2)
	fmt.Printf("RMSE: %.4f\n", evaluation.RMSE)
	for _, name := range sortedKeys(evaluation.Coefficients) {
		fmt.Printf("%-8s | coefficient %8.4f | importance %6.2f%%\n",
			name, evaluation.Coefficients[name], evaluation.Importance[name])
	}
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
