// Package format renders numbers for reports.
package format

import (
	"strings"

	"github.com/shopspring/decimal"
)

// CurrencySymbol prefixes every currency amount.
const CurrencySymbol = "€"

// Currency returns a currency string with a euro sign and thousands separators (e.g., "-€1,234.56").
func Currency(amount float64) string {
	d := decimal.NewFromFloat(amount).Round(2)
	formatted := groupThousands(d.Abs().StringFixed(2))
	if d.IsNegative() {
		return "-" + CurrencySymbol + formatted
	}
	return CurrencySymbol + formatted
}

// Percent returns a percentage with two decimals (e.g., "22.65%").
func Percent(pct float64) string {
	return decimal.NewFromFloat(pct).StringFixed(2) + "%"
}

// Kilometers returns a whole distance with separators (e.g., "45,000 km").
func Kilometers(km float64) string {
	d := decimal.NewFromFloat(km).Round(0)
	formatted := groupThousands(d.Abs().StringFixed(0))
	if d.IsNegative() {
		formatted = "-" + formatted
	}
	return formatted + " km"
}

func groupThousands(value string) string {
	parts := strings.SplitN(value, ".", 2)
	intPart := parts[0]

	if len(intPart) > 3 {
		var builder strings.Builder
		for i, digit := range intPart {
			if i > 0 && (len(intPart)-i)%3 == 0 {
				builder.WriteByte(',')
			}
			builder.WriteRune(digit)
		}
		intPart = builder.String()
	}

	if len(parts) == 2 {
		return intPart + "." + parts[1]
	}
	return intPart
}
