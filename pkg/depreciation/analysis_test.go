package depreciation

import (
	"testing"

	"github.com/iwvelando/depreciation-forecast/pkg/mathutil"
)

func TestAnalyzeDecayingCurve(t *testing.T) {
	result, err := Project(Params{
		BaseYear:               2025,
		BaseMileage:            30000,
		ListPrice:              35000,
		InitialDepreciationPct: 20,
		HorizonYears:           10,
	})
	if err != nil {
		t.Fatalf("Project() error = %v", err)
	}

	analysis := Analyze(result)

	// Loss % per year: 7.65, 6.50, 5.53, 4.70, 3.99, 3.39, 2.88, ...
	thresholds := []struct {
		threshold float64
		year      int
	}{
		{8, 2026},
		{5, 2029},
		{3, 2032},
	}
	for _, tt := range thresholds {
		year, ok := analysis.ThresholdYear(tt.threshold)
		if !ok {
			t.Errorf("threshold %v not reached", tt.threshold)
			continue
		}
		if year != tt.year {
			t.Errorf("threshold %v year = %d, expected %d", tt.threshold, year, tt.year)
		}
	}

	if analysis.Slowdown == nil {
		t.Fatal("expected a slowdown")
	}
	if analysis.Slowdown.Year != 2027 {
		t.Errorf("slowdown year = %d, expected 2027", analysis.Slowdown.Year)
	}
	if !mathutil.WithinTolerance(analysis.Slowdown.FromPct, 7.65, 1e-9) || !mathutil.WithinTolerance(analysis.Slowdown.ToPct, 6.5025, 1e-9) {
		t.Errorf("slowdown = %+v", analysis.Slowdown)
	}
	if analysis.Trend != TrendSteep {
		t.Errorf("trend = %s, expected %s", analysis.Trend, TrendSteep)
	}
	if analysis.Recommendation != RecommendHoldBelow5 {
		t.Errorf("recommendation = %s, expected %s", analysis.Recommendation, RecommendHoldBelow5)
	}

	initial := result.Current().EstimatedValue
	final := result.Final().EstimatedValue
	if !mathutil.WithinTolerance(analysis.PeriodLoss, initial-final, 1e-9) {
		t.Errorf("period loss = %v, expected %v", analysis.PeriodLoss, initial-final)
	}
	if !mathutil.WithinTolerance(analysis.PeriodLossPct, (initial-final)/initial*100, 1e-9) {
		t.Errorf("period loss pct = %v", analysis.PeriodLossPct)
	}
}

func TestAnalyzeHighMileage(t *testing.T) {
	result, err := Project(Params{
		BaseYear:               2025,
		ListPrice:              35000,
		InitialDepreciationPct: 20,
		HorizonYears:           5,
		AnnualMileage:          15000,
	})
	if err != nil {
		t.Fatalf("Project() error = %v", err)
	}

	analysis := Analyze(result)
	if len(analysis.Crossings) != 0 {
		t.Errorf("expected no thresholds reached, got %+v", analysis.Crossings)
	}
	if analysis.Trend != TrendFlat {
		t.Errorf("trend = %s, expected %s", analysis.Trend, TrendFlat)
	}
	if analysis.Recommendation != RecommendSustained {
		t.Errorf("recommendation = %s, expected %s", analysis.Recommendation, RecommendSustained)
	}
}

func TestAnalyzeShortHorizon(t *testing.T) {
	for _, horizon := range []int{0, 1} {
		result, err := Project(Params{BaseYear: 2025, ListPrice: 20000, InitialDepreciationPct: 10, HorizonYears: horizon})
		if err != nil {
			t.Fatalf("Project() error = %v", err)
		}

		analysis := Analyze(result)
		if analysis.Trend != TrendInsufficient || analysis.Recommendation != RecommendInsufficient {
			t.Errorf("horizon %d: expected insufficient analysis, got %s/%s", horizon, analysis.Trend, analysis.Recommendation)
		}
		if analysis.Slowdown != nil {
			t.Errorf("horizon %d: expected no slowdown", horizon)
		}
		if len(analysis.Crossings) != 0 {
			t.Errorf("horizon %d: expected no threshold crossings, got %+v", horizon, analysis.Crossings)
		}
	}
}

func TestAnalyzeEmptyResult(t *testing.T) {
	analysis := Analyze(ProjectionResult{})
	if analysis.Recommendation != RecommendInsufficient {
		t.Errorf("recommendation = %s", analysis.Recommendation)
	}
}
