package depreciation

import (
	"github.com/iwvelando/depreciation-forecast/pkg/constants"
	"github.com/iwvelando/depreciation-forecast/pkg/mathutil"
)

// Trend classifies how much the annual loss flattens over the horizon.
type Trend string

const (
	TrendSteep        Trend = "steep"
	TrendFlat         Trend = "flat"
	TrendInsufficient Trend = "insufficient"
)

// Recommendation is the selling advice derived from the loss thresholds.
type Recommendation string

const (
	// RecommendHoldBelow5 means the annual loss drops under 5% within the horizon.
	RecommendHoldBelow5 Recommendation = "hold-below-5"
	// RecommendBelow8 means the annual loss drops under 8% but not under 5%.
	RecommendBelow8 Recommendation = "below-8"
	// RecommendSustained means the annual loss stays at or above 8%.
	RecommendSustained    Recommendation = "sustained"
	RecommendInsufficient Recommendation = "insufficient"
)

// ThresholdCrossing is the first year whose annual loss is below Threshold percent.
type ThresholdCrossing struct {
	Threshold float64 `json:"threshold"`
	Year      int     `json:"year"`
}

// Slowdown describes the largest drop in annual loss between consecutive years.
type Slowdown struct {
	Year    int     `json:"year"`
	FromPct float64 `json:"fromPct"`
	ToPct   float64 `json:"toPct"`
	Delta   float64 `json:"delta"`
}

// Analysis summarizes the shape of a projection.
type Analysis struct {
	// Crossings lists reached thresholds in the order of constants.LossThresholds.
	Crossings      []ThresholdCrossing `json:"crossings"`
	Slowdown       *Slowdown           `json:"slowdown,omitempty"`
	PeriodLoss     float64             `json:"periodLoss"`
	PeriodLossPct  float64             `json:"periodLossPct"`
	FirstLossPct   float64             `json:"firstLossPct"`
	LastLossPct    float64             `json:"lastLossPct"`
	Trend          Trend               `json:"trend"`
	Recommendation Recommendation      `json:"recommendation"`
}

// ThresholdYear returns the first year the annual loss falls below threshold.
func (a Analysis) ThresholdYear(threshold float64) (int, bool) {
	for _, c := range a.Crossings {
		if c.Threshold == threshold {
			return c.Year, true
		}
	}
	return 0, false
}

// Analyze derives threshold years, the largest slowdown, the loss over the
// whole period and a selling recommendation from a projection.
func Analyze(result ProjectionResult) Analysis {
	analysis := Analysis{
		Crossings:      []ThresholdCrossing{},
		Trend:          TrendInsufficient,
		Recommendation: RecommendInsufficient,
	}
	if len(result.Points) == 0 {
		return analysis
	}

	initial := result.Current().EstimatedValue
	final := result.Final().EstimatedValue
	analysis.PeriodLoss = initial - final
	analysis.PeriodLossPct = mathutil.CalculatePercentage(initial-final, initial)

	losses := result.Losses
	if len(losses) > 0 {
		analysis.FirstLossPct = losses[0].LossPct
		analysis.LastLossPct = losses[len(losses)-1].LossPct
	}

	if len(losses) < 2 {
		return analysis
	}

	for _, threshold := range constants.LossThresholds {
		for i, loss := range losses {
			if loss.LossPct < threshold {
				analysis.Crossings = append(analysis.Crossings, ThresholdCrossing{
					Threshold: threshold,
					Year:      result.Points[i+1].Year,
				})
				break
			}
		}
	}

	best := 0
	for i := 1; i < len(losses)-1; i++ {
		if losses[i].LossPct-losses[i+1].LossPct > losses[best].LossPct-losses[best+1].LossPct {
			best = i
		}
	}
	analysis.Slowdown = &Slowdown{
		Year:    result.Points[best+2].Year,
		FromPct: losses[best].LossPct,
		ToPct:   losses[best+1].LossPct,
		Delta:   losses[best].LossPct - losses[best+1].LossPct,
	}

	if analysis.FirstLossPct-analysis.LastLossPct > constants.SteepTrendDelta {
		analysis.Trend = TrendSteep
	} else {
		analysis.Trend = TrendFlat
	}

	switch {
	case analysis.reached(5):
		analysis.Recommendation = RecommendHoldBelow5
	case analysis.reached(8):
		analysis.Recommendation = RecommendBelow8
	default:
		analysis.Recommendation = RecommendSustained
	}

	return analysis
}

func (a Analysis) reached(threshold float64) bool {
	_, ok := a.ThresholdYear(threshold)
	return ok
}
