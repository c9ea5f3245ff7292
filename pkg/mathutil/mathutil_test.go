package mathutil

import (
	"math"
	"testing"
)

func TestWithinTolerance(t *testing.T) {
	tests := []struct {
		name      string
		val1      float64
		val2      float64
		tolerance float64
		expected  bool
	}{
		{"Exactly equal", 1.0, 1.0, 0.1, true},
		{"Within tolerance", 1.0, 1.05, 0.1, true},
		{"Outside tolerance", 1.0, 1.15, 0.1, false},
		{"Zero tolerance exact match", 1.0, 1.0, 0.0, true},
		{"Zero tolerance no match", 1.0, 1.001, 0.0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := WithinTolerance(tt.val1, tt.val2, tt.tolerance)
			if result != tt.expected {
				t.Errorf("WithinTolerance(%v, %v, %v) = %v, expected %v",
					tt.val1, tt.val2, tt.tolerance, result, tt.expected)
			}
		})
	}
}

func TestCalculatePercentage(t *testing.T) {
	tests := []struct {
		name     string
		value    float64
		total    float64
		expected float64
	}{
		{"Loss of a fifth", 7000.0, 35000.0, 20.0},
		{"More than 100%", 150.0, 100.0, 150.0},
		{"Zero value", 0.0, 100.0, 0.0},
		{"Zero total", 50.0, 0.0, 0.0},
		{"Negative value", -3500.0, 35000.0, -10.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := CalculatePercentage(tt.value, tt.total)
			if math.Abs(result-tt.expected) > 0.001 {
				t.Errorf("CalculatePercentage(%v, %v) = %v, expected %v",
					tt.value, tt.total, result, tt.expected)
			}
		})
	}
}

func TestPercentToRate(t *testing.T) {
	if got := PercentToRate(22.65); math.Abs(got-0.2265) > 1e-12 {
		t.Errorf("PercentToRate(22.65) = %v, expected 0.2265", got)
	}
}

func TestAllFinite(t *testing.T) {
	if !AllFinite(1, 0, -3.5) {
		t.Errorf("expected finite values to be accepted")
	}
	if AllFinite(1, math.NaN()) {
		t.Errorf("expected NaN to be rejected")
	}
	if AllFinite(math.Inf(-1)) {
		t.Errorf("expected -Inf to be rejected")
	}
	if !AllFinite() {
		t.Errorf("expected empty input to be finite")
	}
}
