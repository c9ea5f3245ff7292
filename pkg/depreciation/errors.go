package depreciation

import (
	"errors"
	"fmt"
)

// Sentinel errors matched with errors.Is.
var (
	ErrInvalidParameter = errors.New("invalid projection parameter")
	ErrNonPhysicalRate  = errors.New("non-physical depreciation rate")
)

// InvalidParameterError reports an input rejected before the projection starts.
type InvalidParameterError struct {
	Field  string
	Value  float64
	Reason string
}

func (e *InvalidParameterError) Error() string {
	return fmt.Sprintf("invalid %s %v: %s", e.Field, e.Value, e.Reason)
}

// Is lets errors.Is match ErrInvalidParameter.
func (e *InvalidParameterError) Is(target error) bool {
	return target == ErrInvalidParameter
}

// NonPhysicalRateError reports a year whose combined annual rate exceeds 100%,
// which would drive the value below zero.
type NonPhysicalRateError struct {
	Year int
	Rate float64
}

func (e *NonPhysicalRateError) Error() string {
	return fmt.Sprintf("annual depreciation rate %.4f for year %d exceeds 1", e.Rate, e.Year)
}

// Is lets errors.Is match ErrNonPhysicalRate.
func (e *NonPhysicalRateError) Is(target error) bool {
	return target == ErrNonPhysicalRate
}
