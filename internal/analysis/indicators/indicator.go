package indicators

import (
	"context"
	"fmt"
	"math"
)

// Indicator is a causal technical indicator computed over an ordered price series.
// Output position i depends only on inputs 0..i; positions without enough history are NaN.
type Indicator interface {
	// Calculate returns a series aligned with values.
	Calculate(ctx context.Context, values []float64) ([]float64, error)

	// RequiredDataPoints returns the number of observations needed for the first defined output.
	RequiredDataPoints() int

	// Name returns the name of the indicator
	Name() string
}

// IndicatorConfig holds common configuration for indicators
type IndicatorConfig struct {
	Period int
}

// BaseIndicator provides common functionality for indicators
type BaseIndicator struct {
	Config IndicatorConfig
}

// RequiredDataPoints returns the minimum number of observations needed for a defined value.
func (b *BaseIndicator) RequiredDataPoints() int {
	return b.Config.Period
}

func (b *BaseIndicator) validate() error {
	if b.Config.Period <= 0 {
		return fmt.Errorf("indicator period must be positive, got %d", b.Config.Period)
	}
	return nil
}

// nanSeries returns a series of n NaNs.
func nanSeries(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}
