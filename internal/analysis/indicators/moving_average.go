package indicators

import (
	"context"
	"fmt"
	"math"
)

// MovingAverageType defines the type of moving average
type MovingAverageType string

const (
	// SimpleMovingAverage represents a simple moving average
	SimpleMovingAverage MovingAverageType = "SMA"
	// ExponentialMovingAverage represents an exponential moving average
	ExponentialMovingAverage MovingAverageType = "EMA"
)

// MovingAverageConfig holds configuration for moving average indicators.
// For EMA the period is the span: alpha = 2 / (span + 1).
type MovingAverageConfig struct {
	IndicatorConfig
	Type MovingAverageType
}

// MovingAverage implements both SMA and EMA indicators
type MovingAverage struct {
	BaseIndicator
	config MovingAverageConfig
}

// NewMovingAverage creates a new moving average indicator instance
func NewMovingAverage(config MovingAverageConfig) *MovingAverage {
	return &MovingAverage{
		BaseIndicator: BaseIndicator{Config: config.IndicatorConfig},
		config:        config,
	}
}

// NewSMA returns a simple moving average over a trailing window of period points.
func NewSMA(period int) *MovingAverage {
	return NewMovingAverage(MovingAverageConfig{IndicatorConfig: IndicatorConfig{Period: period}, Type: SimpleMovingAverage})
}

// NewEMA returns an exponential moving average with the given span.
func NewEMA(span int) *MovingAverage {
	return NewMovingAverage(MovingAverageConfig{IndicatorConfig: IndicatorConfig{Period: span}, Type: ExponentialMovingAverage})
}

// Name returns the name of the indicator
func (m *MovingAverage) Name() string {
	return string(m.config.Type)
}

// RequiredDataPoints returns 1 for EMA, which is defined from its seed onwards.
func (m *MovingAverage) RequiredDataPoints() int {
	if m.config.Type == ExponentialMovingAverage {
		return 1
	}
	return m.Config.Period
}

// Calculate computes the moving average series based on the configured type
func (m *MovingAverage) Calculate(ctx context.Context, values []float64) ([]float64, error) {
	if err := m.validate(); err != nil {
		return nil, err
	}
	switch m.config.Type {
	case SimpleMovingAverage:
		return m.calculateSMA(values), nil
	case ExponentialMovingAverage:
		return m.calculateEMA(values), nil
	default:
		return nil, fmt.Errorf("unsupported moving average type: %s", m.config.Type)
	}
}

// calculateSMA computes the trailing Simple Moving Average.
// A window containing a missing value yields NaN.
func (m *MovingAverage) calculateSMA(values []float64) []float64 {
	period := m.Config.Period
	out := nanSeries(len(values))

	for i := period - 1; i < len(values); i++ {
		total := 0.0
		valid := true
		for j := i - period + 1; j <= i; j++ {
			if math.IsNaN(values[j]) {
				valid = false
				break
			}
			total += values[j]
		}
		if valid {
			out[i] = total / float64(period)
		}
	}
	return out
}

// calculateEMA computes the recursive Exponential Moving Average seeded by the first observed value.
// Missing inputs produce NaN at their position and leave the running average untouched.
func (m *MovingAverage) calculateEMA(values []float64) []float64 {
	multiplier := 2.0 / float64(m.Config.Period+1)
	out := nanSeries(len(values))

	seeded := false
	ema := 0.0
	for i, v := range values {
		if math.IsNaN(v) {
			continue
		}
		if !seeded {
			ema = v
			seeded = true
		} else {
			ema = (v-ema)*multiplier + ema
		}
		out[i] = ema
	}
	return out
}
