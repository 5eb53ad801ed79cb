package indicators

import (
	"context"
	"math"
)

// RSIConfig holds configuration for the RSI indicator
type RSIConfig struct {
	IndicatorConfig
}

// RSI implements the Relative Strength Index indicator
type RSI struct {
	BaseIndicator
	config RSIConfig
}

// NewRSI creates a new RSI indicator instance
func NewRSI(config RSIConfig) *RSI {
	return &RSI{
		BaseIndicator: BaseIndicator{Config: config.IndicatorConfig},
		config:        config,
	}
}

// Name returns the name of the indicator
func (r *RSI) Name() string {
	return "RSI"
}

// RequiredDataPoints returns period+1: the first value needs period price changes.
func (r *RSI) RequiredDataPoints() int {
	return r.Config.Period + 1
}

// Calculate computes the RSI series using Wilder's smoothing method.
// A missing value restarts the warm-up, so every defined output rests on period contiguous changes.
func (r *RSI) Calculate(ctx context.Context, values []float64) ([]float64, error) {
	if err := r.validate(); err != nil {
		return nil, err
	}
	out := nanSeries(len(values))

	start := 0
	for start < len(values) {
		for start < len(values) && math.IsNaN(values[start]) {
			start++
		}
		end := start
		for end < len(values) && !math.IsNaN(values[end]) {
			end++
		}
		r.calculateRun(values[start:end], out[start:end])
		start = end
	}
	return out, nil
}

// calculateRun fills out for a run of observed values.
func (r *RSI) calculateRun(values, out []float64) {
	period := r.Config.Period
	if len(values) <= period {
		return
	}

	// Calculate initial average gain and loss
	var avgGain, avgLoss float64
	for i := 1; i <= period; i++ {
		change := values[i] - values[i-1]
		if change > 0 {
			avgGain += change
		} else {
			avgLoss -= change
		}
	}
	avgGain /= float64(period)
	avgLoss /= float64(period)
	out[period] = rsiValue(avgGain, avgLoss)

	// Wilder smoothing for the remaining points
	for i := period + 1; i < len(values); i++ {
		change := values[i] - values[i-1]
		gain, loss := 0.0, 0.0
		if change > 0 {
			gain = change
		} else {
			loss = -change
		}
		avgGain = (avgGain*float64(period-1) + gain) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + loss) / float64(period)
		out[i] = rsiValue(avgGain, avgLoss)
	}
}

func rsiValue(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		if avgGain == 0 {
			return 50 // Neutral if no change
		}
		return 100 // Max RSI if only gains
	}
	rs := avgGain / avgLoss
	rsi := 100 - (100 / (1 + rs))

	// Ensure RSI is within bounds
	if rsi > 100 {
		rsi = 100
	} else if rsi < 0 {
		rsi = 0
	}
	return rsi
}
