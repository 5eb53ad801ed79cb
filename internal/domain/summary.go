package domain

// DerivedSeries is an indicator series for one ticker, aligned with the filtered table's dates.
type DerivedSeries struct {
	Ticker Ticker
	Kind   IndicatorKind
	Values []float64
}

// SummaryStat describes the close-price move of one ticker over the filtered window.
type SummaryStat struct {
	Ticker Ticker
	First  float64 // first observed close in the window
	Last   float64 // last observed close in the window
	Delta  float64 // Last - First
	// Percent is Delta / First * 100; only meaningful when PercentDefined is true.
	Percent        float64
	PercentDefined bool
}

// TickerSummary is the per-ticker summary outcome: either a stat, or an error from the
// pipeline's error taxonomy explaining why it is absent or incomplete.
// For an undefined ratio both Stat and Err are set.
type TickerSummary struct {
	Ticker Ticker
	Stat   *SummaryStat
	Err    error
}

// TickerSeries is the per-ticker indicator outcome.
// Series is nil when no indicator is selected or when Err is set.
type TickerSeries struct {
	Ticker Ticker
	Series *DerivedSeries
	Err    error
}
