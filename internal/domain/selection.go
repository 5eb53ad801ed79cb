package domain

import (
	"fmt"
	"strings"
)

// Granularity is the resampling period of the displayed table.
type Granularity string

const (
	Daily   Granularity = "daily"
	Weekly  Granularity = "weekly"
	Monthly Granularity = "monthly"
)

// Granularities lists the supported values in display order.
var Granularities = []Granularity{Daily, Weekly, Monthly}

// ChartType is the main trace style.
type ChartType string

const (
	ChartLine ChartType = "line"
	// ChartCandlestick only renders when exactly one ticker is selected.
	ChartCandlestick ChartType = "candlestick"
	ChartArea        ChartType = "area"
)

// ChartTypes lists the supported values in display order.
var ChartTypes = []ChartType{ChartLine, ChartCandlestick, ChartArea}

// IndicatorKind selects the overlay computed per ticker.
type IndicatorKind string

const (
	IndicatorNone  IndicatorKind = "none"
	IndicatorSMA20 IndicatorKind = "sma20"
	IndicatorEMA50 IndicatorKind = "ema50"
	IndicatorRSI14 IndicatorKind = "rsi14"
)

// IndicatorKinds lists the supported values in display order.
var IndicatorKinds = []IndicatorKind{IndicatorNone, IndicatorSMA20, IndicatorEMA50, IndicatorRSI14}

// Label returns the human-readable indicator name, e.g. "SMA 20".
func (k IndicatorKind) Label() string {
	switch k {
	case IndicatorSMA20:
		return "SMA 20"
	case IndicatorEMA50:
		return "EMA 50"
	case IndicatorRSI14:
		return "RSI 14"
	default:
		return "None"
	}
}

// Selection holds the user-chosen dashboard parameters.
type Selection struct {
	Tickers        []Ticker      `json:"tickers"`
	Granularity    Granularity   `json:"granularity"`
	Weekdays       []Weekday     `json:"weekdays"`
	ChartType      ChartType     `json:"chartType"`
	Indicator      IndicatorKind `json:"indicator"`
	PriceThreshold float64       `json:"priceThreshold"`
	ShowLegend     bool          `json:"showLegend"`
	ShowHover      bool          `json:"showHover"`
}

// DefaultPriceThreshold is the initial threshold marker value.
const DefaultPriceThreshold = 150.0

// DefaultSelection returns the parameters the dashboard opens with.
func DefaultSelection() Selection {
	return Selection{
		Tickers:        []Ticker{AAPL, NVDA},
		Granularity:    Daily,
		Weekdays:       append([]Weekday(nil), TradingWeekdays...),
		ChartType:      ChartLine,
		Indicator:      IndicatorNone,
		PriceThreshold: DefaultPriceThreshold,
		ShowLegend:     true,
		ShowHover:      true,
	}
}

// Validate checks enum fields and weekday ranges.
// Unknown tickers are allowed; they surface later as missing columns.
func (s Selection) Validate() error {
	var errs []string

	switch s.Granularity {
	case Daily, Weekly, Monthly:
	default:
		errs = append(errs, fmt.Sprintf("unknown granularity %q", s.Granularity))
	}
	switch s.ChartType {
	case ChartLine, ChartCandlestick, ChartArea:
	default:
		errs = append(errs, fmt.Sprintf("unknown chart type %q", s.ChartType))
	}
	switch s.Indicator {
	case IndicatorNone, IndicatorSMA20, IndicatorEMA50, IndicatorRSI14:
	default:
		errs = append(errs, fmt.Sprintf("unknown indicator %q", s.Indicator))
	}
	for _, d := range s.Weekdays {
		if !d.Valid() {
			errs = append(errs, fmt.Sprintf("weekday %d out of range 0-6", int(d)))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid selection: %s", strings.Join(errs, "; "))
	}
	return nil
}

// ParseTickers splits a comma separated list, trimming blanks and upper-casing symbols.
func ParseTickers(list string) []Ticker {
	tickers := make([]Ticker, 0)
	for _, part := range strings.Split(list, ",") {
		part = strings.ToUpper(strings.TrimSpace(part))
		if part == "" {
			continue
		}
		tickers = append(tickers, Ticker(part))
	}
	return tickers
}
