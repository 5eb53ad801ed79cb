// Package dashboard turns a pipeline result into the chart, metric and notice payload
// rendered by the front end.
package dashboard

import (
	"errors"
	"fmt"
	"math"

	"stockDashboard/internal/analysis/pipeline"
	"stockDashboard/internal/domain"
	"stockDashboard/internal/ports"

	"github.com/shopspring/decimal"
)

const (
	FigureHeight     = 600
	MaxMetricColumns = 3
	hoverUnified     = "x unified"
	thresholdColor   = "Red"
)

// Notice levels.
const (
	LevelError   = "error"
	LevelWarning = "warning"
)

// Notice is a message shown outside the metric grid.
type Notice struct {
	Level   string        `json:"level"`
	Code    string        `json:"code,omitempty"`
	Ticker  domain.Ticker `json:"ticker,omitempty"`
	Message string        `json:"message"`
}

// Metric is one summary widget.
type Metric struct {
	Ticker  domain.Ticker `json:"ticker"`
	Label   string        `json:"label"`
	Value   string        `json:"value,omitempty"`
	Delta   string        `json:"delta,omitempty"`
	Level   string        `json:"level,omitempty"` // empty, or LevelError / LevelWarning
	Code    string        `json:"code,omitempty"`
	Message string        `json:"message,omitempty"`
}

// View is the full dashboard payload for one Selection.
// Figure is nil when no company is selected. MetricColumns holds the metric widgets,
// distributed round-robin over at most three columns.
type View struct {
	Selection      domain.Selection `json:"selection"`
	ThresholdBound int              `json:"thresholdBound"`
	Threshold      float64          `json:"threshold"`
	Figure         *Figure          `json:"figure,omitempty"`
	MetricColumns  [][]Metric       `json:"metricColumns"`
	Notices        []Notice         `json:"notices"`
}

// Build assembles the view for res.
func Build(res *pipeline.Result) *View {
	sel := res.Selection
	view := &View{
		Selection:      sel,
		ThresholdBound: res.ThresholdBound,
		Threshold:      ClampThreshold(sel.PriceThreshold, res.ThresholdBound),
		Notices:        make([]Notice, 0),
		MetricColumns:  layoutMetrics(res.Summaries),
	}

	if res.NoSelection {
		view.Notices = append(view.Notices, Notice{Level: LevelWarning, Message: "No companies selected"})
		return view
	}

	view.Figure = &Figure{
		Traces: make([]Trace, 0),
		Shapes: make([]Shape, 0),
		Layout: Layout{
			Height:     FigureHeight,
			ShowLegend: sel.ShowLegend,
			HoverMode:  hoverMode(sel.ShowHover),
			Title:      fmt.Sprintf("Price dynamics (%s)", sel.Granularity),
		},
	}

	x := formatDates(res.Table.Dates)
	if sel.ChartType == domain.ChartCandlestick && len(sel.Tickers) > 1 {
		view.Notices = append(view.Notices, Notice{
			Level:   LevelWarning,
			Message: "Candlestick chart needs exactly one company",
		})
	}
	for _, ticker := range sel.Tickers {
		trace, err := mainTrace(res.Table, ticker, sel.ChartType, len(sel.Tickers), x)
		if err != nil {
			view.Notices = append(view.Notices, errorNotice(ticker, err))
			continue
		}
		if trace != nil {
			view.Figure.Traces = append(view.Figure.Traces, *trace)
		}
	}

	for _, ts := range res.Series {
		if ts.Err != nil {
			view.Notices = append(view.Notices, errorNotice(ts.Ticker, ts.Err))
			continue
		}
		if ts.Series == nil {
			continue
		}
		view.Figure.Traces = append(view.Figure.Traces, overlayTrace(ts.Series, x))
	}

	if len(x) > 0 {
		view.Figure.Shapes = append(view.Figure.Shapes, Shape{
			Type: "line",
			X0:   x[0],
			X1:   x[len(x)-1],
			Y0:   view.Threshold,
			Y1:   view.Threshold,
			Line: Line{Color: thresholdColor, Width: 2, Dash: "dot"},
		})
	}
	return view
}

// ClampThreshold limits a requested threshold to [0, bound].
func ClampThreshold(requested float64, bound int) float64 {
	if math.IsNaN(requested) || requested < 0 {
		return 0
	}
	if requested > float64(bound) {
		return float64(bound)
	}
	return requested
}

func hoverMode(show bool) interface{} {
	if show {
		return hoverUnified
	}
	return false
}

func mainTrace(table *domain.PriceTable, ticker domain.Ticker, chart domain.ChartType, selected int, x []string) (*Trace, error) {
	closeCol := domain.ColumnName(domain.FieldClose, ticker)
	closes, ok := table.Column(closeCol)
	if !ok {
		return nil, fmt.Errorf("column %s: %w", closeCol, ports.ErrMissingColumn)
	}

	switch chart {
	case domain.ChartCandlestick:
		if selected != 1 {
			return nil, nil
		}
		trace := &Trace{Type: "candlestick", Name: string(ticker), X: x, Close: closes}
		for _, f := range []struct {
			field domain.PriceField
			dst   *Values
		}{
			{domain.FieldOpen, &trace.Open},
			{domain.FieldHigh, &trace.High},
			{domain.FieldLow, &trace.Low},
		} {
			col := domain.ColumnName(f.field, ticker)
			values, ok := table.Column(col)
			if !ok {
				return nil, fmt.Errorf("column %s: %w", col, ports.ErrMissingColumn)
			}
			*f.dst = values
		}
		return trace, nil
	case domain.ChartArea:
		return &Trace{Type: "scatter", Name: string(ticker), Mode: "lines", StackGroup: "one", X: x, Y: closes}, nil
	default:
		return &Trace{Type: "scatter", Name: string(ticker), Mode: "lines", Line: &Line{Width: 2}, X: x, Y: closes}, nil
	}
}

func overlayTrace(series *domain.DerivedSeries, x []string) Trace {
	dash := "solid"
	switch series.Kind {
	case domain.IndicatorSMA20:
		dash = "dot"
	case domain.IndicatorEMA50:
		dash = "dash"
	case domain.IndicatorRSI14:
		dash = "dashdot"
	}
	return Trace{
		Type: "scatter",
		Name: fmt.Sprintf("%s (%s)", series.Kind.Label(), series.Ticker),
		Mode: "lines",
		Line: &Line{Dash: dash},
		X:    x,
		Y:    series.Values,
	}
}

func layoutMetrics(summaries []domain.TickerSummary) [][]Metric {
	n := len(summaries)
	if n > MaxMetricColumns {
		n = MaxMetricColumns
	}
	if n == 0 {
		n = 1
	}
	columns := make([][]Metric, n)
	for i := range columns {
		columns[i] = make([]Metric, 0)
	}
	for i, s := range summaries {
		columns[i%n] = append(columns[i%n], metricFor(s))
	}
	return columns
}

func metricFor(s domain.TickerSummary) Metric {
	m := Metric{Ticker: s.Ticker, Label: string(s.Ticker)}

	if s.Stat != nil {
		m.Value = FormatPrice(s.Stat.Last)
		m.Delta = FormatDelta(*s.Stat)
	}
	if s.Err == nil {
		return m
	}

	m.Code = ports.ErrorCode(s.Err)
	switch {
	case errors.Is(s.Err, ports.ErrUndefinedRatio):
		m.Level = LevelWarning
		m.Message = fmt.Sprintf("Percent change for %s is undefined: first close is zero", s.Ticker)
	case errors.Is(s.Err, ports.ErrInsufficientData):
		m.Level = LevelError
		m.Message = fmt.Sprintf("Data error for %s", s.Ticker)
	case !s.Ticker.InUniverse():
		m.Level = LevelError
		m.Message = fmt.Sprintf("Unknown company %s", s.Ticker)
	default:
		m.Level = LevelError
		m.Message = fmt.Sprintf("Data for %s is missing", s.Ticker)
	}
	return m
}

func errorNotice(ticker domain.Ticker, err error) Notice {
	return Notice{
		Level:   LevelError,
		Code:    ports.ErrorCode(err),
		Ticker:  ticker,
		Message: err.Error(),
	}
}

// FormatPrice renders a price as "$123.45".
func FormatPrice(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "n/a"
	}
	return "$" + fixed2(v)
}

// FormatDelta renders the change as "1.23 (4.56%)", or "1.23 (n/a)" when the percent is undefined.
func FormatDelta(stat domain.SummaryStat) string {
	delta := fixed2(stat.Delta)
	if !stat.PercentDefined || math.IsNaN(stat.Percent) || math.IsInf(stat.Percent, 0) {
		return delta + " (n/a)"
	}
	return fmt.Sprintf("%s (%s%%)", delta, fixed2(stat.Percent))
}

// fixed2 formats v with two decimals; decimal cannot represent NaN or infinities.
func fixed2(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "n/a"
	}
	return decimal.NewFromFloat(v).StringFixed(2)
}
