// Package pipeline turns the cached price table and a dashboard Selection into the resampled,
// weekday-filtered table, per-ticker indicator series and per-ticker summary statistics.
// Everything here is a pure function of its inputs.
package pipeline

import (
	"context"
	"errors"
	"fmt"

	"stockDashboard/internal/analysis/indicators"
	"stockDashboard/internal/domain"
	"stockDashboard/internal/ports"
)

const (
	SMAWindow = 20
	EMASpan   = 50
	RSIPeriod = 14
)

// Config holds pipeline options.
type Config struct {
	// RSIEnabled turns the RSI-14 choice from an "unsupported" marker into a computed series.
	RSIEnabled bool
}

// Pipeline runs the series transformations for one Selection at a time.
type Pipeline struct {
	cfg Config
}

// New creates a Pipeline.
func New(cfg Config) *Pipeline {
	return &Pipeline{cfg: cfg}
}

// Result is everything the dashboard needs to render one Selection.
type Result struct {
	Selection domain.Selection
	// ThresholdBound is computed on the unfiltered table.
	ThresholdBound int
	// Table is the resampled, weekday-filtered table.
	Table *domain.PriceTable
	// Series has one entry per selected ticker, or none when the indicator is None.
	Series []domain.TickerSeries
	// Summaries has one entry per selected ticker.
	Summaries []domain.TickerSummary
	// NoSelection is set when no ticker was selected.
	NoSelection bool
}

// ComputeIndicator derives the indicator series for one ticker's close prices.
// IndicatorNone yields a nil series and no error. RSI-14 fails with
// ports.ErrUnsupportedIndicator unless enabled in Config.
func (p *Pipeline) ComputeIndicator(ctx context.Context, closes []float64, kind domain.IndicatorKind) ([]float64, error) {
	var ind indicators.Indicator
	switch kind {
	case domain.IndicatorNone:
		return nil, nil
	case domain.IndicatorSMA20:
		ind = indicators.NewSMA(SMAWindow)
	case domain.IndicatorEMA50:
		ind = indicators.NewEMA(EMASpan)
	case domain.IndicatorRSI14:
		if !p.cfg.RSIEnabled {
			return nil, fmt.Errorf("%s: %w", kind.Label(), ports.ErrUnsupportedIndicator)
		}
		ind = indicators.NewRSI(indicators.RSIConfig{IndicatorConfig: indicators.IndicatorConfig{Period: RSIPeriod}})
	default:
		return nil, fmt.Errorf("indicator %q: %w", kind, ports.ErrUnsupportedIndicator)
	}

	values, err := ind.Calculate(ctx, closes)
	if err != nil {
		return nil, fmt.Errorf("failed to calculate %s: %w", ind.Name(), err)
	}
	return values, nil
}

// Run evaluates sel against the source table. Per-ticker problems are recorded in the Result;
// only an invalid Selection is returned as an error.
func (p *Pipeline) Run(ctx context.Context, source *domain.PriceTable, sel domain.Selection) (*Result, error) {
	if err := sel.Validate(); err != nil {
		return nil, fmt.Errorf("%v: %w", err, ports.ErrInvalidRequest)
	}
	if source == nil {
		source = domain.NewPriceTable(nil)
	}

	res := &Result{
		Selection:      sel,
		ThresholdBound: ComputeThresholdBound(source, sel.Tickers),
		Table:          FilterByWeekday(Resample(source, sel.Granularity), sel.Weekdays),
		Series:         make([]domain.TickerSeries, 0),
		Summaries:      make([]domain.TickerSummary, 0, len(sel.Tickers)),
		NoSelection:    len(sel.Tickers) == 0,
	}

	for _, ticker := range sel.Tickers {
		if sel.Indicator != domain.IndicatorNone {
			res.Series = append(res.Series, p.tickerSeries(ctx, res.Table, ticker, sel.Indicator))
		}

		stat, err := ComputeSummary(res.Table, ticker)
		summary := domain.TickerSummary{Ticker: ticker, Err: err}
		if err == nil || errors.Is(err, ports.ErrUndefinedRatio) {
			s := stat
			summary.Stat = &s
		}
		res.Summaries = append(res.Summaries, summary)
	}
	return res, nil
}

func (p *Pipeline) tickerSeries(ctx context.Context, table *domain.PriceTable, ticker domain.Ticker, kind domain.IndicatorKind) domain.TickerSeries {
	out := domain.TickerSeries{Ticker: ticker}

	column := domain.ColumnName(domain.FieldClose, ticker)
	closes, ok := table.Column(column)
	if !ok {
		out.Err = fmt.Errorf("%s for %s: column %s: %w", kind.Label(), ticker, column, ports.ErrMissingColumn)
		return out
	}

	values, err := p.ComputeIndicator(ctx, closes, kind)
	if err != nil {
		out.Err = fmt.Errorf("%s for %s: %w", kind.Label(), ticker, err)
		return out
	}
	out.Series = &domain.DerivedSeries{Ticker: ticker, Kind: kind, Values: values}
	return out
}
