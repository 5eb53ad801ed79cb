package pipeline

import (
	"fmt"
	"math"

	"stockDashboard/internal/domain"
	"stockDashboard/internal/ports"
)

// ComputeSummary reports the close-price move of ticker over the filtered table.
//
// The returned error wraps one of ports.ErrMissingColumn, ports.ErrEmptyWindow,
// ports.ErrInsufficientData or ports.ErrUndefinedRatio. A ratio is undefined when the first
// close is zero or the change does not fit a float64; the stat is still returned with First,
// Last and Delta set and PercentDefined false.
func ComputeSummary(table *domain.PriceTable, ticker domain.Ticker) (domain.SummaryStat, error) {
	stat := domain.SummaryStat{Ticker: ticker}

	column := domain.ColumnName(domain.FieldClose, ticker)
	values, ok := table.Column(column)
	if !ok {
		return stat, fmt.Errorf("summary for %s: column %s: %w", ticker, column, ports.ErrMissingColumn)
	}
	if table.Empty() {
		return stat, fmt.Errorf("summary for %s: %w", ticker, ports.ErrEmptyWindow)
	}

	first, okFirst := firstObserved(values)
	last := lastObserved(values)
	if !okFirst || math.IsNaN(last) {
		return stat, fmt.Errorf("summary for %s: no observed close in %d rows: %w", ticker, len(values), ports.ErrInsufficientData)
	}

	stat.First = first
	stat.Last = last
	stat.Delta = last - first
	if first == 0 {
		return stat, fmt.Errorf("summary for %s: %w", ticker, ports.ErrUndefinedRatio)
	}
	percent := stat.Delta / first * 100
	if math.IsNaN(percent) || math.IsInf(percent, 0) || math.IsInf(stat.Delta, 0) {
		return stat, fmt.Errorf("summary for %s: change from %g is not finite: %w", ticker, first, ports.ErrUndefinedRatio)
	}
	stat.Percent = percent
	stat.PercentDefined = true
	return stat, nil
}

func firstObserved(values []float64) (float64, bool) {
	for _, v := range values {
		if !math.IsNaN(v) {
			return v, true
		}
	}
	return 0, false
}
