package pipeline

import (
	"math"
	"time"

	"stockDashboard/internal/domain"
)

// Resample reduces table to one row per calendar period of the given granularity.
// Daily returns the table unchanged. Weekly buckets end on Sunday and monthly buckets on the
// last day of the month; each bucket is keyed by its end date and keeps, per column, the last
// observed value in the bucket. Empty buckets are not emitted, so the output is never longer
// than the input and stays in ascending order.
func Resample(table *domain.PriceTable, granularity domain.Granularity) *domain.PriceTable {
	if table == nil {
		return domain.NewPriceTable(nil)
	}

	var bucketEnd func(time.Time) time.Time
	switch granularity {
	case domain.Weekly:
		bucketEnd = weekEnd
	case domain.Monthly:
		bucketEnd = monthEnd
	default:
		return table
	}

	out := domain.NewPriceTable(table.Order)
	for name := range table.Columns {
		if _, ok := out.Columns[name]; !ok {
			out.Columns[name] = make([]float64, 0)
		}
	}

	start := 0
	for start < table.Len() {
		end := bucketEnd(table.Dates[start])
		stop := start + 1
		for stop < table.Len() && !table.Dates[stop].After(end) {
			stop++
		}

		out.Dates = append(out.Dates, end)
		for name, values := range table.Columns {
			out.Columns[name] = append(out.Columns[name], lastObserved(values[start:stop]))
		}
		start = stop
	}
	return out
}

// weekEnd returns the Sunday closing the week that contains d.
func weekEnd(d time.Time) time.Time {
	daysToSunday := (7 - int(d.Weekday())) % 7
	y, m, day := d.Date()
	return time.Date(y, m, day+daysToSunday, 0, 0, 0, 0, d.Location())
}

// monthEnd returns the last calendar day of d's month.
func monthEnd(d time.Time) time.Time {
	y, m, _ := d.Date()
	return time.Date(y, m+1, 0, 0, 0, 0, 0, d.Location())
}

func lastObserved(values []float64) float64 {
	for i := len(values) - 1; i >= 0; i-- {
		if !math.IsNaN(values[i]) {
			return values[i]
		}
	}
	return math.NaN()
}
