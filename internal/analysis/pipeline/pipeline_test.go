package pipeline

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockDashboard/internal/domain"
	"stockDashboard/internal/ports"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// dailyTable builds a table with one row per calendar day starting at start.
func dailyTable(start time.Time, columns map[string][]float64) *domain.PriceTable {
	order := make([]string, 0, len(columns))
	n := 0
	for name, values := range columns {
		order = append(order, name)
		n = len(values)
	}
	table := domain.NewPriceTable(order)
	for i := 0; i < n; i++ {
		row := make(map[string]float64, len(columns))
		for name, values := range columns {
			row[name] = values[i]
		}
		table.AppendRow(start.AddDate(0, 0, i), row)
	}
	return table
}

func seq(from float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = from + float64(i)
	}
	return out
}

func TestResample(t *testing.T) {
	nan := math.NaN()

	tests := []struct {
		name        string
		start       time.Time
		closes      []float64
		granularity domain.Granularity
		wantDates   []time.Time
		wantCloses  []float64
	}{
		{
			name:        "daily is identity",
			start:       day(2024, time.January, 1),
			closes:      seq(100, 3),
			granularity: domain.Daily,
			wantDates:   []time.Time{day(2024, time.January, 1), day(2024, time.January, 2), day(2024, time.January, 3)},
			wantCloses:  []float64{100, 101, 102},
		},
		{
			name:        "weekly keeps last row keyed by Sunday",
			start:       day(2024, time.January, 3), // Wednesday
			closes:      seq(100, 14),
			granularity: domain.Weekly,
			wantDates:   []time.Time{day(2024, time.January, 7), day(2024, time.January, 14), day(2024, time.January, 21)},
			wantCloses:  []float64{104, 111, 113},
		},
		{
			name:        "weekly takes last observed value",
			start:       day(2024, time.January, 1), // Monday
			closes:      []float64{1, 2, 3, 4, 5, nan, nan},
			granularity: domain.Weekly,
			wantDates:   []time.Time{day(2024, time.January, 7)},
			wantCloses:  []float64{5},
		},
		{
			name:        "monthly keyed by month end across leap February",
			start:       day(2024, time.January, 30),
			closes:      seq(10, 4), // Jan 30, Jan 31, Feb 1, Feb 2
			granularity: domain.Monthly,
			wantDates:   []time.Time{day(2024, time.January, 31), day(2024, time.February, 29)},
			wantCloses:  []float64{11, 13},
		},
		{
			name:        "empty input yields empty output",
			start:       day(2024, time.January, 1),
			closes:      []float64{},
			granularity: domain.Monthly,
			wantDates:   []time.Time{},
			wantCloses:  []float64{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table := dailyTable(tt.start, map[string][]float64{"Close_AAPL": tt.closes})
			out := Resample(table, tt.granularity)

			assert.Equal(t, tt.wantDates, out.Dates)
			closes, ok := out.Column("Close_AAPL")
			require.True(t, ok)
			assert.Equal(t, tt.wantCloses, closes)
		})
	}
}

func TestResample_LengthNeverGrows(t *testing.T) {
	table := dailyTable(day(2023, time.December, 20), map[string][]float64{
		"Close_AAPL": seq(1, 60),
		"Open_AAPL":  seq(2, 60),
	})

	for _, g := range domain.Granularities {
		out := Resample(table, g)
		assert.LessOrEqual(t, out.Len(), table.Len(), "granularity %s", g)
		if g == domain.Daily {
			assert.Equal(t, table.Len(), out.Len())
		}
		for i := 1; i < out.Len(); i++ {
			assert.True(t, out.Dates[i].After(out.Dates[i-1]), "dates must stay ascending")
		}
		assert.Len(t, out.Columns, 2)
	}
}

func TestFilterByWeekday(t *testing.T) {
	// Monday 2024-01-01 through Sunday 2024-01-14
	table := dailyTable(day(2024, time.January, 1), map[string][]float64{"Close_AAPL": seq(100, 14)})

	t.Run("full set returns input unchanged", func(t *testing.T) {
		out := FilterByWeekday(table, domain.AllWeekdays)
		assert.Equal(t, table.Dates, out.Dates)
		assert.Equal(t, table.Columns, out.Columns)
	})

	t.Run("empty set returns empty table", func(t *testing.T) {
		out := FilterByWeekday(table, nil)
		assert.True(t, out.Empty())
		assert.True(t, out.HasColumn("Close_AAPL"))
	})

	t.Run("weekends only", func(t *testing.T) {
		out := FilterByWeekday(table, []domain.Weekday{domain.Saturday, domain.Sunday})
		closes, _ := out.Column("Close_AAPL")
		assert.Equal(t, []float64{105, 106, 112, 113}, closes)
	})

	t.Run("out of range days are ignored", func(t *testing.T) {
		out := FilterByWeekday(table, []domain.Weekday{domain.Weekday(9), domain.Monday})
		assert.Equal(t, []time.Time{day(2024, time.January, 1), day(2024, time.January, 8)}, out.Dates)
	})
}

func TestComputeThresholdBound(t *testing.T) {
	nan := math.NaN()
	table := dailyTable(day(2024, time.January, 1), map[string][]float64{
		"Close_AAPL": {150.2, 187.9, nan},
		"Close_NVDA": {480.5, 495.99, 470},
		"Close_MSFT": {nan, nan, nan},
	})

	tests := []struct {
		name    string
		table   *domain.PriceTable
		tickers []domain.Ticker
		want    int
	}{
		{name: "empty selection", table: table, tickers: nil, want: 100},
		{name: "single ticker floors max", table: table, tickers: []domain.Ticker{domain.AAPL}, want: 187},
		{name: "max across tickers", table: table, tickers: []domain.Ticker{domain.AAPL, domain.NVDA}, want: 495},
		{name: "absent column falls back", table: table, tickers: []domain.Ticker{domain.AMZN}, want: 100},
		{name: "absent column is skipped", table: table, tickers: []domain.Ticker{domain.AMZN, domain.AAPL}, want: 187},
		{name: "no numeric data falls back", table: table, tickers: []domain.Ticker{domain.MSFT}, want: 100},
		{name: "nil table falls back", table: nil, tickers: []domain.Ticker{domain.AAPL}, want: 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ComputeThresholdBound(tt.table, tt.tickers))
		})
	}
}

func TestComputeSummary(t *testing.T) {
	nan := math.NaN()

	tests := []struct {
		name        string
		columns     map[string][]float64
		ticker      domain.Ticker
		wantErr     error
		wantStat    domain.SummaryStat
		wantPercent bool
	}{
		{
			name:        "regular window",
			columns:     map[string][]float64{"Close_AAPL": {100, 105, 110}},
			ticker:      domain.AAPL,
			wantStat:    domain.SummaryStat{Ticker: domain.AAPL, First: 100, Last: 110, Delta: 10, Percent: 10, PercentDefined: true},
			wantPercent: true,
		},
		{
			name:        "single row has zero change",
			columns:     map[string][]float64{"Close_AAPL": {42}},
			ticker:      domain.AAPL,
			wantStat:    domain.SummaryStat{Ticker: domain.AAPL, First: 42, Last: 42, Delta: 0, Percent: 0, PercentDefined: true},
			wantPercent: true,
		},
		{
			name:     "zero first close is undefined ratio",
			columns:  map[string][]float64{"Close_AAPL": {0, 5}},
			ticker:   domain.AAPL,
			wantErr:  ports.ErrUndefinedRatio,
			wantStat: domain.SummaryStat{Ticker: domain.AAPL, First: 0, Last: 5, Delta: 5},
		},
		{
			name:     "single zero row is undefined ratio",
			columns:  map[string][]float64{"Close_AAPL": {0}},
			ticker:   domain.AAPL,
			wantErr:  ports.ErrUndefinedRatio,
			wantStat: domain.SummaryStat{Ticker: domain.AAPL},
		},
		{
			name:     "missing column",
			columns:  map[string][]float64{"Close_AAPL": {1, 2}},
			ticker:   domain.NVDA,
			wantErr:  ports.ErrMissingColumn,
			wantStat: domain.SummaryStat{Ticker: domain.NVDA},
		},
		{
			name:     "empty window",
			columns:  map[string][]float64{"Close_AAPL": {}},
			ticker:   domain.AAPL,
			wantErr:  ports.ErrEmptyWindow,
			wantStat: domain.SummaryStat{Ticker: domain.AAPL},
		},
		{
			name:     "no observed close",
			columns:  map[string][]float64{"Close_AAPL": {nan, nan}},
			ticker:   domain.AAPL,
			wantErr:  ports.ErrInsufficientData,
			wantStat: domain.SummaryStat{Ticker: domain.AAPL},
		},
		{
			name:     "tiny first close overflows the ratio",
			columns:  map[string][]float64{"Close_AAPL": {1e-320, 100}},
			ticker:   domain.AAPL,
			wantErr:  ports.ErrUndefinedRatio,
			wantStat: domain.SummaryStat{Ticker: domain.AAPL, First: 1e-320, Last: 100, Delta: 100 - 1e-320},
		},
		{
			name:        "missing edges use observed values",
			columns:     map[string][]float64{"Close_AAPL": {nan, 50, 75, nan}},
			ticker:      domain.AAPL,
			wantStat:    domain.SummaryStat{Ticker: domain.AAPL, First: 50, Last: 75, Delta: 25, Percent: 50, PercentDefined: true},
			wantPercent: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table := dailyTable(day(2024, time.January, 1), tt.columns)
			stat, err := ComputeSummary(table, tt.ticker)

			if tt.wantErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.wantStat, stat)
			assert.Equal(t, tt.wantPercent, stat.PercentDefined)
		})
	}
}

func TestPipeline_ComputeIndicator(t *testing.T) {
	ctx := context.Background()
	closes := seq(100, 30)

	t.Run("none produces no series", func(t *testing.T) {
		values, err := New(Config{}).ComputeIndicator(ctx, closes, domain.IndicatorNone)
		require.NoError(t, err)
		assert.Nil(t, values)
	})

	t.Run("sma20 is aligned and causal", func(t *testing.T) {
		values, err := New(Config{}).ComputeIndicator(ctx, closes, domain.IndicatorSMA20)
		require.NoError(t, err)
		require.Len(t, values, len(closes))
		for i := 0; i < SMAWindow-1; i++ {
			assert.True(t, math.IsNaN(values[i]), "position %d", i)
		}
		assert.InDelta(t, 109.5, values[19], 1e-9)
	})

	t.Run("ema50 starts at the seed", func(t *testing.T) {
		values, err := New(Config{}).ComputeIndicator(ctx, closes, domain.IndicatorEMA50)
		require.NoError(t, err)
		require.Len(t, values, len(closes))
		assert.Equal(t, 100.0, values[0])
	})

	t.Run("rsi14 unsupported by default", func(t *testing.T) {
		_, err := New(Config{}).ComputeIndicator(ctx, closes, domain.IndicatorRSI14)
		assert.ErrorIs(t, err, ports.ErrUnsupportedIndicator)
	})

	t.Run("rsi14 when enabled", func(t *testing.T) {
		values, err := New(Config{RSIEnabled: true}).ComputeIndicator(ctx, closes, domain.IndicatorRSI14)
		require.NoError(t, err)
		require.Len(t, values, len(closes))
		assert.True(t, math.IsNaN(values[RSIPeriod-1]))
		assert.Equal(t, 100.0, values[RSIPeriod])
	})

	t.Run("unknown kind", func(t *testing.T) {
		_, err := New(Config{}).ComputeIndicator(ctx, closes, domain.IndicatorKind("macd"))
		assert.ErrorIs(t, err, ports.ErrUnsupportedIndicator)
	})
}

func TestPipeline_Run_WeekdaysOnlyDaily(t *testing.T) {
	// Monday 2024-01-01 through Sunday 2024-01-14, Close_AAPL = 100..113
	source := dailyTable(day(2024, time.January, 1), map[string][]float64{"Close_AAPL": seq(100, 14)})

	sel := domain.DefaultSelection()
	sel.Tickers = []domain.Ticker{domain.AAPL}
	sel.Weekdays = domain.TradingWeekdays
	sel.Granularity = domain.Daily

	res, err := New(Config{}).Run(context.Background(), source, sel)
	require.NoError(t, err)

	assert.False(t, res.NoSelection)
	assert.Equal(t, 10, res.Table.Len())
	assert.Equal(t, 113, res.ThresholdBound)
	assert.Empty(t, res.Series)

	require.Len(t, res.Summaries, 1)
	summary := res.Summaries[0]
	require.NoError(t, summary.Err)
	require.NotNil(t, summary.Stat)
	closes, _ := res.Table.Column("Close_AAPL")
	assert.Equal(t, closes[9]-closes[0], summary.Stat.Delta)
	assert.Equal(t, 11.0, summary.Stat.Delta)
	assert.InDelta(t, 11.0, summary.Stat.Percent, 1e-9)
}

func TestPipeline_Run_EmptySelection(t *testing.T) {
	source := dailyTable(day(2024, time.January, 1), map[string][]float64{"Close_AAPL": seq(100, 14)})

	sel := domain.DefaultSelection()
	sel.Tickers = nil

	res, err := New(Config{}).Run(context.Background(), source, sel)
	require.NoError(t, err)

	assert.True(t, res.NoSelection)
	assert.Equal(t, DefaultThresholdBound, res.ThresholdBound)
	assert.Empty(t, res.Summaries)
	assert.Empty(t, res.Series)
}

func TestPipeline_Run_PerTickerMarkers(t *testing.T) {
	source := dailyTable(day(2024, time.January, 1), map[string][]float64{
		"Close_AAPL": seq(100, 14),
		"Close_MSFT": append([]float64{0}, seq(1, 13)...),
	})

	sel := domain.DefaultSelection()
	sel.Tickers = []domain.Ticker{domain.AAPL, domain.GOOGL, domain.MSFT}
	sel.Weekdays = domain.AllWeekdays
	sel.Indicator = domain.IndicatorSMA20

	res, err := New(Config{}).Run(context.Background(), source, sel)
	require.NoError(t, err)

	require.Len(t, res.Series, 3)
	assert.NoError(t, res.Series[0].Err)
	require.NotNil(t, res.Series[0].Series)
	assert.Len(t, res.Series[0].Series.Values, 14)
	assert.ErrorIs(t, res.Series[1].Err, ports.ErrMissingColumn)
	assert.Nil(t, res.Series[1].Series)

	require.Len(t, res.Summaries, 3)
	assert.NoError(t, res.Summaries[0].Err)
	assert.ErrorIs(t, res.Summaries[1].Err, ports.ErrMissingColumn)
	assert.Nil(t, res.Summaries[1].Stat)
	assert.ErrorIs(t, res.Summaries[2].Err, ports.ErrUndefinedRatio)
	require.NotNil(t, res.Summaries[2].Stat)
	assert.Equal(t, 13.0, res.Summaries[2].Stat.Delta)
}

func TestPipeline_Run_WeeklyRowsAreKeyedBySunday(t *testing.T) {
	source := dailyTable(day(2024, time.January, 1), map[string][]float64{"Close_AAPL": seq(100, 14)})

	sel := domain.DefaultSelection()
	sel.Tickers = []domain.Ticker{domain.AAPL}
	sel.Granularity = domain.Weekly

	sel.Weekdays = domain.TradingWeekdays
	res, err := New(Config{}).Run(context.Background(), source, sel)
	require.NoError(t, err)
	assert.True(t, res.Table.Empty())
	assert.ErrorIs(t, res.Summaries[0].Err, ports.ErrEmptyWindow)

	sel.Weekdays = []domain.Weekday{domain.Sunday}
	res, err = New(Config{}).Run(context.Background(), source, sel)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Table.Len())
	assert.Equal(t, 7.0, res.Summaries[0].Stat.Delta)
}

func TestPipeline_Run_InvalidSelection(t *testing.T) {
	sel := domain.DefaultSelection()
	sel.Granularity = "hourly"

	_, err := New(Config{}).Run(context.Background(), nil, sel)
	assert.ErrorIs(t, err, ports.ErrInvalidRequest)
}
