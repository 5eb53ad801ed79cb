package domain

import (
	"math"
	"time"
)

// Ticker is a stock symbol identifying one company's price series.
type Ticker string

const (
	AAPL  Ticker = "AAPL"
	AMZN  Ticker = "AMZN"
	GOOGL Ticker = "GOOGL"
	MSFT  Ticker = "MSFT"
	NVDA  Ticker = "NVDA"
)

// Universe is the fixed set of tickers the source file carries, in display order.
var Universe = []Ticker{AAPL, AMZN, GOOGL, MSFT, NVDA}

// DisplayName returns the company name shown next to a ticker.
func (t Ticker) DisplayName() string {
	switch t {
	case AAPL:
		return "Apple"
	case AMZN:
		return "Amazon"
	case GOOGL:
		return "Google"
	case MSFT:
		return "Microsoft"
	case NVDA:
		return "NVIDIA"
	default:
		return string(t)
	}
}

// InUniverse reports whether t is one of the known tickers.
func (t Ticker) InUniverse() bool {
	for _, u := range Universe {
		if u == t {
			return true
		}
	}
	return false
}

// PriceField names one of the per-ticker OHLC columns.
type PriceField string

const (
	FieldOpen  PriceField = "Open"
	FieldHigh  PriceField = "High"
	FieldLow   PriceField = "Low"
	FieldClose PriceField = "Close"
)

// ColumnName returns the table column holding field for ticker, e.g. "Close_AAPL".
func ColumnName(field PriceField, ticker Ticker) string {
	return string(field) + "_" + string(ticker)
}

// PriceTable is a date-indexed set of numeric columns.
// Dates are UTC midnights, strictly increasing and unique; every column has len(Dates) values
// and NaN marks a missing observation. Tables are treated as immutable: operations build new ones.
type PriceTable struct {
	Dates   []time.Time
	Columns map[string][]float64
	// Order preserves the column order of the source file.
	Order []string
}

// NewPriceTable returns an empty table with the given column order.
func NewPriceTable(columns []string) *PriceTable {
	t := &PriceTable{
		Dates:   make([]time.Time, 0),
		Columns: make(map[string][]float64, len(columns)),
		Order:   append([]string(nil), columns...),
	}
	for _, c := range columns {
		t.Columns[c] = make([]float64, 0)
	}
	return t
}

// Len returns the number of rows.
func (t *PriceTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Dates)
}

// Empty reports whether the table has no rows.
func (t *PriceTable) Empty() bool {
	return t.Len() == 0
}

// HasColumn reports whether the named column exists.
func (t *PriceTable) HasColumn(name string) bool {
	if t == nil {
		return false
	}
	_, ok := t.Columns[name]
	return ok
}

// Column returns the values of the named column.
// The returned slice is shared with the table and must not be modified.
func (t *PriceTable) Column(name string) ([]float64, bool) {
	if t == nil {
		return nil, false
	}
	v, ok := t.Columns[name]
	return v, ok
}

// AppendRow adds a row; values missing from the map are stored as NaN.
// Used only while building a table.
func (t *PriceTable) AppendRow(date time.Time, values map[string]float64) {
	t.Dates = append(t.Dates, date)
	for _, c := range t.Order {
		v, ok := values[c]
		if !ok {
			v = math.NaN()
		}
		t.Columns[c] = append(t.Columns[c], v)
	}
}

// SelectRows returns a new table holding the rows at the given indices, in that order.
func (t *PriceTable) SelectRows(indices []int) *PriceTable {
	out := &PriceTable{
		Dates:   make([]time.Time, len(indices)),
		Columns: make(map[string][]float64, len(t.Columns)),
		Order:   append([]string(nil), t.Order...),
	}
	for i, idx := range indices {
		out.Dates[i] = t.Dates[idx]
	}
	for name, values := range t.Columns {
		col := make([]float64, len(indices))
		for i, idx := range indices {
			col[i] = values[idx]
		}
		out.Columns[name] = col
	}
	return out
}

// Weekday indexes days Monday=0 … Sunday=6.
type Weekday int

const (
	Monday Weekday = iota
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
	Sunday
)

// AllWeekdays is the full Monday–Sunday set.
var AllWeekdays = []Weekday{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday}

// TradingWeekdays is the Monday–Friday set.
var TradingWeekdays = []Weekday{Monday, Tuesday, Wednesday, Thursday, Friday}

// WeekdayOf converts a date to its Monday-based index.
func WeekdayOf(date time.Time) Weekday {
	return Weekday((int(date.Weekday()) + 6) % 7)
}

// Valid reports whether d is within 0–6.
func (d Weekday) Valid() bool {
	return d >= Monday && d <= Sunday
}

func (d Weekday) String() string {
	switch d {
	case Monday:
		return "Mon"
	case Tuesday:
		return "Tue"
	case Wednesday:
		return "Wed"
	case Thursday:
		return "Thu"
	case Friday:
		return "Fri"
	case Saturday:
		return "Sat"
	case Sunday:
		return "Sun"
	default:
		return "Unknown"
	}
}
