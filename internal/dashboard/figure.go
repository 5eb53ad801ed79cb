package dashboard

import (
	"math"
	"strconv"
	"time"
)

const dateLayout = "2006-01-02"

// Values is a numeric series that encodes NaN as JSON null.
type Values []float64

// MarshalJSON implements json.Marshaler.
func (v Values) MarshalJSON() ([]byte, error) {
	if v == nil {
		return []byte("null"), nil
	}
	buf := make([]byte, 0, 2+len(v)*8)
	buf = append(buf, '[')
	for i, f := range v {
		if i > 0 {
			buf = append(buf, ',')
		}
		if math.IsNaN(f) || math.IsInf(f, 0) {
			buf = append(buf, "null"...)
			continue
		}
		buf = strconv.AppendFloat(buf, f, 'f', -1, 64)
	}
	buf = append(buf, ']')
	return buf, nil
}

// Line is a trace or shape stroke style.
type Line struct {
	Width int    `json:"width,omitempty"`
	Dash  string `json:"dash,omitempty"`
	Color string `json:"color,omitempty"`
}

// Trace is one plotted series.
type Trace struct {
	Type       string   `json:"type"` // scatter or candlestick
	Name       string   `json:"name"`
	Mode       string   `json:"mode,omitempty"`
	StackGroup string   `json:"stackgroup,omitempty"`
	Line       *Line    `json:"line,omitempty"`
	X          []string `json:"x"`
	Y          Values   `json:"y,omitempty"`
	Open       Values   `json:"open,omitempty"`
	High       Values   `json:"high,omitempty"`
	Low        Values   `json:"low,omitempty"`
	Close      Values   `json:"close,omitempty"`
}

// Shape is a horizontal marker drawn across the plot.
type Shape struct {
	Type string  `json:"type"`
	X0   string  `json:"x0"`
	X1   string  `json:"x1"`
	Y0   float64 `json:"y0"`
	Y1   float64 `json:"y1"`
	Line Line    `json:"line"`
}

// XAxis holds x-axis options.
type XAxis struct {
	RangeSliderVisible bool `json:"rangeslider_visible"`
}

// Layout holds figure-wide options.
type Layout struct {
	Height     int         `json:"height"`
	ShowLegend bool        `json:"showlegend"`
	HoverMode  interface{} `json:"hovermode"` // "x unified" or false
	Title      string      `json:"title"`
	XAxis      XAxis       `json:"xaxis"`
}

// Figure is the chart payload.
type Figure struct {
	Traces []Trace `json:"data"`
	Shapes []Shape `json:"shapes"`
	Layout Layout  `json:"layout"`
}

func formatDates(dates []time.Time) []string {
	out := make([]string, len(dates))
	for i, d := range dates {
		out[i] = d.Format(dateLayout)
	}
	return out
}
