package pipeline

import (
	"math"

	"stockDashboard/internal/domain"
)

// DefaultThresholdBound is the threshold upper bound used when no close price is available.
const DefaultThresholdBound = 100

// ComputeThresholdBound returns the floor of the highest close price across the selected
// tickers. Absent columns and missing values are ignored; when nothing remains the
// DefaultThresholdBound is returned.
func ComputeThresholdBound(table *domain.PriceTable, tickers []domain.Ticker) int {
	maxClose := math.Inf(-1)
	for _, ticker := range tickers {
		values, ok := table.Column(domain.ColumnName(domain.FieldClose, ticker))
		if !ok {
			continue
		}
		for _, v := range values {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				continue
			}
			if v > maxClose {
				maxClose = v
			}
		}
	}

	if math.IsInf(maxClose, -1) {
		return DefaultThresholdBound
	}
	return int(math.Floor(maxClose))
}
