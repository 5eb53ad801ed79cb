package pipeline

import "stockDashboard/internal/domain"

// FilterByWeekday keeps the rows whose date falls on one of the allowed weekdays, in order.
// An empty allowed set yields an empty table.
func FilterByWeekday(table *domain.PriceTable, allowed []domain.Weekday) *domain.PriceTable {
	if table == nil {
		return domain.NewPriceTable(nil)
	}

	var allow [7]bool
	for _, d := range allowed {
		if d.Valid() {
			allow[d] = true
		}
	}

	indices := make([]int, 0, table.Len())
	for i, date := range table.Dates {
		if allow[domain.WeekdayOf(date)] {
			indices = append(indices, i)
		}
	}
	return table.SelectRows(indices)
}
