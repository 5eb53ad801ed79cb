package utils

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"stockDashboard/internal/domain"
)

// DateColumn is the header of the date column in price CSV files.
const DateColumn = "Date"

var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006/01/02",
	"01/02/2006",
}

// CSVStats describes what the reader dropped while building a table.
type CSVStats struct {
	Rows           int // data rows read
	SkippedRows    int // rows whose date could not be parsed
	DuplicateDates int // rows replaced by a later row with the same date
	// DuplicateColumns counts header names repeated after their first occurrence; repeats are ignored.
	DuplicateColumns int
}

// NamedSeries is an extra column appended when writing a table.
type NamedSeries struct {
	Name   string
	Values []float64
}

// ReadPriceTableFromCSV loads a wide price table (Date plus one column per field and ticker) from a file.
func ReadPriceTableFromCSV(filename string) (*domain.PriceTable, CSVStats, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, CSVStats{}, err
	}
	defer file.Close()

	return ReadPriceTable(file)
}

// ReadPriceTable parses a wide price table.
// Empty, "NA", "NaN" and "null" cells, infinities and unparsable numbers become NaN. Rows with an unparsable
// date are skipped. Rows are sorted by date; for repeated dates the later row wins.
func ReadPriceTable(r io.Reader) (*domain.PriceTable, CSVStats, error) {
	var stats CSVStats

	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, stats, errors.New("price csv is empty")
		}
		return nil, stats, fmt.Errorf("failed to read price csv header: %w", err)
	}

	dateIdx := -1
	columns := make([]string, 0, len(header))
	columnIdx := make([]int, 0, len(header))
	seen := make(map[string]bool, len(header))
	for i, h := range header {
		if i == 0 {
			h = strings.TrimPrefix(h, "\ufeff")
		}
		h = strings.TrimSpace(strings.Trim(h, "\""))
		if strings.EqualFold(h, DateColumn) && dateIdx == -1 {
			dateIdx = i
			continue
		}
		if h == "" {
			continue
		}
		if seen[h] {
			stats.DuplicateColumns++
			continue
		}
		seen[h] = true
		columns = append(columns, h)
		columnIdx = append(columnIdx, i)
	}
	if dateIdx == -1 {
		return nil, stats, fmt.Errorf("price csv has no %q column", DateColumn)
	}

	type row struct {
		date   time.Time
		values map[string]float64
	}
	rows := make([]row, 0)

	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, stats, fmt.Errorf("failed to read price csv row %d: %w", stats.Rows+2, err)
		}
		stats.Rows++

		if dateIdx >= len(record) {
			stats.SkippedRows++
			continue
		}
		date, ok := parseDate(record[dateIdx])
		if !ok {
			stats.SkippedRows++
			continue
		}

		values := make(map[string]float64, len(columns))
		for i, name := range columns {
			idx := columnIdx[i]
			if idx >= len(record) {
				values[name] = math.NaN()
				continue
			}
			values[name] = parseValue(record[idx])
		}
		rows = append(rows, row{date: date, values: values})
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].date.Before(rows[j].date)
	})

	table := domain.NewPriceTable(columns)
	for i, rw := range rows {
		if i+1 < len(rows) && rows[i+1].date.Equal(rw.date) {
			stats.DuplicateDates++
			continue
		}
		table.AppendRow(rw.date, rw.values)
	}
	return table, stats, nil
}

// WritePriceTableToCSV writes table, followed by any extra series columns, to filename.
// Missing values are written as empty cells.
func WritePriceTableToCSV(table *domain.PriceTable, extra []NamedSeries, filename string) (err error) {
	if dir := filepath.Dir(filename); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory '%s': %w", dir, err)
		}
	}
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := file.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close '%s': %w", filename, cerr)
		}
	}()

	return WritePriceTable(file, table, extra)
}

// WritePriceTable writes table in the same wide layout ReadPriceTable accepts.
func WritePriceTable(w io.Writer, table *domain.PriceTable, extra []NamedSeries) error {
	writer := csv.NewWriter(w)

	header := append([]string{DateColumn}, table.Order...)
	for _, s := range extra {
		if len(s.Values) != table.Len() {
			return fmt.Errorf("series %s has %d values, table has %d rows", s.Name, len(s.Values), table.Len())
		}
		header = append(header, s.Name)
	}
	if err := writer.Write(header); err != nil {
		return err
	}

	for i, date := range table.Dates {
		record := make([]string, 0, len(header))
		record = append(record, date.Format("2006-01-02"))
		for _, name := range table.Order {
			record = append(record, formatValue(table.Columns[name][i]))
		}
		for _, s := range extra {
			record = append(record, formatValue(s.Values[i]))
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

func parseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(strings.Trim(s, "\""))
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			y, m, d := t.Date()
			return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), true
		}
	}
	return time.Time{}, false
}

func parseValue(s string) float64 {
	s = strings.TrimSpace(strings.Trim(s, "\""))
	switch s {
	case "", "NA", "NaN", "nan", "null":
		return math.NaN()
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(v, 0) {
		return math.NaN()
	}
	return v
}

func formatValue(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
