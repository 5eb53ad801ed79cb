package pricedata

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"stockDashboard/internal/domain"
	"stockDashboard/internal/ports"
	"stockDashboard/internal/utils"
)

// CSVSource reads the wide price CSV from disk.
type CSVSource struct {
	Path   string
	Logger ports.Logger
}

// NewCSVSource creates a source for the file at path.
func NewCSVSource(path string, logger ports.Logger) *CSVSource {
	return &CSVSource{Path: path, Logger: logger}
}

// Fingerprint identifies the current file contents by absolute path, size and modification time.
func (s *CSVSource) Fingerprint(ctx context.Context) (string, error) {
	info, err := os.Stat(s.Path)
	if err != nil {
		return "", fmt.Errorf("stat %s: %w: %w", s.Path, ports.ErrSourceUnavailable, err)
	}
	path := s.Path
	if abs, err := filepath.Abs(s.Path); err == nil {
		path = abs
	}
	return fmt.Sprintf("%s|%d|%d", path, info.Size(), info.ModTime().UnixNano()), nil
}

// Load parses the CSV file into a PriceTable.
func (s *CSVSource) Load(ctx context.Context) (*domain.PriceTable, error) {
	table, stats, err := utils.ReadPriceTableFromCSV(s.Path)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w: %w", s.Path, ports.ErrSourceUnavailable, err)
	}

	fields := map[string]interface{}{
		"path":    s.Path,
		"rows":    stats.Rows,
		"columns": len(table.Order),
	}
	if s.Logger != nil {
		s.Logger.Info(ctx, "Price CSV loaded", fields)
		if stats.SkippedRows > 0 || stats.DuplicateDates > 0 || stats.DuplicateColumns > 0 {
			s.Logger.Warn(ctx, "Price CSV had unusable rows", map[string]interface{}{
				"path":             s.Path,
				"skippedRows":      stats.SkippedRows,
				"duplicateDates":   stats.DuplicateDates,
				"duplicateColumns": stats.DuplicateColumns,
			})
		}
		if missing := MissingCloseColumns(table); len(missing) > 0 {
			s.Logger.Warn(ctx, "Price CSV lacks close prices for some companies", map[string]interface{}{
				"path":    s.Path,
				"tickers": missing,
			})
		}
	}
	return table, nil
}

// MissingCloseColumns lists the universe tickers that have no close column in table.
func MissingCloseColumns(table *domain.PriceTable) []domain.Ticker {
	missing := make([]domain.Ticker, 0)
	for _, t := range domain.Universe {
		if !table.HasColumn(domain.ColumnName(domain.FieldClose, t)) {
			missing = append(missing, t)
		}
	}
	return missing
}
