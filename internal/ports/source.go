package ports

import (
	"context"

	"stockDashboard/internal/domain"
)

// PriceSource loads the raw price table.
type PriceSource interface {
	// Fingerprint identifies the current content of the source (e.g. path, size and mtime).
	// Two calls return the same value as long as the underlying data is unchanged.
	Fingerprint(ctx context.Context) (string, error)
	// Load reads and parses the whole table.
	Load(ctx context.Context) (*domain.PriceTable, error)
}
