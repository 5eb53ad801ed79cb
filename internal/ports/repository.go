package ports

import (
	"context"

	"stockDashboard/internal/domain"
)

// SnapshotRepository persists parsed price tables so a restart can skip parsing the source file.
type SnapshotRepository interface {
	// SaveSnapshot stores table under key, replacing any previous snapshot with that key.
	SaveSnapshot(ctx context.Context, key string, table *domain.PriceTable) error
	// FindSnapshot loads the snapshot stored under key.
	// Returns nil, nil if no snapshot exists.
	FindSnapshot(ctx context.Context, key string) (*domain.PriceTable, error)
	// DeleteSnapshotsExcept removes every snapshot whose key differs from key.
	DeleteSnapshotsExcept(ctx context.Context, key string) (int64, error)
}
