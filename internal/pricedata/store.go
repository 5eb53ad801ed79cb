// Package pricedata owns the process-wide price table: it loads the source once,
// optionally through a persisted snapshot, and hands the same read-only table to every caller.
package pricedata

import (
	"context"
	"fmt"
	"sync"

	"stockDashboard/internal/domain"
	"stockDashboard/internal/ports"
)

// Store lazily loads and caches the source table.
type Store struct {
	source    ports.PriceSource
	snapshots ports.SnapshotRepository // optional
	logger    ports.Logger

	mu    sync.Mutex
	table *domain.PriceTable
}

// StoreConfig holds the dependencies of a Store.
type StoreConfig struct {
	Source    ports.PriceSource
	Snapshots ports.SnapshotRepository
	Logger    ports.Logger
}

// NewStore creates a Store. Snapshots may be nil to always read the source.
func NewStore(cfg StoreConfig) (*Store, error) {
	if cfg.Source == nil {
		return nil, fmt.Errorf("price source is required: %w", ports.ErrConfigurationError)
	}
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required: %w", ports.ErrConfigurationError)
	}
	return &Store{
		source:    cfg.Source,
		snapshots: cfg.Snapshots,
		logger:    cfg.Logger,
	}, nil
}

// Table returns the cached table, loading it on first use.
// A failed load is not cached; the next call retries.
// The returned table is shared and must not be modified.
func (s *Store) Table(ctx context.Context) (*domain.PriceTable, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.table != nil {
		return s.table, nil
	}

	table, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	s.table = table
	return table, nil
}

func (s *Store) load(ctx context.Context) (*domain.PriceTable, error) {
	if s.snapshots == nil {
		return s.source.Load(ctx)
	}

	key, err := s.source.Fingerprint(ctx)
	if err != nil {
		return nil, err
	}

	table, err := s.snapshots.FindSnapshot(ctx, key)
	if err != nil {
		// The cache is an optimisation; fall back to the source.
		s.logger.Warn(ctx, "Snapshot lookup failed, reading source", map[string]interface{}{"key": key, "error": err.Error()})
	} else if table != nil {
		s.logger.Info(ctx, "Price table restored from snapshot", map[string]interface{}{"key": key, "rows": table.Len()})
		return table, nil
	}

	table, err = s.source.Load(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.snapshots.SaveSnapshot(ctx, key, table); err != nil {
		s.logger.Error(ctx, err, "Failed to save price snapshot", map[string]interface{}{"key": key})
		return table, nil
	}
	if _, err := s.snapshots.DeleteSnapshotsExcept(ctx, key); err != nil {
		s.logger.Warn(ctx, "Failed to prune stale snapshots", map[string]interface{}{"error": err.Error()})
	}
	return table, nil
}
