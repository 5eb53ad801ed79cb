package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"stockDashboard/internal/domain"
	"stockDashboard/internal/ports"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

const dateLayout = "2006-01-02"

// columnSeparator joins the column order into one TEXT cell; header names never contain newlines.
const columnSeparator = "\n"

// Repository implements ports.SnapshotRepository using SQLite.
type Repository struct {
	db     *sql.DB
	logger ports.Logger
}

// Config holds configuration for the SQLite repository.
type Config struct {
	DBPath string
	Logger ports.Logger
}

// NewRepository creates a new SQLite repository instance.
func NewRepository(cfg Config) (*Repository, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for SQLite repository")
	}
	dbPath := cfg.DBPath
	if dbPath == "" {
		dbPath = "./data/price_cache.db" // Default path
	}

	// Create data directory if it doesn't exist
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		err = fmt.Errorf("failed to create data directory '%s': %w", filepath.Dir(dbPath), err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		err = fmt.Errorf("failed to open database at '%s': %w", dbPath, err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}

	if err := db.Ping(); err != nil {
		db.Close()
		err = fmt.Errorf("failed to ping database at '%s': %w: %w", dbPath, ports.ErrDBConnection, err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}

	// A single connection keeps ":memory:" databases alive and serializes writers.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	cfg.Logger.Info(context.Background(), "SQLite database connection established", map[string]interface{}{"path": dbPath})

	repo := &Repository{db: db, logger: cfg.Logger}

	if err := repo.initializeSchema(context.Background()); err != nil {
		db.Close()
		err = fmt.Errorf("failed to initialize database schema: %w", err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}
	cfg.Logger.Debug(context.Background(), "Database schema initialized/verified")

	return repo, nil
}

// initializeSchema creates tables if they don't exist.
func (r *Repository) initializeSchema(ctx context.Context) error {
	const schema = `
	CREATE TABLE IF NOT EXISTS snapshots (
		key TEXT PRIMARY KEY,
		column_order TEXT NOT NULL,
		row_count INTEGER NOT NULL,
		created_at TIMESTAMP NOT NULL
	);

	CREATE TABLE IF NOT EXISTS snapshot_dates (
		snapshot_key TEXT NOT NULL,
		row_idx INTEGER NOT NULL,
		date TEXT NOT NULL,
		PRIMARY KEY (snapshot_key, row_idx)
	);

	CREATE TABLE IF NOT EXISTS snapshot_values (
		snapshot_key TEXT NOT NULL,
		row_idx INTEGER NOT NULL,
		column_name TEXT NOT NULL,
		value REAL NULL, -- NULL marks a missing observation
		PRIMARY KEY (snapshot_key, row_idx, column_name)
	);
	`
	_, err := r.db.ExecContext(ctx, schema)
	if err != nil {
		return fmt.Errorf("failed to execute schema initialization: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (r *Repository) Close() error {
	if r.db != nil {
		r.logger.Info(context.Background(), "Closing SQLite database connection")
		return r.db.Close()
	}
	return nil
}

// SaveSnapshot stores table under key, replacing any previous snapshot with that key.
func (r *Repository) SaveSnapshot(ctx context.Context, key string, table *domain.PriceTable) (err error) {
	if table == nil {
		return fmt.Errorf("snapshot %s: nil table: %w", key, ports.ErrInvalidRequest)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin snapshot transaction: %w: %w", ports.ErrUpdateFailed, err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	if err = deleteSnapshot(ctx, tx, key); err != nil {
		return err
	}

	const insertSnapshot = `
	INSERT INTO snapshots (key, column_order, row_count, created_at)
	VALUES (?, ?, ?, ?)`
	if _, err = tx.ExecContext(ctx, insertSnapshot, key, strings.Join(table.Order, columnSeparator), table.Len(), time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to insert snapshot %s: %w: %w", key, ports.ErrUpdateFailed, err)
	}

	dateStmt, err := tx.PrepareContext(ctx, `INSERT INTO snapshot_dates (snapshot_key, row_idx, date) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare snapshot date insert: %w", err)
	}
	defer dateStmt.Close()

	valueStmt, err := tx.PrepareContext(ctx, `INSERT INTO snapshot_values (snapshot_key, row_idx, column_name, value) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare snapshot value insert: %w", err)
	}
	defer valueStmt.Close()

	for i, date := range table.Dates {
		if _, err = dateStmt.ExecContext(ctx, key, i, date.Format(dateLayout)); err != nil {
			return fmt.Errorf("failed to insert snapshot date row %d: %w: %w", i, ports.ErrUpdateFailed, err)
		}
		for _, name := range table.Order {
			var value sql.NullFloat64
			if v := table.Columns[name][i]; !math.IsNaN(v) {
				value = sql.NullFloat64{Float64: v, Valid: true}
			}
			if _, err = valueStmt.ExecContext(ctx, key, i, name, value); err != nil {
				return fmt.Errorf("failed to insert snapshot value %s row %d: %w: %w", name, i, ports.ErrUpdateFailed, err)
			}
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit snapshot %s: %w: %w", key, ports.ErrUpdateFailed, err)
	}
	r.logger.Debug(ctx, "Snapshot saved", map[string]interface{}{"key": key, "rows": table.Len(), "columns": len(table.Order)})
	return nil
}

// FindSnapshot loads the snapshot stored under key. Returns nil, nil if none exists.
func (r *Repository) FindSnapshot(ctx context.Context, key string) (*domain.PriceTable, error) {
	var columnOrder string
	var rowCount int
	err := r.db.QueryRowContext(ctx, `SELECT column_order, row_count FROM snapshots WHERE key = ?`, key).Scan(&columnOrder, &rowCount)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			r.logger.Debug(ctx, "No snapshot found", map[string]interface{}{"key": key})
			return nil, nil // Not an error, just not found
		}
		return nil, fmt.Errorf("failed to query snapshot %s: %w: %w", key, ports.ErrQueryFailed, err)
	}

	var order []string
	if columnOrder != "" {
		order = strings.Split(columnOrder, columnSeparator)
	}
	table := domain.NewPriceTable(order)
	table.Dates = make([]time.Time, rowCount)
	for _, name := range order {
		col := make([]float64, rowCount)
		for i := range col {
			col[i] = math.NaN()
		}
		table.Columns[name] = col
	}

	if err := r.loadDates(ctx, key, table); err != nil {
		return nil, err
	}
	if err := r.loadValues(ctx, key, table); err != nil {
		return nil, err
	}
	return table, nil
}

func (r *Repository) loadDates(ctx context.Context, key string, table *domain.PriceTable) error {
	rows, err := r.db.QueryContext(ctx, `SELECT row_idx, date FROM snapshot_dates WHERE snapshot_key = ? ORDER BY row_idx`, key)
	if err != nil {
		return fmt.Errorf("failed to query snapshot dates %s: %w: %w", key, ports.ErrQueryFailed, err)
	}
	defer rows.Close()

	seen := 0
	for rows.Next() {
		var idx int
		var raw string
		if err := rows.Scan(&idx, &raw); err != nil {
			return fmt.Errorf("failed to scan snapshot date: %w", err)
		}
		if idx < 0 || idx >= len(table.Dates) {
			return fmt.Errorf("snapshot %s date row %d out of range %d: %w", key, idx, len(table.Dates), ports.ErrQueryFailed)
		}
		date, err := time.Parse(dateLayout, raw)
		if err != nil {
			return fmt.Errorf("failed to parse snapshot date %q: %w", raw, err)
		}
		table.Dates[idx] = date
		seen++
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating snapshot date rows: %w", err)
	}
	if seen != len(table.Dates) {
		return fmt.Errorf("snapshot %s has %d of %d dates: %w", key, seen, len(table.Dates), ports.ErrQueryFailed)
	}
	return nil
}

func (r *Repository) loadValues(ctx context.Context, key string, table *domain.PriceTable) error {
	rows, err := r.db.QueryContext(ctx, `SELECT row_idx, column_name, value FROM snapshot_values WHERE snapshot_key = ?`, key)
	if err != nil {
		return fmt.Errorf("failed to query snapshot values %s: %w: %w", key, ports.ErrQueryFailed, err)
	}
	defer rows.Close()

	for rows.Next() {
		var idx int
		var name string
		var value sql.NullFloat64
		if err := rows.Scan(&idx, &name, &value); err != nil {
			return fmt.Errorf("failed to scan snapshot value: %w", err)
		}
		col, ok := table.Columns[name]
		if !ok || idx < 0 || idx >= len(col) {
			continue
		}
		if value.Valid {
			col[idx] = value.Float64
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating snapshot value rows: %w", err)
	}
	return nil
}

// DeleteSnapshotsExcept removes every snapshot whose key differs from key.
func (r *Repository) DeleteSnapshotsExcept(ctx context.Context, key string) (int64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin snapshot cleanup: %w: %w", ports.ErrUpdateFailed, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM snapshot_values WHERE snapshot_key <> ?`, key); err != nil {
		return 0, fmt.Errorf("failed to delete stale snapshot values: %w: %w", ports.ErrUpdateFailed, err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM snapshot_dates WHERE snapshot_key <> ?`, key); err != nil {
		return 0, fmt.Errorf("failed to delete stale snapshot dates: %w: %w", ports.ErrUpdateFailed, err)
	}
	result, err := tx.ExecContext(ctx, `DELETE FROM snapshots WHERE key <> ?`, key)
	if err != nil {
		return 0, fmt.Errorf("failed to delete stale snapshots: %w: %w", ports.ErrUpdateFailed, err)
	}
	removed, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected for snapshot cleanup: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit snapshot cleanup: %w: %w", ports.ErrUpdateFailed, err)
	}
	if removed > 0 {
		r.logger.Info(ctx, "Stale snapshots removed", map[string]interface{}{"count": removed})
	}
	return removed, nil
}

// --- Helpers ---

// execer is satisfied by *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

func deleteSnapshot(ctx context.Context, e execer, key string) error {
	for _, query := range []string{
		`DELETE FROM snapshot_values WHERE snapshot_key = ?`,
		`DELETE FROM snapshot_dates WHERE snapshot_key = ?`,
		`DELETE FROM snapshots WHERE key = ?`,
	} {
		if _, err := e.ExecContext(ctx, query, key); err != nil {
			return fmt.Errorf("failed to delete snapshot %s: %w: %w", key, ports.ErrUpdateFailed, err)
		}
	}
	return nil
}
