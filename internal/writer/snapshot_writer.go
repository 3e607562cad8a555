// Package writer persists per-trade statistics snapshots to parquet.
package writer

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	_ "github.com/marcboeker/go-duckdb"
	"github.com/rxtech-lab/argo-analytics/internal/types"
	"github.com/rxtech-lab/argo-analytics/pkg/errors"
)

// SnapshotWriter writes the statistics recomputed after each closed trade
// to a parquet file, one row per snapshot.
type SnapshotWriter struct {
	db         *sql.DB
	outputPath string
	mu         sync.Mutex
}

// NewSnapshotWriter creates a new SnapshotWriter.
// outputPath is the full path to the parquet file.
func NewSnapshotWriter(outputPath string) *SnapshotWriter {
	return &SnapshotWriter{
		db:         nil,
		outputPath: outputPath,
		mu:         sync.Mutex{},
	}
}

// Initialize sets up the in-memory DuckDB table. Snapshots already present in
// the output file are loaded so that new runs are appended. An output file that
// cannot be loaded is an error, so it is never overwritten.
func (w *SnapshotWriter) Initialize() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	dir := filepath.Dir(w.outputPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	db, err := sql.Open("duckdb", ":memory:")
	if err != nil {
		return fmt.Errorf("failed to open DuckDB connection: %w", err)
	}

	w.db = db

	_, err = w.db.Exec(`
		CREATE TABLE IF NOT EXISTS snapshots (
			run_id TEXT,
			trade_index INTEGER,
			total_trades INTEGER,
			open_trades INTEGER,
			closed_trades INTEGER,
			won_trades INTEGER,
			lost_trades INTEGER,
			total_pnl DOUBLE,
			average_pnl DOUBLE,
			win_rate DOUBLE,
			profit_factor DOUBLE,
			reward_risk_ratio DOUBLE,
			kelly_percent DOUBLE,
			expectancy_percent DOUBLE,
			z_score DOUBLE,
			won_streak_current INTEGER,
			lost_streak_current INTEGER
		)
	`)
	if err != nil {
		w.db.Close()
		w.db = nil

		return fmt.Errorf("failed to create snapshots table: %w", err)
	}

	if _, err := os.Stat(w.outputPath); err == nil {
		_, err = w.db.Exec(fmt.Sprintf(`
			INSERT INTO snapshots
			SELECT * FROM read_parquet(%s)
		`, quoteLiteral(w.outputPath)))
		if err != nil {
			w.db.Close()
			w.db = nil

			return fmt.Errorf("failed to load existing snapshots from %s: %w", w.outputPath, err)
		}
	}

	return nil
}

// Write persists one snapshot and exports to parquet.
// Undefined metrics are stored as NULL.
func (w *SnapshotWriter) Write(runID string, tradeIndex int, stats types.AggregateStats) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.db == nil {
		return errors.New(errors.ErrCodeWriterNotInitialized, "writer not initialized")
	}

	all := stats.All

	_, err := w.db.Exec(`
		INSERT INTO snapshots (run_id, trade_index, total_trades, open_trades, closed_trades,
			won_trades, lost_trades, total_pnl, average_pnl, win_rate, profit_factor,
			reward_risk_ratio, kelly_percent, expectancy_percent, z_score,
			won_streak_current, lost_streak_current)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, runID, tradeIndex, all.Trades.Total, all.Trades.Open, all.Trades.Closed,
		stats.Won.Trades.Closed, stats.Lost.Trades.Closed,
		nullable(all.PnL.Total), nullable(all.PnL.Average),
		nullable(all.Stats.WinRate), nullable(all.Stats.ProfitFactor),
		nullable(all.Stats.RewardRiskRatio), nullable(all.Stats.KellyPercent),
		nullable(all.Stats.ExpectancyPercentEstimated), nullable(all.Streak.ZScore),
		stats.Won.Streak.Current, stats.Lost.Streak.Current)
	if err != nil {
		return fmt.Errorf("failed to insert snapshot: %w", err)
	}

	if err := w.exportToParquet(); err != nil {
		return fmt.Errorf("failed to export to parquet: %w", err)
	}

	return nil
}

// Flush forces an export to parquet.
func (w *SnapshotWriter) Flush() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.db == nil {
		return errors.New(errors.ErrCodeWriterNotInitialized, "writer not initialized")
	}

	return w.exportToParquet()
}

// GetOutputPath returns the parquet file path.
func (w *SnapshotWriter) GetOutputPath() string {
	return w.outputPath
}

// Close releases database resources.
func (w *SnapshotWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.db != nil {
		if err := w.db.Close(); err != nil {
			return fmt.Errorf("failed to close database: %w", err)
		}

		w.db = nil
	}

	return nil
}

// exportToParquet exports the current data to the parquet file.
//
//nolint:funcorder // helper method used by Write and Flush
func (w *SnapshotWriter) exportToParquet() error {
	_, err := w.db.Exec(fmt.Sprintf(`
		COPY (SELECT * FROM snapshots ORDER BY run_id ASC, trade_index ASC)
		TO %s (FORMAT PARQUET)
	`, quoteLiteral(w.outputPath)))
	if err != nil {
		return fmt.Errorf("failed to export to parquet: %w", err)
	}

	return nil
}

// GetSnapshotCount returns the number of snapshots stored.
func (w *SnapshotWriter) GetSnapshotCount() (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.db == nil {
		return 0, errors.New(errors.ErrCodeWriterNotInitialized, "writer not initialized")
	}

	var count int

	err := w.db.QueryRow("SELECT COUNT(*) FROM snapshots").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count snapshots: %w", err)
	}

	return count, nil
}

// GetLatestTotalPnL returns the total P&L of the last snapshot of a run.
// The second return value is false when the run has no defined total.
func (w *SnapshotWriter) GetLatestTotalPnL(runID string) (float64, bool, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.db == nil {
		return 0, false, errors.New(errors.ErrCodeWriterNotInitialized, "writer not initialized")
	}

	var total sql.NullFloat64

	err := w.db.QueryRow(`
		SELECT total_pnl FROM snapshots
		WHERE run_id = ?
		ORDER BY trade_index DESC
		LIMIT 1
	`, runID).Scan(&total)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}

	if err != nil {
		return 0, false, fmt.Errorf("failed to query total pnl: %w", err)
	}

	return total.Float64, total.Valid, nil
}

// quoteLiteral renders s as a SQL string literal.
func quoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

func nullable(m types.Metric) sql.NullFloat64 {
	if m.IsNone() {
		return sql.NullFloat64{Float64: 0, Valid: false}
	}

	return sql.NullFloat64{Float64: m.Unwrap(), Valid: true}
}
