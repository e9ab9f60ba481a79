package journal

import (
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	_ "modernc.org/sqlite"

	"github.com/quantclass/chartsim/internal/bias"
)

// SQLiteRecorder writes the session trade journal to a SQLite file.
type SQLiteRecorder struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteRecorder opens (or creates) the database and runs migrations.
func NewSQLiteRecorder(path string) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL so the gamification reader can poll while the session writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	slog.Info("trade journal opened", "path", path)
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS trades (
			id           TEXT PRIMARY KEY,
			session_id   TEXT NOT NULL,
			direction    TEXT NOT NULL,
			entry_price  REAL NOT NULL,
			exit_price   REAL NOT NULL,
			quantity     REAL NOT NULL,
			confidence   REAL NOT NULL,
			realized_pnl REAL NOT NULL,
			candles_held INTEGER NOT NULL,
			opened_at    INTEGER NOT NULL,
			closed_at    INTEGER NOT NULL,
			bias_flags   TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE INDEX IF NOT EXISTS idx_trades_session ON trades(session_id, closed_at)`,
	}
	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:30], err)
		}
	}
	return nil
}

func (r *SQLiteRecorder) RecordTrade(e Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO trades
		(id, session_id, direction, entry_price, exit_price, quantity,
		 confidence, realized_pnl, candles_held, opened_at, closed_at, bias_flags)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?)`,
		e.Trade.ID, e.SessionID, string(e.Trade.Direction),
		e.Trade.EntryPrice, e.Trade.ExitPrice, e.Trade.Quantity,
		e.Trade.Confidence, e.Trade.RealizedPnL, e.Trade.CandlesHeld,
		e.Trade.OpenedAt.Unix(), e.Trade.ClosedAt.Unix(),
		strings.Join(bias.Types(e.Flags), ","),
	)
	if err != nil {
		return fmt.Errorf("insert trade %s: %w", e.Trade.ID, err)
	}
	return nil
}

func (r *SQLiteRecorder) Close() error {
	slog.Info("closing trade journal")
	return r.db.Close()
}
