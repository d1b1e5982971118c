package recorder

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite"
)

// SQLiteRecorder persists predictions and observations to a SQLite database.
type SQLiteRecorder struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create sqlite dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL lets dashboards read while the tracker writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	slog.Info("sqlite recorder opened", slog.String("path", dbPath))
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS predictions (
			id           INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp    INTEGER NOT NULL,
			session_id   TEXT NOT NULL,
			submitted_by TEXT,
			symbol       TEXT NOT NULL,
			target_price REAL NOT NULL,
			target_date  TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_predictions_session ON predictions(session_id)`,

		`CREATE TABLE IF NOT EXISTS observations (
			id            INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp     INTEGER NOT NULL,
			session_id    TEXT NOT NULL,
			symbol        TEXT NOT NULL,
			price         REAL NOT NULL,
			deviation_pct REAL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_observations_session_ts ON observations(session_id, timestamp)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (r *SQLiteRecorder) RecordPrediction(evt *PredictionEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p := evt.Prediction
	_, err := r.db.Exec(`INSERT INTO predictions
		(timestamp, session_id, submitted_by, symbol, target_price, target_date)
		VALUES (?,?,?,?,?,?)`,
		evt.CreatedAt.Unix(), evt.SessionID, evt.User,
		p.Symbol, p.TargetPrice, p.DateString(),
	)
	return err
}

func (r *SQLiteRecorder) RecordObservation(evt *ObservationEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO observations
		(timestamp, session_id, symbol, price, deviation_pct)
		VALUES (?,?,?,?,?)`,
		evt.Timestamp.UnixMilli(), evt.SessionID, evt.Symbol,
		evt.Price, evt.DeviationPct,
	)
	return err
}

func (r *SQLiteRecorder) Close() error {
	slog.Info("closing sqlite recorder")
	return r.db.Close()
}
