package recorder

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

// SQLiteRecorder persists historical data to a SQLite database.
type SQLiteRecorder struct {
	db  *sql.DB
	mu  sync.Mutex
	log *zap.Logger
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string, log *zap.Logger) (*SQLiteRecorder, error) {
	if log == nil {
		log = zap.NewNop()
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL lets report readers query while the scheduler writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db, log: log}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Info("sqlite recorder opened", zap.String("path", dbPath))
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS snapshots (
			id        INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp INTEGER NOT NULL,
			session   TEXT NOT NULL,
			cache_key TEXT NOT NULL,
			asset     TEXT NOT NULL,
			last_px   REAL NOT NULL,
			d1        REAL,
			wtd       REAL,
			mtd       REAL,
			zscore    REAL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_snapshots_asset_ts ON snapshots(asset, timestamp)`,

		`CREATE TABLE IF NOT EXISTS snapshot_failures (
			id        INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp INTEGER NOT NULL,
			cache_key TEXT NOT NULL,
			asset     TEXT NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS warmups (
			id           INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp    INTEGER NOT NULL,
			session      TEXT,
			trigger_kind TEXT,
			tickers_ok   INTEGER,
			tickers_fail INTEGER,
			news_ok      INTEGER,
			calendar_ok  INTEGER,
			took_ms      INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_warmups_ts ON warmups(timestamp)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", strings.TrimSpace(s)[:40], err)
		}
	}
	return nil
}

// RecordSnapshot writes one row per asset in a single transaction.
func (r *SQLiteRecorder) RecordSnapshot(ctx context.Context, rec *SnapshotRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	ts := rec.TakenAt
	if ts.IsZero() {
		ts = time.Now()
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	assets := make([]string, 0, len(rec.Snapshot))
	for a := range rec.Snapshot {
		assets = append(assets, a)
	}
	sort.Strings(assets)
	for _, a := range assets {
		s := rec.Snapshot[a]
		if _, err := tx.ExecContext(ctx, `INSERT INTO snapshots
			(timestamp, session, cache_key, asset, last_px, d1, wtd, mtd, zscore)
			VALUES (?,?,?,?,?,?,?,?,?)`,
			ts.Unix(), rec.Session, rec.Keys[a], a, s.Last, s.D1, s.WTD, s.MTD, s.ZScore,
		); err != nil {
			return fmt.Errorf("insert %s: %w", a, err)
		}
	}
	for _, a := range rec.Failed {
		if _, err := tx.ExecContext(ctx, `INSERT INTO snapshot_failures
			(timestamp, cache_key, asset) VALUES (?,?,?)`,
			ts.Unix(), rec.Keys[a], a,
		); err != nil {
			return fmt.Errorf("insert failure %s: %w", a, err)
		}
	}
	return tx.Commit()
}

func (r *SQLiteRecorder) RecordWarmup(ctx context.Context, evt *WarmupEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.ExecContext(ctx, `INSERT INTO warmups
		(timestamp, session, trigger_kind, tickers_ok, tickers_fail, news_ok, calendar_ok, took_ms)
		VALUES (?,?,?,?,?,?,?,?)`,
		time.Now().Unix(), evt.Session, evt.Trigger, evt.TickersOK, evt.TickersFail,
		evt.NewsOK, evt.CalendarOK, evt.Took.Milliseconds(),
	)
	return err
}

// History returns the latest archived rows of asset, newest first.
func (r *SQLiteRecorder) History(ctx context.Context, asset string, limit int) ([]SnapshotRow, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.db.QueryContext(ctx, `SELECT timestamp, session, cache_key, asset, last_px, d1, wtd, mtd, zscore
		FROM snapshots WHERE asset = ? ORDER BY timestamp DESC, id DESC LIMIT ?`, asset, limit)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var out []SnapshotRow
	for rows.Next() {
		var row SnapshotRow
		var ts int64
		if err := rows.Scan(&ts, &row.Session, &row.CacheKey, &row.Asset, &row.Last,
			&row.D1, &row.WTD, &row.MTD, &row.ZScore); err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		row.TakenAt = time.Unix(ts, 0).UTC()
		out = append(out, row)
	}
	return out, rows.Err()
}

func (r *SQLiteRecorder) Close() error {
	r.log.Info("closing sqlite recorder")
	return r.db.Close()
}
