package db

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// SQLite types: INTEGER for unix millis and booleans, REAL for float64.
var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS analyses (
		id            INTEGER PRIMARY KEY AUTOINCREMENT,
		coin_id       TEXT NOT NULL,
		symbol        TEXT NOT NULL,
		pair          TEXT NOT NULL,
		exchange      TEXT NOT NULL DEFAULT '',
		timeframe     TEXT NOT NULL DEFAULT '',
		analyzed_at   INTEGER NOT NULL,
		ema20         REAL NULL,
		ema50         REAL NULL,
		rsi           REAL NULL,
		macd_hist     REAL NULL,
		atr           REAL NULL,
		ta_score      INTEGER NOT NULL,
		ema_trend     INTEGER NOT NULL DEFAULT 0,
		rsi_neutral   INTEGER NOT NULL DEFAULT 0,
		macd_positive INTEGER NOT NULL DEFAULT 0
	);`,
	`CREATE INDEX IF NOT EXISTS analyses_symbol_analyzed_at_idx ON analyses (symbol, analyzed_at DESC);`,
	`CREATE TABLE IF NOT EXISTS device_tokens (
		token      TEXT PRIMARY KEY,
		platform   TEXT NOT NULL DEFAULT '',
		created_at INTEGER NOT NULL
	);`,
}

// OpenSQLite opens (creating if needed) the database file at path and
// ensures the schema exists.
func OpenSQLite(ctx context.Context, path string) (*sql.DB, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create sqlite dir: %w", err)
		}
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}
	// one writer keeps SQLITE_BUSY away
	conn.SetMaxOpenConns(1)

	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping sqlite: %w", err)
	}

	if _, err := conn.ExecContext(ctx, "PRAGMA journal_mode = WAL;"); err != nil {
		slog.Warn("failed to set WAL mode", "error", err)
	}
	if _, err := conn.ExecContext(ctx, "PRAGMA synchronous = NORMAL;"); err != nil {
		slog.Warn("failed to set synchronous mode", "error", err)
	}

	for _, stmt := range sqliteSchema {
		if _, err := conn.ExecContext(ctx, stmt); err != nil {
			conn.Close()
			return nil, fmt.Errorf("failed to create sqlite schema: %w", err)
		}
	}
	return conn, nil
}
