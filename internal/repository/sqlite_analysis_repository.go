package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/arun-ammasai/crypto-trading-setup/internal/domain"
)

// SQLiteAnalysisRepository stores analyses in a local SQLite file.
// Timestamps are unix milliseconds.
type SQLiteAnalysisRepository struct {
	db *sql.DB
}

func NewSQLiteAnalysisRepository(db *sql.DB) *SQLiteAnalysisRepository {
	return &SQLiteAnalysisRepository{db: db}
}

func (r *SQLiteAnalysisRepository) Save(ctx context.Context, a *domain.CoinAnalysis) error {
	if a == nil {
		return errNilAnalysis
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO analyses(`+analysisColumns+`)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)
	`,
		a.CoinID,
		strings.ToUpper(a.Symbol),
		a.Pair,
		a.Exchange,
		a.Timeframe,
		a.At.UTC().UnixMilli(),
		sqlFloat(a.EMAFast),
		sqlFloat(a.EMASlow),
		sqlFloat(a.RSI),
		sqlFloat(a.MACDHistogram),
		sqlFloat(a.ATR),
		a.Score,
		a.Breakdown.EMATrend,
		a.Breakdown.RSINeutral,
		a.Breakdown.MACDPositive,
	)
	if err != nil {
		return fmt.Errorf("failed to insert analysis: %w", err)
	}
	return nil
}

func (r *SQLiteAnalysisRepository) Latest(ctx context.Context) ([]domain.CoinAnalysis, error) {
	return r.query(ctx, `
		SELECT `+analysisColumns+` FROM (
			SELECT *, ROW_NUMBER() OVER (PARTITION BY symbol ORDER BY analyzed_at DESC, id DESC) AS rn
			FROM analyses
		)
		WHERE rn = 1
		ORDER BY symbol
	`)
}

func (r *SQLiteAnalysisRepository) History(ctx context.Context, symbol string, limit int) ([]domain.CoinAnalysis, error) {
	limit = historyLimit(limit)
	return r.query(ctx, `
		SELECT `+analysisColumns+`
		FROM analyses
		WHERE symbol = ?
		ORDER BY analyzed_at DESC, id DESC
		LIMIT ?
	`, strings.ToUpper(symbol), limit)
}

func (r *SQLiteAnalysisRepository) query(ctx context.Context, q string, args ...any) ([]domain.CoinAnalysis, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query analyses: %w", err)
	}
	defer rows.Close()

	var result []domain.CoinAnalysis
	for rows.Next() {
		var a domain.CoinAnalysis
		var atMillis int64
		var ema20, ema50, rsi, macdHist, atr sql.NullFloat64

		if err := rows.Scan(
			&a.CoinID,
			&a.Symbol,
			&a.Pair,
			&a.Exchange,
			&a.Timeframe,
			&atMillis,
			&ema20,
			&ema50,
			&rsi,
			&macdHist,
			&atr,
			&a.Score,
			&a.Breakdown.EMATrend,
			&a.Breakdown.RSINeutral,
			&a.Breakdown.MACDPositive,
		); err != nil {
			return nil, fmt.Errorf("failed to scan analysis: %w", err)
		}

		a.At = time.UnixMilli(atMillis).UTC()
		a.DateUTC = a.At.Format(domain.DateLayout)
		a.EMAFast = nullFloatPtr(ema20)
		a.EMASlow = nullFloatPtr(ema50)
		a.RSI = nullFloatPtr(rsi)
		a.MACDHistogram = nullFloatPtr(macdHist)
		a.ATR = nullFloatPtr(atr)
		result = append(result, a)
	}
	return result, rows.Err()
}

func sqlFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func nullFloatPtr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

// SQLiteTokenRepository stores device tokens in SQLite.
type SQLiteTokenRepository struct {
	db *sql.DB
}

func NewSQLiteTokenRepository(db *sql.DB) *SQLiteTokenRepository {
	return &SQLiteTokenRepository{db: db}
}

func (r *SQLiteTokenRepository) RegisterToken(ctx context.Context, token, platform string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO device_tokens(token, platform, created_at) VALUES (?, ?, ?)
		ON CONFLICT(token) DO UPDATE SET platform = excluded.platform
	`, token, platform, time.Now().UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to register token: %w", err)
	}
	return nil
}

func (r *SQLiteTokenRepository) UnregisterToken(ctx context.Context, token string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM device_tokens WHERE token = ?`, token); err != nil {
		return fmt.Errorf("failed to unregister token: %w", err)
	}
	return nil
}

func (r *SQLiteTokenRepository) AllTokens(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT token FROM device_tokens ORDER BY token`)
	if err != nil {
		return nil, fmt.Errorf("failed to query tokens: %w", err)
	}
	defer rows.Close()

	tokens := make([]string, 0)
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, fmt.Errorf("failed to scan token: %w", err)
		}
		tokens = append(tokens, t)
	}
	return tokens, rows.Err()
}

func (r *SQLiteTokenRepository) TokenCount(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM device_tokens`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count tokens: %w", err)
	}
	return n, nil
}

var (
	_ domain.AnalysisRepository = (*SQLiteAnalysisRepository)(nil)
	_ domain.TokenRepository    = (*SQLiteTokenRepository)(nil)
)
