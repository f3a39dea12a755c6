package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/arun-ammasai/crypto-trading-setup/internal/domain"
)

const analysisColumns = `coin_id, symbol, pair, exchange, timeframe, analyzed_at,
	ema20, ema50, rsi, macd_hist, atr,
	ta_score, ema_trend, rsi_neutral, macd_positive`

// PostgresAnalysisRepository stores analyses in Postgres.
type PostgresAnalysisRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresAnalysisRepository(pool *pgxpool.Pool) *PostgresAnalysisRepository {
	return &PostgresAnalysisRepository{pool: pool}
}

func (r *PostgresAnalysisRepository) Save(ctx context.Context, a *domain.CoinAnalysis) error {
	if a == nil {
		return errNilAnalysis
	}

	_, err := r.pool.Exec(ctx, `
		insert into analyses(`+analysisColumns+`)
		values ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
	`,
		a.CoinID,
		strings.ToUpper(a.Symbol),
		a.Pair,
		a.Exchange,
		a.Timeframe,
		a.At.UTC(),
		nullableFloat(a.EMAFast),
		nullableFloat(a.EMASlow),
		nullableFloat(a.RSI),
		nullableFloat(a.MACDHistogram),
		nullableFloat(a.ATR),
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

func (r *PostgresAnalysisRepository) Latest(ctx context.Context) ([]domain.CoinAnalysis, error) {
	rows, err := r.pool.Query(ctx, `
		select distinct on (symbol) `+analysisColumns+`
		from analyses
		order by symbol, analyzed_at desc, id desc
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query latest analyses: %w", err)
	}
	defer rows.Close()

	var result []domain.CoinAnalysis
	for rows.Next() {
		a, err := scanPostgresAnalysis(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *a)
	}
	return result, rows.Err()
}

func (r *PostgresAnalysisRepository) History(ctx context.Context, symbol string, limit int) ([]domain.CoinAnalysis, error) {
	limit = historyLimit(limit)
	rows, err := r.pool.Query(ctx, `
		select `+analysisColumns+`
		from analyses
		where symbol = $1
		order by analyzed_at desc, id desc
		limit $2
	`, strings.ToUpper(symbol), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query analysis history: %w", err)
	}
	defer rows.Close()

	var result []domain.CoinAnalysis
	for rows.Next() {
		a, err := scanPostgresAnalysis(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *a)
	}
	return result, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPostgresAnalysis(s scanner) (*domain.CoinAnalysis, error) {
	var a domain.CoinAnalysis
	var at time.Time
	var ema20, ema50, rsi, macdHist, atr pgtype.Float8

	if err := s.Scan(
		&a.CoinID,
		&a.Symbol,
		&a.Pair,
		&a.Exchange,
		&a.Timeframe,
		&at,
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

	a.At = at.UTC()
	a.DateUTC = a.At.Format(domain.DateLayout)
	a.EMAFast = floatPtr(ema20)
	a.EMASlow = floatPtr(ema50)
	a.RSI = floatPtr(rsi)
	a.MACDHistogram = floatPtr(macdHist)
	a.ATR = floatPtr(atr)
	return &a, nil
}

func nullableFloat(v *float64) any {
	if v == nil {
		return pgtype.Float8{Valid: false}
	}
	return pgtype.Float8{Valid: true, Float64: *v}
}

func floatPtr(v pgtype.Float8) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

// PostgresTokenRepository stores device tokens in Postgres.
type PostgresTokenRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresTokenRepository(pool *pgxpool.Pool) *PostgresTokenRepository {
	return &PostgresTokenRepository{pool: pool}
}

func (r *PostgresTokenRepository) RegisterToken(ctx context.Context, token, platform string) error {
	_, err := r.pool.Exec(ctx, `
		insert into device_tokens(token, platform, created_at)
		values ($1, $2, now())
		on conflict (token) do update set platform = excluded.platform
	`, token, platform)
	if err != nil {
		return fmt.Errorf("failed to register token: %w", err)
	}
	return nil
}

func (r *PostgresTokenRepository) UnregisterToken(ctx context.Context, token string) error {
	if _, err := r.pool.Exec(ctx, `delete from device_tokens where token = $1`, token); err != nil {
		return fmt.Errorf("failed to unregister token: %w", err)
	}
	return nil
}

func (r *PostgresTokenRepository) AllTokens(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx, `select token from device_tokens order by token`)
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

func (r *PostgresTokenRepository) TokenCount(ctx context.Context) (int, error) {
	var n int
	if err := r.pool.QueryRow(ctx, `select count(*) from device_tokens`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count tokens: %w", err)
	}
	return n, nil
}

// compile-time check
var (
	_ domain.AnalysisRepository = (*PostgresAnalysisRepository)(nil)
	_ domain.TokenRepository    = (*PostgresTokenRepository)(nil)
)
