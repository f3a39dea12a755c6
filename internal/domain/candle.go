package domain

import (
	"context"
	"time"
)

// Candle is one OHLCV bar.
type Candle struct {
	Timestamp time.Time `json:"timestamp"`
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Close     float64   `json:"close"`
	Volume    float64   `json:"volume"`
}

// CandleSeries is ordered by ascending timestamp, oldest first.
type CandleSeries []Candle

// Closes returns the close prices of the series.
func (s CandleSeries) Closes() []float64 {
	out := make([]float64, len(s))
	for i, c := range s {
		out[i] = c.Close
	}
	return out
}

// Highs returns the high prices of the series.
func (s CandleSeries) Highs() []float64 {
	out := make([]float64, len(s))
	for i, c := range s {
		out[i] = c.High
	}
	return out
}

// Lows returns the low prices of the series.
func (s CandleSeries) Lows() []float64 {
	out := make([]float64, len(s))
	for i, c := range s {
		out[i] = c.Low
	}
	return out
}

// CandleSource fetches a materialized candle series from an upstream exchange.
// Implementations: binance, okx, bybit.
type CandleSource interface {
	Name() string
	FetchCandles(ctx context.Context, pair, timeframe string, limit int) (CandleSeries, error)
}

// CandleCache stores recently fetched series.
// Implementations: in-memory (dev) and Redis.
type CandleCache interface {
	Get(ctx context.Context, key string) (CandleSeries, bool, error)
	Set(ctx context.Context, key string, series CandleSeries, ttl time.Duration) error
}
