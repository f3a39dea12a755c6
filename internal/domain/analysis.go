package domain

import (
	"encoding/json"
	"time"
)

// DateLayout is the format of CoinAnalysis.DateUTC.
const DateLayout = "2006-01-02 15:04:05"

// IndicatorSnapshot holds the latest-bar value of each indicator.
// A nil field means the series was too short for that indicator.
type IndicatorSnapshot struct {
	EMAFast       *float64 `json:"ema20"`
	EMASlow       *float64 `json:"ema50"`
	RSI           *float64 `json:"rsi"`
	MACDHistogram *float64 `json:"macd_hist"`
	ATR           *float64 `json:"atr"`
}

// ScoreBreakdown records which scoring rules fired.
type ScoreBreakdown struct {
	EMATrend     bool `json:"ema_trend"`     // +3, ema20 > ema50
	RSINeutral   bool `json:"rsi_neutral"`   // +2, 35 < rsi < 65
	MACDPositive bool `json:"macd_positive"` // +2, macd_hist > 0
}

// ScoreResult is the output of the indicator and scoring engine.
type ScoreResult struct {
	IndicatorSnapshot
	Score     int            `json:"ta_score"`
	Breakdown ScoreBreakdown `json:"breakdown"`
}

// CoinRequest identifies one coin to analyze.
type CoinRequest struct {
	CoinID string `json:"coin_id"`
	Symbol string `json:"symbol"` // e.g. BTC, ETH, ADA
}

// BulkRequest is the body of POST /analyze_bulk.
type BulkRequest struct {
	Coins     []CoinRequest `json:"coins"`
	Timeframe string        `json:"timeframe"`
	Limit     int           `json:"limit"`
}

// CoinAnalysis is a ScoreResult merged with request metadata.
type CoinAnalysis struct {
	CoinID    string    `json:"coin_id"`
	Symbol    string    `json:"symbol"`
	Pair      string    `json:"pair"`
	Exchange  string    `json:"exchange,omitempty"`
	Timeframe string    `json:"timeframe,omitempty"`
	DateUTC   string    `json:"date_utc"`
	At        time.Time `json:"-"`
	ScoreResult
}

// BulkItem is one entry of a bulk response: either an analysis or an error.
type BulkItem struct {
	Analysis *CoinAnalysis
	CoinID   string
	Symbol   string
	Error    string
}

// MarshalJSON encodes the analysis on success and {coin_id, symbol, error} otherwise.
func (b BulkItem) MarshalJSON() ([]byte, error) {
	if b.Analysis != nil {
		return json.Marshal(b.Analysis)
	}
	return json.Marshal(struct {
		CoinID string `json:"coin_id"`
		Symbol string `json:"symbol"`
		Error  string `json:"error"`
	}{b.CoinID, b.Symbol, b.Error})
}
