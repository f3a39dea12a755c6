package exchange

import (
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/arun-ammasai/crypto-trading-setup/internal/domain"
)

// MaxLimit is the largest number of candles a caller may ask for.
const MaxLimit = 1000

// Timeframes accepted by every source, in ascending order.
var Timeframes = []string{"1m", "3m", "5m", "15m", "30m", "1h", "2h", "4h", "6h", "12h", "1d", "1w"}

// ValidTimeframe reports whether tf is one of Timeframes.
func ValidTimeframe(tf string) bool {
	return slices.Contains(Timeframes, tf)
}

// ValidateLimit checks 1 <= limit <= MaxLimit.
func ValidateLimit(limit int) error {
	if limit < 1 || limit > MaxLimit {
		return fmt.Errorf("%w: limit must be between 1 and %d", domain.ErrInvalidRequest, MaxLimit)
	}
	return nil
}

// SplitPair splits "BTC/USDT" into base and quote, upper-cased.
func SplitPair(pair string) (base, quote string, err error) {
	base, quote, ok := strings.Cut(strings.ToUpper(strings.TrimSpace(pair)), "/")
	if !ok || base == "" || quote == "" || strings.Contains(quote, "/") {
		return "", "", fmt.Errorf("%w: invalid pair %q, expected BASE/QUOTE", domain.ErrInvalidRequest, pair)
	}
	return base, quote, nil
}

// PairFor builds the USDT pair for a coin symbol.
func PairFor(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol)) + "/USDT"
}

// MapTimeframe looks tf up in an exchange-specific table.
func MapTimeframe(exchange string, table map[string]string, tf string) (string, error) {
	v, ok := table[tf]
	if !ok {
		return "", fmt.Errorf("%w: timeframe %q not supported by %s", domain.ErrInvalidRequest, tf, exchange)
	}
	return v, nil
}

// ParseRow reads the leading [timestamp_ms, open, high, low, close, volume]
// columns that Binance, OKX and Bybit klines share.
func ParseRow(row []json.RawMessage) (domain.Candle, error) {
	if len(row) < 6 {
		return domain.Candle{}, fmt.Errorf("kline row has %d columns, need 6", len(row))
	}

	var vals [6]float64
	for i := range vals {
		v, err := parseNumber(row[i])
		if err != nil {
			return domain.Candle{}, fmt.Errorf("kline column %d: %w", i, err)
		}
		vals[i] = v
	}

	return domain.Candle{
		Timestamp: time.UnixMilli(int64(vals[0])).UTC(),
		Open:      vals[1],
		High:      vals[2],
		Low:       vals[3],
		Close:     vals[4],
		Volume:    vals[5],
	}, nil
}

// ParseRows parses rows and returns them oldest first.
func ParseRows(rows [][]json.RawMessage) (domain.CandleSeries, error) {
	series := make(domain.CandleSeries, 0, len(rows))
	for _, row := range rows {
		c, err := ParseRow(row)
		if err != nil {
			return nil, err
		}
		series = append(series, c)
	}
	SortAscending(series)
	return series, nil
}

// SortAscending orders candles by timestamp, oldest first.
func SortAscending(series domain.CandleSeries) {
	slices.SortStableFunc(series, func(a, b domain.Candle) int {
		return a.Timestamp.Compare(b.Timestamp)
	})
}

// numbers arrive either as JSON numbers or as quoted decimal strings
func parseNumber(raw json.RawMessage) (float64, error) {
	s := strings.TrimSpace(string(raw))
	if unq, err := strconv.Unquote(s); err == nil {
		s = unq
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid number %s", raw)
	}
	return v, nil
}
