// Package binance reads spot klines from the public Binance REST API.
package binance

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"github.com/arun-ammasai/crypto-trading-setup/internal/domain"
	"github.com/arun-ammasai/crypto-trading-setup/internal/infrastructure/exchange"
)

const (
	Name        = "binance"
	SpotBaseURL = "https://api.binance.com"
)

// Binance interval names match ours one to one.
var intervals = map[string]string{
	"1m": "1m", "3m": "3m", "5m": "5m", "15m": "15m", "30m": "30m",
	"1h": "1h", "2h": "2h", "4h": "4h", "6h": "6h", "12h": "12h",
	"1d": "1d", "1w": "1w",
}

type Client struct {
	req *exchange.Requester
}

func NewClient(opts exchange.Options) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = SpotBaseURL
	}
	return &Client{req: exchange.NewRequester(Name, opts)}
}

func (c *Client) Name() string { return Name }

// FetchCandles returns up to limit spot candles for pair ("BTC/USDT").
// Binance returns: [ [open_time, open, high, low, close, volume, close_time, ...], ... ]
// with prices as strings and times as numbers.
func (c *Client) FetchCandles(ctx context.Context, pair, timeframe string, limit int) (domain.CandleSeries, error) {
	symbol, interval, err := c.params(pair, timeframe, limit)
	if err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("symbol", symbol)
	q.Set("interval", interval)
	q.Set("limit", strconv.Itoa(limit))

	var klines [][]json.RawMessage
	if err := c.req.GetJSON(ctx, "/api/v3/klines", q, &klines); err != nil {
		return nil, fmt.Errorf("failed to fetch %s klines: %w", pair, err)
	}

	series, err := exchange.ParseRows(klines)
	if err != nil {
		return nil, &exchange.RequestError{Exchange: Name, Err: err}
	}
	return series, nil
}

func (c *Client) params(pair, timeframe string, limit int) (symbol, interval string, err error) {
	base, quote, err := exchange.SplitPair(pair)
	if err != nil {
		return "", "", err
	}
	interval, err = exchange.MapTimeframe(Name, intervals, timeframe)
	if err != nil {
		return "", "", err
	}
	if err := exchange.ValidateLimit(limit); err != nil {
		return "", "", err
	}
	return base + quote, interval, nil
}
