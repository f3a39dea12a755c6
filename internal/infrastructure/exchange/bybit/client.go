// Package bybit reads spot klines from the public Bybit v5 REST API.
package bybit

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
	Name    = "bybit"
	BaseURL = "https://api.bybit.com"
)

var intervals = map[string]string{
	"1m": "1", "3m": "3", "5m": "5", "15m": "15", "30m": "30",
	"1h": "60", "2h": "120", "4h": "240", "6h": "360", "12h": "720",
	"1d": "D", "1w": "W",
}

type klineResponse struct {
	RetCode int    `json:"retCode"`
	RetMsg  string `json:"retMsg"`
	Result  struct {
		Symbol   string              `json:"symbol"`
		Category string              `json:"category"`
		List     [][]json.RawMessage `json:"list"`
	} `json:"result"`
}

type Client struct {
	req *exchange.Requester
}

func NewClient(opts exchange.Options) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = BaseURL
	}
	return &Client{req: exchange.NewRequester(Name, opts)}
}

func (c *Client) Name() string { return Name }

// FetchCandles returns up to limit spot candles for pair, oldest first.
// Bybit lists rows as [start, open, high, low, close, volume, turnover],
// newest first.
func (c *Client) FetchCandles(ctx context.Context, pair, timeframe string, limit int) (domain.CandleSeries, error) {
	base, quote, err := exchange.SplitPair(pair)
	if err != nil {
		return nil, err
	}
	interval, err := exchange.MapTimeframe(Name, intervals, timeframe)
	if err != nil {
		return nil, err
	}
	if err := exchange.ValidateLimit(limit); err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("category", "spot")
	q.Set("symbol", base+quote)
	q.Set("interval", interval)
	q.Set("limit", strconv.Itoa(limit))

	var resp klineResponse
	if err := c.req.GetJSON(ctx, "/v5/market/kline", q, &resp); err != nil {
		return nil, fmt.Errorf("failed to fetch %s klines: %w", pair, err)
	}
	if resp.RetCode != 0 {
		return nil, &exchange.APIError{
			Exchange:   Name,
			StatusCode: 200,
			Code:       strconv.Itoa(resp.RetCode),
			Message:    resp.RetMsg,
		}
	}

	series, err := exchange.ParseRows(resp.Result.List)
	if err != nil {
		return nil, &exchange.RequestError{Exchange: Name, Err: err}
	}
	return series, nil
}
