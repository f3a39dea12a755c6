// Package okx reads spot candles from the public OKX v5 REST API.
package okx

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
	Name    = "okx"
	BaseURL = "https://www.okx.com"

	// PageSize is the most candles OKX returns per request.
	PageSize = 300
)

// Bars of 6h and above use the UTC-aligned variants; the plain ones are
// aligned to Hong Kong time.
var bars = map[string]string{
	"1m": "1m", "3m": "3m", "5m": "5m", "15m": "15m", "30m": "30m",
	"1h": "1H", "2h": "2H", "4h": "4H", "6h": "6Hutc", "12h": "12Hutc",
	"1d": "1Dutc", "1w": "1Wutc",
}

type candlesResponse struct {
	Code string              `json:"code"`
	Msg  string              `json:"msg"`
	Data [][]json.RawMessage `json:"data"`
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

// FetchCandles returns up to limit candles for pair, oldest first.
// OKX pages newest first, so older pages are requested with "after" set to
// the oldest timestamp seen so far.
func (c *Client) FetchCandles(ctx context.Context, pair, timeframe string, limit int) (domain.CandleSeries, error) {
	base, quote, err := exchange.SplitPair(pair)
	if err != nil {
		return nil, err
	}
	bar, err := exchange.MapTimeframe(Name, bars, timeframe)
	if err != nil {
		return nil, err
	}
	if err := exchange.ValidateLimit(limit); err != nil {
		return nil, err
	}

	instID := base + "-" + quote
	series := make(domain.CandleSeries, 0, limit)
	after := ""

	for len(series) < limit {
		page := min(PageSize, limit-len(series))

		q := url.Values{}
		q.Set("instId", instID)
		q.Set("bar", bar)
		q.Set("limit", strconv.Itoa(page))
		if after != "" {
			q.Set("after", after)
		}

		var resp candlesResponse
		if err := c.req.GetJSON(ctx, "/api/v5/market/candles", q, &resp); err != nil {
			return nil, fmt.Errorf("failed to fetch %s candles: %w", pair, err)
		}
		if resp.Code != "0" {
			return nil, &exchange.APIError{Exchange: Name, StatusCode: 200, Code: resp.Code, Message: resp.Msg}
		}
		if len(resp.Data) == 0 {
			break
		}

		batch, err := exchange.ParseRows(resp.Data)
		if err != nil {
			return nil, &exchange.RequestError{Exchange: Name, Err: err}
		}
		series = append(series, batch...)
		after = strconv.FormatInt(batch[0].Timestamp.UnixMilli(), 10)

		if len(resp.Data) < page {
			break
		}
	}

	exchange.SortAscending(series)
	return series, nil
}
