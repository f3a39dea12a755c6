package bybit

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arun-ammasai/crypto-trading-setup/internal/infrastructure/exchange"
)

func TestFetchCandles(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "/v5/market/kline", r.URL.Path)
		assert.Equal(t, "spot", q.Get("category"))
		assert.Equal(t, "BTCUSDT", q.Get("symbol"))
		assert.Equal(t, "60", q.Get("interval"))
		w.Write([]byte(`{"retCode":0,"retMsg":"OK","result":{"symbol":"BTCUSDT","category":"spot","list":[
			["1700007200000","102","103","101","102.5","3","300"],
			["1700003600000","101","102","100","102","2","200"],
			["1700000000000","100","101","99","101","1","100"]
		]}}`))
	}))
	defer srv.Close()

	c := NewClient(exchange.Options{BaseURL: srv.URL})
	series, err := c.FetchCandles(context.Background(), "BTC/USDT", "1h", 3)

	require.NoError(t, err)
	require.Len(t, series, 3)
	assert.Equal(t, "bybit", c.Name())
	assert.Equal(t, 101.0, series[0].Close)
	assert.Equal(t, 102.5, series[2].Close)
	assert.Equal(t, int64(1700000000000), series[0].Timestamp.UnixMilli())
}

func TestFetchCandles_RetCode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"retCode":10001,"retMsg":"Not supported symbols","result":{}}`))
	}))
	defer srv.Close()

	_, err := NewClient(exchange.Options{BaseURL: srv.URL}).FetchCandles(context.Background(), "NOPE/USDT", "1d", 5)

	var apiErr *exchange.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "10001", apiErr.Code)
	assert.Equal(t, "Not supported symbols", apiErr.Message)
}

func TestIntervalMapping(t *testing.T) {
	for _, tf := range exchange.Timeframes {
		_, ok := intervals[tf]
		assert.True(t, ok, tf)
	}
	assert.Equal(t, "D", intervals["1d"])
}
