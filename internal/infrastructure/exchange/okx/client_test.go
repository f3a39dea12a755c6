package okx

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arun-ammasai/crypto-trading-setup/internal/infrastructure/exchange"
)

const hour = int64(3600000)

// serves candles newest first, ending at index total-1, honouring after/limit
func fakeOKX(t *testing.T, total int, requests *[]string) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "BTC-USDT", q.Get("instId"))
		assert.Equal(t, "1H", q.Get("bar"))
		*requests = append(*requests, r.URL.RawQuery)

		limit, _ := strconv.Atoi(q.Get("limit"))
		end := total
		if after := q.Get("after"); after != "" {
			ts, _ := strconv.ParseInt(after, 10, 64)
			end = int(ts / hour)
		}

		var rows []string
		for i := end - 1; i >= 0 && len(rows) < limit; i-- {
			rows = append(rows, fmt.Sprintf(`["%d","%d","%d","%d","%d","1","1","1","1"]`, int64(i)*hour, i, i+1, i, i))
		}
		fmt.Fprintf(w, `{"code":"0","msg":"","data":[%s]}`, strings.Join(rows, ","))
	}))
}

func TestFetchCandles_SinglePage(t *testing.T) {
	var reqs []string
	srv := fakeOKX(t, 50, &reqs)
	defer srv.Close()

	series, err := NewClient(exchange.Options{BaseURL: srv.URL}).FetchCandles(context.Background(), "BTC/USDT", "1h", 10)

	require.NoError(t, err)
	require.Len(t, series, 10)
	assert.Len(t, reqs, 1)
	assert.Equal(t, 40.0, series[0].Close)
	assert.Equal(t, 49.0, series[9].Close)
	for i := 1; i < len(series); i++ {
		assert.True(t, series[i].Timestamp.After(series[i-1].Timestamp))
	}
}

func TestFetchCandles_Paginates(t *testing.T) {
	var reqs []string
	srv := fakeOKX(t, 1000, &reqs)
	defer srv.Close()

	series, err := NewClient(exchange.Options{BaseURL: srv.URL}).FetchCandles(context.Background(), "BTC/USDT", "1h", 700)

	require.NoError(t, err)
	require.Len(t, series, 700)
	assert.Len(t, reqs, 3)
	assert.Equal(t, 300.0, series[0].Close)
	assert.Equal(t, 999.0, series[699].Close)
	for i := 1; i < len(series); i++ {
		require.True(t, series[i].Timestamp.After(series[i-1].Timestamp))
	}
}

func TestFetchCandles_StopsWhenHistoryRunsOut(t *testing.T) {
	var reqs []string
	srv := fakeOKX(t, 320, &reqs)
	defer srv.Close()

	series, err := NewClient(exchange.Options{BaseURL: srv.URL}).FetchCandles(context.Background(), "BTC/USDT", "1h", 1000)

	require.NoError(t, err)
	assert.Len(t, series, 320)
}

func TestFetchCandles_ErrorCode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"code":"51001","msg":"Instrument ID does not exist","data":[]}`))
	}))
	defer srv.Close()

	_, err := NewClient(exchange.Options{BaseURL: srv.URL}).FetchCandles(context.Background(), "XYZ/USDT", "1d", 10)

	var apiErr *exchange.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "51001", apiErr.Code)
}

func TestBarMapping(t *testing.T) {
	assert.Equal(t, "1Dutc", bars["1d"])
	for _, tf := range exchange.Timeframes {
		_, ok := bars[tf]
		assert.True(t, ok, tf)
	}
}
