package websocket

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arun-ammasai/crypto-trading-setup/internal/domain"
)

type fakeLatest struct {
	mu   sync.Mutex
	list []domain.CoinAnalysis
}

func (f *fakeLatest) Latest(context.Context) ([]domain.CoinAnalysis, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.CoinAnalysis(nil), f.list...), nil
}

func (f *fakeLatest) set(list []domain.CoinAnalysis) {
	f.mu.Lock()
	f.list = list
	f.mu.Unlock()
}

func TestHandler_StreamsLatest(t *testing.T) {
	src := &fakeLatest{}
	h := NewHandler(src, 20*time.Millisecond, nil, nil)
	srv := httptest.NewServer(http.HandlerFunc(h.Handle))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	var first []domain.CoinAnalysis
	require.NoError(t, conn.ReadJSON(&first))
	assert.Empty(t, first)

	src.set([]domain.CoinAnalysis{{CoinID: "bitcoin", Symbol: "BTC", Pair: "BTC/USDT"}})

	require.Eventually(t, func() bool {
		var next []domain.CoinAnalysis
		conn.SetReadDeadline(time.Now().Add(time.Second))
		if err := conn.ReadJSON(&next); err != nil {
			return false
		}
		return len(next) == 1 && next[0].Symbol == "BTC"
	}, 2*time.Second, time.Millisecond)
}
