package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arun-ammasai/crypto-trading-setup/internal/domain"
	"github.com/arun-ammasai/crypto-trading-setup/internal/metrics"
)

func TestWatcher_Process(t *testing.T) {
	src := newFakeSource("binance")
	src.series["BTC/USDT"] = mkSeries(rampCloses(60)...)
	src.errs["ETH/USDT"] = errors.New("upstream")
	repo := &fakeRepo{}

	w := NewWatcher(newTestService(src, repo, nil), WatcherConfig{
		Coins: []domain.CoinRequest{
			{CoinID: "bitcoin", Symbol: "BTC"},
			{CoinID: "ethereum", Symbol: "ETH"},
		},
		Limit: 60,
	}, nil, metrics.New())

	failed := w.process(context.Background())

	assert.Equal(t, 1, failed)
	assert.Equal(t, 1, repo.count())
}

func TestWatcher_RunStopsOnCancel(t *testing.T) {
	src := newFakeSource("binance")
	src.series["BTC/USDT"] = mkSeries(rampCloses(60)...)

	w := NewWatcher(newTestService(src, nil, nil), WatcherConfig{
		Coins:    []domain.CoinRequest{{CoinID: "bitcoin", Symbol: "BTC"}},
		Interval: 10 * time.Millisecond,
	}, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool { return src.callCount() >= 2 }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("watcher did not stop")
	}
}

func TestWatcher_EmptyWatchlistReturnsImmediately(t *testing.T) {
	w := NewWatcher(newTestService(newFakeSource("binance"), nil, nil), WatcherConfig{}, nil, nil)

	done := make(chan struct{})
	go func() {
		w.Run(context.Background())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("watcher with no coins should return")
	}
}
