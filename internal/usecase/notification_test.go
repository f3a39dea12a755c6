package usecase

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arun-ammasai/crypto-trading-setup/internal/domain"
)

type memTokens struct {
	mu     sync.Mutex
	tokens map[string]bool
}

func newMemTokens(tokens ...string) *memTokens {
	m := &memTokens{tokens: make(map[string]bool)}
	for _, t := range tokens {
		m.tokens[t] = true
	}
	return m
}

func (m *memTokens) RegisterToken(_ context.Context, token, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens[token] = true
	return nil
}

func (m *memTokens) UnregisterToken(_ context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.tokens, token)
	return nil
}

func (m *memTokens) AllTokens(_ context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.tokens))
	for t := range m.tokens {
		out = append(out, t)
	}
	sort.Strings(out)
	return out, nil
}

func (m *memTokens) TokenCount(_ context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.tokens), nil
}

func scored(symbol string, score int) *domain.CoinAnalysis {
	rsi := 52.5
	return &domain.CoinAnalysis{
		CoinID:    "coin-" + symbol,
		Symbol:    symbol,
		Pair:      symbol + "/USDT",
		Exchange:  "okx",
		Timeframe: "1h",
		DateUTC:   "2024-06-01 08:30:15",
		ScoreResult: domain.ScoreResult{
			IndicatorSnapshot: domain.IndicatorSnapshot{RSI: &rsi},
			Score:             score,
		},
	}
}

func TestNotifier_AlertsAtMinScore(t *testing.T) {
	push := &fakePush{}
	n := NewNotifier(nil, push, newMemTokens("a", "b"), NotifierConfig{}, nil, nil)

	n.OnAnalysis(context.Background(), scored("BTC", 5))
	assert.Equal(t, 0, push.count(), "default threshold is the max score")

	n.OnAnalysis(context.Background(), scored("BTC", 7))
	require.Equal(t, 1, push.count())

	call := push.calls[0]
	assert.Equal(t, []string{"a", "b"}, call.tokens)
	assert.Equal(t, "BTC TA score 7/7", call.title)
	assert.Equal(t, "7", call.data["score"])
	assert.Equal(t, "BTC/USDT", call.data["pair"])
}

func TestNotifier_Cooldown(t *testing.T) {
	push := &fakePush{}
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	n := NewNotifier(nil, push, newMemTokens("a"), NotifierConfig{MinScore: 7, Cooldown: 5 * time.Minute}, nil, nil)
	n.now = func() time.Time { return now }
	ctx := context.Background()

	n.OnAnalysis(ctx, scored("BTC", 7))
	n.OnAnalysis(ctx, scored("BTC", 7))
	n.OnAnalysis(ctx, scored("ETH", 7))
	assert.Equal(t, 2, push.count())

	now = now.Add(4 * time.Minute)
	n.OnAnalysis(ctx, scored("BTC", 7))
	assert.Equal(t, 2, push.count())

	now = now.Add(2 * time.Minute)
	n.OnAnalysis(ctx, scored("BTC", 7))
	assert.Equal(t, 3, push.count())
}

func TestNotifier_FailedSendReleasesCooldown(t *testing.T) {
	push := &fakePush{err: errors.New("fcm unavailable")}
	n := NewNotifier(nil, push, newMemTokens("a"), NotifierConfig{MinScore: 7}, nil, nil)
	ctx := context.Background()

	n.OnAnalysis(ctx, scored("BTC", 7))
	n.OnAnalysis(ctx, scored("BTC", 7))
	assert.Equal(t, 2, push.count())
}

func TestNotifier_NoTokensNoSend(t *testing.T) {
	push := &fakePush{}
	n := NewNotifier(nil, push, newMemTokens(), NotifierConfig{MinScore: 7}, nil, nil)

	n.OnAnalysis(context.Background(), scored("BTC", 7))
	assert.Equal(t, 0, push.count())
}

func TestNotifier_PrunesInvalidTokens(t *testing.T) {
	tokens := newMemTokens("good", "stale")
	push := &fakePush{invalid: []string{"stale"}}
	n := NewNotifier(nil, push, tokens, NotifierConfig{MinScore: 7}, nil, nil)

	n.OnAnalysis(context.Background(), scored("BTC", 7))

	left, _ := tokens.AllTokens(context.Background())
	assert.Equal(t, []string{"good"}, left)
}

func TestNotifier_PublishesEveryAnalysis(t *testing.T) {
	pub := &fakePublisher{err: errors.New("broker down")}
	n := NewNotifier(pub, nil, nil, NotifierConfig{}, nil, nil)

	n.OnAnalysis(context.Background(), scored("BTC", 0))
	n.OnAnalysis(context.Background(), scored("ETH", 7))
	assert.Equal(t, 2, pub.count())
}

func TestNotifier_SendTest(t *testing.T) {
	push := &fakePush{}
	n := NewNotifier(nil, push, newMemTokens("a", "b", "c"), NotifierConfig{}, nil, nil)

	sent, err := n.SendTest(context.Background(), "hello", "world")
	require.NoError(t, err)
	assert.Equal(t, 3, sent)
	assert.Equal(t, "TEST", push.calls[0].data["type"])

	disabled := NewNotifier(nil, nil, newMemTokens("a"), NotifierConfig{}, nil, nil)
	_, err = disabled.SendTest(context.Background(), "hello", "world")
	assert.Error(t, err)
}

func TestAlertBody(t *testing.T) {
	a := scored("BTC", 7)
	assert.Equal(t, "1h on okx | RSI 52.50", alertBody(a))
}
