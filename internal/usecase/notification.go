package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/arun-ammasai/crypto-trading-setup/internal/domain"
	"github.com/arun-ammasai/crypto-trading-setup/internal/logger"
	"github.com/arun-ammasai/crypto-trading-setup/internal/metrics"
)

// Alert defaults.
const (
	DefaultAlertMinScore = MaxScore
	DefaultAlertCooldown = 5 * time.Minute
)

// NotifierConfig tunes high-score alerts.
type NotifierConfig struct {
	MinScore int
	Cooldown time.Duration
}

// Notifier publishes every analysis to the event stream and pushes an alert
// when the score reaches MinScore, at most once per symbol per Cooldown.
// Publisher and push sender are both optional.
type Notifier struct {
	publisher domain.AnalysisPublisher
	push      domain.PushSender
	tokens    domain.TokenRepository
	minScore  int
	cooldown  time.Duration

	notified map[string]time.Time // symbol -> last alert
	mu       sync.Mutex
	now      func() time.Time

	log     *slog.Logger
	metrics *metrics.Metrics
}

func NewNotifier(publisher domain.AnalysisPublisher, push domain.PushSender, tokens domain.TokenRepository, cfg NotifierConfig, log *slog.Logger, m *metrics.Metrics) *Notifier {
	if cfg.MinScore <= 0 {
		cfg.MinScore = DefaultAlertMinScore
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = DefaultAlertCooldown
	}
	if log == nil {
		log = slog.Default()
	}
	return &Notifier{
		publisher: publisher,
		push:      push,
		tokens:    tokens,
		minScore:  cfg.MinScore,
		cooldown:  cfg.Cooldown,
		notified:  make(map[string]time.Time),
		now:       time.Now,
		log:       log,
		metrics:   m,
	}
}

// OnAnalysis handles one completed analysis.
func (n *Notifier) OnAnalysis(ctx context.Context, a *domain.CoinAnalysis) {
	if n.publisher != nil {
		err := n.publisher.PublishAnalysis(ctx, a)
		n.metrics.ObservePublish(err)
		if err != nil {
			n.log.WarnContext(ctx, "failed to publish analysis", append(logger.Attrs(ctx), "symbol", a.Symbol, "error", err)...)
		}
	}

	if a.Score >= n.minScore {
		n.alert(ctx, a)
	}
}

func (n *Notifier) alert(ctx context.Context, a *domain.CoinAnalysis) {
	if n.push == nil || n.tokens == nil {
		return
	}

	tokens, err := n.tokens.AllTokens(ctx)
	if err != nil {
		n.log.WarnContext(ctx, "failed to load device tokens", "error", err)
		return
	}
	if len(tokens) == 0 {
		return
	}

	if !n.reserve(a.Symbol) {
		return
	}

	title := fmt.Sprintf("%s TA score %d/%d", a.Symbol, a.Score, MaxScore)
	body := alertBody(a)
	data := map[string]string{
		"type":      "TA_SCORE",
		"coin_id":   a.CoinID,
		"symbol":    a.Symbol,
		"pair":      a.Pair,
		"timeframe": a.Timeframe,
		"score":     strconv.Itoa(a.Score),
		"date_utc":  a.DateUTC,
	}

	invalid, err := n.push.SendMulticast(ctx, tokens, title, body, data)
	if err != nil {
		n.release(a.Symbol)
		n.log.ErrorContext(ctx, "failed to send alert", "symbol", a.Symbol, "error", err)
		return
	}
	n.metrics.ObserveAlert()
	n.log.InfoContext(ctx, "sent score alert", "symbol", a.Symbol, "score", a.Score, "devices", len(tokens))

	n.pruneTokens(ctx, invalid)
}

// SendTest pushes a test notification to every registered device and
// returns the number of devices targeted.
func (n *Notifier) SendTest(ctx context.Context, title, body string) (int, error) {
	if n.push == nil {
		return 0, fmt.Errorf("push notifications are disabled")
	}
	tokens, err := n.tokens.AllTokens(ctx)
	if err != nil {
		return 0, err
	}
	if len(tokens) == 0 {
		return 0, nil
	}

	invalid, err := n.push.SendMulticast(ctx, tokens, title, body, map[string]string{"type": "TEST"})
	if err != nil {
		return 0, err
	}
	n.pruneTokens(ctx, invalid)
	return len(tokens), nil
}

// reserve claims the cooldown slot for symbol. Expired entries are dropped
// on the way.
func (n *Notifier) reserve(symbol string) bool {
	now := n.now()

	n.mu.Lock()
	defer n.mu.Unlock()

	for s, t := range n.notified {
		if now.Sub(t) > n.cooldown*2 {
			delete(n.notified, s)
		}
	}

	if last, ok := n.notified[symbol]; ok && now.Sub(last) < n.cooldown {
		return false
	}
	n.notified[symbol] = now
	return true
}

func (n *Notifier) release(symbol string) {
	n.mu.Lock()
	delete(n.notified, symbol)
	n.mu.Unlock()
}

func (n *Notifier) pruneTokens(ctx context.Context, invalid []string) {
	for _, t := range invalid {
		if err := n.tokens.UnregisterToken(ctx, t); err != nil {
			n.log.WarnContext(ctx, "failed to remove invalid token", "error", err)
		}
	}
}

func alertBody(a *domain.CoinAnalysis) string {
	body := fmt.Sprintf("%s on %s", a.Timeframe, a.Exchange)
	if a.RSI != nil {
		body += fmt.Sprintf(" | RSI %.2f", *a.RSI)
	}
	if a.MACDHistogram != nil {
		body += fmt.Sprintf(" | MACD hist %.2f", *a.MACDHistogram)
	}
	if a.ATR != nil {
		body += fmt.Sprintf(" | ATR %.2f", *a.ATR)
	}
	return body
}
