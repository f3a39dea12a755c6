package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/arun-ammasai/crypto-trading-setup/internal/domain"
	"github.com/arun-ammasai/crypto-trading-setup/internal/logger"
	"github.com/arun-ammasai/crypto-trading-setup/internal/metrics"
)

// CandleLoader is a cache-through CandleSource. Cache failures are logged
// and bypassed.
type CandleLoader struct {
	source  domain.CandleSource
	cache   domain.CandleCache
	ttl     time.Duration
	log     *slog.Logger
	metrics *metrics.Metrics
}

func NewCandleLoader(source domain.CandleSource, cache domain.CandleCache, ttl time.Duration, log *slog.Logger, m *metrics.Metrics) *CandleLoader {
	if log == nil {
		log = slog.Default()
	}
	return &CandleLoader{
		source:  source,
		cache:   cache,
		ttl:     ttl,
		log:     log,
		metrics: m,
	}
}

// CacheKey is the cache key of one fetch.
func CacheKey(exchange, pair, timeframe string, limit int) string {
	return fmt.Sprintf("candles:%s:%s:%s:%d", exchange, pair, timeframe, limit)
}

func (l *CandleLoader) Name() string { return l.source.Name() }

func (l *CandleLoader) FetchCandles(ctx context.Context, pair, timeframe string, limit int) (domain.CandleSeries, error) {
	if l.cache == nil || l.ttl <= 0 {
		return l.source.FetchCandles(ctx, pair, timeframe, limit)
	}

	key := CacheKey(l.source.Name(), pair, timeframe, limit)

	series, ok, err := l.cache.Get(ctx, key)
	switch {
	case err != nil:
		l.metrics.ObserveCache("error")
		l.log.WarnContext(ctx, "candle cache read failed", append(logger.Attrs(ctx), "key", key, "error", err)...)
	case ok:
		l.metrics.ObserveCache("hit")
		return series, nil
	default:
		l.metrics.ObserveCache("miss")
	}

	series, err = l.source.FetchCandles(ctx, pair, timeframe, limit)
	if err != nil {
		return nil, err
	}

	if err := l.cache.Set(ctx, key, series, l.ttl); err != nil {
		l.log.WarnContext(ctx, "candle cache write failed", append(logger.Attrs(ctx), "key", key, "error", err)...)
	}
	return series, nil
}

var _ domain.CandleSource = (*CandleLoader)(nil)
