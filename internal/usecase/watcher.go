package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/arun-ammasai/crypto-trading-setup/internal/domain"
	"github.com/arun-ammasai/crypto-trading-setup/internal/logger"
	"github.com/arun-ammasai/crypto-trading-setup/internal/metrics"
)

// Watcher re-analyzes a fixed watchlist on an interval through the bulk path.
type Watcher struct {
	service   *AnalysisService
	coins     []domain.CoinRequest
	timeframe string
	limit     int
	interval  time.Duration
	log       *slog.Logger
	metrics   *metrics.Metrics
}

// WatcherConfig configures a Watcher.
type WatcherConfig struct {
	Coins     []domain.CoinRequest
	Timeframe string
	Limit     int
	Interval  time.Duration
}

func NewWatcher(service *AnalysisService, cfg WatcherConfig, log *slog.Logger, m *metrics.Metrics) *Watcher {
	if cfg.Timeframe == "" {
		cfg.Timeframe = DefaultTimeframe
	}
	if cfg.Limit <= 0 {
		cfg.Limit = DefaultLimit
	}
	if cfg.Interval <= 0 {
		cfg.Interval = time.Minute
	}
	if log == nil {
		log = slog.Default()
	}
	return &Watcher{
		service:   service,
		coins:     cfg.Coins,
		timeframe: cfg.Timeframe,
		limit:     cfg.Limit,
		interval:  cfg.Interval,
		log:       log.With("component", "watcher"),
		metrics:   m,
	}
}

// Run starts the watch loop and blocks until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) {
	if len(w.coins) == 0 {
		return
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	// Initial run
	w.process(ctx)

	for {
		select {
		case <-ctx.Done():
			w.log.Info("watcher stopped")
			return
		case <-ticker.C:
			w.process(ctx)
		}
	}
}

// process runs one cycle and reports how many coins failed.
func (w *Watcher) process(ctx context.Context) int {
	start := time.Now()
	ctx = logger.WithRequestID(ctx, "watch-"+start.UTC().Format("20060102T150405"))

	items, err := w.service.AnalyzeBulk(ctx, domain.BulkRequest{
		Coins:     w.coins,
		Timeframe: w.timeframe,
		Limit:     w.limit,
	})
	if err != nil {
		w.log.ErrorContext(ctx, "watch cycle failed", append(logger.Attrs(ctx), "error", err)...)
		return len(w.coins)
	}

	failed := 0
	for _, it := range items {
		if it.Analysis == nil {
			failed++
			w.log.WarnContext(ctx, "watch item failed", append(logger.Attrs(ctx), "symbol", it.Symbol, "error", it.Error)...)
		}
	}

	if w.metrics != nil {
		w.metrics.WatchCycleDur.Observe(time.Since(start).Seconds())
	}
	w.log.InfoContext(ctx, "watch cycle finished", append(logger.Attrs(ctx),
		"coins", len(w.coins),
		"failed", failed,
		"duration", time.Since(start).String(),
	)...)
	return failed
}
