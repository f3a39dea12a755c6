package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/arun-ammasai/crypto-trading-setup/internal/domain"
	"github.com/arun-ammasai/crypto-trading-setup/internal/infrastructure/exchange"
	"github.com/arun-ammasai/crypto-trading-setup/internal/logger"
	"github.com/arun-ammasai/crypto-trading-setup/internal/metrics"
)

// Request defaults.
const (
	DefaultTimeframe       = "1h"
	DefaultLimit           = 100
	DefaultBulkConcurrency = 10
)

// Sources names the candle source behind each entry point.
type Sources struct {
	OHLCV   domain.CandleSource
	Analyze domain.CandleSource
	Bulk    domain.CandleSource
}

// AnalysisService fetches candles, runs Evaluate and fans the result out to
// the store and the notifier.
type AnalysisService struct {
	sources         Sources
	repo            domain.AnalysisRepository
	notifier        *Notifier
	bulkConcurrency int
	now             func() time.Time
	log             *slog.Logger
	metrics         *metrics.Metrics
}

// ServiceOptions holds the optional collaborators of AnalysisService.
type ServiceOptions struct {
	Repo            domain.AnalysisRepository
	Notifier        *Notifier
	BulkConcurrency int
	Logger          *slog.Logger
	Metrics         *metrics.Metrics
}

func NewAnalysisService(sources Sources, opts ServiceOptions) *AnalysisService {
	if opts.BulkConcurrency <= 0 {
		opts.BulkConcurrency = DefaultBulkConcurrency
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &AnalysisService{
		sources:         sources,
		repo:            opts.Repo,
		notifier:        opts.Notifier,
		bulkConcurrency: opts.BulkConcurrency,
		now:             time.Now,
		log:             opts.Logger,
		metrics:         opts.Metrics,
	}
}

// FetchOHLCV returns raw candles for pair from the OHLCV source.
func (s *AnalysisService) FetchOHLCV(ctx context.Context, pair, timeframe string, limit int) (domain.CandleSeries, error) {
	if err := validateWindow(timeframe, limit); err != nil {
		return nil, err
	}
	return s.sources.OHLCV.FetchCandles(ctx, pair, timeframe, limit)
}

// AnalyzeCoin scores one coin against the analyze source.
func (s *AnalysisService) AnalyzeCoin(ctx context.Context, coin domain.CoinRequest, timeframe string, limit int) (*domain.CoinAnalysis, error) {
	if err := validateWindow(timeframe, limit); err != nil {
		return nil, err
	}
	return s.analyze(ctx, s.sources.Analyze, coin, timeframe, limit)
}

// AnalyzeBulk scores every coin against the bulk source, at most
// bulkConcurrency at a time. Results keep request order; a failed coin
// becomes an error item and never fails the batch.
func (s *AnalysisService) AnalyzeBulk(ctx context.Context, req domain.BulkRequest) ([]domain.BulkItem, error) {
	if req.Timeframe == "" {
		req.Timeframe = DefaultTimeframe
	}
	if req.Limit == 0 {
		req.Limit = DefaultLimit
	}
	if err := validateWindow(req.Timeframe, req.Limit); err != nil {
		return nil, err
	}

	s.log.InfoContext(ctx, "bulk analysis started", append(logger.Attrs(ctx), "coins", len(req.Coins), "timeframe", req.Timeframe)...)

	items := make([]domain.BulkItem, len(req.Coins))
	sem := make(chan struct{}, s.bulkConcurrency)
	var wg sync.WaitGroup

	for i, coin := range req.Coins {
		wg.Add(1)
		go func(i int, coin domain.CoinRequest) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			a, err := s.analyze(ctx, s.sources.Bulk, coin, req.Timeframe, req.Limit)
			if err != nil {
				items[i] = domain.BulkItem{CoinID: coin.CoinID, Symbol: coin.Symbol, Error: err.Error()}
				return
			}
			items[i] = domain.BulkItem{Analysis: a}
		}(i, coin)
	}
	wg.Wait()

	return items, nil
}

func (s *AnalysisService) analyze(ctx context.Context, src domain.CandleSource, coin domain.CoinRequest, timeframe string, limit int) (*domain.CoinAnalysis, error) {
	if err := validateCoin(coin); err != nil {
		return nil, err
	}

	symbol := strings.ToUpper(strings.TrimSpace(coin.Symbol))
	pair := exchange.PairFor(symbol)

	series, err := src.FetchCandles(ctx, pair, timeframe, limit)
	if err != nil {
		return nil, err
	}

	result, err := Evaluate(series)
	s.metrics.ObserveEvaluation(err)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", pair, err)
	}

	now := s.now().UTC()
	a := &domain.CoinAnalysis{
		CoinID:      coin.CoinID,
		Symbol:      symbol,
		Pair:        pair,
		Exchange:    src.Name(),
		Timeframe:   timeframe,
		DateUTC:     now.Format(domain.DateLayout),
		At:          now,
		ScoreResult: *result,
	}

	s.afterAnalysis(ctx, a)
	return a, nil
}

// afterAnalysis stores and forwards a; failures here never fail the analysis.
func (s *AnalysisService) afterAnalysis(ctx context.Context, a *domain.CoinAnalysis) {
	if s.repo != nil {
		err := s.repo.Save(ctx, a)
		s.metrics.ObserveStore(err)
		if err != nil {
			s.log.WarnContext(ctx, "failed to store analysis", append(logger.Attrs(ctx), "symbol", a.Symbol, "error", err)...)
		}
	}
	if s.notifier != nil {
		s.notifier.OnAnalysis(ctx, a)
	}
}

// Latest returns the newest stored analysis per symbol.
func (s *AnalysisService) Latest(ctx context.Context) ([]domain.CoinAnalysis, error) {
	if s.repo == nil {
		return []domain.CoinAnalysis{}, nil
	}
	return s.repo.Latest(ctx)
}

// History returns stored analyses of symbol, newest first.
func (s *AnalysisService) History(ctx context.Context, symbol string, limit int) ([]domain.CoinAnalysis, error) {
	if strings.TrimSpace(symbol) == "" {
		return nil, fmt.Errorf("%w: symbol is required", domain.ErrInvalidRequest)
	}
	if err := exchange.ValidateLimit(limit); err != nil {
		return nil, err
	}
	if s.repo == nil {
		return []domain.CoinAnalysis{}, nil
	}
	return s.repo.History(ctx, symbol, limit)
}

func validateWindow(timeframe string, limit int) error {
	if !exchange.ValidTimeframe(timeframe) {
		return fmt.Errorf("%w: unsupported timeframe %q", domain.ErrInvalidRequest, timeframe)
	}
	return exchange.ValidateLimit(limit)
}

func validateCoin(coin domain.CoinRequest) error {
	if strings.TrimSpace(coin.CoinID) == "" {
		return fmt.Errorf("%w: coin_id is required", domain.ErrInvalidRequest)
	}
	symbol := strings.TrimSpace(coin.Symbol)
	if symbol == "" {
		return fmt.Errorf("%w: symbol is required", domain.ErrInvalidRequest)
	}
	if strings.ContainsAny(symbol, "/ ") {
		return fmt.Errorf("%w: symbol %q must be a bare coin ticker", domain.ErrInvalidRequest, symbol)
	}
	return nil
}
