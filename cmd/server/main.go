package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/arun-ammasai/crypto-trading-setup/internal/config"
	httpdelivery "github.com/arun-ammasai/crypto-trading-setup/internal/delivery/http"
	"github.com/arun-ammasai/crypto-trading-setup/internal/delivery/websocket"
	"github.com/arun-ammasai/crypto-trading-setup/internal/domain"
	"github.com/arun-ammasai/crypto-trading-setup/internal/infrastructure/cache"
	"github.com/arun-ammasai/crypto-trading-setup/internal/infrastructure/db"
	"github.com/arun-ammasai/crypto-trading-setup/internal/infrastructure/exchange"
	"github.com/arun-ammasai/crypto-trading-setup/internal/infrastructure/exchange/binance"
	"github.com/arun-ammasai/crypto-trading-setup/internal/infrastructure/exchange/bybit"
	"github.com/arun-ammasai/crypto-trading-setup/internal/infrastructure/exchange/okx"
	"github.com/arun-ammasai/crypto-trading-setup/internal/infrastructure/fcm"
	"github.com/arun-ammasai/crypto-trading-setup/internal/infrastructure/kafka"
	"github.com/arun-ammasai/crypto-trading-setup/internal/logger"
	"github.com/arun-ammasai/crypto-trading-setup/internal/metrics"
	"github.com/arun-ammasai/crypto-trading-setup/internal/repository"
	"github.com/arun-ammasai/crypto-trading-setup/internal/usecase"
)

const (
	serviceName     = "crypto-ta"
	shutdownTimeout = 15 * time.Second
	sweepInterval   = time.Minute
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	log := logger.Init(serviceName, logger.ParseLevel(cfg.LogLevel))

	if err := run(cfg, log); err != nil {
		log.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New()

	// 1. Candle cache
	candleCache, closeCache, err := newCandleCache(ctx, cfg.Cache, log)
	if err != nil {
		return err
	}
	defer closeCache()

	// 2. Exchange sources, each behind the cache
	sources, err := newSources(cfg, candleCache, log, m)
	if err != nil {
		return err
	}

	// 3. Repositories
	store, err := newStore(ctx, cfg.Store, log)
	if err != nil {
		return err
	}
	defer store.close()

	// 4. Signal fan-out
	var publisher domain.AnalysisPublisher
	if len(cfg.Kafka.Brokers) > 0 {
		producer := kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		defer producer.Close()
		publisher = producer
		log.Info("kafka publishing enabled", "brokers", cfg.Kafka.Brokers, "topic", cfg.Kafka.Topic)
	}

	fcmClient, err := fcm.NewClient(ctx, cfg.Alerts.FirebaseCredentialsPath, cfg.Alerts.FirebaseCredentialsJSON, log)
	if err != nil {
		return err
	}
	var push domain.PushSender
	if fcmClient.IsEnabled() {
		push = fcmClient
	}

	notifier := usecase.NewNotifier(publisher, push, store.tokens, usecase.NotifierConfig{
		MinScore: cfg.Alerts.MinScore,
		Cooldown: cfg.Alerts.Cooldown,
	}, log, m)

	// 5. Usecase
	service := usecase.NewAnalysisService(sources, usecase.ServiceOptions{
		Repo:            store.analyses,
		Notifier:        notifier,
		BulkConcurrency: cfg.Server.BulkConcurrency,
		Logger:          log,
		Metrics:         m,
	})

	coins, err := config.ParseWatchlist(cfg.Watch.Watchlist)
	if err != nil {
		return err
	}
	if len(coins) > 0 {
		watcher := usecase.NewWatcher(service, usecase.WatcherConfig{
			Coins:     coins,
			Timeframe: cfg.Watch.Timeframe,
			Limit:     cfg.Watch.Limit,
			Interval:  cfg.Watch.Interval,
		}, log, m)
		go watcher.Run(ctx)
	}

	// 6. Delivery
	wsHandler := websocket.NewHandler(store.analyses, websocket.DefaultPushInterval, log, m)
	router := httpdelivery.SetupRoutes(httpdelivery.Handlers{
		Analysis:  httpdelivery.NewAnalysisHandler(service, log),
		Tokens:    httpdelivery.NewTokenHandler(store.tokens, log),
		Test:      httpdelivery.NewTestHandler(notifier),
		WebSocket: wsHandler.Handle,
		Metrics:   m,
		Logger:    log,
	})

	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening",
			"addr", srv.Addr,
			"store", cfg.Store.Driver,
			"ohlcv_exchange", cfg.Exchange.OHLCV,
			"analyze_exchange", cfg.Exchange.Analyze,
			"bulk_exchange", cfg.Exchange.Bulk,
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func newCandleCache(ctx context.Context, cfg config.CacheConfig, log *slog.Logger) (domain.CandleCache, func(), error) {
	if cfg.RedisAddr == "" {
		c := cache.NewMemoryCache()
		go c.RunSweeper(ctx, sweepInterval)
		log.Info("using in-memory candle cache", "ttl", cfg.TTL)
		return c, func() {}, nil
	}

	c, err := cache.NewRedisCache(ctx, cache.RedisConfig{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err != nil {
		return nil, nil, err
	}
	log.Info("using redis candle cache", "addr", cfg.RedisAddr, "ttl", cfg.TTL)
	return c, func() { c.Close() }, nil
}

func newSources(cfg *config.Config, candleCache domain.CandleCache, log *slog.Logger, m *metrics.Metrics) (usecase.Sources, error) {
	clients := make(map[string]domain.CandleSource)
	source := func(name string) (domain.CandleSource, error) {
		if s, ok := clients[name]; ok {
			return s, nil
		}
		opts := exchange.Options{
			Timeout:    cfg.Exchange.Timeout,
			MaxRetries: cfg.Exchange.MaxRetries,
			Logger:     log,
			Metrics:    m,
		}
		var raw domain.CandleSource
		switch name {
		case binance.Name:
			opts.BaseURL = cfg.Exchange.BinanceBaseURL
			raw = binance.NewClient(opts)
		case okx.Name:
			opts.BaseURL = cfg.Exchange.OKXBaseURL
			raw = okx.NewClient(opts)
		case bybit.Name:
			opts.BaseURL = cfg.Exchange.BybitBaseURL
			raw = bybit.NewClient(opts)
		default:
			return nil, fmt.Errorf("unknown exchange %q", name)
		}
		s := usecase.NewCandleLoader(raw, candleCache, cfg.Cache.TTL, log, m)
		clients[name] = s
		return s, nil
	}

	var (
		out usecase.Sources
		err error
	)
	if out.OHLCV, err = source(cfg.Exchange.OHLCV); err != nil {
		return out, err
	}
	if out.Analyze, err = source(cfg.Exchange.Analyze); err != nil {
		return out, err
	}
	if out.Bulk, err = source(cfg.Exchange.Bulk); err != nil {
		return out, err
	}
	return out, nil
}

type storage struct {
	analyses domain.AnalysisRepository
	tokens   domain.TokenRepository
	close    func()
}

func newStore(ctx context.Context, cfg config.StoreConfig, log *slog.Logger) (*storage, error) {
	switch cfg.Driver {
	case "postgres":
		if err := db.Migrate(cfg.DatabaseURL); err != nil {
			return nil, err
		}
		pool, err := db.NewPool(ctx, cfg.DatabaseURL, db.PoolConfigFromEnv())
		if err != nil {
			return nil, err
		}
		log.Info("using postgres analysis store")
		return &storage{
			analyses: repository.NewPostgresAnalysisRepository(pool),
			tokens:   repository.NewPostgresTokenRepository(pool),
			close:    pool.Close,
		}, nil

	case "sqlite":
		conn, err := db.OpenSQLite(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		log.Info("using sqlite analysis store", "path", cfg.SQLitePath)
		return &storage{
			analyses: repository.NewSQLiteAnalysisRepository(conn),
			tokens:   repository.NewSQLiteTokenRepository(conn),
			close:    func() { conn.Close() },
		}, nil

	default:
		log.Info("using in-memory analysis store")
		return &storage{
			analyses: repository.NewInMemoryAnalysisRepository(repository.DefaultHistoryCap),
			tokens:   repository.NewTokenRepository(),
			close:    func() {},
		}, nil
	}
}
