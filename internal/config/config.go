package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/arun-ammasai/crypto-trading-setup/internal/domain"
)

// Config holds all application configuration.
//
// Values come from defaults, then an optional YAML file named by CONFIG_FILE,
// then environment variables.
type Config struct {
	LogLevel string         `yaml:"log_level"`
	Server   ServerConfig   `yaml:"server"`
	Exchange ExchangeConfig `yaml:"exchange"`
	Cache    CacheConfig    `yaml:"cache"`
	Store    StoreConfig    `yaml:"store"`
	Kafka    KafkaConfig    `yaml:"kafka"`
	Alerts   AlertConfig    `yaml:"alerts"`
	Watch    WatchConfig    `yaml:"watch"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string        `yaml:"host"`
	Port            string        `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	BulkConcurrency int           `yaml:"bulk_concurrency"`
}

// ExchangeConfig selects the candle source per endpoint and tunes upstream calls.
type ExchangeConfig struct {
	OHLCV      string        `yaml:"ohlcv"`
	Analyze    string        `yaml:"analyze"`
	Bulk       string        `yaml:"bulk"`
	Timeout    time.Duration `yaml:"timeout"`
	MaxRetries int           `yaml:"max_retries"`

	BinanceBaseURL string `yaml:"binance_base_url"`
	OKXBaseURL     string `yaml:"okx_base_url"`
	BybitBaseURL   string `yaml:"bybit_base_url"`
}

// CacheConfig holds candle cache configuration. Empty RedisAddr means in-memory.
type CacheConfig struct {
	RedisAddr     string        `yaml:"redis_addr"`
	RedisPassword string        `yaml:"redis_password"`
	RedisDB       int           `yaml:"redis_db"`
	TTL           time.Duration `yaml:"ttl"`
}

// StoreConfig selects the analysis store: memory, postgres or sqlite.
type StoreConfig struct {
	Driver      string `yaml:"driver"`
	DatabaseURL string `yaml:"database_url"`
	SQLitePath  string `yaml:"sqlite_path"`
}

// KafkaConfig holds Kafka configuration. No brokers means publishing is off.
type KafkaConfig struct {
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
}

// AlertConfig controls push notifications for high scores.
type AlertConfig struct {
	MinScore                int           `yaml:"min_score"`
	Cooldown                time.Duration `yaml:"cooldown"`
	FirebaseCredentialsPath string        `yaml:"firebase_credentials_path"`
	FirebaseCredentialsJSON string        `yaml:"firebase_credentials_json"`
}

// WatchConfig drives the periodic watchlist worker. Empty Watchlist disables it.
type WatchConfig struct {
	Watchlist string        `yaml:"watchlist"` // "bitcoin:BTC,ethereum:ETH"
	Interval  time.Duration `yaml:"interval"`
	Timeframe string        `yaml:"timeframe"`
	Limit     int           `yaml:"limit"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		LogLevel: "INFO",
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            "8080",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    60 * time.Second,
			BulkConcurrency: 10,
		},
		Exchange: ExchangeConfig{
			OHLCV:          "bybit",
			Analyze:        "okx",
			Bulk:           "binance",
			Timeout:        10 * time.Second,
			MaxRetries:     3,
			BinanceBaseURL: "https://api.binance.com",
			OKXBaseURL:     "https://www.okx.com",
			BybitBaseURL:   "https://api.bybit.com",
		},
		Cache: CacheConfig{
			TTL: 30 * time.Second,
		},
		Store: StoreConfig{
			Driver:     "memory",
			SQLitePath: "data/analysis.db",
		},
		Kafka: KafkaConfig{
			Topic: "ta-analysis",
		},
		Alerts: AlertConfig{
			MinScore: 7,
			Cooldown: 5 * time.Minute,
		},
		Watch: WatchConfig{
			Interval:  time.Minute,
			Timeframe: "1h",
			Limit:     100,
		},
	}
}

// Load reads configuration from CONFIG_FILE (if set) and environment variables.
func Load() (*Config, error) {
	cfg := Default()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.LoadFile(path); err != nil {
			return nil, err
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// LoadFile overlays the YAML file at path onto c.
func (c *Config) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file '%s': %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config from YAML: %w", err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)

	c.Server.Host = getEnv("SERVER_HOST", c.Server.Host)
	c.Server.Port = getEnv("SERVER_PORT", getEnv("PORT", c.Server.Port))
	c.Server.ReadTimeout = getDuration("SERVER_READ_TIMEOUT", c.Server.ReadTimeout)
	c.Server.WriteTimeout = getDuration("SERVER_WRITE_TIMEOUT", c.Server.WriteTimeout)
	c.Server.BulkConcurrency = getInt("BULK_CONCURRENCY", c.Server.BulkConcurrency)

	c.Exchange.OHLCV = getEnv("OHLCV_EXCHANGE", c.Exchange.OHLCV)
	c.Exchange.Analyze = getEnv("ANALYZE_EXCHANGE", c.Exchange.Analyze)
	c.Exchange.Bulk = getEnv("BULK_EXCHANGE", c.Exchange.Bulk)
	c.Exchange.Timeout = getDuration("EXCHANGE_TIMEOUT", c.Exchange.Timeout)
	c.Exchange.MaxRetries = getInt("EXCHANGE_MAX_RETRIES", c.Exchange.MaxRetries)
	c.Exchange.BinanceBaseURL = getEnv("BINANCE_BASE_URL", c.Exchange.BinanceBaseURL)
	c.Exchange.OKXBaseURL = getEnv("OKX_BASE_URL", c.Exchange.OKXBaseURL)
	c.Exchange.BybitBaseURL = getEnv("BYBIT_BASE_URL", c.Exchange.BybitBaseURL)

	c.Cache.RedisAddr = getEnv("REDIS_ADDR", c.Cache.RedisAddr)
	c.Cache.RedisPassword = getEnv("REDIS_PASSWORD", c.Cache.RedisPassword)
	c.Cache.RedisDB = getInt("REDIS_DB", c.Cache.RedisDB)
	c.Cache.TTL = getDuration("CACHE_TTL", c.Cache.TTL)

	c.Store.Driver = strings.ToLower(getEnv("STORE_DRIVER", c.Store.Driver))
	c.Store.DatabaseURL = getEnv("DATABASE_URL", c.Store.DatabaseURL)
	c.Store.SQLitePath = getEnv("SQLITE_PATH", c.Store.SQLitePath)

	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = splitList(v)
	}
	c.Kafka.Topic = getEnv("KAFKA_TOPIC", c.Kafka.Topic)

	c.Alerts.MinScore = getInt("ALERT_MIN_SCORE", c.Alerts.MinScore)
	c.Alerts.Cooldown = getDuration("ALERT_COOLDOWN", c.Alerts.Cooldown)
	c.Alerts.FirebaseCredentialsPath = getEnv("FIREBASE_CREDENTIALS_PATH", c.Alerts.FirebaseCredentialsPath)
	c.Alerts.FirebaseCredentialsJSON = getEnv("FIREBASE_CREDENTIALS_JSON", c.Alerts.FirebaseCredentialsJSON)

	c.Watch.Watchlist = getEnv("WATCHLIST", c.Watch.Watchlist)
	c.Watch.Interval = getDuration("WATCH_INTERVAL", c.Watch.Interval)
	c.Watch.Timeframe = getEnv("WATCH_TIMEFRAME", c.Watch.Timeframe)
	c.Watch.Limit = getInt("WATCH_LIMIT", c.Watch.Limit)
}

// Validate performs basic configuration validation
func (c *Config) Validate() error {
	port, err := strconv.Atoi(c.Server.Port)
	if err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("invalid server port: %q", c.Server.Port)
	}
	if c.Server.BulkConcurrency <= 0 {
		return fmt.Errorf("bulk concurrency must be greater than 0")
	}

	for _, name := range []string{c.Exchange.OHLCV, c.Exchange.Analyze, c.Exchange.Bulk} {
		switch name {
		case "binance", "okx", "bybit":
		default:
			return fmt.Errorf("unknown exchange %q", name)
		}
	}
	if c.Exchange.Timeout <= 0 {
		return fmt.Errorf("exchange timeout must be greater than 0")
	}
	if c.Exchange.MaxRetries < 0 {
		return fmt.Errorf("exchange max retries cannot be negative")
	}

	switch c.Store.Driver {
	case "memory":
	case "postgres":
		if c.Store.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for the postgres store")
		}
	case "sqlite":
		if c.Store.SQLitePath == "" {
			return fmt.Errorf("sqlite path cannot be empty")
		}
	default:
		return fmt.Errorf("unknown store driver %q", c.Store.Driver)
	}

	if c.Alerts.MinScore < 0 {
		return fmt.Errorf("alert min score cannot be negative")
	}
	if c.Watch.Watchlist != "" && c.Watch.Interval <= 0 {
		return fmt.Errorf("watch interval must be greater than 0")
	}
	if _, err := ParseWatchlist(c.Watch.Watchlist); err != nil {
		return err
	}
	return nil
}

// Addr returns the HTTP listen address.
func (s ServerConfig) Addr() string {
	return s.Host + ":" + s.Port
}

// ParseWatchlist parses "coin_id:SYMBOL" pairs separated by commas.
// An entry without a coin id uses the lowercased symbol.
func ParseWatchlist(s string) ([]domain.CoinRequest, error) {
	var coins []domain.CoinRequest
	for _, item := range splitList(s) {
		coinID, symbol, found := strings.Cut(item, ":")
		if !found {
			symbol = coinID
			coinID = strings.ToLower(symbol)
		}
		coinID = strings.TrimSpace(coinID)
		symbol = strings.TrimSpace(symbol)
		if coinID == "" || symbol == "" {
			return nil, fmt.Errorf("invalid watchlist entry %q", item)
		}
		coins = append(coins, domain.CoinRequest{CoinID: coinID, Symbol: strings.ToUpper(symbol)})
	}
	return coins, nil
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getInt(key string, defaultValue int) int {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultValue
}
