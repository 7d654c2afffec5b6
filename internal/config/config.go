package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// Config holds application level configuration loaded from environment and flags.
type Config struct {
	RunAddress      string
	DatabaseURI     string
	RedisAddr       string
	RedisPassword   string
	RedisDB         int
	JWTSecret       string
	TokenTTL        time.Duration
	ShutdownTimeout time.Duration

	ShippingCost decimal.Decimal
	TaxRate      decimal.Decimal
	BuyNowTTL    time.Duration

	KafkaBrokers       []string
	OrderEventsTopic   string
	OutboxPollInterval time.Duration
	OutboxBatchSize    int
	OutboxWorkers      int

	LogLevel           string
	LogFile            string
	CORSAllowedOrigins []string
	CheckoutRateLimit  float64
	CheckoutRateBurst  int
}

const (
	defaultRunAddress         = ":8080"
	defaultJWTSecret          = "change-me-in-production"
	defaultTokenTTL           = 24 * time.Hour
	defaultShutdownTimeout    = 10 * time.Second
	defaultShippingCost       = "15000"
	defaultTaxRate            = "0.10"
	defaultBuyNowTTL          = 2 * time.Hour
	defaultOrderEventsTopic   = "grocerymart.orders"
	defaultOutboxPollInterval = 2 * time.Second
	defaultOutboxBatchSize    = 50
	defaultOutboxWorkers      = 2
	defaultLogLevel           = "info"
	defaultCheckoutRateLimit  = 2.0
	defaultCheckoutRateBurst  = 5
)

// Load parses configuration from an optional .env file, environment variables and flags.
func Load() (*Config, error) {
	if err := loadDotEnv(os.Getenv("ENV_FILE")); err != nil {
		return nil, err
	}
	return load(os.Args[1:], os.LookupEnv)
}

func loadDotEnv(path string) error {
	if path == "" {
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load env file: %w", err)
	}
	return nil
}

type envLookup func(string) (string, bool)

func load(args []string, lookup envLookup) (*Config, error) {
	cfg := &Config{
		RunAddress:         getString(lookup, "RUN_ADDRESS", defaultRunAddress),
		DatabaseURI:        getString(lookup, "DATABASE_URI", ""),
		RedisAddr:          getString(lookup, "REDIS_ADDR", ""),
		RedisPassword:      getString(lookup, "REDIS_PASSWORD", ""),
		RedisDB:            getInt(lookup, "REDIS_DB", 0),
		JWTSecret:          getString(lookup, "JWT_SECRET", defaultJWTSecret),
		TokenTTL:           getDuration(lookup, "TOKEN_TTL", defaultTokenTTL),
		ShutdownTimeout:    getDuration(lookup, "SHUTDOWN_TIMEOUT", defaultShutdownTimeout),
		BuyNowTTL:          getDuration(lookup, "BUY_NOW_TTL", defaultBuyNowTTL),
		KafkaBrokers:       splitList(getString(lookup, "KAFKA_BROKERS", "")),
		OrderEventsTopic:   getString(lookup, "ORDER_EVENTS_TOPIC", defaultOrderEventsTopic),
		OutboxPollInterval: getDuration(lookup, "OUTBOX_POLL_INTERVAL", defaultOutboxPollInterval),
		OutboxBatchSize:    getInt(lookup, "OUTBOX_BATCH_SIZE", defaultOutboxBatchSize),
		OutboxWorkers:      getInt(lookup, "OUTBOX_WORKERS", defaultOutboxWorkers),
		LogLevel:           getString(lookup, "LOG_LEVEL", defaultLogLevel),
		LogFile:            getString(lookup, "LOG_FILE", ""),
		CORSAllowedOrigins: splitList(getString(lookup, "CORS_ALLOWED_ORIGINS", "")),
		CheckoutRateLimit:  getFloat(lookup, "CHECKOUT_RATE_LIMIT", defaultCheckoutRateLimit),
		CheckoutRateBurst:  getInt(lookup, "CHECKOUT_RATE_BURST", defaultCheckoutRateBurst),
	}

	fs := flag.NewFlagSet("grocerymart", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	var (
		shippingStr        = getString(lookup, "SHIPPING_COST", defaultShippingCost)
		taxRateStr         = getString(lookup, "TAX_RATE", defaultTaxRate)
		shutdownTimeoutStr = cfg.ShutdownTimeout.String()
		outboxIntervalStr  = cfg.OutboxPollInterval.String()
		brokersStr         = strings.Join(cfg.KafkaBrokers, ",")
	)

	fs.StringVar(&cfg.RunAddress, "a", cfg.RunAddress, "HTTP server listen address")
	fs.StringVar(&cfg.DatabaseURI, "d", cfg.DatabaseURI, "PostgreSQL DSN")
	fs.StringVar(&cfg.RedisAddr, "redis", cfg.RedisAddr, "Redis address for session storage")
	fs.StringVar(&cfg.JWTSecret, "jwt-secret", cfg.JWTSecret, "Secret for signing auth tokens")
	fs.StringVar(&shutdownTimeoutStr, "shutdown-timeout", shutdownTimeoutStr, "Graceful shutdown timeout")
	fs.StringVar(&shippingStr, "shipping-cost", shippingStr, "Flat shipping cost applied at checkout")
	fs.StringVar(&taxRateStr, "tax-rate", taxRateStr, "Tax rate applied to checkout subtotal")
	fs.StringVar(&brokersStr, "kafka-brokers", brokersStr, "Comma separated Kafka brokers for order events")
	fs.StringVar(&outboxIntervalStr, "outbox-interval", outboxIntervalStr, "Interval between outbox polls")
	fs.IntVar(&cfg.OutboxWorkers, "outbox-workers", cfg.OutboxWorkers, "Number of concurrent outbox publishers")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level: debug, info, warn, error")

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}

	var err error

	if cfg.ShutdownTimeout, err = time.ParseDuration(shutdownTimeoutStr); err != nil {
		return nil, fmt.Errorf("invalid shutdown timeout: %w", err)
	}

	if cfg.OutboxPollInterval, err = time.ParseDuration(outboxIntervalStr); err != nil {
		return nil, fmt.Errorf("invalid outbox interval: %w", err)
	}

	if cfg.ShippingCost, err = decimal.NewFromString(shippingStr); err != nil {
		return nil, fmt.Errorf("invalid shipping cost: %w", err)
	}

	if cfg.TaxRate, err = decimal.NewFromString(taxRateStr); err != nil {
		return nil, fmt.Errorf("invalid tax rate: %w", err)
	}

	cfg.KafkaBrokers = splitList(brokersStr)

	if secretFile, ok := lookup("JWT_SECRET_FILE"); ok && secretFile != "" {
		content, err := os.ReadFile(secretFile)
		if err != nil {
			return nil, fmt.Errorf("read jwt secret file: %w", err)
		}
		cfg.JWTSecret = strings.TrimSpace(string(content))
	}

	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = defaultShutdownTimeout
	}

	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = defaultTokenTTL
	}

	if cfg.BuyNowTTL <= 0 {
		cfg.BuyNowTTL = defaultBuyNowTTL
	}

	if cfg.OutboxPollInterval <= 0 {
		cfg.OutboxPollInterval = defaultOutboxPollInterval
	}

	if cfg.OutboxBatchSize <= 0 {
		cfg.OutboxBatchSize = defaultOutboxBatchSize
	}

	if cfg.OutboxWorkers <= 0 {
		cfg.OutboxWorkers = defaultOutboxWorkers
	}

	if cfg.CheckoutRateLimit <= 0 {
		cfg.CheckoutRateLimit = defaultCheckoutRateLimit
	}

	if cfg.CheckoutRateBurst <= 0 {
		cfg.CheckoutRateBurst = defaultCheckoutRateBurst
	}

	if cfg.ShippingCost.IsNegative() {
		return nil, fmt.Errorf("shipping cost must not be negative")
	}

	if cfg.TaxRate.IsNegative() || cfg.TaxRate.GreaterThan(decimal.NewFromInt(1)) {
		return nil, fmt.Errorf("tax rate must be within [0, 1]")
	}

	if cfg.DatabaseURI == "" {
		return nil, fmt.Errorf("database URI must be provided")
	}

	if cfg.RedisAddr == "" {
		return nil, fmt.Errorf("redis address must be provided")
	}

	return cfg, nil
}

func getString(lookup envLookup, key, def string) string {
	if v, ok := lookup(key); ok && v != "" {
		return v
	}
	return def
}

func getInt(lookup envLookup, key string, def int) int {
	if v, ok := lookup(key); ok && v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getFloat(lookup envLookup, key string, def float64) float64 {
	if v, ok := lookup(key); ok && v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getDuration(lookup envLookup, key string, def time.Duration) time.Duration {
	if v, ok := lookup(key); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
