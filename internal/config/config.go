// Package config loads the relay configuration from the environment. A .env
// file is honored when present; real environment variables win over it.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"solana-trade-relay/internal/solana"
)

// Default values for optional settings.
const (
	DefaultTokenSymbol         = "TOKEN"
	DefaultLargeTradeThreshold = 10.0
	DefaultPollIntervalSeconds = 15
	DefaultMaxCallsPerMinute   = 30
	DefaultDedupCapacity       = 512
	DefaultHTTPAddr            = ":8080"
)

// Config is the full runtime configuration of the relay.
type Config struct {
	HeliusAPIKey string

	TrackedMint    string
	TokenSymbol    string
	TokenDecimals  int
	BaseAssetMints []string

	LargeTradeThreshold float64
	BatchWindowSeconds  int
	PollIntervalSeconds int
	MaxCallsPerMinute   int
	DedupCapacity       int

	TelegramBotToken    string
	TelegramChatID      string
	TelegramErrorChatID string

	PostgresDSN   string
	ClickhouseDSN string
	HTTPAddr      string
}

// Load reads .env (when present) and builds the configuration from the
// environment. A validation failure is fatal for the caller.
func Load() (*Config, error) {
	// Missing .env is fine; the environment may carry everything.
	_ = godotenv.Load()
	return FromEnv()
}

// FromEnv builds and validates a Config from the current environment.
func FromEnv() (*Config, error) {
	cfg := &Config{
		HeliusAPIKey:        os.Getenv("HELIUS_API_KEY"),
		TrackedMint:         os.Getenv("TRACKED_TOKEN_MINT"),
		TokenSymbol:         envString("TRACKED_TOKEN_SYMBOL", DefaultTokenSymbol),
		TelegramBotToken:    os.Getenv("TELEGRAM_BOT_TOKEN"),
		TelegramChatID:      os.Getenv("TELEGRAM_CHAT_ID"),
		TelegramErrorChatID: os.Getenv("TELEGRAM_ERROR_CHAT_ID"),
		PostgresDSN:         os.Getenv("POSTGRES_DSN"),
		ClickhouseDSN:       os.Getenv("CLICKHOUSE_DSN"),
		HTTPAddr:            envString("HTTP_ADDR", DefaultHTTPAddr),
	}

	var err error
	if cfg.TokenDecimals, err = envRequiredInt("TRACKED_TOKEN_DECIMALS"); err != nil {
		return nil, err
	}
	if cfg.LargeTradeThreshold, err = envFloat("LARGE_TRADE_THRESHOLD", DefaultLargeTradeThreshold); err != nil {
		return nil, err
	}
	if cfg.BatchWindowSeconds, err = envInt("BATCH_WINDOW_SECONDS", 0); err != nil {
		return nil, err
	}
	if cfg.PollIntervalSeconds, err = envInt("POLL_INTERVAL_SECONDS", DefaultPollIntervalSeconds); err != nil {
		return nil, err
	}
	if cfg.MaxCallsPerMinute, err = envInt("MAX_CALLS_PER_MINUTE", DefaultMaxCallsPerMinute); err != nil {
		return nil, err
	}
	if cfg.DedupCapacity, err = envInt("DEDUP_CAPACITY", DefaultDedupCapacity); err != nil {
		return nil, err
	}

	if raw := os.Getenv("BASE_ASSET_MINTS"); raw != "" {
		for _, mint := range strings.Split(raw, ",") {
			if mint = strings.TrimSpace(mint); mint != "" {
				cfg.BaseAssetMints = append(cfg.BaseAssetMints, mint)
			}
		}
	} else {
		cfg.BaseAssetMints = []string{solana.WSOLMint, solana.USDCMint, solana.USDTMint}
	}

	if cfg.TelegramErrorChatID == "" {
		cfg.TelegramErrorChatID = cfg.TelegramChatID
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks required settings and value ranges.
func (c *Config) Validate() error {
	if c.HeliusAPIKey == "" {
		return fmt.Errorf("HELIUS_API_KEY is required")
	}
	if c.TrackedMint == "" {
		return fmt.Errorf("TRACKED_TOKEN_MINT is required")
	}
	// Mints may be PDAs, so only the base58/32-byte shape is checked,
	// not curve membership.
	if !solana.ValidAddress(c.TrackedMint) {
		return fmt.Errorf("TRACKED_TOKEN_MINT is not a valid address: %s", c.TrackedMint)
	}
	if c.TokenDecimals < 0 || c.TokenDecimals > 12 {
		return fmt.Errorf("TRACKED_TOKEN_DECIMALS must be between 0 and 12, got %d", c.TokenDecimals)
	}
	for _, mint := range c.BaseAssetMints {
		if !solana.ValidAddress(mint) {
			return fmt.Errorf("BASE_ASSET_MINTS contains an invalid address: %s", mint)
		}
	}
	if c.LargeTradeThreshold <= 0 {
		return fmt.Errorf("LARGE_TRADE_THRESHOLD must be positive, got %f", c.LargeTradeThreshold)
	}
	if c.BatchWindowSeconds < 0 {
		return fmt.Errorf("BATCH_WINDOW_SECONDS must not be negative, got %d", c.BatchWindowSeconds)
	}
	if c.PollIntervalSeconds <= 0 {
		return fmt.Errorf("POLL_INTERVAL_SECONDS must be positive, got %d", c.PollIntervalSeconds)
	}
	if c.MaxCallsPerMinute <= 0 {
		return fmt.Errorf("MAX_CALLS_PER_MINUTE must be positive, got %d", c.MaxCallsPerMinute)
	}
	if c.DedupCapacity <= 0 {
		return fmt.Errorf("DEDUP_CAPACITY must be positive, got %d", c.DedupCapacity)
	}
	if c.TelegramBotToken == "" {
		return fmt.Errorf("TELEGRAM_BOT_TOKEN is required")
	}
	if c.TelegramChatID == "" {
		return fmt.Errorf("TELEGRAM_CHAT_ID is required")
	}
	return nil
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer, got %q", key, v)
	}
	return n, nil
}

func envRequiredInt(key string) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return 0, fmt.Errorf("%s is required", key)
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer, got %q", key, v)
	}
	return n, nil
}

func envFloat(key string, fallback float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be a number, got %q", key, v)
	}
	return f, nil
}
