// Package config handles loading and validating configuration from
// environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration values for the sniper pipeline.
type Config struct {
	// Mode selects monitor or auto trading.
	Mode string

	// Market data
	RPCEndpoint  string
	LaunchWSURL  string
	PollInterval time.Duration

	// Trend scoring
	TrendWindow           time.Duration
	ArchivalWindow        time.Duration
	MentionCap            int
	FollowerCap           int
	EngagementCap         int
	StrongThreshold       float64
	TrendDensityWeight    float64
	TrendInfluenceWeight  float64
	TrendEngagementWeight float64

	// Safety
	SafetyCacheTTL      time.Duration
	RiskContractWeight  float64
	RiskOwnershipWeight float64
	RiskLiquidityWeight float64
	RiskSafeBelow       float64
	RiskMediumBelow     float64

	// Trading
	BuyAmount          float64
	DefaultSlippage    float64
	BasePriorityFee    uint64
	HighLoadTxCount    int64
	HighLoadMultiplier uint64
	FillLatency        time.Duration
	StopLossMult       float64
	TakeProfitMult     float64

	// Storage
	PostgresDSN   string
	ClickhouseDSN string

	// Alerting
	TelegramToken  string
	TelegramChatID int64

	// Metrics
	PrometheusPort int
}

// Load reads configuration from environment variables with fallback to a
// .env file. Priority order: environment variables > .env file > defaults.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Mode: getEnv("MODE", "monitor"),

		RPCEndpoint:  getEnv("RPC_ENDPOINT", "https://api.mainnet-beta.solana.com"),
		LaunchWSURL:  getEnv("LAUNCH_WS_URL", ""),
		PollInterval: time.Duration(getEnvInt("POLL_INTERVAL_SECONDS", 5)) * time.Second,

		TrendWindow:           time.Duration(getEnvInt("TREND_WINDOW_HOURS", 24)) * time.Hour,
		ArchivalWindow:        time.Duration(getEnvInt("ARCHIVAL_WINDOW_DAYS", 7)) * 24 * time.Hour,
		MentionCap:            getEnvInt("MENTION_CAP", 50),
		FollowerCap:           getEnvInt("FOLLOWER_CAP", 10000),
		EngagementCap:         getEnvInt("ENGAGEMENT_CAP", 1000),
		StrongThreshold:       getEnvFloat("STRONG_THRESHOLD", 0.7),
		TrendDensityWeight:    getEnvFloat("TREND_DENSITY_WEIGHT", 0.4),
		TrendInfluenceWeight:  getEnvFloat("TREND_INFLUENCE_WEIGHT", 0.3),
		TrendEngagementWeight: getEnvFloat("TREND_ENGAGEMENT_WEIGHT", 0.3),

		SafetyCacheTTL:      time.Duration(getEnvInt("SAFETY_CACHE_TTL_MINUTES", 60)) * time.Minute,
		RiskContractWeight:  getEnvFloat("RISK_CONTRACT_WEIGHT", 0.4),
		RiskOwnershipWeight: getEnvFloat("RISK_OWNERSHIP_WEIGHT", 0.3),
		RiskLiquidityWeight: getEnvFloat("RISK_LIQUIDITY_WEIGHT", 0.3),
		RiskSafeBelow:       getEnvFloat("RISK_SAFE_BELOW", 20),
		RiskMediumBelow:     getEnvFloat("RISK_MEDIUM_BELOW", 50),

		BuyAmount:          getEnvFloat("BUY_AMOUNT", 100),
		DefaultSlippage:    getEnvFloat("DEFAULT_SLIPPAGE_PCT", 1.0),
		BasePriorityFee:    uint64(getEnvInt("BASE_PRIORITY_FEE", 5000)),
		HighLoadTxCount:    int64(getEnvInt("HIGH_LOAD_TX_COUNT", 1000)),
		HighLoadMultiplier: uint64(getEnvInt("HIGH_LOAD_MULTIPLIER", 2)),
		FillLatency:        time.Duration(getEnvInt("FILL_LATENCY_SECONDS", 10)) * time.Second,
		StopLossMult:       getEnvFloat("STOP_LOSS_MULT", 0.8),
		TakeProfitMult:     getEnvFloat("TAKE_PROFIT_MULT", 1.5),

		PostgresDSN:   getEnv("POSTGRES_DSN", ""),
		ClickhouseDSN: getEnv("CLICKHOUSE_DSN", ""),

		TelegramToken:  getEnv("TELEGRAM_BOT_TOKEN", ""),
		TelegramChatID: getEnvInt64("TELEGRAM_CHAT_ID", 0),

		PrometheusPort: getEnvInt("PROMETHEUS_PORT", 9090),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that configuration values are set and consistent.
func (c *Config) Validate() error {
	if c.Mode != "monitor" && c.Mode != "auto" {
		return fmt.Errorf("MODE must be monitor or auto, got %q", c.Mode)
	}

	if c.RPCEndpoint == "" {
		return fmt.Errorf("RPC_ENDPOINT is required")
	}

	if c.StrongThreshold <= 0 || c.StrongThreshold > 1 {
		return fmt.Errorf("STRONG_THRESHOLD must be in (0, 1]")
	}

	if c.ArchivalWindow < c.TrendWindow {
		return fmt.Errorf("ARCHIVAL_WINDOW_DAYS must cover TREND_WINDOW_HOURS")
	}

	if err := validateWeights("TREND", c.TrendDensityWeight, c.TrendInfluenceWeight, c.TrendEngagementWeight); err != nil {
		return err
	}
	if err := validateWeights("RISK", c.RiskContractWeight, c.RiskOwnershipWeight, c.RiskLiquidityWeight); err != nil {
		return err
	}

	if c.RiskSafeBelow <= 0 || c.RiskMediumBelow <= c.RiskSafeBelow || c.RiskMediumBelow > 100 {
		return fmt.Errorf("risk thresholds must satisfy 0 < RISK_SAFE_BELOW < RISK_MEDIUM_BELOW <= 100")
	}

	if c.HighLoadMultiplier < 1 {
		return fmt.Errorf("HIGH_LOAD_MULTIPLIER must be at least 1")
	}

	if c.BuyAmount <= 0 {
		return fmt.Errorf("BUY_AMOUNT must be positive")
	}

	if c.StopLossMult <= 0 || c.StopLossMult >= 1 {
		return fmt.Errorf("STOP_LOSS_MULT must be in (0, 1)")
	}

	if c.TakeProfitMult <= 1 {
		return fmt.Errorf("TAKE_PROFIT_MULT must be greater than 1")
	}

	if c.TelegramToken != "" && c.TelegramChatID == 0 {
		return fmt.Errorf("TELEGRAM_CHAT_ID is required when TELEGRAM_BOT_TOKEN is set")
	}

	if c.PrometheusPort < 1 || c.PrometheusPort > 65535 {
		return fmt.Errorf("PROMETHEUS_PORT must be between 1 and 65535")
	}

	return nil
}

// validateWeights checks that a weight triplet is non-negative and sums to 1.
func validateWeights(prefix string, a, b, c float64) error {
	if a < 0 || b < 0 || c < 0 {
		return fmt.Errorf("%s weights must be non-negative", prefix)
	}
	sum := a + b + c
	if sum < 0.999 || sum > 1.001 {
		return fmt.Errorf("%s weights must sum to 1, got %.3f", prefix, sum)
	}
	return nil
}

// MaskedTelegramToken returns the bot token with most characters hidden
// for logging.
func (c *Config) MaskedTelegramToken() string {
	return maskSecret(c.TelegramToken)
}

// maskSecret hides all but the first and last 4 characters of a secret.
func maskSecret(s string) string {
	if len(s) <= 8 {
		if len(s) == 0 {
			return "(not set)"
		}
		return "****"
	}
	return s[:4] + "****" + s[len(s)-4:]
}

// getEnv retrieves an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt retrieves an environment variable as an integer or returns a default.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvInt64 retrieves an environment variable as an int64 or returns a default.
func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvFloat retrieves an environment variable as a float64 or returns a default.
func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}
