// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration. All values come from the
// environment (optionally via a .env file); none of them change the
// algorithms, only timeouts, TTLs and endpoints.
type Config struct {
	Port     int
	LogLevel string
	DevMode  bool

	// Acquisition pipeline
	ScrapeURL       string
	ProviderBaseURL string
	ProviderAPIKey  string
	TierTimeout     time.Duration
	MaxRetries      int
	RetryBaseDelay  time.Duration

	// Caching and refresh
	QuoteTTL        time.Duration
	AnalysisTTL     time.Duration
	RefreshInterval time.Duration

	// Analytics
	RiskFreeRate      float64
	RebalanceDriftPct float64
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := &Config{
		Port:     getEnvAsInt("SOKO_PORT", 8090),
		LogLevel: getEnv("SOKO_LOG_LEVEL", "info"),
		DevMode:  getEnvAsBool("SOKO_DEV_MODE", false),

		ScrapeURL:       getEnv("SOKO_SCRAPE_URL", "https://live.mystocks.co.ke/m/"),
		ProviderBaseURL: getEnv("SOKO_PROVIDER_BASE_URL", "https://api.marketstack.example/v1"),
		ProviderAPIKey:  getEnv("SOKO_PROVIDER_API_KEY", ""),
		TierTimeout:     getEnvAsDuration("SOKO_TIER_TIMEOUT", 10*time.Second),
		MaxRetries:      getEnvAsInt("SOKO_MAX_RETRIES", 2),
		RetryBaseDelay:  getEnvAsDuration("SOKO_RETRY_BASE_DELAY", 500*time.Millisecond),

		QuoteTTL:        getEnvAsDuration("SOKO_QUOTE_TTL", 30*time.Second),
		AnalysisTTL:     getEnvAsDuration("SOKO_ANALYSIS_TTL", 5*time.Minute),
		RefreshInterval: getEnvAsDuration("SOKO_REFRESH_INTERVAL", 30*time.Second),

		RiskFreeRate:      getEnvAsFloat("SOKO_RISK_FREE_RATE", 0.08),
		RebalanceDriftPct: getEnvAsFloat("SOKO_REBALANCE_DRIFT_PCT", 10.0),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if required configuration is present
func (c *Config) Validate() error {
	if c.TierTimeout <= 0 {
		return fmt.Errorf("tier timeout must be positive, got %s", c.TierTimeout)
	}
	if c.QuoteTTL <= 0 || c.AnalysisTTL <= 0 {
		return fmt.Errorf("cache TTLs must be positive")
	}
	if c.RefreshInterval < time.Second {
		return fmt.Errorf("refresh interval below 1s would hammer the sources")
	}
	return nil
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
