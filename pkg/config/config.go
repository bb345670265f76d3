package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application.
// Every environment variable is read here and nowhere else.
type Config struct {
	// Server
	Port string
	Env  string // development, staging, production

	// Database
	Database DatabaseConfig

	// Redis
	Redis RedisConfig

	// External data sources
	OpenInsider OpenInsiderConfig
	Stooq       StooqConfig
	Yahoo       YahooConfig

	// Backtest defaults
	Backtest BacktestConfig

	// Logging
	LogLevel  string
	LogFormat string
}

// DatabaseConfig holds PostgreSQL configuration.
type DatabaseConfig struct {
	URL             string
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// RedisConfig holds Redis configuration.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Enabled  bool
}

// OpenInsiderConfig holds the insider-filing screener configuration.
type OpenInsiderConfig struct {
	BaseURL        string
	LookbackDays   int
	RequestsPerMin int
}

// StooqConfig holds the daily price feed configuration.
type StooqConfig struct {
	BaseURL        string
	Suffix         string // exchange suffix appended to tickers, e.g. ".us"
	RequestsPerMin int
}

// YahooConfig holds the company profile feed configuration.
type YahooConfig struct {
	BaseURL        string
	RequestsPerMin int
}

// BacktestConfig holds default backtest parameters, overridable per run.
type BacktestConfig struct {
	HoldDays       int
	TopN           int
	InitialCash    float64
	CommissionRate float64
}

// Load reads configuration from environment variables.
// This function is the only caller of os.Getenv.
func Load() (*Config, error) {
	loadEnvFile()

	cfg := &Config{
		Port: getEnv("PORT", "8080"),
		Env:  getEnv("ENV", "development"),

		Database: DatabaseConfig{
			URL:             getEnv("DATABASE_URL", ""),
			MaxConns:        getEnvAsInt("DB_MAX_CONNS", 10),
			MinConns:        getEnvAsInt("DB_MIN_CONNS", 2),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", "1h"),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", "30m"),
		},

		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),
		},

		OpenInsider: OpenInsiderConfig{
			BaseURL:        getEnv("OPENINSIDER_BASE_URL", "http://openinsider.com"),
			LookbackDays:   getEnvAsInt("OPENINSIDER_LOOKBACK_DAYS", 730),
			RequestsPerMin: getEnvAsInt("OPENINSIDER_RPM", 20),
		},

		Stooq: StooqConfig{
			BaseURL:        getEnv("STOOQ_BASE_URL", "https://stooq.com"),
			Suffix:         getEnv("STOOQ_SUFFIX", ".us"),
			RequestsPerMin: getEnvAsInt("STOOQ_RPM", 60),
		},

		Yahoo: YahooConfig{
			BaseURL:        getEnv("YAHOO_BASE_URL", "https://query1.finance.yahoo.com"),
			RequestsPerMin: getEnvAsInt("YAHOO_RPM", 30),
		},

		Backtest: BacktestConfig{
			HoldDays:       getEnvAsInt("BACKTEST_HOLD_DAYS", 30),
			TopN:           getEnvAsInt("BACKTEST_TOP_N", 3),
			InitialCash:    getEnvAsFloat("BACKTEST_INITIAL_CASH", 100_000),
			CommissionRate: getEnvAsFloat("BACKTEST_COMMISSION", 0.001),
		},

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// validate checks required values before anything starts.
func (c *Config) validate() error {
	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be one of: development, staging, production")
	}
	if c.Backtest.HoldDays <= 0 {
		return fmt.Errorf("BACKTEST_HOLD_DAYS must be positive")
	}
	if c.Backtest.TopN <= 0 {
		return fmt.Errorf("BACKTEST_TOP_N must be positive")
	}
	return nil
}

// loadEnvFile tries to load .env from a few likely locations.
func loadEnvFile() {
	paths := []string{".env"}

	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		paths = append(paths,
			filepath.Join(exeDir, ".env"),
			filepath.Join(exeDir, "..", ".env"),
		)
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		valueStr = defaultValue
	}
	duration, err := time.ParseDuration(valueStr)
	if err != nil {
		duration, _ = time.ParseDuration(defaultValue)
	}
	return duration
}
