package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
// ⭐ SSOT: 모든 환경변수는 여기서만 읽음
type Config struct {
	// Server
	Port        string
	Env         string // development, staging, production
	FrontendURL string

	// Database (optional, signal history)
	Database DatabaseConfig

	// Redis (optional, second-tier cache and shared rate limit)
	Redis RedisConfig

	// Broker
	Kite KiteConfig

	// Market data
	CacheTTL          time.Duration
	SymbolsFile       string
	UseContractExpiry bool

	// Background scanning
	Scan ScanConfig

	// Logging
	LogLevel  string
	LogFormat string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Enabled  bool
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	URL string

	// Connection Pool
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// Enabled reports whether signal persistence is configured
func (d DatabaseConfig) Enabled() bool {
	return d.URL != ""
}

// KiteConfig holds Zerodha Kite Connect configuration
type KiteConfig struct {
	APIKey      string
	APISecret   string
	BaseURL     string
	LoginURL    string
	RedirectURL string
	RateLimit   int // requests per second
}

// ScanConfig controls the periodic signal scan
type ScanConfig struct {
	Enabled  bool
	Schedule string // cron expression with seconds field
	Symbols  []string
}

// Load reads configuration from environment variables
// ⭐ SSOT: 이 함수만 os.Getenv()를 호출함
func Load() (*Config, error) {
	loadEnvFile()

	cfg := &Config{
		Port:        getEnv("PORT", "8000"),
		Env:         getEnv("ENV", "development"),
		FrontendURL: getEnv("FRONTEND_URL", ""),

		Database: DatabaseConfig{
			URL:             getEnv("DATABASE_URL", ""),
			MaxConns:        getEnvAsInt("DB_MAX_CONNS", 10),
			MinConns:        getEnvAsInt("DB_MIN_CONNS", 1),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", "1h"),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", "30m"),
		},

		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),
		},

		Kite: KiteConfig{
			APIKey:      getEnv("ZERODHA_API_KEY", ""),
			APISecret:   getEnv("ZERODHA_API_SECRET", ""),
			BaseURL:     getEnv("KITE_BASE_URL", "https://api.kite.trade"),
			LoginURL:    getEnv("KITE_LOGIN_URL", "https://kite.zerodha.com/connect/login"),
			RedirectURL: getEnv("REDIRECT_URL", "http://127.0.0.1:8000/auth/callback"),
			RateLimit:   getEnvAsInt("KITE_RATE_LIMIT", 3),
		},

		CacheTTL:          getEnvAsDuration("CACHE_TTL", "5s"),
		SymbolsFile:       getEnv("SYMBOLS_FILE", ""),
		UseContractExpiry: getEnvAsBool("USE_CONTRACT_EXPIRY", false),

		Scan: ScanConfig{
			Enabled:  getEnvAsBool("SCAN_ENABLED", false),
			Schedule: getEnv("SCAN_SCHEDULE", "*/10 * * * * *"),
			Symbols:  getEnvAsList("SCAN_SYMBOLS", []string{"NIFTY", "BANKNIFTY", "SENSEX"}),
		},

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// validate checks if configuration values are usable
func (c *Config) validate() error {
	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be one of: development, staging, production")
	}

	if c.CacheTTL < 0 {
		return fmt.Errorf("CACHE_TTL must not be negative")
	}

	if c.Kite.RateLimit <= 0 {
		return fmt.Errorf("KITE_RATE_LIMIT must be positive")
	}

	// 운영 환경에서는 실데이터 인증 정보 필수
	if c.Env == "production" && (c.Kite.APIKey == "" || c.Kite.APISecret == "") {
		return fmt.Errorf("ZERODHA_API_KEY and ZERODHA_API_SECRET are required in production")
	}

	return nil
}

// loadEnvFile tries to load .env from multiple locations
func loadEnvFile() {
	paths := []string{
		".env",
		"backend/.env",
	}

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

func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		if part = strings.ToUpper(strings.TrimSpace(part)); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
