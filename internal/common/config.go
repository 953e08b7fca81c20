// Package common provides shared utilities for Sieve
package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// Config holds all configuration for Sieve
type Config struct {
	Environment string          `toml:"environment"`
	Server      ServerConfig    `toml:"server"`
	Storage     StorageConfig   `toml:"storage"`
	Clients     ClientsConfig   `toml:"clients"`
	Collector   CollectorConfig `toml:"collector"`
	Logging     LoggingConfig   `toml:"logging"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// StorageConfig holds SurrealDB connection configuration. An empty address
// disables durable storage; the service then serves from memory only.
type StorageConfig struct {
	Address   string `toml:"address"`
	Namespace string `toml:"namespace"`
	Database  string `toml:"database"`
	Username  string `toml:"username"`
	Password  string `toml:"password"`
}

// ClientsConfig holds upstream client configurations
type ClientsConfig struct {
	KRX     KRXConfig     `toml:"krx"`
	Naver   NaverConfig   `toml:"naver"`
	KRXData KRXDataConfig `toml:"krxdata"`
}

// KRXConfig holds the token-exchange CSV source configuration
type KRXConfig struct {
	BaseURL   string `toml:"base_url"`
	RateLimit int    `toml:"rate_limit"`
	Timeout   string `toml:"timeout"`
}

// GetTimeout parses and returns the timeout duration
func (c *KRXConfig) GetTimeout() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 30 * time.Second
	}
	return d
}

// NaverConfig holds the paginated JSON source configuration
type NaverConfig struct {
	BaseURL        string `toml:"base_url"`
	PageSize       int    `toml:"page_size"`
	MaxConcurrency int    `toml:"max_concurrency"`
	RateLimit      int    `toml:"rate_limit"`
	Timeout        string `toml:"timeout"`
}

// GetTimeout parses and returns the timeout duration
func (c *NaverConfig) GetTimeout() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 30 * time.Second
	}
	return d
}

// KRXDataConfig holds the fallback data-provider configuration
type KRXDataConfig struct {
	BaseURL string `toml:"base_url"`
	Timeout string `toml:"timeout"`
}

// GetTimeout parses and returns the timeout duration
func (c *KRXDataConfig) GetTimeout() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 30 * time.Second
	}
	return d
}

// CollectorConfig holds refresh scheduling and market-hours configuration
type CollectorConfig struct {
	Interval        string `toml:"interval"`
	BatchSize       int    `toml:"batch_size"`
	MarketOpenHour  int    `toml:"market_open_hour"`
	MarketCloseHour int    `toml:"market_close_hour"`
	MarketCloseMin  int    `toml:"market_close_minute"`
	Timezone        string `toml:"timezone"`
}

// GetInterval parses and returns the refresh interval
func (c *CollectorConfig) GetInterval() time.Duration {
	d, err := time.ParseDuration(c.Interval)
	if err != nil {
		return 10 * time.Minute
	}
	return d
}

// Location resolves the configured market timezone, falling back to UTC
// when the zone name is unknown.
func (c *CollectorConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// NewDefaultConfig returns a Config with sensible defaults
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		Storage: StorageConfig{
			Namespace: "sieve",
			Database:  "market",
			Username:  "root",
			Password:  "root",
		},
		Clients: ClientsConfig{
			KRX: KRXConfig{
				BaseURL:   "http://data.krx.co.kr/comm/bldAttendant",
				RateLimit: 2,
				Timeout:   "30s",
			},
			Naver: NaverConfig{
				BaseURL:        "https://m.stock.naver.com/api",
				PageSize:       100,
				MaxConcurrency: 5,
				RateLimit:      10,
				Timeout:        "30s",
			},
			KRXData: KRXDataConfig{
				BaseURL: "http://data.krx.co.kr/comm/bldAttendant",
				Timeout: "30s",
			},
		},
		Collector: CollectorConfig{
			Interval:        "10m",
			BatchSize:       450,
			MarketOpenHour:  9,
			MarketCloseHour: 15,
			MarketCloseMin:  30,
			Timezone:        "Asia/Seoul",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// LoadConfig loads configuration from files with environment overrides
func LoadConfig(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	// Load and merge each config file in order (later files override earlier)
	for _, path := range paths {
		if path == "" {
			continue
		}

		if _, err := os.Stat(path); os.IsNotExist(err) {
			continue // Skip missing files
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	// Apply environment overrides
	applyEnvOverrides(config)

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("SIEVE_ENV"); env != "" {
		config.Environment = env
	}

	if host := os.Getenv("SIEVE_HOST"); host != "" {
		config.Server.Host = host
	}

	if port := os.Getenv("SIEVE_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}

	if level := os.Getenv("SIEVE_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}

	if addr := os.Getenv("SIEVE_STORAGE_ADDRESS"); addr != "" {
		config.Storage.Address = addr
	}
	if ns := os.Getenv("SIEVE_STORAGE_NAMESPACE"); ns != "" {
		config.Storage.Namespace = ns
	}
	if db := os.Getenv("SIEVE_STORAGE_DATABASE"); db != "" {
		config.Storage.Database = db
	}
	if user := os.Getenv("SIEVE_STORAGE_USERNAME"); user != "" {
		config.Storage.Username = user
	}
	if pass := os.Getenv("SIEVE_STORAGE_PASSWORD"); pass != "" {
		config.Storage.Password = pass
	}

	// Market-hours contract
	if v := os.Getenv("SIEVE_COLLECT_INTERVAL"); v != "" {
		config.Collector.Interval = v
	}
	if v := os.Getenv("SIEVE_MARKET_OPEN_HOUR"); v != "" {
		if h, err := strconv.Atoi(v); err == nil {
			config.Collector.MarketOpenHour = h
		}
	}
	if v := os.Getenv("SIEVE_MARKET_CLOSE_HOUR"); v != "" {
		if h, err := strconv.Atoi(v); err == nil {
			config.Collector.MarketCloseHour = h
		}
	}
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	env := strings.ToLower(strings.TrimSpace(c.Environment))
	return env == "production" || env == "prod"
}
