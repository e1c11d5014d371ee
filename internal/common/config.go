// Package common provides shared utilities for cryptotrack
package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// Config holds all configuration for cryptotrack
type Config struct {
	Environment string          `toml:"environment"`
	Server      ServerConfig    `toml:"server"`
	Storage     StorageConfig   `toml:"storage"`
	Clients     ClientsConfig   `toml:"clients"`
	Sync        SyncConfig      `toml:"sync"`
	Auth        AuthConfig      `toml:"auth"`
	Dashboard   DashboardConfig `toml:"dashboard"`
	Logging     LoggingConfig   `toml:"logging"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host           string   `toml:"host"`
	Port           int      `toml:"port"`
	AllowedOrigins []string `toml:"allowed_origins"` // CORS allow-list; requests without an Origin always pass
}

// StorageConfig holds the database connection settings.
// The URL scheme selects the backend: ws/wss/http/https (SurrealDB),
// badger:// (embedded BadgerHold), sqlite:// or postgres://.
type StorageConfig struct {
	URL       string `toml:"url"`
	Namespace string `toml:"namespace"` // SurrealDB only
	Database  string `toml:"database"`  // SurrealDB only
	Username  string `toml:"username"`  // SurrealDB only
	Password  string `toml:"password"`  // SurrealDB only
}

// ClientsConfig holds API client configurations
type ClientsConfig struct {
	CoinGecko CoinGeckoConfig `toml:"coingecko"`
}

// CoinGeckoConfig holds CoinGecko API configuration
type CoinGeckoConfig struct {
	BaseURL    string `toml:"base_url"`
	APIKey     string `toml:"api_key"`
	VsCurrency string `toml:"vs_currency"`
	PerPage    int    `toml:"per_page"`
	RateLimit  int    `toml:"rate_limit"` // requests per minute
	Timeout    string `toml:"timeout"`
}

// GetTimeout parses and returns the timeout duration
func (c *CoinGeckoConfig) GetTimeout() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 30 * time.Second
	}
	return d
}

// SyncConfig controls the periodic snapshot job.
type SyncConfig struct {
	Interval  string `toml:"interval"`
	OnStartup bool   `toml:"on_startup"`
}

// GetInterval parses the sync interval, defaulting to one hour.
func (c *SyncConfig) GetInterval() time.Duration {
	d, err := time.ParseDuration(c.Interval)
	if err != nil || d <= 0 {
		return time.Hour
	}
	return d
}

// AuthConfig holds token signing configuration.
type AuthConfig struct {
	JWTSecret string `toml:"jwt_secret"`
}

// DashboardConfig holds settings for the dashboard client.
type DashboardConfig struct {
	APIBase         string `toml:"api_base"`
	CachePath       string `toml:"cache_path"`
	RefreshInterval string `toml:"refresh_interval"`
}

// GetRefreshInterval parses the polling interval, defaulting to 30 minutes.
func (c *DashboardConfig) GetRefreshInterval() time.Duration {
	d, err := time.ParseDuration(c.RefreshInterval)
	if err != nil || d <= 0 {
		return 30 * time.Minute
	}
	return d
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level    string   `toml:"level"`
	Format   string   `toml:"format"`
	Outputs  []string `toml:"outputs"`
	FilePath string   `toml:"file_path"`
}

// NewDefaultConfig returns a Config with sensible defaults
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 5000,
			AllowedOrigins: []string{
				"http://localhost:3000",
				"https://vr-automations.vercel.app",
			},
		},
		Storage: StorageConfig{
			Namespace: "cryptotrack",
			Database:  "cryptotrack",
		},
		Clients: ClientsConfig{
			CoinGecko: CoinGeckoConfig{
				BaseURL:    "https://api.coingecko.com/api/v3",
				VsCurrency: "usd",
				PerPage:    10,
				RateLimit:  30,
				Timeout:    "30s",
			},
		},
		Sync: SyncConfig{
			Interval:  "1h",
			OnStartup: true,
		},
		Dashboard: DashboardConfig{
			APIBase:         "http://localhost:5000/api",
			CachePath:       "data/dashboard",
			RefreshInterval: "30m",
		},
		Logging: LoggingConfig{
			Level:   "info",
			Format:  "console",
			Outputs: []string{"console"},
		},
	}
}

// LoadConfig loads configuration from files with environment overrides
func LoadConfig(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	// Later files override earlier ones
	for _, path := range paths {
		if path == "" {
			continue
		}

		if _, err := os.Stat(path); os.IsNotExist(err) {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(config)

	return config, nil
}

// firstEnv returns the value of the first non-empty environment variable.
func firstEnv(names ...string) string {
	for _, name := range names {
		if v := os.Getenv(name); v != "" {
			return v
		}
	}
	return ""
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("CRYPTOTRACK_ENV"); env != "" {
		config.Environment = env
	}

	if host := os.Getenv("CRYPTOTRACK_HOST"); host != "" {
		config.Server.Host = host
	}

	if port := firstEnv("CRYPTOTRACK_PORT", "PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}

	if origins := os.Getenv("CRYPTOTRACK_ALLOWED_ORIGINS"); origins != "" {
		var list []string
		for _, o := range strings.Split(origins, ",") {
			if o = strings.TrimSpace(o); o != "" {
				list = append(list, o)
			}
		}
		config.Server.AllowedOrigins = list
	}

	// Storage overrides
	if v := firstEnv("CRYPTOTRACK_DATABASE_URL", "DATABASE_URL"); v != "" {
		config.Storage.URL = v
	}
	if v := os.Getenv("CRYPTOTRACK_DB_NAMESPACE"); v != "" {
		config.Storage.Namespace = v
	}
	if v := os.Getenv("CRYPTOTRACK_DB_NAME"); v != "" {
		config.Storage.Database = v
	}
	if v := os.Getenv("CRYPTOTRACK_DB_USER"); v != "" {
		config.Storage.Username = v
	}
	if v := os.Getenv("CRYPTOTRACK_DB_PASS"); v != "" {
		config.Storage.Password = v
	}

	if v := firstEnv("CRYPTOTRACK_JWT_SECRET", "JWT_SECRET"); v != "" {
		config.Auth.JWTSecret = v
	}

	if v := firstEnv("COINGECKO_API_KEY", "CRYPTOTRACK_COINGECKO_API_KEY"); v != "" {
		config.Clients.CoinGecko.APIKey = v
	}

	if v := os.Getenv("CRYPTOTRACK_SYNC_INTERVAL"); v != "" {
		config.Sync.Interval = v
	}

	if v := os.Getenv("CRYPTOTRACK_API_BASE"); v != "" {
		config.Dashboard.APIBase = v
	}

	if level := os.Getenv("CRYPTOTRACK_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
}

// ValidateRequired returns the config keys that must be set before the
// server can start.
func (c *Config) ValidateRequired() []string {
	var missing []string
	if strings.TrimSpace(c.Storage.URL) == "" {
		missing = append(missing, "storage.url")
	}
	if strings.TrimSpace(c.Auth.JWTSecret) == "" {
		missing = append(missing, "auth.jwt_secret")
	}
	return missing
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	env := strings.ToLower(strings.TrimSpace(c.Environment))
	return env == "production" || env == "prod"
}
