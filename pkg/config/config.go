package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// APIConfig holds upstream base URLs. Each one can also be overridden via
// environment (handy behind regional blocks / mirrors).
type APIConfig struct {
	GammaURL string
	DataURL  string
	ClobURL  string
}

// RefreshConfig holds cache/refresh timing.
type RefreshConfig struct {
	SnapshotTTL    time.Duration // bulk market listing
	LiveQuoteTTL   time.Duration // order-book price map
	RequestTimeout time.Duration // per upstream call
}

// ExplorerConfig holds default listing filters, mirroring the dashboard's
// settings panel.
type ExplorerConfig struct {
	MaxDays      int
	MinVolume    float64
	MinLiquidity float64
	Categories   []string
	ExcludeBots  bool
	Limit        int
}

// Config is the application configuration.
type Config struct {
	UserAddress string
	API         APIConfig
	Refresh     RefreshConfig
	Explorer    ExplorerConfig
	LogLevel    string
	LogFile     string
}

// ConfigFile is the on-disk YAML shape.
type ConfigFile struct {
	UserAddress string `yaml:"user_address"`
	API         struct {
		GammaURL string `yaml:"gamma_url"`
		DataURL  string `yaml:"data_url"`
		ClobURL  string `yaml:"clob_url"`
	} `yaml:"api"`
	Refresh struct {
		SnapshotTTLSeconds    int `yaml:"snapshot_ttl_seconds"`
		LiveQuoteTTLSeconds   int `yaml:"live_quote_ttl_seconds"`
		RequestTimeoutSeconds int `yaml:"request_timeout_seconds"`
	} `yaml:"refresh"`
	Explorer struct {
		MaxDays      int      `yaml:"max_days"`
		MinVolume    float64  `yaml:"min_volume"`
		MinLiquidity float64  `yaml:"min_liquidity"`
		Categories   []string `yaml:"categories"`
		ExcludeBots  *bool    `yaml:"exclude_bots"`
		Limit        int      `yaml:"limit"`
	} `yaml:"explorer"`
	Log struct {
		Level string `yaml:"level"`
		File  string `yaml:"file"`
	} `yaml:"log"`
}

var configFilePath = "config.yaml"

// SetConfigPath overrides the config file location.
func SetConfigPath(path string) {
	configFilePath = path
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	cfg := &Config{
		API: APIConfig{
			GammaURL: "https://gamma-api.polymarket.com",
			DataURL:  "https://data-api.polymarket.com",
			ClobURL:  "https://clob.polymarket.com",
		},
		Refresh: RefreshConfig{
			SnapshotTTL:    60 * time.Second,
			LiveQuoteTTL:   10 * time.Second,
			RequestTimeout: 15 * time.Second,
		},
		Explorer: ExplorerConfig{
			MaxDays:      7,
			MinVolume:    1000,
			MinLiquidity: 100,
			ExcludeBots:  true,
			Limit:        1000,
		},
		LogLevel: "info",
	}
	applyEnv(cfg)
	return cfg
}

// Load reads the YAML config file and merges it over the defaults. A missing
// file is not an error; everything has a workable default.
func Load() (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(configFilePath)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config %s: %w", configFilePath, err)
	}

	var file ConfigFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", configFilePath, err)
	}

	if file.UserAddress != "" {
		cfg.UserAddress = file.UserAddress
	}
	if file.API.GammaURL != "" {
		cfg.API.GammaURL = file.API.GammaURL
	}
	if file.API.DataURL != "" {
		cfg.API.DataURL = file.API.DataURL
	}
	if file.API.ClobURL != "" {
		cfg.API.ClobURL = file.API.ClobURL
	}
	if file.Refresh.SnapshotTTLSeconds > 0 {
		cfg.Refresh.SnapshotTTL = time.Duration(file.Refresh.SnapshotTTLSeconds) * time.Second
	}
	if file.Refresh.LiveQuoteTTLSeconds > 0 {
		cfg.Refresh.LiveQuoteTTL = time.Duration(file.Refresh.LiveQuoteTTLSeconds) * time.Second
	}
	if file.Refresh.RequestTimeoutSeconds > 0 {
		cfg.Refresh.RequestTimeout = time.Duration(file.Refresh.RequestTimeoutSeconds) * time.Second
	}
	if file.Explorer.MaxDays > 0 {
		cfg.Explorer.MaxDays = file.Explorer.MaxDays
	}
	if file.Explorer.MinVolume > 0 {
		cfg.Explorer.MinVolume = file.Explorer.MinVolume
	}
	if file.Explorer.MinLiquidity > 0 {
		cfg.Explorer.MinLiquidity = file.Explorer.MinLiquidity
	}
	if len(file.Explorer.Categories) > 0 {
		cfg.Explorer.Categories = file.Explorer.Categories
	}
	if file.Explorer.ExcludeBots != nil {
		cfg.Explorer.ExcludeBots = *file.Explorer.ExcludeBots
	}
	if file.Explorer.Limit > 0 {
		cfg.Explorer.Limit = file.Explorer.Limit
	}
	if file.Log.Level != "" {
		cfg.LogLevel = file.Log.Level
	}
	if file.Log.File != "" {
		cfg.LogFile = file.Log.File
	}

	applyEnv(cfg)
	return cfg, nil
}

// applyEnv lets the environment override file values. Env wins because
// deployments set addresses and mirrors there, not in the checked-in YAML.
func applyEnv(cfg *Config) {
	if v := strings.TrimSpace(os.Getenv("POLYFOLIO_USER_ADDRESS")); v != "" {
		cfg.UserAddress = v
	}
	if v := os.Getenv("POLYMARKET_GAMMA_API_URL"); v != "" {
		cfg.API.GammaURL = v
	}
	if v := os.Getenv("POLYMARKET_DATA_API_URL"); v != "" {
		cfg.API.DataURL = v
	}
	if v := os.Getenv("POLYMARKET_CLOB_API_URL"); v != "" {
		cfg.API.ClobURL = v
	}
	if v := os.Getenv("POLYFOLIO_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
}
