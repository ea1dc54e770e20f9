package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds the application configuration loaded from files and environment variables.
type Config struct {
	AppName  string `mapstructure:"app_name"`
	Env      string `mapstructure:"app_env"`
	LogLevel string `mapstructure:"log_level"`

	CatalogBaseURL      string        `mapstructure:"catalog_base_url"`
	CatalogAuthURL      string        `mapstructure:"catalog_auth_url"`
	CatalogClientID     string        `mapstructure:"catalog_client_id"`
	CatalogClientSecret string        `mapstructure:"catalog_client_secret"`
	TokenTTLSeconds     int64         `mapstructure:"token_ttl_seconds"`
	TokenTTL            time.Duration `mapstructure:"-"`

	PageSize    int           `mapstructure:"page_size"`
	PageDelayMs int64         `mapstructure:"page_delay_ms"`
	PageDelay   time.Duration `mapstructure:"-"`

	SlugProbeAttempts int `mapstructure:"slug_probe_attempts"`

	JobsFile           string `mapstructure:"jobs_file"`
	PublishersFile     string `mapstructure:"publishers_file"`
	DedupePatternsFile string `mapstructure:"dedupe_patterns_file"`
	RatingWeightsFile  string `mapstructure:"rating_weights_file"`

	StorageType string `mapstructure:"storage_type"`
	StoragePath string `mapstructure:"storage_path"`

	SyncIntervalSeconds int64         `mapstructure:"sync_interval"`
	SyncInterval        time.Duration `mapstructure:"-"`
}

// Load reads configuration from environment variables and config files.
func Load() (*Config, error) {
	_ = godotenv.Load("configs/.env")

	v := viper.New()

	v.SetDefault("app_name", "gamedex-catalog-sync")
	v.SetDefault("app_env", "development")
	v.SetDefault("log_level", "info")
	v.SetDefault("catalog_base_url", "https://api.igdb.com/v4")
	v.SetDefault("catalog_auth_url", "https://id.twitch.tv/oauth2/token")
	v.SetDefault("catalog_client_id", "")
	v.SetDefault("catalog_client_secret", "")
	v.SetDefault("token_ttl_seconds", int64(time.Hour/time.Second))
	v.SetDefault("page_size", 50)
	v.SetDefault("page_delay_ms", 300)
	v.SetDefault("slug_probe_attempts", 100)
	v.SetDefault("jobs_file", "./configs/jobs.yaml")
	v.SetDefault("publishers_file", "./configs/publishers.yaml")
	v.SetDefault("dedupe_patterns_file", "")
	v.SetDefault("rating_weights_file", "")
	v.SetDefault("storage_type", "bbolt")
	v.SetDefault("storage_path", "./data/catalog.db")
	v.SetDefault("sync_interval", 21600) // seconds

	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.CatalogClientID == "" || cfg.CatalogClientSecret == "" {
		return nil, fmt.Errorf("catalog_client_id and catalog_client_secret are required")
	}
	if cfg.TokenTTLSeconds <= 0 {
		return nil, fmt.Errorf("invalid token_ttl_seconds (must be positive seconds)")
	}
	cfg.TokenTTL = time.Duration(cfg.TokenTTLSeconds) * time.Second

	if cfg.PageSize <= 0 || cfg.PageSize > 500 {
		return nil, fmt.Errorf("invalid page_size (must be 1..500)")
	}
	if cfg.PageDelayMs < 0 {
		return nil, fmt.Errorf("invalid page_delay_ms (must be non-negative)")
	}
	cfg.PageDelay = time.Duration(cfg.PageDelayMs) * time.Millisecond

	if cfg.SlugProbeAttempts <= 0 {
		cfg.SlugProbeAttempts = 100
	}

	if cfg.SyncIntervalSeconds <= 0 {
		return nil, fmt.Errorf("invalid sync_interval (must be positive seconds)")
	}
	cfg.SyncInterval = time.Duration(cfg.SyncIntervalSeconds) * time.Second

	return &cfg, nil
}
