package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Scraper   ScraperConfig   `mapstructure:"scraper"`
	Matching  MatchingConfig  `mapstructure:"matching"`
	Fees      FeesConfig      `mapstructure:"fees"`
	Scan      ScanConfig      `mapstructure:"scan"`
	Store     StoreConfig     `mapstructure:"store"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port           string   `mapstructure:"port" validate:"required"`
	Environment    string   `mapstructure:"environment" validate:"required,oneof=development test staging production"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// RateLimitConfig holds API rate limiting configuration
type RateLimitConfig struct {
	PerIP int `mapstructure:"per_ip" validate:"gte=0"` // requests per minute, 0 disables
}

// LoggingConfig holds logger configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level" validate:"omitempty,oneof=trace debug info warn error"`
	Format string `mapstructure:"format" validate:"omitempty,oneof=console json"`
}

// ScraperConfig holds marketplace scraper configuration
type ScraperConfig struct {
	EbayBaseURL       string        `mapstructure:"ebay_base_url" validate:"required,url"`
	Timeout           time.Duration `mapstructure:"timeout" validate:"gt=0"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second" validate:"gt=0"`
	Burst             int           `mapstructure:"burst" validate:"gte=1"`
	MaxRetries        int           `mapstructure:"max_retries" validate:"gte=1,lte=10"`
	UserAgent         string        `mapstructure:"user_agent"`
}

// MatchingConfig holds similarity matching configuration
type MatchingConfig struct {
	MinSimilarity      float64 `mapstructure:"min_similarity" validate:"gt=0,lte=1"`
	EnableDebugLogging bool    `mapstructure:"enable_debug_logging"`
}

// FeesConfig holds the cost model used to compute net profit
type FeesConfig struct {
	MarketplaceRate  float64            `mapstructure:"marketplace_rate" validate:"gte=0,lt=1"`
	MarketplaceRates map[string]float64 `mapstructure:"marketplace_rates"`
	DefaultShipping  float64            `mapstructure:"default_shipping" validate:"gte=0"`
	TaxRate          float64            `mapstructure:"tax_rate" validate:"gte=0,lt=1"`
	MinNetProfit     float64            `mapstructure:"min_net_profit"`
}

// ScanConfig holds scan orchestration configuration
type ScanConfig struct {
	MaxSubcategories       int           `mapstructure:"max_subcategories" validate:"gte=1"`
	DefaultMaxResults      int           `mapstructure:"default_max_results" validate:"gte=1,lte=200"`
	KeywordsPerSubcategory int           `mapstructure:"keywords_per_subcategory" validate:"gte=1,lte=20"`
	Marketplaces           []string      `mapstructure:"marketplaces" validate:"required,min=1,dive,required"`
	ResultCacheTTL         time.Duration `mapstructure:"result_cache_ttl" validate:"gte=0"`
	ProgressTTL            time.Duration `mapstructure:"progress_ttl" validate:"gt=0"`
	FixturesPath           string        `mapstructure:"fixtures_path"`
}

// StoreConfig selects where progress snapshots and cached results live
type StoreConfig struct {
	Type     string `mapstructure:"type" validate:"oneof=memory redis"`
	RedisURL string `mapstructure:"redis_url"`
}

// DatabaseConfig holds the scan archive connection settings
type DatabaseConfig struct {
	Type string `mapstructure:"type" validate:"oneof=sqlite postgres"`
	Path string `mapstructure:"path"`
	URL  string `mapstructure:"url"`
}

// MetricsConfig holds Prometheus exposure settings
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// Load loads configuration from environment variables and config files
func Load() (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/fliphawk/")

	v.SetEnvPrefix("FLIPHAWK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// Config file is optional, env vars and defaults are enough
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:3000"})

	v.SetDefault("ratelimit.per_ip", 60)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")

	v.SetDefault("scraper.ebay_base_url", "https://www.ebay.com")
	v.SetDefault("scraper.timeout", "15s")
	v.SetDefault("scraper.requests_per_second", 2.0)
	v.SetDefault("scraper.burst", 4)
	v.SetDefault("scraper.max_retries", 3)
	v.SetDefault("scraper.user_agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")

	v.SetDefault("matching.min_similarity", 0.70)
	v.SetDefault("matching.enable_debug_logging", false)

	v.SetDefault("fees.marketplace_rate", 0.10)
	v.SetDefault("fees.marketplace_rates", map[string]float64{})
	v.SetDefault("fees.default_shipping", 5.0)
	v.SetDefault("fees.tax_rate", 0.08)
	v.SetDefault("fees.min_net_profit", 0.0)

	v.SetDefault("scan.max_subcategories", 5)
	v.SetDefault("scan.default_max_results", 40)
	v.SetDefault("scan.keywords_per_subcategory", 1)
	v.SetDefault("scan.marketplaces", []string{"ebay"})
	v.SetDefault("scan.result_cache_ttl", "10m")
	v.SetDefault("scan.progress_ttl", "1h")
	v.SetDefault("scan.fixtures_path", "")

	v.SetDefault("store.type", "memory")
	v.SetDefault("store.redis_url", "")

	v.SetDefault("database.type", "sqlite")
	v.SetDefault("database.path", "fliphawk.db")
	v.SetDefault("database.url", "")

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")
}

// validate runs tag validation followed by cross-field checks
func validate(config *Config) error {
	if err := validator.New().Struct(config); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok {
			var messages []string
			for _, e := range verrs {
				messages = append(messages, fmt.Sprintf("%s failed '%s' (value: '%v')", e.Namespace(), e.Tag(), e.Value()))
			}
			return fmt.Errorf("%s", strings.Join(messages, "; "))
		}
		return err
	}

	if config.Store.Type == "redis" && config.Store.RedisURL == "" {
		return fmt.Errorf("Redis URL is required when store type is 'redis'")
	}

	if config.Database.Type == "postgres" && config.Database.URL == "" {
		return fmt.Errorf("database URL is required when database type is 'postgres'")
	}

	for name, rate := range config.Fees.MarketplaceRates {
		if rate < 0 || rate >= 1 {
			return fmt.Errorf("fee rate for marketplace %q must be in [0, 1), got: %v", name, rate)
		}
	}

	return nil
}
