package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Log           LogConfig
	Server        ServerConfig
	FoodRepo      FoodRepoConfig
	OpenFoodFacts OpenFoodFactsConfig
	EMH           EMHConfig
	Classifier    ClassifierConfig
	Cohere        CohereConfig
	Resolver      ResolverConfig
	Pipeline      PipelineConfig
	Output        OutputConfig
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port           string        `mapstructure:"port"`
	Environment    string        `mapstructure:"environment"`
	AllowedOrigins []string      `mapstructure:"allowed_origins"`
	CacheTTL       time.Duration `mapstructure:"cache_ttl"`
}

// FoodRepoConfig holds FoodRepo catalog API configuration
type FoodRepoConfig struct {
	APIKey    string  `mapstructure:"api_key"`
	BaseURL   string  `mapstructure:"base_url"`
	RateLimit float64 `mapstructure:"rate_limit"`
	PageLimit int     `mapstructure:"page_limit"`
}

// OpenFoodFactsConfig holds the brand enrichment source configuration
type OpenFoodFactsConfig struct {
	Enabled   bool    `mapstructure:"enabled"`
	BaseURL   string  `mapstructure:"base_url"`
	RateLimit float64 `mapstructure:"rate_limit"`
	UserAgent string  `mapstructure:"user_agent"`
}

// EMHConfig holds the rating site scraper configuration
type EMHConfig struct {
	BaseURL   string  `mapstructure:"base_url"`
	CacheDir  string  `mapstructure:"cache_dir"`
	RateLimit float64 `mapstructure:"rate_limit"`
	UserAgent string  `mapstructure:"user_agent"`
}

// ClassifierConfig holds classification stage configuration
type ClassifierConfig struct {
	FallbackEnabled   bool    `mapstructure:"fallback_enabled"`
	FallbackThreshold float64 `mapstructure:"fallback_threshold"`
}

// CohereConfig holds the fallback model configuration
type CohereConfig struct {
	APIKey string `mapstructure:"api_key"`
	Model  string `mapstructure:"model"`
}

// ResolverConfig holds rating lookup configuration
type ResolverConfig struct {
	CollapseTokens []string `mapstructure:"collapse_tokens"`
}

// PipelineConfig holds pipeline execution configuration
type PipelineConfig struct {
	Workers int `mapstructure:"workers"`
}

// OutputConfig holds artifact output configuration
type OutputConfig struct {
	Dir string `mapstructure:"dir"`
}

// Load loads configuration from environment variables and config files.
// configFile overrides the default search paths when non-empty.
func Load(configFile string) (*Config, error) {
	// Pick up .env credentials before viper reads the environment
	if err := loadEnvFile(); err != nil {
		return nil, fmt.Errorf("error reading .env file: %w", err)
	}

	v := viper.New()

	// Set config name and paths
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/welfaremap/")
	}

	// Environment variable settings
	v.SetEnvPrefix("WELFAREMAP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// The original deployment exports bare credential names; honor both.
	v.BindEnv("foodrepo.api_key", "WELFAREMAP_FOODREPO_API_KEY", "FOOD_REPO_API_KEY")
	v.BindEnv("cohere.api_key", "WELFAREMAP_COHERE_API_KEY", "COHERE_API_KEY")

	// Set default values
	setDefaults(v)

	// Read config file (optional - will use env vars if file doesn't exist)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && configFile == "" {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		if configFile != "" {
			return nil, fmt.Errorf("error reading config file %s: %w", configFile, err)
		}
		// Config file not found; using environment variables and defaults
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	// Validate configuration
	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// loadEnvFile loads a .env file from the working directory if present.
// Existing environment variables are never overridden.
func loadEnvFile() error {
	if _, err := os.Stat(".env"); err != nil {
		return nil
	}
	return godotenv.Load()
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Logging defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")

	// Server defaults
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("server.cache_ttl", "10m")

	// FoodRepo defaults
	v.SetDefault("foodrepo.api_key", "")
	v.SetDefault("foodrepo.base_url", "https://www.foodrepo.org/api/v3")
	v.SetDefault("foodrepo.rate_limit", 5.0)
	v.SetDefault("foodrepo.page_limit", 0)

	// Open Food Facts defaults
	v.SetDefault("openfoodfacts.enabled", true)
	v.SetDefault("openfoodfacts.base_url", "https://world.openfoodfacts.org/api/v2")
	v.SetDefault("openfoodfacts.rate_limit", 1.5)
	v.SetDefault("openfoodfacts.user_agent", "welfaremap/1.0 (welfaremap@posteo.ch)")

	// Rating site defaults
	v.SetDefault("emh.base_url", "https://essenmitherz.ch")
	v.SetDefault("emh.cache_dir", ".cache/emh")
	v.SetDefault("emh.rate_limit", 1.0)
	v.SetDefault("emh.user_agent", "welfaremap-scraper/1.0 (welfaremap@posteo.ch)")

	// Classifier defaults
	v.SetDefault("classifier.fallback_enabled", true)
	v.SetDefault("classifier.fallback_threshold", 0.8)

	// Cohere defaults
	v.SetDefault("cohere.api_key", "")
	v.SetDefault("cohere.model", "command-r-08-2024")

	// Resolver defaults
	v.SetDefault("resolver.collapse_tokens", []string{"bio", "schweiz", "d", "de"})

	// Pipeline defaults
	v.SetDefault("pipeline.workers", 4)

	// Output defaults
	v.SetDefault("output.dir", "output")
}

// validate validates the configuration. Credentials are checked by the
// commands that need them, not here.
func validate(config *Config) error {
	port, err := strconv.Atoi(config.Server.Port)
	if err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("server port must be a number between 1 and 65535, got: %s", config.Server.Port)
	}

	if t := config.Classifier.FallbackThreshold; t < 0 || t > 1 {
		return fmt.Errorf("classifier fallback threshold must be between 0 and 1, got: %v", t)
	}

	if config.FoodRepo.RateLimit <= 0 {
		return fmt.Errorf("foodrepo rate limit must be positive, got: %v", config.FoodRepo.RateLimit)
	}
	if config.OpenFoodFacts.RateLimit <= 0 {
		return fmt.Errorf("openfoodfacts rate limit must be positive, got: %v", config.OpenFoodFacts.RateLimit)
	}
	if config.EMH.RateLimit <= 0 {
		return fmt.Errorf("emh rate limit must be positive, got: %v", config.EMH.RateLimit)
	}

	if config.Pipeline.Workers < 1 {
		return fmt.Errorf("pipeline workers must be at least 1, got: %d", config.Pipeline.Workers)
	}

	return nil
}
