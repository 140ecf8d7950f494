package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	// Clean up environment before tests
	cleanupEnv := func() {
		os.Unsetenv("WELFAREMAP_LOG_LEVEL")
		os.Unsetenv("WELFAREMAP_LOG_FORMAT")
		os.Unsetenv("WELFAREMAP_SERVER_PORT")
		os.Unsetenv("WELFAREMAP_SERVER_ENVIRONMENT")
		os.Unsetenv("WELFAREMAP_SERVER_ALLOWED_ORIGINS")
		os.Unsetenv("WELFAREMAP_SERVER_CACHE_TTL")
		os.Unsetenv("WELFAREMAP_FOODREPO_API_KEY")
		os.Unsetenv("WELFAREMAP_FOODREPO_BASE_URL")
		os.Unsetenv("WELFAREMAP_FOODREPO_RATE_LIMIT")
		os.Unsetenv("WELFAREMAP_FOODREPO_PAGE_LIMIT")
		os.Unsetenv("WELFAREMAP_OPENFOODFACTS_ENABLED")
		os.Unsetenv("WELFAREMAP_EMH_CACHE_DIR")
		os.Unsetenv("WELFAREMAP_CLASSIFIER_FALLBACK_THRESHOLD")
		os.Unsetenv("WELFAREMAP_COHERE_API_KEY")
		os.Unsetenv("WELFAREMAP_COHERE_MODEL")
		os.Unsetenv("WELFAREMAP_PIPELINE_WORKERS")
		os.Unsetenv("WELFAREMAP_OUTPUT_DIR")
		os.Unsetenv("FOOD_REPO_API_KEY")
		os.Unsetenv("COHERE_API_KEY")
	}

	t.Run("loads with defaults when no env vars set", func(t *testing.T) {
		cleanupEnv()
		defer cleanupEnv()

		cfg, err := Load("")
		if err != nil {
			t.Fatalf("Load() error = %v, want nil", err)
		}

		// Check defaults
		if cfg.Log.Level != "info" {
			t.Errorf("Log.Level = %s, want info", cfg.Log.Level)
		}
		if cfg.Server.Port != "8080" {
			t.Errorf("Server.Port = %s, want 8080", cfg.Server.Port)
		}
		if cfg.Server.Environment != "development" {
			t.Errorf("Server.Environment = %s, want development", cfg.Server.Environment)
		}
		if cfg.Server.CacheTTL != 10*time.Minute {
			t.Errorf("Server.CacheTTL = %v, want 10m", cfg.Server.CacheTTL)
		}
		if cfg.FoodRepo.BaseURL != "https://www.foodrepo.org/api/v3" {
			t.Errorf("FoodRepo.BaseURL = %s, want https://www.foodrepo.org/api/v3", cfg.FoodRepo.BaseURL)
		}
		if cfg.FoodRepo.RateLimit != 5.0 {
			t.Errorf("FoodRepo.RateLimit = %v, want 5.0", cfg.FoodRepo.RateLimit)
		}
		if !cfg.OpenFoodFacts.Enabled {
			t.Error("OpenFoodFacts.Enabled = false, want true")
		}
		if cfg.EMH.BaseURL != "https://essenmitherz.ch" {
			t.Errorf("EMH.BaseURL = %s, want https://essenmitherz.ch", cfg.EMH.BaseURL)
		}
		if cfg.EMH.CacheDir != ".cache/emh" {
			t.Errorf("EMH.CacheDir = %s, want .cache/emh", cfg.EMH.CacheDir)
		}
		if !cfg.Classifier.FallbackEnabled {
			t.Error("Classifier.FallbackEnabled = false, want true")
		}
		if cfg.Classifier.FallbackThreshold != 0.8 {
			t.Errorf("Classifier.FallbackThreshold = %v, want 0.8", cfg.Classifier.FallbackThreshold)
		}
		if cfg.Cohere.Model != "command-r-08-2024" {
			t.Errorf("Cohere.Model = %s, want command-r-08-2024", cfg.Cohere.Model)
		}
		wantTokens := []string{"bio", "schweiz", "d", "de"}
		if len(cfg.Resolver.CollapseTokens) != len(wantTokens) {
			t.Fatalf("Resolver.CollapseTokens = %v, want %v", cfg.Resolver.CollapseTokens, wantTokens)
		}
		for i, token := range wantTokens {
			if cfg.Resolver.CollapseTokens[i] != token {
				t.Errorf("Resolver.CollapseTokens[%d] = %s, want %s", i, cfg.Resolver.CollapseTokens[i], token)
			}
		}
		if cfg.Pipeline.Workers != 4 {
			t.Errorf("Pipeline.Workers = %d, want 4", cfg.Pipeline.Workers)
		}
		if cfg.Output.Dir != "output" {
			t.Errorf("Output.Dir = %s, want output", cfg.Output.Dir)
		}
	})

	t.Run("loads custom values from environment variables", func(t *testing.T) {
		cleanupEnv()
		os.Setenv("WELFAREMAP_LOG_LEVEL", "debug")
		os.Setenv("WELFAREMAP_SERVER_PORT", "9090")
		os.Setenv("WELFAREMAP_SERVER_ENVIRONMENT", "production")
		os.Setenv("WELFAREMAP_SERVER_CACHE_TTL", "1h")
		os.Setenv("WELFAREMAP_FOODREPO_API_KEY", "custom-api-key")
		os.Setenv("WELFAREMAP_FOODREPO_BASE_URL", "https://custom.api.com")
		os.Setenv("WELFAREMAP_FOODREPO_RATE_LIMIT", "2.5")
		os.Setenv("WELFAREMAP_FOODREPO_PAGE_LIMIT", "500")
		os.Setenv("WELFAREMAP_OPENFOODFACTS_ENABLED", "false")
		os.Setenv("WELFAREMAP_EMH_CACHE_DIR", "/tmp/pages")
		os.Setenv("WELFAREMAP_COHERE_MODEL", "command-r-plus")
		os.Setenv("WELFAREMAP_PIPELINE_WORKERS", "8")
		os.Setenv("WELFAREMAP_OUTPUT_DIR", "artifacts")
		defer cleanupEnv()

		cfg, err := Load("")
		if err != nil {
			t.Fatalf("Load() error = %v, want nil", err)
		}

		if cfg.Log.Level != "debug" {
			t.Errorf("Log.Level = %s, want debug", cfg.Log.Level)
		}
		if cfg.Server.Port != "9090" {
			t.Errorf("Server.Port = %s, want 9090", cfg.Server.Port)
		}
		if cfg.Server.Environment != "production" {
			t.Errorf("Server.Environment = %s, want production", cfg.Server.Environment)
		}
		if cfg.Server.CacheTTL != time.Hour {
			t.Errorf("Server.CacheTTL = %v, want 1h", cfg.Server.CacheTTL)
		}
		if cfg.FoodRepo.APIKey != "custom-api-key" {
			t.Errorf("FoodRepo.APIKey = %s, want custom-api-key", cfg.FoodRepo.APIKey)
		}
		if cfg.FoodRepo.BaseURL != "https://custom.api.com" {
			t.Errorf("FoodRepo.BaseURL = %s, want https://custom.api.com", cfg.FoodRepo.BaseURL)
		}
		if cfg.FoodRepo.RateLimit != 2.5 {
			t.Errorf("FoodRepo.RateLimit = %v, want 2.5", cfg.FoodRepo.RateLimit)
		}
		if cfg.FoodRepo.PageLimit != 500 {
			t.Errorf("FoodRepo.PageLimit = %d, want 500", cfg.FoodRepo.PageLimit)
		}
		if cfg.OpenFoodFacts.Enabled {
			t.Error("OpenFoodFacts.Enabled = true, want false")
		}
		if cfg.EMH.CacheDir != "/tmp/pages" {
			t.Errorf("EMH.CacheDir = %s, want /tmp/pages", cfg.EMH.CacheDir)
		}
		if cfg.Cohere.Model != "command-r-plus" {
			t.Errorf("Cohere.Model = %s, want command-r-plus", cfg.Cohere.Model)
		}
		if cfg.Pipeline.Workers != 8 {
			t.Errorf("Pipeline.Workers = %d, want 8", cfg.Pipeline.Workers)
		}
		if cfg.Output.Dir != "artifacts" {
			t.Errorf("Output.Dir = %s, want artifacts", cfg.Output.Dir)
		}
	})

	t.Run("honors bare credential names from the original deployment", func(t *testing.T) {
		cleanupEnv()
		os.Setenv("FOOD_REPO_API_KEY", "legacy-catalog-key")
		os.Setenv("COHERE_API_KEY", "legacy-cohere-key")
		defer cleanupEnv()

		cfg, err := Load("")
		if err != nil {
			t.Fatalf("Load() error = %v, want nil", err)
		}

		if cfg.FoodRepo.APIKey != "legacy-catalog-key" {
			t.Errorf("FoodRepo.APIKey = %s, want legacy-catalog-key", cfg.FoodRepo.APIKey)
		}
		if cfg.Cohere.APIKey != "legacy-cohere-key" {
			t.Errorf("Cohere.APIKey = %s, want legacy-cohere-key", cfg.Cohere.APIKey)
		}
	})

	t.Run("prefixed credential wins over bare name", func(t *testing.T) {
		cleanupEnv()
		os.Setenv("WELFAREMAP_FOODREPO_API_KEY", "prefixed-key")
		os.Setenv("FOOD_REPO_API_KEY", "legacy-key")
		defer cleanupEnv()

		cfg, err := Load("")
		if err != nil {
			t.Fatalf("Load() error = %v, want nil", err)
		}

		if cfg.FoodRepo.APIKey != "prefixed-key" {
			t.Errorf("FoodRepo.APIKey = %s, want prefixed-key", cfg.FoodRepo.APIKey)
		}
	})

	t.Run("loads values from an explicit config file", func(t *testing.T) {
		cleanupEnv()
		defer cleanupEnv()

		configContent := `
server:
  port: "7070"
  allowed_origins:
    - https://welfaremap.ch
emh:
  cache_dir: /var/cache/emh
pipeline:
  workers: 2
`
		path := filepath.Join(t.TempDir(), "config.yaml")
		if err := os.WriteFile(path, []byte(configContent), 0644); err != nil {
			t.Fatalf("Failed to write test config: %v", err)
		}

		cfg, err := Load(path)
		if err != nil {
			t.Fatalf("Load() error = %v, want nil", err)
		}

		if cfg.Server.Port != "7070" {
			t.Errorf("Server.Port = %s, want 7070", cfg.Server.Port)
		}
		if len(cfg.Server.AllowedOrigins) != 1 || cfg.Server.AllowedOrigins[0] != "https://welfaremap.ch" {
			t.Errorf("Server.AllowedOrigins = %v, want [https://welfaremap.ch]", cfg.Server.AllowedOrigins)
		}
		if cfg.EMH.CacheDir != "/var/cache/emh" {
			t.Errorf("EMH.CacheDir = %s, want /var/cache/emh", cfg.EMH.CacheDir)
		}
		if cfg.Pipeline.Workers != 2 {
			t.Errorf("Pipeline.Workers = %d, want 2", cfg.Pipeline.Workers)
		}
		// Untouched sections keep their defaults
		if cfg.FoodRepo.RateLimit != 5.0 {
			t.Errorf("FoodRepo.RateLimit = %v, want 5.0", cfg.FoodRepo.RateLimit)
		}
	})

	t.Run("fails for a missing explicit config file", func(t *testing.T) {
		cleanupEnv()
		defer cleanupEnv()

		_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
		if err == nil {
			t.Error("Load() error = nil, want error for missing config file")
		}
	})

	t.Run("fails validation for a non-numeric port", func(t *testing.T) {
		cleanupEnv()
		os.Setenv("WELFAREMAP_SERVER_PORT", "http")
		defer cleanupEnv()

		_, err := Load("")
		if err == nil {
			t.Error("Load() error = nil, want error for invalid port")
		}
	})

	t.Run("fails validation for an out-of-range threshold", func(t *testing.T) {
		cleanupEnv()
		os.Setenv("WELFAREMAP_CLASSIFIER_FALLBACK_THRESHOLD", "1.5")
		defer cleanupEnv()

		_, err := Load("")
		if err == nil {
			t.Error("Load() error = nil, want error for threshold above 1")
		}
	})

	t.Run("fails validation for zero workers", func(t *testing.T) {
		cleanupEnv()
		os.Setenv("WELFAREMAP_PIPELINE_WORKERS", "0")
		defer cleanupEnv()

		_, err := Load("")
		if err == nil {
			t.Error("Load() error = nil, want error for zero workers")
		}
	})
}

func TestLoadEnvFile(t *testing.T) {
	t.Run("returns nil when .env file doesn't exist", func(t *testing.T) {
		// Save current directory
		originalDir, _ := os.Getwd()
		defer os.Chdir(originalDir)

		// Create temp directory
		tempDir := t.TempDir()
		os.Chdir(tempDir)

		err := loadEnvFile()
		if err != nil {
			t.Errorf("loadEnvFile() error = %v, want nil when file doesn't exist", err)
		}
	})

	t.Run("loads variables from .env file", func(t *testing.T) {
		// Save current directory
		originalDir, _ := os.Getwd()
		defer os.Chdir(originalDir)

		// Create temp directory
		tempDir := t.TempDir()
		os.Chdir(tempDir)

		// Create .env file
		envContent := `# Comment line
TEST_VAR_1=value1
TEST_VAR_2=value2

# Another comment
TEST_VAR_3=value3
`
		err := os.WriteFile(".env", []byte(envContent), 0644)
		if err != nil {
			t.Fatalf("Failed to create test .env file: %v", err)
		}

		// Clear any existing values
		os.Unsetenv("TEST_VAR_1")
		os.Unsetenv("TEST_VAR_2")
		os.Unsetenv("TEST_VAR_3")

		err = loadEnvFile()
		if err != nil {
			t.Fatalf("loadEnvFile() error = %v, want nil", err)
		}

		if os.Getenv("TEST_VAR_1") != "value1" {
			t.Errorf("TEST_VAR_1 = %s, want value1", os.Getenv("TEST_VAR_1"))
		}
		if os.Getenv("TEST_VAR_2") != "value2" {
			t.Errorf("TEST_VAR_2 = %s, want value2", os.Getenv("TEST_VAR_2"))
		}
		if os.Getenv("TEST_VAR_3") != "value3" {
			t.Errorf("TEST_VAR_3 = %s, want value3", os.Getenv("TEST_VAR_3"))
		}

		// Cleanup
		os.Unsetenv("TEST_VAR_1")
		os.Unsetenv("TEST_VAR_2")
		os.Unsetenv("TEST_VAR_3")
	})

	t.Run("doesn't override existing environment variables", func(t *testing.T) {
		// Save current directory
		originalDir, _ := os.Getwd()
		defer os.Chdir(originalDir)

		// Create temp directory
		tempDir := t.TempDir()
		os.Chdir(tempDir)

		// Set existing env var
		os.Setenv("TEST_OVERRIDE", "existing-value")

		// Create .env file that tries to override
		envContent := "TEST_OVERRIDE=new-value"
		err := os.WriteFile(".env", []byte(envContent), 0644)
		if err != nil {
			t.Fatalf("Failed to create test .env file: %v", err)
		}

		err = loadEnvFile()
		if err != nil {
			t.Fatalf("loadEnvFile() error = %v, want nil", err)
		}

		// Should still have original value
		if os.Getenv("TEST_OVERRIDE") != "existing-value" {
			t.Errorf("TEST_OVERRIDE = %s, want existing-value (should not override)", os.Getenv("TEST_OVERRIDE"))
		}

		os.Unsetenv("TEST_OVERRIDE")
	})
}

func TestValidate(t *testing.T) {
	validConfig := func() *Config {
		return &Config{
			Server:        ServerConfig{Port: "8080"},
			FoodRepo:      FoodRepoConfig{RateLimit: 5.0},
			OpenFoodFacts: OpenFoodFactsConfig{RateLimit: 1.5},
			EMH:           EMHConfig{RateLimit: 1.0},
			Classifier:    ClassifierConfig{FallbackThreshold: 0.8},
			Pipeline:      PipelineConfig{Workers: 4},
		}
	}

	t.Run("validates successfully with sane values", func(t *testing.T) {
		err := validate(validConfig())
		if err != nil {
			t.Errorf("validate() error = %v, want nil", err)
		}
	})

	t.Run("fails for port out of range", func(t *testing.T) {
		cfg := validConfig()
		cfg.Server.Port = "70000"

		err := validate(cfg)
		if err == nil {
			t.Error("validate() error = nil, want error for port out of range")
		}
	})

	t.Run("fails for non-numeric port", func(t *testing.T) {
		cfg := validConfig()
		cfg.Server.Port = "eighty"

		err := validate(cfg)
		if err == nil {
			t.Error("validate() error = nil, want error for non-numeric port")
		}
	})

	t.Run("fails for negative threshold", func(t *testing.T) {
		cfg := validConfig()
		cfg.Classifier.FallbackThreshold = -0.1

		err := validate(cfg)
		if err == nil {
			t.Error("validate() error = nil, want error for negative threshold")
		}
	})

	t.Run("accepts threshold boundaries", func(t *testing.T) {
		cfg := validConfig()
		cfg.Classifier.FallbackThreshold = 0

		if err := validate(cfg); err != nil {
			t.Errorf("validate() error = %v, want nil for threshold 0", err)
		}

		cfg.Classifier.FallbackThreshold = 1
		if err := validate(cfg); err != nil {
			t.Errorf("validate() error = %v, want nil for threshold 1", err)
		}
	})

	t.Run("fails for zero rate limit", func(t *testing.T) {
		cfg := validConfig()
		cfg.EMH.RateLimit = 0

		err := validate(cfg)
		if err == nil {
			t.Error("validate() error = nil, want error for zero rate limit")
		}
	})

	t.Run("fails for zero workers", func(t *testing.T) {
		cfg := validConfig()
		cfg.Pipeline.Workers = 0

		err := validate(cfg)
		if err == nil {
			t.Error("validate() error = nil, want error for zero workers")
		}
	})
}
