// Package config loads the service configuration from file, .env and
// environment variables.
package config

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"

	"github.com/claimstack/pricing-service/internal/estimate"
	"github.com/claimstack/pricing-service/internal/llm"
	"github.com/claimstack/pricing-service/internal/pipeline"
	"github.com/claimstack/pricing-service/internal/resolve"
	"github.com/claimstack/pricing-service/internal/search"
)

// ErrNoCredentials distinguishes missing provider keys from other config
// problems; the CLI maps it to its own exit code.
var ErrNoCredentials = errors.New("config: no provider credentials")

// Config holds the application configuration.
type Config struct {
	Server    ServerConfig      `mapstructure:"server"`
	LLM       llm.Config        `mapstructure:"llm"`
	Search    search.SERPConfig `mapstructure:"search"`
	Pipeline  pipeline.Config   `mapstructure:"pipeline"`
	Estimator estimate.Config   `mapstructure:"estimator"`
	Resolver  resolve.Config    `mapstructure:"resolver"`
	Trust     TrustConfig       `mapstructure:"trust"`
	Category  CategoryConfig    `mapstructure:"category"`
	Cache     CacheConfig       `mapstructure:"cache"`
	Results   ResultsConfig     `mapstructure:"results"`
	Storage   StorageConfig     `mapstructure:"storage"`
	Logging   LoggingConfig     `mapstructure:"logging"`
	Telemetry TelemetryConfig   `mapstructure:"telemetry"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port         int           `mapstructure:"port"`
	Host         string        `mapstructure:"host"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	APIKey       string        `mapstructure:"api_key"`
}

// TrustConfig holds the injected domain lists.
type TrustConfig struct {
	TrustedDomains    []string          `mapstructure:"trusted_domains"`
	UntrustedPatterns []string          `mapstructure:"untrusted_patterns"`
	BlockedPatterns   []string          `mapstructure:"blocked_patterns"`
	DirectPatterns    []string          `mapstructure:"direct_patterns"`
	FriendlyNames     map[string]string `mapstructure:"friendly_names"`
}

// CategoryConfig points at the depreciation table.
type CategoryConfig struct {
	TablePath string `mapstructure:"table_path"`
}

// CacheConfig bounds the process-local caches.
type CacheConfig struct {
	TTL      time.Duration `mapstructure:"ttl"`
	Capacity int           `mapstructure:"capacity"`
}

// ResultsConfig bounds the in-memory result store.
type ResultsConfig struct {
	Retention     time.Duration `mapstructure:"retention"`
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
}

// StorageConfig holds uploaded-file storage configuration.
type StorageConfig struct {
	Type     string `mapstructure:"type"`
	BasePath string `mapstructure:"base_path"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level   string `mapstructure:"level"`
	Format  string `mapstructure:"format"`
	NoColor bool   `mapstructure:"no_color"`
}

// TelemetryConfig holds OpenTelemetry export configuration.
type TelemetryConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	Endpoint    string `mapstructure:"endpoint"`
	ServiceName string `mapstructure:"service_name"`
}

// Load loads the configuration from file, .env and environment variables.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	}

	if err := loadEnvFile(); err != nil {
		// .env is optional.
		log.Debug().Err(err).Msg(".env file not loaded")
	}

	v.AutomaticEnv()
	v.SetEnvPrefix("PRICING_SERVICE")

	bindEnvVars(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	return &cfg, nil
}

// ValidateCredentials reports whether the provider keys a pricing run
// requires are present.
func (c *Config) ValidateCredentials() error {
	if c.Search.APIKey == "" && c.LLM.APIKey == "" {
		return ErrNoCredentials
	}
	if err := c.Search.Validate(); err != nil {
		return err
	}
	if err := c.LLM.Validate(); err != nil {
		return err
	}
	return nil
}

// loadEnvFile loads a .env file from the usual locations.
func loadEnvFile() error {
	for _, path := range []string{".", "./config"} {
		envFile := path + "/.env"
		if _, err := os.Stat(envFile); err == nil {
			if err := loadDotEnvFile(envFile); err == nil {
				return nil
			}
		}
	}
	return fmt.Errorf("no .env file found")
}

// loadDotEnvFile reads a .env file and sets environment variables.
func loadDotEnvFile(filename string) error {
	file, err := os.Open(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.SplitN(line, "=", 2)
		if len(parts) == 2 {
			key := strings.TrimSpace(parts[0])
			value := strings.Trim(strings.TrimSpace(parts[1]), "\"'")
			os.Setenv(key, value)
		}
	}
	return scanner.Err()
}

// bindEnvVars binds environment variables to config keys.
func bindEnvVars(v *viper.Viper) {
	v.BindEnv("server.port", "PORT")
	v.BindEnv("server.host", "HOST")
	v.BindEnv("server.api_key", "API_KEY")

	v.BindEnv("llm.api_key", "LLM_API_KEY", "OPENAI_API_KEY")
	v.BindEnv("llm.base_url", "LLM_BASE_URL")
	v.BindEnv("llm.model", "LLM_MODEL")

	v.BindEnv("search.api_key", "SEARCH_API_KEY", "SERPAPI_KEY")
	v.BindEnv("search.endpoint", "SEARCH_ENDPOINT")

	v.BindEnv("logging.level", "LOG_LEVEL")
	v.BindEnv("storage.base_path", "STORAGE_PATH")
	v.BindEnv("telemetry.endpoint", "OTEL_EXPORTER_OTLP_ENDPOINT")
	v.BindEnv("category.table_path", "CATEGORY_TABLE_PATH")
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 3000)
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 120*time.Second)

	v.SetDefault("pipeline.tolerance_pct", 50)
	v.SetDefault("pipeline.wide_tolerance_pct", 100)

	v.SetDefault("estimator.default_price", 50)

	v.SetDefault("search.client.requests_per_second", 5)
	v.SetDefault("search.client.burst", 2)
	v.SetDefault("search.client.max_in_flight", 8)
	v.SetDefault("search.client.retry.max_attempts", 3)
	v.SetDefault("search.client.retry.base_ms", 500*time.Millisecond)
	v.SetDefault("search.client.retry.max_ms", 5*time.Second)
	v.SetDefault("search.client.retry.jitter_ms", 250*time.Millisecond)
	v.SetDefault("search.client.retry.attempt_timeout", 5*time.Second)
	v.SetDefault("search.client.retry.attempt_timeout_cap", 15*time.Second)

	v.SetDefault("llm.client.requests_per_second", 5)
	v.SetDefault("llm.client.burst", 2)
	v.SetDefault("llm.client.max_in_flight", 8)
	v.SetDefault("llm.client.retry.max_attempts", 3)
	v.SetDefault("llm.client.retry.base_ms", 500*time.Millisecond)
	v.SetDefault("llm.client.retry.max_ms", 5*time.Second)
	v.SetDefault("llm.client.retry.jitter_ms", 250*time.Millisecond)
	v.SetDefault("llm.client.retry.attempt_timeout", 10*time.Second)
	v.SetDefault("llm.client.retry.attempt_timeout_cap", 15*time.Second)

	v.SetDefault("resolver.timeout", 8*time.Second)

	v.SetDefault("cache.ttl", 5*time.Minute)
	v.SetDefault("cache.capacity", 1000)

	v.SetDefault("results.retention", 24*time.Hour)
	v.SetDefault("results.sweep_interval", 10*time.Minute)

	v.SetDefault("storage.type", "local")
	v.SetDefault("storage.base_path", "./data/uploads")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.no_color", false)

	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.service_name", "pricing-service")
}
