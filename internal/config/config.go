package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/birdsql/birdsql/internal/errors"
)

// Config represents the application configuration
type Config struct {
	API     APIConfig
	Run     RunConfig
	Logging LoggingConfig
}

// APIConfig configures the completion endpoint client
type APIConfig struct {
	// The key is read from the conventional unprefixed variable so existing
	// OpenAI tooling keeps working.
	APIKey        string  `env:"OPENAI_API_KEY"`
	BaseURL       string  `env:"BIRDSQL_API_BASE_URL"   envDefault:"https://api.openai.com/v1"`
	Engine        string  `env:"BIRDSQL_ENGINE"         envDefault:"gpt-4o-mini"`
	MaxTokens     int     `env:"BIRDSQL_MAX_TOKENS"     envDefault:"256"`
	Temperature   float64 `env:"BIRDSQL_TEMPERATURE"    envDefault:"0"`
	Timeout       string  `env:"BIRDSQL_API_TIMEOUT"    envDefault:"60s"`
	RetryAttempts int     `env:"BIRDSQL_RETRY_ATTEMPTS" envDefault:"3"`
	RetryInterval string  `env:"BIRDSQL_RETRY_INTERVAL" envDefault:"15s"`
}

// RunConfig configures prompt construction and the refinement loop
type RunConfig struct {
	SampleLimit int    `env:"BIRDSQL_SAMPLE_LIMIT" envDefault:"3"`
	MaxIter     int    `env:"BIRDSQL_MAX_ITER"     envDefault:"3"`
	OutputDir   string `env:"BIRDSQL_OUTPUT_DIR"   envDefault:"./exp_result"`
	LogDir      string `env:"BIRDSQL_LOG_DIR"      envDefault:"./exp_result/log"`
}

// LoggingConfig configures diagnostic logging (distinct from the audit log)
type LoggingConfig struct {
	Level  string `env:"BIRDSQL_LOG_LEVEL"  envDefault:"info"`   // debug, info, warn, error
	Format string `env:"BIRDSQL_LOG_FORMAT" envDefault:"text"`   // text, json
	Output string `env:"BIRDSQL_LOG_OUTPUT" envDefault:"stderr"` // stdout, stderr, file
	File   string `env:"BIRDSQL_LOG_FILE"   envDefault:""`
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	return LoadConfigWithOverrides(nil)
}

// LoadConfigWithOverrides loads configuration with optional command-line flag overrides
func LoadConfigWithOverrides(flagOverrides map[string]interface{}) (*Config, error) {
	config := &Config{}

	if err := env.Parse(config); err != nil {
		return nil, errors.Wrap(err, errors.ErrTypeConfig, "failed to parse environment variables")
	}

	if flagOverrides != nil {
		applyFlagOverrides(config, flagOverrides)
	}

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, errors.ErrTypeConfig, "invalid configuration")
	}

	return config, nil
}

// applyFlagOverrides applies command-line flag overrides to configuration
func applyFlagOverrides(config *Config, overrides map[string]interface{}) {
	for key, value := range overrides {
		switch key {
		case "api-key":
			if str, ok := value.(string); ok && str != "" {
				config.API.APIKey = str
			}
		case "engine":
			if str, ok := value.(string); ok && str != "" {
				config.API.Engine = str
			}
		case "base-url":
			if str, ok := value.(string); ok && str != "" {
				config.API.BaseURL = str
			}
		case "log-level":
			if str, ok := value.(string); ok && str != "" {
				config.Logging.Level = str
			}
		case "log-dir":
			if str, ok := value.(string); ok && str != "" {
				config.Run.LogDir = str
			}
		case "max-iter":
			if n, ok := value.(int); ok && n > 0 {
				config.Run.MaxIter = n
			}
		}
	}
}

// validateConfig validates the configuration for common errors
func validateConfig(config *Config) error {
	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[strings.ToLower(config.Logging.Level)] {
		return fmt.Errorf(
			"invalid log level: %s (must be debug, info, warn, or error)",
			config.Logging.Level,
		)
	}

	validLogFormats := map[string]bool{
		"text": true, "json": true,
	}
	if !validLogFormats[strings.ToLower(config.Logging.Format)] {
		return fmt.Errorf("invalid log format: %s (must be text or json)", config.Logging.Format)
	}

	validLogOutputs := map[string]bool{
		"stdout": true, "stderr": true, "file": true,
	}
	if !validLogOutputs[strings.ToLower(config.Logging.Output)] {
		return fmt.Errorf(
			"invalid log output: %s (must be stdout, stderr, or file)",
			config.Logging.Output,
		)
	}

	if _, err := time.ParseDuration(config.API.Timeout); err != nil {
		return fmt.Errorf("invalid API timeout: %s", config.API.Timeout)
	}

	if _, err := time.ParseDuration(config.API.RetryInterval); err != nil {
		return fmt.Errorf("invalid retry interval: %s", config.API.RetryInterval)
	}

	if config.API.RetryAttempts <= 0 {
		return fmt.Errorf("retry attempts must be positive: %d", config.API.RetryAttempts)
	}

	if config.API.MaxTokens <= 0 {
		return fmt.Errorf("max tokens must be positive: %d", config.API.MaxTokens)
	}

	if config.Run.SampleLimit < 0 {
		return fmt.Errorf("sample limit must not be negative: %d", config.Run.SampleLimit)
	}

	if config.Run.MaxIter <= 0 {
		return fmt.Errorf("max iterations must be positive: %d", config.Run.MaxIter)
	}

	return nil
}

// RequireAPIKey returns a fatal configuration error when no key is set.
// Called by commands before any prompt is built or any database is opened.
func (c *Config) RequireAPIKey() error {
	if strings.TrimSpace(c.API.APIKey) == "" {
		return errors.NewMissingAPIKeyError()
	}

	return nil
}

// APITimeout returns the parsed endpoint timeout
func (c *Config) APITimeout() time.Duration {
	d, err := time.ParseDuration(c.API.Timeout)
	if err != nil {
		return 60 * time.Second
	}

	return d
}

// RetryInterval returns the parsed constant backoff interval
func (c *Config) RetryInterval() time.Duration {
	d, err := time.ParseDuration(c.API.RetryInterval)
	if err != nil {
		return 15 * time.Second
	}

	return d
}
