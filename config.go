package taskolib

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"regexp"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/joho/godotenv"
)

// ErrConfigValidation is returned when configuration validation fails
var ErrConfigValidation = errors.New("configuration validation failed")

// Config represents the taskolib project configuration
type Config struct {
	StoreDir string         `yaml:"store_dir"`
	LogLevel string         `yaml:"log_level"`
	Executor ExecutorConfig `yaml:"executor"`
}

// ExecutorConfig represents sequence execution settings
type ExecutorConfig struct {
	DefaultStepTimeout time.Duration `yaml:"default_step_timeout"`
	MessageBuffer      int           `yaml:"message_buffer"`
}

// LoadConfig loads configuration from the specified file
func LoadConfig(configPath string) (*Config, error) {
	// Load .env files first
	err := loadEnvFiles()
	if err != nil {
		return nil, fmt.Errorf("failed to load environment files: %w", err)
	}

	// Check if config file exists
	_, err = os.Stat(configPath)
	if os.IsNotExist(err) {
		// Return default configuration if file doesn't exist
		config := getDefaultConfig()
		expandConfigEnvVars(config)

		return config, nil
	}

	// Read config file
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Parse YAML with strict mode to detect unknown fields
	var config Config

	err = yaml.UnmarshalWithOptions(data, &config, yaml.Strict())
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Validate the configuration
	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	// Apply defaults for missing values
	applyDefaults(&config)

	// Expand environment variables
	expandConfigEnvVars(&config)

	return &config, nil
}

// validateConfig validates the configuration for common errors and inconsistencies
func validateConfig(config *Config) error {
	validLevels := map[string]bool{
		"":      true,
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[config.LogLevel] {
		return fmt.Errorf("%w: invalid log_level '%s': must be one of debug, info, warn, error", ErrConfigValidation, config.LogLevel)
	}

	if config.Executor.DefaultStepTimeout < 0 {
		return fmt.Errorf("%w: default_step_timeout must not be negative", ErrConfigValidation)
	}

	if config.Executor.MessageBuffer < 0 {
		return fmt.Errorf("%w: message_buffer must not be negative", ErrConfigValidation)
	}

	return nil
}

// getDefaultConfig returns the default configuration
func getDefaultConfig() *Config {
	return &Config{
		StoreDir: "sequences",
		LogLevel: "info",
		Executor: ExecutorConfig{
			DefaultStepTimeout: 10 * time.Second,
			MessageBuffer:      32,
		},
	}
}

// applyDefaults fills in zero values with the defaults
func applyDefaults(config *Config) {
	defaults := getDefaultConfig()

	if config.StoreDir == "" {
		config.StoreDir = defaults.StoreDir
	}

	if config.LogLevel == "" {
		config.LogLevel = defaults.LogLevel
	}

	if config.Executor.DefaultStepTimeout == 0 {
		config.Executor.DefaultStepTimeout = defaults.Executor.DefaultStepTimeout
	}

	if config.Executor.MessageBuffer == 0 {
		config.Executor.MessageBuffer = defaults.Executor.MessageBuffer
	}
}

// SlogLevel translates the configured log level into a slog.Level.
func (c *Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func loadEnvFiles() error {
	// Try to load .env file from current directory
	if fileExists(".env") {
		err := godotenv.Load(".env")
		if err != nil {
			return fmt.Errorf("failed to load .env file: %w", err)
		}
	}

	return nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func expandEnvVars(s string) string {
	// Pattern for ${VAR} format
	re1 := regexp.MustCompile(`\$\{([^}]+)\}`)
	s = re1.ReplaceAllStringFunc(s, func(match string) string {
		varName := match[2 : len(match)-1] // Remove ${ and }
		return os.Getenv(varName)
	})

	// Pattern for $VAR format (word boundaries)
	re2 := regexp.MustCompile(`\$([A-Za-z_][A-Za-z0-9_]*)`)
	s = re2.ReplaceAllStringFunc(s, func(match string) string {
		varName := match[1:] // Remove $
		return os.Getenv(varName)
	})

	return s
}

func expandConfigEnvVars(config *Config) {
	config.StoreDir = expandEnvVars(config.StoreDir)
	config.LogLevel = expandEnvVars(config.LogLevel)
}
