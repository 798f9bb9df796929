// Package config provides Viper-based hierarchical configuration management
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"fjacquet/stmt-extract/internal/aiclient"
)

// LogConfig controls logging output.
type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// AIConfig controls the AI structuring stage.
type AIConfig struct {
	Enabled        bool   `mapstructure:"enabled" yaml:"enabled"`
	Provider       string `mapstructure:"provider" yaml:"provider"`
	Model          string `mapstructure:"model" yaml:"model"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds" yaml:"timeout_seconds"`
	Vision         bool   `mapstructure:"vision" yaml:"vision"`
	Categorize     bool   `mapstructure:"categorize" yaml:"categorize"`
	APIKey         string `mapstructure:"api_key" yaml:"-"` // Never serialize API key
	Project        string `mapstructure:"project" yaml:"project"`
	Location       string `mapstructure:"location" yaml:"location"`
}

// Timeout returns the AI call bound as a duration.
func (a AIConfig) Timeout() time.Duration {
	return time.Duration(a.TimeoutSeconds) * time.Second
}

// ExtractionConfig controls raw text acquisition.
type ExtractionConfig struct {
	MaxFileSizeMB int    `mapstructure:"max_file_size_mb" yaml:"max_file_size_mb"`
	OCRLanguage   string `mapstructure:"ocr_language" yaml:"ocr_language"`
	TesseractPath string `mapstructure:"tesseract_path" yaml:"tesseract_path"`
	MinOCRChars   int    `mapstructure:"min_ocr_chars" yaml:"min_ocr_chars"`
}

// MaxFileSize returns the upload limit in bytes.
func (e ExtractionConfig) MaxFileSize() int64 {
	return int64(e.MaxFileSizeMB) << 20
}

// CategoriesConfig points at the category rules and payee mapping files.
type CategoriesConfig struct {
	File       string `mapstructure:"file" yaml:"file"`
	PayeesFile string `mapstructure:"payees_file" yaml:"payees_file"`
}

// CSVConfig controls CSV export.
type CSVConfig struct {
	Delimiter string `mapstructure:"delimiter" yaml:"delimiter"`
}

// ServerConfig controls the HTTP server.
type ServerConfig struct {
	Address string `mapstructure:"address" yaml:"address"`
}

// Config represents the complete application configuration
type Config struct {
	Log        LogConfig        `mapstructure:"log" yaml:"log"`
	AI         AIConfig         `mapstructure:"ai" yaml:"ai"`
	Extraction ExtractionConfig `mapstructure:"extraction" yaml:"extraction"`
	Categories CategoriesConfig `mapstructure:"categories" yaml:"categories"`
	CSV        CSVConfig        `mapstructure:"csv" yaml:"csv"`
	Server     ServerConfig     `mapstructure:"server" yaml:"server"`
}

// InitializeConfig loads configuration from defaults, config.yaml in the
// standard locations, and the environment.
func InitializeConfig() (*Config, error) {
	return InitializeConfigFromFile("")
}

// InitializeConfigFromFile is InitializeConfig with an explicit config
// file. An empty path searches the standard locations.
func InitializeConfigFromFile(configFile string) (*Config, error) {
	v := viper.New()

	// 1. Set defaults
	setDefaults(v)

	// 2. Config file locations
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("$HOME/.stmt-extract")
		v.AddConfigPath(".stmt-extract")
		v.AddConfigPath(".")
	}

	// 3. Environment variables
	v.SetEnvPrefix("STMT")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// 4. Read config file (optional unless explicitly given)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file %s: %w", v.ConfigFileUsed(), err)
		}
	}

	// 5. The API key is also read from the unprefixed variable
	if err := v.BindEnv("ai.api_key", "STMT_AI_API_KEY", "GEMINI_API_KEY"); err != nil {
		return nil, fmt.Errorf("failed to bind GEMINI_API_KEY: %w", err)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// 6. Validate configuration
	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetDefault("ai.enabled", false)
	v.SetDefault("ai.provider", aiclient.ProviderGemini)
	v.SetDefault("ai.model", aiclient.DefaultModel)
	v.SetDefault("ai.timeout_seconds", 30)
	v.SetDefault("ai.vision", true)
	v.SetDefault("ai.categorize", true)
	v.SetDefault("ai.project", "")
	v.SetDefault("ai.location", "us-central1")

	v.SetDefault("extraction.max_file_size_mb", 10)
	v.SetDefault("extraction.ocr_language", "eng")
	v.SetDefault("extraction.tesseract_path", "tesseract")
	v.SetDefault("extraction.min_ocr_chars", 50)

	v.SetDefault("categories.file", "categories.yaml")
	v.SetDefault("categories.payees_file", "payees.yaml")

	v.SetDefault("csv.delimiter", ",")

	v.SetDefault("server.address", ":8080")
}

// validateConfig validates the configuration values
func validateConfig(config *Config) error {
	if _, err := logrus.ParseLevel(config.Log.Level); err != nil {
		return fmt.Errorf("invalid log level: %s", config.Log.Level)
	}

	if config.Log.Format != "text" && config.Log.Format != "json" {
		return fmt.Errorf("invalid log format: %s (must be 'text' or 'json')", config.Log.Format)
	}

	if len([]rune(config.CSV.Delimiter)) != 1 {
		return fmt.Errorf("CSV delimiter must be a single character, got: %s", config.CSV.Delimiter)
	}

	if config.Extraction.MaxFileSizeMB < 1 || config.Extraction.MaxFileSizeMB > 100 {
		return fmt.Errorf("extraction.max_file_size_mb must be between 1 and 100, got: %d", config.Extraction.MaxFileSizeMB)
	}

	if config.Extraction.MinOCRChars < 0 {
		return fmt.Errorf("extraction.min_ocr_chars must not be negative, got: %d", config.Extraction.MinOCRChars)
	}

	if config.AI.Enabled {
		switch config.AI.Provider {
		case aiclient.ProviderGemini:
			if config.AI.APIKey == "" {
				return fmt.Errorf("GEMINI_API_KEY required when AI is enabled")
			}
		case aiclient.ProviderVertex:
			if config.AI.Project == "" {
				return fmt.Errorf("ai.project required for the %s provider", aiclient.ProviderVertex)
			}
		default:
			return fmt.Errorf("invalid ai.provider: %s (must be '%s' or '%s')",
				config.AI.Provider, aiclient.ProviderGemini, aiclient.ProviderVertex)
		}

		if config.AI.TimeoutSeconds < 1 || config.AI.TimeoutSeconds > 300 {
			return fmt.Errorf("ai.timeout_seconds must be between 1 and 300, got: %d", config.AI.TimeoutSeconds)
		}
	}

	return nil
}

// ConfigureLoggingFromConfig configures logging based on the Config struct
func ConfigureLoggingFromConfig(config *Config) *logrus.Logger {
	logger := logrus.New()

	logLevel, err := logrus.ParseLevel(strings.ToLower(config.Log.Level))
	if err != nil {
		logger.Warnf("Invalid log level '%s', using 'info'", config.Log.Level)
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)

	if strings.ToLower(config.Log.Format) == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	}

	return logger
}
