package config

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"fjacquet/stmt-extract/internal/logging"
)

var envOnce sync.Once

// LoadEnv loads variables from a .env file in the working directory or
// its parent, once per process. Variables already set are not overridden.
func LoadEnv(logger logging.Logger) {
	envOnce.Do(func() {
		loadEnvFile(logging.OrDefault(logger), ".env", filepath.Join("..", ".env"))
	})
}

func loadEnvFile(logger logging.Logger, candidates ...string) string {
	for _, envFile := range candidates {
		if _, err := os.Stat(envFile); err != nil {
			continue
		}
		if err := godotenv.Load(envFile); err != nil {
			logger.WithError(err).Warn("Error loading .env file",
				logging.Field{Key: logging.FieldFile, Value: envFile})
			return ""
		}
		logger.Debug("Loaded environment variables",
			logging.Field{Key: logging.FieldFile, Value: envFile})
		return envFile
	}
	logger.Debug("No .env file found, using environment variables")
	return ""
}

// GetEnv retrieves an environment variable with a fallback value if not set
func GetEnv(key, fallback string) string {
	value, exists := os.LookupEnv(key)
	if !exists {
		return fallback
	}
	return value
}

// NewLogger builds the application logger from the configuration.
func NewLogger(cfg *Config) logging.Logger {
	return logging.NewLogrusAdapterFromLogger(ConfigureLoggingFromConfig(cfg))
}

// DefaultLogger builds a logger from LOG_LEVEL and LOG_FORMAT, for use
// before the configuration is loaded.
func DefaultLogger() *logrus.Logger {
	return ConfigureLoggingFromConfig(&Config{Log: LogConfig{
		Level:  GetEnv("LOG_LEVEL", "info"),
		Format: GetEnv("LOG_FORMAT", "text"),
	}})
}
