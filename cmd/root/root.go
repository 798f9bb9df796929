// Package root contains the root command for the application
package root

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"fjacquet/stmt-extract/internal/config"
	"fjacquet/stmt-extract/internal/container"
	"fjacquet/stmt-extract/internal/logging"
)

// GlobalFlags are the persistent flags shared by every command.
type GlobalFlags struct {
	ConfigFile string
	LogLevel   string
	LogFormat  string
}

var (
	// Cmd is the root command
	Cmd = &cobra.Command{
		Use:   "stmt-extract",
		Short: "Extract transactions from statement and receipt uploads.",
		Long: `stmt-extract reads credit card statements and receipts (PDF, image or
OCR text) and recovers a list of dated, signed transactions. It tries AI
structuring first, then statement line patterns, column reconstruction and
finally single-receipt heuristics.`,
		SilenceUsage:      true,
		PersistentPreRunE: loadConfig,
	}

	// Flags holds the values of the persistent flags.
	Flags = GlobalFlags{}

	cfg    *config.Config
	logger logging.Logger
)

// Init registers the persistent flags.
func Init() {
	Cmd.PersistentFlags().StringVar(&Flags.ConfigFile, "config", "", "Config file (default searches $HOME/.stmt-extract, .stmt-extract and .)")
	Cmd.PersistentFlags().StringVar(&Flags.LogLevel, "log-level", "", "Log level override (debug, info, warn, error)")
	Cmd.PersistentFlags().StringVar(&Flags.LogFormat, "log-format", "", "Log format override (text or json)")
}

func loadConfig(cmd *cobra.Command, _ []string) error {
	config.LoadEnv(logging.NewLogrusAdapterFromLogger(config.DefaultLogger()))

	c, err := config.InitializeConfigFromFile(Flags.ConfigFile)
	if err != nil {
		return err
	}
	if Flags.LogLevel != "" {
		c.Log.Level = Flags.LogLevel
	}
	if Flags.LogFormat != "" {
		c.Log.Format = Flags.LogFormat
	}

	cfg = c
	logger = config.NewLogger(c)
	logging.SetLogger(logger)
	logger.Debug("Configuration loaded",
		logging.Field{Key: "command", Value: cmd.Name()})
	return nil
}

// GetConfig returns the configuration loaded before the command ran.
func GetConfig() *config.Config {
	return cfg
}

// GetLogger returns the command logger.
func GetLogger() logging.Logger {
	return logging.OrDefault(logger)
}

// NewContainer wires the application for the running command.
func NewContainer(ctx context.Context, opts ...container.Option) (*container.Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration not loaded")
	}
	return container.NewContainer(ctx, cfg, append([]container.Option{container.WithLogger(GetLogger())}, opts...)...)
}

// SetConfig installs a configuration directly, for tests.
func SetConfig(c *config.Config, l logging.Logger) {
	cfg = c
	logger = l
}
