// Package serve runs the HTTP upload endpoint
package serve

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"fjacquet/stmt-extract/cmd/root"
	"fjacquet/stmt-extract/internal/server"
)

const shutdownTimeout = 10 * time.Second

var addr string

// Cmd represents the serve command
var Cmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the extraction API over HTTP",
	Long: `Start an HTTP server exposing POST /api/extract for multipart uploads
and GET /api/health.`,
	RunE: serveFunc,
}

func init() {
	Cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default from server.address)")
}

func listenAddress(flag, configured string) string {
	if flag != "" {
		return flag
	}
	if configured != "" {
		return configured
	}
	return ":8080"
}

func serveFunc(cmd *cobra.Command, _ []string) error {
	cfg := root.GetConfig()
	if cfg == nil {
		return fmt.Errorf("configuration not loaded")
	}
	logger := root.GetLogger()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c, err := root.NewContainer(ctx)
	if err != nil {
		return fmt.Errorf("error initializing: %w", err)
	}
	defer func() {
		if cerr := c.Close(); cerr != nil {
			logger.WithError(cerr).Warn("Failed to close container")
		}
	}()

	srv := server.New(c, cfg.Extraction.MaxFileSize(), logger)
	address := listenAddress(addr, cfg.Server.Address)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Listen(address)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("error shutting down server: %w", err)
	}
	return nil
}
