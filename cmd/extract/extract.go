// Package extract handles the one-shot extraction command
package extract

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"fjacquet/stmt-extract/cmd/root"
	"fjacquet/stmt-extract/internal/container"
	"fjacquet/stmt-extract/internal/export"
	"fjacquet/stmt-extract/internal/logging"
	"fjacquet/stmt-extract/internal/parsererror"
	"fjacquet/stmt-extract/internal/textsource"
)

// Options are the flags of the extract command.
type Options struct {
	Input    string
	Password string
	Output   string
	Format   string
	NoAI     bool
}

var opts Options

// Cmd represents the extract command
var Cmd = &cobra.Command{
	Use:   "extract",
	Short: "Extract transactions from a statement or receipt",
	Long: `Extract transactions from a PDF statement, a receipt photo or an OCR text
dump and print them as JSON or CSV.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return run(cmd.Context(), opts, root.NewContainer, cmd.OutOrStdout(), root.GetLogger())
	},
}

func init() {
	Cmd.Flags().StringVarP(&opts.Input, "input", "i", "", "Input file (pdf, png, jpg, jpeg, webp or txt)")
	Cmd.Flags().StringVar(&opts.Password, "password", "", "Password for an encrypted PDF")
	Cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "Output file (default stdout)")
	Cmd.Flags().StringVar(&opts.Format, "format", string(export.FormatJSON), "Output format: json or csv")
	Cmd.Flags().BoolVar(&opts.NoAI, "no-ai", false, "Skip the AI structuring stage")
	_ = Cmd.MarkFlagRequired("input")
}

// containerFactory builds the application container for a run.
type containerFactory func(ctx context.Context, opts ...container.Option) (*container.Container, error)

func run(ctx context.Context, o Options, newContainer containerFactory, stdout io.Writer, logger logging.Logger) error {
	if ctx == nil {
		ctx = context.Background()
	}
	logger = logging.OrDefault(logger)

	format, err := export.ParseFormat(o.Format)
	if err != nil {
		return err
	}

	data, err := os.ReadFile(o.Input) // #nosec G304 -- input path is chosen by the user
	if err != nil {
		return fmt.Errorf("error reading input file: %w", err)
	}

	var copts []container.Option
	if o.NoAI {
		copts = append(copts, container.WithoutAI())
	}
	c, err := newContainer(ctx, copts...)
	if err != nil {
		return fmt.Errorf("error initializing: %w", err)
	}
	defer func() {
		if cerr := c.Close(); cerr != nil {
			logger.WithError(cerr).Warn("Failed to close container")
		}
	}()

	upload := textsource.Upload{
		FileName: filepath.Base(o.Input),
		Data:     data,
		Password: o.Password,
	}

	logger.Info("Extracting transactions",
		logging.Field{Key: logging.FieldInputFile, Value: o.Input})

	result, err := c.Process(ctx, upload)
	if err != nil {
		switch {
		case errors.Is(err, parsererror.ErrPasswordRequired):
			return fmt.Errorf("%s is password protected, pass it with --password", upload.FileName)
		case errors.Is(err, parsererror.ErrInvalidPassword):
			return fmt.Errorf("the password for %s is incorrect", upload.FileName)
		case errors.Is(err, parsererror.ErrUnsupportedEncryption):
			return fmt.Errorf("%s uses an encryption scheme that cannot be opened; save an unencrypted copy and retry", upload.FileName)
		}
		return err
	}

	logger.Info("Extraction completed",
		logging.Field{Key: logging.FieldCount, Value: len(result.LineItems)},
		logging.Field{Key: logging.FieldMethod, Value: string(result.Method)})

	if o.Output == "" {
		return c.GetWriter().Write(stdout, result, format)
	}
	if err := c.GetWriter().WriteFile(o.Output, result, format); err != nil {
		return err
	}
	logger.Info("Result written",
		logging.Field{Key: logging.FieldOutputFile, Value: o.Output})
	return nil
}
