// Package batch handles batch extraction of a directory of uploads
package batch

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"fjacquet/stmt-extract/cmd/root"
	"fjacquet/stmt-extract/internal/batch"
	"fjacquet/stmt-extract/internal/container"
	"fjacquet/stmt-extract/internal/export"
	"fjacquet/stmt-extract/internal/fileutils"
	"fjacquet/stmt-extract/internal/logging"
	"fjacquet/stmt-extract/internal/models"
	"fjacquet/stmt-extract/internal/textsource"
)

// SummaryFile is written to the output directory after every run.
const SummaryFile = "summary.json"

// Options are the flags of the batch command.
type Options struct {
	InputDir  string
	OutputDir string
	Format    string
	Password  string
	Workers   int
	NoAI      bool
}

var opts Options

// Cmd represents the batch command
var Cmd = &cobra.Command{
	Use:   "batch",
	Short: "Extract transactions from every file in a directory",
	Long: `Extract transactions from every supported file (pdf, png, jpg, jpeg, webp,
txt) under an input directory. One result file is written per input, plus
a summary.json with counts, totals and per-file errors.

Example:
  stmt-extract batch -i statements/ -o results/ --format csv`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return run(cmd.Context(), opts, root.NewContainer, root.GetLogger())
	},
}

func init() {
	Cmd.Flags().StringVarP(&opts.InputDir, "input", "i", "", "Input directory")
	Cmd.Flags().StringVarP(&opts.OutputDir, "output", "o", "", "Output directory")
	Cmd.Flags().StringVar(&opts.Format, "format", string(export.FormatJSON), "Output format: json or csv")
	Cmd.Flags().StringVar(&opts.Password, "password", "", "Password tried on encrypted PDFs")
	Cmd.Flags().IntVar(&opts.Workers, "workers", 0, "Concurrent extractions (default number of CPUs)")
	Cmd.Flags().BoolVar(&opts.NoAI, "no-ai", false, "Skip the AI structuring stage")
	_ = Cmd.MarkFlagRequired("input")
	_ = Cmd.MarkFlagRequired("output")
}

type containerFactory func(ctx context.Context, opts ...container.Option) (*container.Container, error)

func run(ctx context.Context, o Options, newContainer containerFactory, logger logging.Logger) error {
	if ctx == nil {
		ctx = context.Background()
	}
	logger = logging.OrDefault(logger)

	format, err := export.ParseFormat(o.Format)
	if err != nil {
		return err
	}

	files, err := fileutils.ListFilesWithExtensions(o.InputDir, textsource.AllowedExtensions())
	if err != nil {
		return err
	}
	if len(files) == 0 {
		logger.Warn("No supported files found in input directory",
			logging.Field{Key: logging.FieldInputFile, Value: o.InputDir})
		return nil
	}
	if err := fileutils.EnsureDirectoryExists(o.OutputDir); err != nil {
		return err
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

	runner := batch.NewRunner(c, o.Workers, logger).WithPassword(o.Password)
	logger.Info("Found files for processing",
		logging.Field{Key: logging.FieldCount, Value: len(files)},
		logging.Field{Key: "workers", Value: runner.Workers()})

	results, runErr := runner.Run(ctx, files)

	for _, r := range results {
		if r.Err != nil {
			continue
		}
		out := fileutils.OutputPath(r.File, o.OutputDir, string(format))
		if err := c.GetWriter().WriteFile(out, r.Result, format); err != nil {
			return err
		}
	}

	summary := batch.Summarize(results)
	if err := writeSummary(filepath.Join(o.OutputDir, SummaryFile), summary); err != nil {
		return err
	}

	logger.Info("Batch processing completed",
		logging.Field{Key: "succeeded", Value: summary.Succeeded},
		logging.Field{Key: "failed", Value: summary.Failed},
		logging.Field{Key: logging.FieldCount, Value: summary.Transactions})

	if runErr != nil {
		return runErr
	}
	if summary.Succeeded == 0 {
		return fmt.Errorf("no transactions extracted from %d files", summary.Files)
	}
	return nil
}

func writeSummary(path string, summary batch.Summary) error {
	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return fmt.Errorf("error encoding summary: %w", err)
	}
	if err := fileutils.WriteFile(path, append(data, '\n'), models.PermissionExportFile); err != nil {
		return err
	}
	return nil
}
