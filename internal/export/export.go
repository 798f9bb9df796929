// Package export writes extraction results as JSON or CSV.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/gocarina/gocsv"

	"fjacquet/stmt-extract/internal/logging"
	"fjacquet/stmt-extract/internal/models"
)

// Format is an output encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
)

// ParseFormat accepts "json" or "csv" in any case.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatJSON, FormatCSV:
		return f, nil
	case "":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("unsupported output format %q (use json or csv)", s)
	}
}

// csvRow is the flat CSV shape of one line item.
type csvRow struct {
	Date        string `csv:"date"`
	Description string `csv:"description"`
	Amount      string `csv:"amount"`
	Category    string `csv:"category"`
	Method      string `csv:"extraction_method"`
}

// Writer encodes results.
type Writer struct {
	delimiter rune
	logger    logging.Logger
}

// NewWriter creates a writer. A zero delimiter means a comma.
func NewWriter(delimiter rune, logger logging.Logger) *Writer {
	if delimiter == 0 {
		delimiter = ','
	}
	return &Writer{delimiter: delimiter, logger: logging.OrDefault(logger)}
}

// Write encodes result to w in the given format.
func (wr *Writer) Write(w io.Writer, result *models.ExtractionResult, format Format) error {
	if result == nil {
		return fmt.Errorf("cannot write nil result")
	}
	switch format {
	case FormatCSV:
		return wr.WriteCSV(w, result)
	case FormatJSON, "":
		return WriteJSON(w, result)
	default:
		return fmt.Errorf("unsupported output format %q", format)
	}
}

// WriteJSON writes result as indented JSON followed by a newline.
func WriteJSON(w io.Writer, result *models.ExtractionResult) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		return fmt.Errorf("error writing JSON data: %w", err)
	}
	return nil
}

// WriteCSV writes one row per line item with a header row.
func (wr *Writer) WriteCSV(w io.Writer, result *models.ExtractionResult) error {
	rows := make([]csvRow, 0, len(result.LineItems))
	for _, item := range result.LineItems {
		rows = append(rows, csvRow{
			Date:        item.FormattedDate(),
			Description: item.Description,
			Amount:      item.Amount.StringFixed(2),
			Category:    item.Category,
			Method:      string(result.Method),
		})
	}

	csvWriter := csv.NewWriter(w)
	csvWriter.Comma = wr.delimiter
	if err := gocsv.MarshalCSV(rows, gocsv.NewSafeCSVWriter(csvWriter)); err != nil {
		return fmt.Errorf("error writing CSV data: %w", err)
	}
	return nil
}

// WriteFile writes result to path, creating parent directories.
func (wr *Writer) WriteFile(path string, result *models.ExtractionResult, format Format) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, models.PermissionDirectory); err != nil {
			return fmt.Errorf("error creating directory: %w", err)
		}
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, models.PermissionExportFile) // #nosec G304 -- output path is chosen by the user
	if err != nil {
		return fmt.Errorf("error creating output file: %w", err)
	}
	defer func() {
		if err := file.Close(); err != nil {
			wr.logger.WithError(err).Warn("Failed to close output file",
				logging.Field{Key: logging.FieldOutputFile, Value: path})
		}
	}()

	if err := wr.Write(file, result, format); err != nil {
		return err
	}

	wr.logger.Info("Wrote extraction result",
		logging.Field{Key: logging.FieldOutputFile, Value: path},
		logging.Field{Key: logging.FieldFormat, Value: string(format)},
		logging.Field{Key: logging.FieldCount, Value: len(result.LineItems)})
	return nil
}
