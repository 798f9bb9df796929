package textsource

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"

	"fjacquet/stmt-extract/internal/logging"
	"fjacquet/stmt-extract/internal/models"
)

// Defaults for the Tesseract source.
const (
	DefaultTesseractPath = "tesseract"
	DefaultOCRLanguage   = "eng"
	DefaultMinOCRChars   = 50
)

// CommandRunner runs an external command and returns its stdout.
type CommandRunner func(ctx context.Context, name string, args ...string) ([]byte, error)

func execRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...) // #nosec G204 -- binary path comes from configuration
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(stderr.String()))
	}
	return out, nil
}

// OCRSettings configures the Tesseract source.
type OCRSettings struct {
	TesseractPath string
	Language      string
	MinChars      int

	// KeepImageOnFailure returns the image with empty text when tesseract
	// fails, so a vision model can still read it.
	KeepImageOnFailure bool
}

// TesseractOCR runs the tesseract CLI over image uploads. When the first
// pass recovers fewer than MinChars characters it retries on a grayscale,
// contrast-boosted copy and keeps the longer text.
type TesseractOCR struct {
	settings OCRSettings
	run      CommandRunner
	logger   logging.Logger
}

// NewTesseractOCR creates the OCR source. Zero settings take the defaults.
func NewTesseractOCR(settings OCRSettings, logger logging.Logger) *TesseractOCR {
	if settings.TesseractPath == "" {
		settings.TesseractPath = DefaultTesseractPath
	}
	if settings.Language == "" {
		settings.Language = DefaultOCRLanguage
	}
	if settings.MinChars <= 0 {
		settings.MinChars = DefaultMinOCRChars
	}
	return &TesseractOCR{
		settings: settings,
		run:      execRunner,
		logger:   logging.OrDefault(logger),
	}
}

// WithRunner replaces the command runner, for tests.
func (o *TesseractOCR) WithRunner(run CommandRunner) *TesseractOCR {
	o.run = run
	return o
}

func (o *TesseractOCR) Extract(ctx context.Context, u Upload) (models.Document, error) {
	dir, err := os.MkdirTemp("", "stmt-extract-ocr-")
	if err != nil {
		return models.Document{}, fmt.Errorf("failed to create OCR work directory: %w", err)
	}
	defer func() {
		if err := os.RemoveAll(dir); err != nil {
			o.logger.WithError(err).Warn("Failed to remove OCR work directory")
		}
	}()

	input := filepath.Join(dir, uuid.NewString()+"."+u.Ext())
	if err := os.WriteFile(input, u.Data, 0o600); err != nil {
		return models.Document{}, fmt.Errorf("failed to write OCR input: %w", err)
	}

	text, err := o.recognize(ctx, input)
	if err != nil {
		if !o.settings.KeepImageOnFailure || ctx.Err() != nil {
			return models.Document{}, err
		}
		o.logger.WithError(err).Warn("OCR failed, passing the image on without text",
			logging.Field{Key: logging.FieldFile, Value: u.FileName})
		return models.Document{
			FileName: u.FileName,
			Image:    u.Data,
			MIMEType: MIMEType(u.Ext()),
		}, nil
	}

	if len(strings.TrimSpace(text)) < o.settings.MinChars {
		o.logger.Info("OCR recovered little text, retrying on enhanced image",
			logging.Field{Key: logging.FieldFile, Value: u.FileName},
			logging.Field{Key: logging.FieldCount, Value: len(strings.TrimSpace(text))})
		if retry, err := o.retryEnhanced(ctx, u.Data, dir); err != nil {
			o.logger.WithError(err).Warn("Enhanced OCR pass failed",
				logging.Field{Key: logging.FieldFile, Value: u.FileName})
		} else if len(strings.TrimSpace(retry)) > len(strings.TrimSpace(text)) {
			text = retry
		}
	}

	return models.Document{
		FileName: u.FileName,
		Text:     text,
		Image:    u.Data,
		MIMEType: MIMEType(u.Ext()),
	}, nil
}

func (o *TesseractOCR) recognize(ctx context.Context, path string) (string, error) {
	out, err := o.run(ctx, o.settings.TesseractPath, path, "stdout", "-l", o.settings.Language)
	if err != nil {
		return "", fmt.Errorf("OCR failed: %w", err)
	}
	return string(out), nil
}

// retryEnhanced writes a grayscale, contrast-boosted copy, upscaled when
// small, and runs OCR on it.
func (o *TesseractOCR) retryEnhanced(ctx context.Context, data []byte, dir string) (string, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return "", fmt.Errorf("decode image: %w", err)
	}

	enhanced := imaging.AdjustContrast(imaging.Grayscale(img), 30)
	if enhanced.Bounds().Dy() < 800 {
		enhanced = imaging.Resize(enhanced, 0, 1200, imaging.Lanczos)
	}

	path := filepath.Join(dir, uuid.NewString()+".png")
	if err := imaging.Save(enhanced, path); err != nil {
		return "", fmt.Errorf("save enhanced image: %w", err)
	}
	return o.recognize(ctx, path)
}
