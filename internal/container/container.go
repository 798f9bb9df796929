// Package container provides dependency injection for the stmt-extract
// application. It centralizes the creation and wiring of all application
// dependencies, making them explicit and testable.
package container

import (
	"context"
	"fmt"
	"unicode/utf8"

	"fjacquet/stmt-extract/internal/aiclient"
	"fjacquet/stmt-extract/internal/categorizer"
	"fjacquet/stmt-extract/internal/config"
	"fjacquet/stmt-extract/internal/export"
	"fjacquet/stmt-extract/internal/extractor"
	"fjacquet/stmt-extract/internal/logging"
	"fjacquet/stmt-extract/internal/models"
	"fjacquet/stmt-extract/internal/store"
	"fjacquet/stmt-extract/internal/textsource"
)

// Container holds all application dependencies. It is immutable after
// creation; dependencies are reached through getters.
type Container struct {
	logger      logging.Logger
	config      *config.Config
	store       *store.CategoryStore
	aiClient    aiclient.Client
	categorizer *categorizer.Categorizer
	extractor   *extractor.Extractor
	source      textsource.Source
	writer      *export.Writer
}

// Option customizes NewContainer.
type Option func(*options)

type options struct {
	logger    logging.Logger
	aiClient  aiclient.Client
	imageSrc  textsource.Source
	ocrRunner textsource.CommandRunner
	disableAI bool
}

// WithLogger replaces the logger built from the configuration.
func WithLogger(l logging.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithAIClient supplies the AI client instead of building one from the
// configuration.
func WithAIClient(c aiclient.Client) Option {
	return func(o *options) { o.aiClient = c }
}

// WithImageSource replaces the Tesseract OCR source.
func WithImageSource(s textsource.Source) Option {
	return func(o *options) { o.imageSrc = s }
}

// WithOCRRunner replaces the command runner of the Tesseract source.
func WithOCRRunner(run textsource.CommandRunner) Option {
	return func(o *options) { o.ocrRunner = run }
}

// WithoutAI disables the AI stage regardless of configuration.
func WithoutAI() Option {
	return func(o *options) { o.disableAI = true }
}

// NewContainer creates and wires all application dependencies.
//
// AI client construction failures are logged and leave the AI stage
// disabled; extraction still runs on the remaining stages.
func NewContainer(ctx context.Context, cfg *config.Config, opts ...Option) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration cannot be nil")
	}

	var o options
	for _, opt := range opts {
		opt(&o)
	}

	logger := o.logger
	if logger == nil {
		logger = config.NewLogger(cfg)
	}

	categoryStore := store.NewCategoryStore(cfg.Categories.File, cfg.Categories.PayeesFile, logger)

	aiClient := o.aiClient
	switch {
	case o.disableAI:
		aiClient = nil
		logger.Info("AI structuring disabled")
	case aiClient != nil:
		logger.Info("AI structuring enabled with supplied client")
	case cfg.AI.Enabled:
		client, err := aiclient.New(ctx, aiclient.Settings{
			Provider: cfg.AI.Provider,
			Model:    cfg.AI.Model,
			APIKey:   cfg.AI.APIKey,
			Project:  cfg.AI.Project,
			Location: cfg.AI.Location,
		}, logger)
		if err != nil {
			logger.WithError(err).Warn("AI client unavailable, continuing without AI structuring")
		} else {
			aiClient = client
			logger.Info("AI structuring enabled",
				logging.Field{Key: logging.FieldProvider, Value: cfg.AI.Provider},
				logging.Field{Key: logging.FieldModel, Value: cfg.AI.Model})
		}
	default:
		logger.Info("AI structuring disabled")
	}

	var categorizerClient aiclient.Client
	if cfg.AI.Categorize {
		categorizerClient = aiClient
	}
	cat := categorizer.NewCategorizer(categoryStore, categorizerClient, cfg.AI.Timeout(), logger)

	ext := extractor.NewDefault(aiClient, extractor.Options{
		AITimeout: cfg.AI.Timeout(),
		Vision:    cfg.AI.Vision,
	}, logger).WithCategorizer(cat)

	imageSrc := o.imageSrc
	if imageSrc == nil {
		ocr := textsource.NewTesseractOCR(textsource.OCRSettings{
			TesseractPath: cfg.Extraction.TesseractPath,
			Language:      cfg.Extraction.OCRLanguage,
			MinChars:      cfg.Extraction.MinOCRChars,

			KeepImageOnFailure: aiClient != nil && cfg.AI.Vision,
		}, logger)
		if o.ocrRunner != nil {
			ocr.WithRunner(o.ocrRunner)
		}
		imageSrc = ocr
	}
	source := textsource.NewRouter(
		textsource.NewPDFText(logger),
		imageSrc,
		textsource.PlainText{},
		cfg.Extraction.MaxFileSize(),
		logger,
	)

	delimiter, _ := utf8.DecodeRuneInString(cfg.CSV.Delimiter)
	if delimiter == utf8.RuneError {
		delimiter = ','
	}

	logger.Debug("Container initialized successfully",
		logging.Field{Key: "ai_enabled", Value: aiClient != nil},
		logging.Field{Key: "strategies", Value: len(ext.Strategies())},
		logging.Field{Key: "categorizers", Value: cat.StrategyNames()})

	return &Container{
		logger:      logger,
		config:      cfg,
		store:       categoryStore,
		aiClient:    aiClient,
		categorizer: cat,
		extractor:   ext,
		source:      source,
		writer:      export.NewWriter(delimiter, logger),
	}, nil
}

// Process acquires text from the upload and runs the extraction chain.
func (c *Container) Process(ctx context.Context, upload textsource.Upload) (*models.ExtractionResult, error) {
	doc, err := c.source.Extract(ctx, upload)
	if err != nil {
		return nil, err
	}
	return c.extractor.Extract(ctx, doc)
}

// GetLogger returns the container's logger instance.
func (c *Container) GetLogger() logging.Logger {
	return c.logger
}

// GetConfig returns the container's configuration instance.
func (c *Container) GetConfig() *config.Config {
	return c.config
}

// GetCategorizer returns the categorization chain.
func (c *Container) GetCategorizer() *categorizer.Categorizer {
	return c.categorizer
}

// GetStore returns the category store.
func (c *Container) GetStore() *store.CategoryStore {
	return c.store
}

// GetAIClient returns the AI client, or nil when AI is disabled.
func (c *Container) GetAIClient() aiclient.Client {
	return c.aiClient
}

// GetExtractor returns the extraction chain.
func (c *Container) GetExtractor() *extractor.Extractor {
	return c.extractor
}

// GetSource returns the raw text source.
func (c *Container) GetSource() textsource.Source {
	return c.source
}

// GetWriter returns the result writer.
func (c *Container) GetWriter() *export.Writer {
	return c.writer
}

// Close releases the AI client.
func (c *Container) Close() error {
	if c.aiClient != nil {
		if err := c.aiClient.Close(); err != nil {
			return fmt.Errorf("failed to close AI client: %w", err)
		}
	}
	c.logger.Debug("Container closed")
	return nil
}
