// Package extractor turns raw statement or receipt text into signed line
// items. Extraction is an ordered chain of strategies; the first strategy
// that returns a non-empty result wins and later ones are not run.
package extractor

import (
	"context"
	"time"

	"fjacquet/stmt-extract/internal/aiclient"
	"fjacquet/stmt-extract/internal/logging"
	"fjacquet/stmt-extract/internal/models"
	"fjacquet/stmt-extract/internal/parsererror"
)

// User-facing step names reported when every strategy fails.
const (
	StepAI  = "ai"
	StepOCR = "ocr"
)

// Strategy is one stage of the chain. Attempt returns nil (or an empty
// result) when it finds nothing; a non-nil error is logged and treated the
// same way.
type Strategy interface {
	Attempt(ctx context.Context, doc models.Document) (*models.ExtractionResult, error)

	// Name identifies the strategy in logs.
	Name() string

	// Step is the user-facing step this strategy belongs to.
	Step() string
}

// Applicable is implemented by strategies that can tell before running
// that a document gives them nothing to work with. A skipped strategy is
// not reported as tried.
type Applicable interface {
	Applies(doc models.Document) bool
}

// Categorizer assigns a category to a line item description.
type Categorizer interface {
	Categorize(ctx context.Context, description string) (string, bool)
}

// Options configures the default chain.
type Options struct {
	AITimeout time.Duration
	Vision    bool
}

// DefaultAITimeout bounds the model call when Options.AITimeout is zero.
const DefaultAITimeout = 30 * time.Second

// Extractor runs the strategy chain. It holds no per-call state and is safe
// for concurrent use.
type Extractor struct {
	strategies  []Strategy
	categorizer Categorizer
	logger      logging.Logger
}

// New builds an extractor over an explicit strategy list.
func New(logger logging.Logger, strategies ...Strategy) *Extractor {
	return &Extractor{
		strategies: strategies,
		logger:     logging.OrDefault(logger),
	}
}

// NewDefault builds the standard chain: AI structuring, statement line
// patterns, column reconstruction, then the single-receipt fallback. With a
// nil client the AI stage is skipped and not reported as tried.
func NewDefault(client aiclient.Client, opts Options, logger logging.Logger) *Extractor {
	logger = logging.OrDefault(logger)
	return New(logger,
		NewAIStrategy(client, opts.AITimeout, opts.Vision, logger),
		NewRegexStrategy(logger),
		NewColumnStrategy(logger),
		NewReceiptStrategy(logger),
	)
}

// WithCategorizer sets the categorizer applied to items that arrive
// without a category.
func (e *Extractor) WithCategorizer(c Categorizer) *Extractor {
	e.categorizer = c
	return e
}

// Strategies returns the chain in evaluation order.
func (e *Extractor) Strategies() []Strategy {
	out := make([]Strategy, len(e.strategies))
	copy(out, e.strategies)
	return out
}

// Extract runs the chain over doc. It returns the first non-empty result,
// ctx.Err() if the caller cancelled, or an *parsererror.ExtractionFailedError
// naming the steps that were tried.
func (e *Extractor) Extract(ctx context.Context, doc models.Document) (*models.ExtractionResult, error) {
	var steps []string

	for _, s := range e.strategies {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		log := e.logger.WithFields(
			logging.Field{Key: logging.FieldStage, Value: s.Name()},
			logging.Field{Key: logging.FieldFile, Value: doc.FileName},
		)
		if a, ok := s.(Applicable); ok && !a.Applies(doc) {
			log.Debug("Extraction stage not applicable, skipping")
			continue
		}
		steps = appendStep(steps, s.Step())

		start := time.Now()
		result, err := s.Attempt(ctx, doc)
		elapsed := time.Since(start).Milliseconds()

		if err != nil {
			log.WithError(err).Warn("Extraction stage failed, falling back",
				logging.Field{Key: logging.FieldDuration, Value: elapsed})
			continue
		}
		if result.IsEmpty() {
			log.Info("Extraction stage found no transactions",
				logging.Field{Key: logging.FieldDuration, Value: elapsed})
			continue
		}

		log.Info("Extraction stage succeeded",
			logging.Field{Key: logging.FieldMethod, Value: result.Method},
			logging.Field{Key: logging.FieldCount, Value: len(result.LineItems)},
			logging.Field{Key: logging.FieldDuration, Value: elapsed})
		return e.categorize(ctx, result), nil
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	e.logger.Error("No extraction stage produced transactions",
		logging.Field{Key: logging.FieldFile, Value: doc.FileName},
		logging.Field{Key: "steps_tried", Value: steps})
	return nil, &parsererror.ExtractionFailedError{Steps: steps}
}

// categorize returns a copy of r with categories filled in, leaving r
// untouched.
func (e *Extractor) categorize(ctx context.Context, r *models.ExtractionResult) *models.ExtractionResult {
	if e.categorizer == nil {
		return r
	}

	items := make([]models.ExtractedTransaction, len(r.LineItems))
	copy(items, r.LineItems)
	var stats models.CategorizationStats
	for i := range items {
		if items[i].Category != "" {
			stats.Record(true, false)
			continue
		}
		category, ok := e.categorizer.Categorize(ctx, items[i].Description)
		if ok {
			items[i].Category = category
		}
		stats.Record(false, ok)
	}
	stats.LogSummary(e.logger, r.Method)
	return &models.ExtractionResult{LineItems: items, Method: r.Method}
}

func appendStep(steps []string, step string) []string {
	for _, s := range steps {
		if s == step {
			return steps
		}
	}
	return append(steps, step)
}
