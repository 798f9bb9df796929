package extractor

import (
	"context"
	"fmt"
	"time"

	"fjacquet/stmt-extract/internal/aiclient"
	"fjacquet/stmt-extract/internal/logging"
	"fjacquet/stmt-extract/internal/models"
)

// AIStrategy asks a language model to structure the document. It makes one
// bounded call; any error, timeout or unusable reply sends the chain to the
// next stage.
type AIStrategy struct {
	client  aiclient.Client
	timeout time.Duration
	vision  bool
	logger  logging.Logger
}

// NewAIStrategy creates the AI stage. A zero timeout means DefaultAITimeout.
func NewAIStrategy(client aiclient.Client, timeout time.Duration, vision bool, logger logging.Logger) *AIStrategy {
	if timeout <= 0 {
		timeout = DefaultAITimeout
	}
	return &AIStrategy{
		client:  client,
		timeout: timeout,
		vision:  vision,
		logger:  logging.OrDefault(logger),
	}
}

func (s *AIStrategy) Name() string { return "ai" }
func (s *AIStrategy) Step() string { return StepAI }

// Applies reports whether a client is configured and doc carries something
// to send: an image in vision mode, or text.
func (s *AIStrategy) Applies(doc models.Document) bool {
	if s.client == nil {
		return false
	}
	return (s.vision && doc.IsImage()) || doc.HasText()
}

// Attempt sends the image with the vision prompt when vision is enabled and
// the document is an image, otherwise the recovered text.
func (s *AIStrategy) Attempt(ctx context.Context, doc models.Document) (*models.ExtractionResult, error) {
	if s.client == nil {
		s.logger.Debug("AI client not available, skipping AI structuring",
			logging.Field{Key: logging.FieldStage, Value: s.Name()})
		return nil, nil
	}

	var req aiclient.Request
	switch {
	case s.vision && doc.IsImage():
		req = aiclient.Request{Prompt: aiclient.BuildVisionPrompt(), Image: doc.Image, MIMEType: doc.MIMEType}
	case doc.HasText():
		req = aiclient.Request{Prompt: aiclient.BuildPrompt(doc.Text)}
	default:
		return nil, nil
	}

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	raw, err := s.client.Generate(callCtx, req)
	if err != nil {
		return nil, fmt.Errorf("AI structuring call: %w", err)
	}

	items, err := aiclient.DecodeLineItems(raw)
	if err != nil {
		return nil, err
	}
	return models.NewExtractionResult(models.MethodAI, items), nil
}
