package categorizer

import (
	"context"
	"strings"
	"time"

	"fjacquet/stmt-extract/internal/aiclient"
	"fjacquet/stmt-extract/internal/logging"
	"fjacquet/stmt-extract/internal/models"
)

// DefaultAITimeout bounds one categorization call.
const DefaultAITimeout = 10 * time.Second

// AIStrategy asks the model to pick one of the known categories for a
// payee. Replies naming anything outside the list are rejected.
type AIStrategy struct {
	client     aiclient.Client
	categories []string
	timeout    time.Duration
	logger     logging.Logger
}

// NewAIStrategy creates the AI fallback. A zero timeout means
// DefaultAITimeout.
func NewAIStrategy(client aiclient.Client, categories []string, timeout time.Duration, logger logging.Logger) *AIStrategy {
	if timeout <= 0 {
		timeout = DefaultAITimeout
	}
	return &AIStrategy{
		client:     client,
		categories: categories,
		timeout:    timeout,
		logger:     logging.OrDefault(logger),
	}
}

func (s *AIStrategy) Name() string { return "AI" }

func (s *AIStrategy) Categorize(ctx context.Context, description string) (string, bool, error) {
	if s.client == nil {
		s.logger.Debug("AI client not available, skipping AI categorization",
			logging.Field{Key: "strategy", Value: s.Name()})
		return "", false, nil
	}
	if strings.TrimSpace(description) == "" || len(s.categories) == 0 {
		return "", false, nil
	}

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	raw, err := s.client.Generate(callCtx, aiclient.Request{
		Prompt: aiclient.BuildCategoryPrompt(description, s.categories),
	})
	if err != nil {
		return "", false, err
	}

	reply, err := aiclient.DecodeCategory(raw, s.categories)
	if err != nil {
		return "", false, err
	}
	if reply.Category == models.CategoryUncategorized {
		s.logger.Debug("AI returned uncategorized result",
			logging.Field{Key: "payee", Value: description})
		return "", false, nil
	}

	s.logger.Debug("Line item categorized using AI",
		logging.Field{Key: "strategy", Value: s.Name()},
		logging.Field{Key: "payee", Value: description},
		logging.Field{Key: logging.FieldCategory, Value: reply.Category},
		logging.Field{Key: "confidence", Value: reply.Confidence})
	return reply.Category, true, nil
}
