package aiclient

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"fjacquet/stmt-extract/internal/logging"
)

// VertexClient calls Gemini models through Vertex AI using application
// default credentials.
type VertexClient struct {
	client    *genai.Client
	modelName string
	logger    logging.Logger
}

// NewVertexClient creates a Vertex AI backed client.
func NewVertexClient(ctx context.Context, project, location, modelName string, logger logging.Logger) (*VertexClient, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		Project:  project,
		Location: location,
		Backend:  genai.BackendVertexAI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return &VertexClient{
		client:    client,
		modelName: modelName,
		logger:    logging.OrDefault(logger),
	}, nil
}

// Generate sends one user turn and asks for a JSON reply.
func (c *VertexClient) Generate(ctx context.Context, req Request) (string, error) {
	parts := []*genai.Part{{Text: req.Prompt}}
	if req.HasImage() {
		parts = append(parts, &genai.Part{
			InlineData: &genai.Blob{MIMEType: req.MIMEType, Data: req.Image},
		})
	}
	contents := []*genai.Content{{Role: "user", Parts: parts}}

	c.logger.Debug("Sending request to Vertex AI",
		logging.Field{Key: logging.FieldProvider, Value: ProviderVertex},
		logging.Field{Key: logging.FieldModel, Value: c.modelName})

	resp, err := c.client.Models.GenerateContent(ctx, c.modelName, contents, &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		Temperature:      genai.Ptr[float32](0),
	})
	if err != nil {
		return "", fmt.Errorf("vertex generate content: %w", err)
	}

	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("vertex returned an empty response")
	}
	return text, nil
}

// Close is a no-op; the genai client holds no resources that need release.
func (c *VertexClient) Close() error {
	return nil
}
