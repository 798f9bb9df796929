package aiclient

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"fjacquet/stmt-extract/internal/logging"
)

// GeminiClient talks to the Gemini API with an API key.
type GeminiClient struct {
	client    *genai.Client
	model     *genai.GenerativeModel
	modelName string
	logger    logging.Logger
}

// NewGeminiClient creates a Gemini client for modelName.
func NewGeminiClient(ctx context.Context, apiKey, modelName string, logger logging.Logger) (*GeminiClient, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	model := client.GenerativeModel(modelName)
	model.SetTemperature(0)

	return &GeminiClient{
		client:    client,
		model:     model,
		modelName: modelName,
		logger:    logging.OrDefault(logger),
	}, nil
}

// Generate sends the prompt, and the image when present, in one call.
func (c *GeminiClient) Generate(ctx context.Context, req Request) (string, error) {
	parts := []genai.Part{genai.Text(req.Prompt)}
	if req.HasImage() {
		parts = append(parts, genai.Blob{MIMEType: req.MIMEType, Data: req.Image})
	}

	c.logger.Debug("Sending request to Gemini",
		logging.Field{Key: logging.FieldProvider, Value: ProviderGemini},
		logging.Field{Key: logging.FieldModel, Value: c.modelName},
		logging.Field{Key: logging.FieldMIMEType, Value: req.MIMEType})

	resp, err := c.model.GenerateContent(ctx, parts...)
	if err != nil {
		return "", fmt.Errorf("gemini generate content: %w", err)
	}
	return responseText(resp)
}

// Close releases the underlying connection.
func (c *GeminiClient) Close() error {
	return c.client.Close()
}

func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("gemini returned no candidates")
	}

	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			b.WriteString(string(text))
		}
	}
	if b.Len() == 0 {
		return "", fmt.Errorf("gemini returned an empty response")
	}
	return b.String(), nil
}
