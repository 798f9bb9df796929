// Package aiclient is the boundary to the hosted language model used to
// structure statement text and to categorize payees. It owns prompt
// construction and the strict decoding of the model's replies; the model
// itself is opaque.
package aiclient

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"fjacquet/stmt-extract/internal/logging"
)

// Supported providers.
const (
	ProviderGemini = "gemini"
	ProviderVertex = "vertex"
)

// DefaultModel is used when no model is configured.
const DefaultModel = "gemini-2.0-flash"

// ErrNotConfigured means the selected provider lacks credentials.
var ErrNotConfigured = errors.New("AI client not configured")

// Request is one text-in (or text+image-in) call.
type Request struct {
	Prompt   string
	Image    []byte
	MIMEType string
}

// HasImage reports whether the request carries inline image data.
func (r Request) HasImage() bool {
	return len(r.Image) > 0
}

// Client generates a raw text reply for a request. Implementations make a
// single attempt; retries and fallbacks belong to the caller.
type Client interface {
	Generate(ctx context.Context, req Request) (string, error)
	Close() error
}

// Settings selects and configures a provider.
type Settings struct {
	Provider string
	Model    string
	APIKey   string
	Project  string
	Location string
}

// New builds the client for s.Provider. An empty provider means gemini.
func New(ctx context.Context, s Settings, logger logging.Logger) (Client, error) {
	if s.Model == "" {
		s.Model = DefaultModel
	}
	switch strings.ToLower(strings.TrimSpace(s.Provider)) {
	case "", ProviderGemini:
		if s.APIKey == "" {
			return nil, fmt.Errorf("%w: gemini provider requires an API key (GEMINI_API_KEY)", ErrNotConfigured)
		}
		return NewGeminiClient(ctx, s.APIKey, s.Model, logger)
	case ProviderVertex:
		if s.Project == "" || s.Location == "" {
			return nil, fmt.Errorf("%w: vertex provider requires project and location", ErrNotConfigured)
		}
		return NewVertexClient(ctx, s.Project, s.Location, s.Model, logger)
	default:
		return nil, fmt.Errorf("unknown AI provider %q", s.Provider)
	}
}
