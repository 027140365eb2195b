package generate

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// GeminiImageGenerator implements ImageGenerator using Google's Gemini
// image models.
type GeminiImageGenerator struct {
	client *genai.Client
	config ImageConfig
}

// NewGeminiImageGenerator creates a Gemini-backed image generator.
func NewGeminiImageGenerator(ctx context.Context, config ImageConfig) (*GeminiImageGenerator, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("%w: missing API key", ErrInvalidConfig)
	}
	if config.Model == "" {
		return nil, fmt.Errorf("%w: missing model name", ErrInvalidConfig)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  config.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrGenerationFailed, err)
	}

	return &GeminiImageGenerator{
		client: client,
		config: config,
	}, nil
}

// Generate renders an image for the prompt and returns the first inline
// image bytes from the response. Text parts are ignored.
func (g *GeminiImageGenerator) Generate(ctx context.Context, prompt string) ([]byte, error) {
	if prompt == "" {
		return nil, fmt.Errorf("%w: prompt cannot be empty", ErrInvalidConfig)
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.config.Model, genai.Text(prompt), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrGenerationFailed, err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, fmt.Errorf("%w: empty response", ErrNoImage)
	}

	for _, part := range resp.Candidates[0].Content.Parts {
		if part.InlineData != nil && len(part.InlineData.Data) > 0 {
			return part.InlineData.Data, nil
		}
	}

	return nil, ErrNoImage
}
