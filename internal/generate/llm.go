// Package generate wraps the external generation collaborators: a chat LLM
// for prompt construction and an image model for rendering. It defines
// provider-agnostic interfaces with concrete implementations for OpenAI and
// Gemini, plus deterministic mocks for testing.
package generate

import (
	"context"
	"errors"
)

var (
	ErrLLMFailed        = errors.New("LLM request failed")
	ErrInvalidConfig    = errors.New("invalid generation configuration")
	ErrGenerationFailed = errors.New("generation failed")
)

// LLM defines the interface for interacting with language models.
// Implementations must be stateless and thread-safe.
type LLM interface {
	// Generate produces text from a system instruction and user message.
	// Returns the generated text or an error if generation fails.
	Generate(ctx context.Context, system, user string) (string, error)
}

// LLMConfig holds common configuration options for LLM providers.
type LLMConfig struct {
	// Model specifies the model identifier (e.g., "gpt-4o")
	Model string

	// Temperature controls randomness (0.0 = deterministic, 2.0 = very random)
	Temperature float32

	// MaxTokens limits the response length (0 = use provider default)
	MaxTokens int

	// APIKey is the authentication key for the provider
	APIKey string
}

// DefaultLLMConfig returns sensible defaults for prompt construction.
// Low temperature keeps constructed prompts close to the retrieved context.
func DefaultLLMConfig() LLMConfig {
	return LLMConfig{
		Model:       "gpt-4o",
		Temperature: 0.1,
		MaxTokens:   2000,
	}
}
