package generate

import (
	"context"
	"errors"
)

var ErrNoImage = errors.New("no image in generation response")

// ImageGenerator defines the interface for image generation models.
// Implementations must be stateless and thread-safe.
type ImageGenerator interface {
	// Generate renders an image from the prompt and returns its bytes
	// (PNG). Returns an error if generation fails or yields no image.
	Generate(ctx context.Context, prompt string) ([]byte, error)
}

// ImageConfig holds configuration for image generation providers.
type ImageConfig struct {
	// Model specifies the image model identifier
	Model string

	// APIKey is the authentication key for the provider
	APIKey string
}

// DefaultImageConfig returns the default image generation settings.
func DefaultImageConfig() ImageConfig {
	return ImageConfig{
		Model: "gemini-3-pro-image-preview",
	}
}
