// Package visual generates article images and re-hosts them in object storage.
package visual

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/genai"

	"seoforge/internal/config"
)

// ErrNoImage is returned when the service answered without an image.
var ErrNoImage = errors.New("image service returned no image")

// Image is a generated image. Either Data or URL is set.
type Image struct {
	Data        []byte
	ContentType string
	URL         string
}

// Provider is an image-generation service.
type Provider interface {
	Generate(ctx context.Context, prompt, aspectRatio string) (Image, error)
	Name() string
}

// NewProvider builds the configured provider. gClient may be nil; it is
// reused for Imagen when the text agent already created one.
func NewProvider(ctx context.Context, cfg config.Config, gClient *genai.Client) (Provider, error) {
	provider := cfg.Images.Provider
	if provider == "" {
		provider = cfg.AI.Provider
	}
	switch provider {
	case "", "gemini":
		if gClient == nil {
			if cfg.AI.Gemini.APIKey == "" {
				return nil, fmt.Errorf("gemini API key is required for image generation")
			}
			c, err := genai.NewClient(ctx, &genai.ClientConfig{
				APIKey:  cfg.AI.Gemini.APIKey,
				Backend: genai.BackendGeminiAPI,
			})
			if err != nil {
				return nil, fmt.Errorf("failed to create Gemini client: %w", err)
			}
			gClient = c
		}
		return NewImagenProvider(gClient.Models, cfg.AI.Gemini.ImageModel), nil
	case "openai":
		return NewOpenAIProvider(OpenAIOptions{
			APIKey:  cfg.AI.OpenAI.APIKey,
			Model:   cfg.AI.OpenAI.ImageModel,
			BaseURL: cfg.AI.OpenAI.BaseURL,
		})
	default:
		return nil, fmt.Errorf("unsupported image provider: %s", provider)
	}
}
