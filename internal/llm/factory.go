package llm

import (
	"context"
	"fmt"

	"seoforge/internal/config"
)

// NewAgent creates the text agent selected by ai.provider.
func NewAgent(ctx context.Context, cfg config.AI) (Agent, error) {
	switch cfg.Provider {
	case "gemini", "":
		return NewGeminiClient(ctx, GeminiOptions{
			APIKey:      cfg.Gemini.APIKey,
			Model:       cfg.Gemini.Model,
			Temperature: cfg.Gemini.Temperature,
			MaxTokens:   cfg.Gemini.MaxTokens,
		})
	case "openai":
		return NewOpenAIClient(OpenAIOptions{
			APIKey:  cfg.OpenAI.APIKey,
			Model:   cfg.OpenAI.Model,
			BaseURL: cfg.OpenAI.BaseURL,
		})
	default:
		return nil, fmt.Errorf("unsupported AI provider: %s", cfg.Provider)
	}
}
