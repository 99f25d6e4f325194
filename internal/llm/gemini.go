package llm

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// DefaultGeminiModel is the default Gemini model for text generation.
const DefaultGeminiModel = "gemini-2.5-flash"

// GeminiClient implements Agent with Google Gemini.
type GeminiClient struct {
	apiKey      string
	modelName   string
	temperature float32
	maxTokens   int32
	gClient     *genai.Client
}

// GeminiOptions configures a GeminiClient.
type GeminiOptions struct {
	APIKey      string
	Model       string
	Temperature float32
	MaxTokens   int32
}

// NewGeminiClient creates a Gemini-backed agent.
func NewGeminiClient(ctx context.Context, opts GeminiOptions) (*GeminiClient, error) {
	if opts.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required. Set GEMINI_API_KEY environment variable or ai.gemini.api_key in config file")
	}
	if opts.Model == "" {
		opts.Model = DefaultGeminiModel
	}

	gClient, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  opts.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiClient{
		apiKey:      opts.APIKey,
		modelName:   opts.Model,
		temperature: opts.Temperature,
		maxTokens:   opts.MaxTokens,
		gClient:     gClient,
	}, nil
}

// Model returns the model name.
func (c *GeminiClient) Model() string {
	return c.modelName
}

// GenaiClient exposes the underlying SDK client so image generation can share it.
func (c *GeminiClient) GenaiClient() *genai.Client {
	return c.gClient
}

// Generate generates text, as JSON when req.Schema is set.
func (c *GeminiClient) Generate(ctx context.Context, req Request) (string, error) {
	if req.Prompt == "" {
		return "", ErrEmptyPrompt
	}

	contents := []*genai.Content{{
		Parts: []*genai.Part{{Text: req.Prompt}},
		Role:  "user",
	}}

	config := &genai.GenerateContentConfig{}
	if req.System != "" {
		config.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: req.System}}}
	}
	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = c.maxTokens
	}
	if maxTokens > 0 {
		config.MaxOutputTokens = maxTokens
	}
	temp := req.Temperature
	if temp == 0 {
		temp = c.temperature
	}
	if temp > 0 {
		config.Temperature = &temp
	}
	if req.Schema != nil {
		config.ResponseMIMEType = "application/json"
		config.ResponseSchema = req.Schema.Genai()
	}

	resp, err := c.gClient.Models.GenerateContent(ctx, c.modelName, contents, config)
	if err != nil {
		return "", fmt.Errorf("failed to generate text: %w", err)
	}

	text := resp.Text()
	if text == "" {
		return "", ErrEmptyResponse
	}

	return text, nil
}
