package llm

import (
	"context"
	"errors"
	"fmt"

	openai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// DefaultOpenAIModel is the default chat model.
const DefaultOpenAIModel = "gpt-4o"

// OpenAIClient implements Agent using chat completions with JSON schema output.
type OpenAIClient struct {
	model string
	opts  []option.RequestOption
}

// OpenAIOptions configures an OpenAIClient.
type OpenAIOptions struct {
	APIKey  string
	Model   string
	BaseURL string
}

// NewOpenAIClient creates an OpenAI-backed agent.
func NewOpenAIClient(cfg OpenAIOptions) (*OpenAIClient, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("openai api key missing; set OPENAI_API_KEY or ai.openai.api_key")
	}
	if cfg.Model == "" {
		cfg.Model = DefaultOpenAIModel
	}
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	return &OpenAIClient{model: cfg.Model, opts: opts}, nil
}

// Model returns the model name.
func (o *OpenAIClient) Model() string {
	return o.model
}

// Generate runs a chat completion.
func (o *OpenAIClient) Generate(ctx context.Context, req Request) (string, error) {
	if req.Prompt == "" {
		return "", ErrEmptyPrompt
	}
	client := openai.NewClient(o.opts...)

	var msgs []openai.ChatCompletionMessageParamUnion
	if req.System != "" {
		msgs = append(msgs, openai.SystemMessage(req.System))
	}
	msgs = append(msgs, openai.UserMessage(req.Prompt))

	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(o.model),
		Messages: msgs,
	}
	if req.Temperature > 0 {
		params.Temperature = openai.Float(float64(req.Temperature))
	}
	if req.MaxTokens > 0 {
		params.MaxCompletionTokens = openai.Int(int64(req.MaxTokens))
	}
	if req.Schema != nil {
		name := req.SchemaName
		if name == "" {
			name = "response"
		}
		params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONSchema: &openai.ResponseFormatJSONSchemaParam{
				JSONSchema: openai.ResponseFormatJSONSchemaJSONSchemaParam{
					Name:   name,
					Schema: req.Schema.JSONSchema(),
					Strict: openai.Bool(true),
				},
			},
		}
	}

	resp, err := client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("openai: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("openai: empty choices")
	}
	content := resp.Choices[0].Message.Content
	if content == "" {
		return "", ErrEmptyResponse
	}
	return content, nil
}
