// Package llm provides the text-generation agent shared by the brief,
// content and image-planning stages.
package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrEmptyResponse is returned when the model produced no text
	ErrEmptyResponse = errors.New("empty response from LLM")
	// ErrEmptyPrompt is returned for a request without a prompt
	ErrEmptyPrompt = errors.New("prompt cannot be empty")
)

// Request is one structured generation call.
type Request struct {
	Operation   string  // brief, content, image_plan; used for logs and analytics
	System      string  // System instructions
	Prompt      string
	Schema      *Schema // Optional structured output schema
	SchemaName  string
	Temperature float32
	MaxTokens   int32
}

// Agent generates text, optionally constrained to a JSON schema.
type Agent interface {
	Generate(ctx context.Context, req Request) (string, error)
	Model() string
}

// GenerateJSON runs req against agent and decodes the JSON result into T.
func GenerateJSON[T any](ctx context.Context, agent Agent, req Request) (T, error) {
	var out T
	if strings.TrimSpace(req.Prompt) == "" {
		return out, ErrEmptyPrompt
	}
	text, err := agent.Generate(ctx, req)
	if err != nil {
		return out, err
	}
	text = StripCodeFence(text)
	if text == "" {
		return out, ErrEmptyResponse
	}
	if err := json.Unmarshal([]byte(text), &out); err != nil {
		return out, fmt.Errorf("failed to decode %s response: %w", req.Operation, err)
	}
	return out, nil
}

// StripCodeFence removes a single wrapping ``` fence, with or without a language tag.
func StripCodeFence(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	nl := strings.IndexByte(text, '\n')
	if nl < 0 {
		return strings.TrimSpace(strings.Trim(text, "`"))
	}
	body := text[nl+1:]
	body = strings.TrimSpace(body)
	body = strings.TrimSuffix(body, "```")
	return strings.TrimSpace(body)
}
