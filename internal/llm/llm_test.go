package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"google.golang.org/genai"

	"seoforge/internal/config"
)

type briefPayload struct {
	Sections []string `json:"sections"`
	Intent   string   `json:"intent"`
}

func TestGenerateJSON(t *testing.T) {
	agent := NewMockAgent("```json\n{\"sections\":[\"Intro\",\"Pricing\"],\"intent\":\"commercial\"}\n```")

	got, err := GenerateJSON[briefPayload](context.Background(), agent, Request{Operation: "brief", Prompt: "p"})
	if err != nil {
		t.Fatalf("GenerateJSON failed: %v", err)
	}
	want := briefPayload{Sections: []string{"Intro", "Pricing"}, Intent: "commercial"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("payload mismatch (-want +got):\n%s", diff)
	}
}

func TestGenerateJSONErrors(t *testing.T) {
	ctx := context.Background()

	if _, err := GenerateJSON[briefPayload](ctx, NewMockAgent("x"), Request{}); !errors.Is(err, ErrEmptyPrompt) {
		t.Errorf("Expected ErrEmptyPrompt, got %v", err)
	}

	failing := &MockAgent{Err: errors.New("quota exceeded")}
	if _, err := GenerateJSON[briefPayload](ctx, failing, Request{Prompt: "p"}); err == nil || err.Error() != "quota exceeded" {
		t.Errorf("Expected agent error, got %v", err)
	}

	if _, err := GenerateJSON[briefPayload](ctx, NewMockAgent("not json"), Request{Prompt: "p", Operation: "brief"}); err == nil {
		t.Error("Expected decode error")
	}

	if _, err := GenerateJSON[briefPayload](ctx, NewMockAgent("```\n```"), Request{Prompt: "p"}); !errors.Is(err, ErrEmptyResponse) {
		t.Errorf("Expected ErrEmptyResponse, got %v", err)
	}
}

func TestStripCodeFence(t *testing.T) {
	tests := map[string]string{
		"plain":                    "plain",
		"```\nbody\n```":           "body",
		"```markdown\n# Title\n```": "# Title",
		"  ```json\n{}\n```  ":     "{}",
	}
	for in, want := range tests {
		if got := StripCodeFence(in); got != want {
			t.Errorf("StripCodeFence(%q) = %q, want %q", in, got, want)
		}
	}
}

func testSchema() *Schema {
	return Object(
		Prop("title", String("Article title")),
		Prop("images", ArrayOf(Object(
			Prop("type", Enum("Image role", "hero", "section", "diagram")),
			Prop("count", Integer("")),
		), "")),
	)
}

func TestSchemaGenai(t *testing.T) {
	got := testSchema().Genai()

	if got.Type != genai.TypeObject {
		t.Errorf("Expected object type, got %v", got.Type)
	}
	if diff := cmp.Diff([]string{"title", "images"}, got.Required); diff != "" {
		t.Errorf("required mismatch (-want +got):\n%s", diff)
	}
	item := got.Properties["images"].Items
	if item == nil || item.Properties["type"].Type != genai.TypeString {
		t.Fatalf("Expected nested item schema, got %+v", item)
	}
	if diff := cmp.Diff([]string{"hero", "section", "diagram"}, item.Properties["type"].Enum); diff != "" {
		t.Errorf("enum mismatch (-want +got):\n%s", diff)
	}
}

func TestSchemaJSONSchemaIsStrict(t *testing.T) {
	got := testSchema().JSONSchema()

	if got["additionalProperties"] != false {
		t.Error("Expected additionalProperties false on objects")
	}
	items := got["properties"].(map[string]any)["images"].(map[string]any)["items"].(map[string]any)
	if diff := cmp.Diff([]string{"type", "count"}, items["required"]); diff != "" {
		t.Errorf("nested required mismatch (-want +got):\n%s", diff)
	}
}

func TestNewAgentValidation(t *testing.T) {
	if _, err := NewAgent(context.Background(), config.AI{Provider: "gemini"}); err == nil {
		t.Error("Expected error without Gemini API key")
	}
	if _, err := NewAgent(context.Background(), config.AI{Provider: "openai"}); err == nil {
		t.Error("Expected error without OpenAI API key")
	}
	if _, err := NewAgent(context.Background(), config.AI{Provider: "llama"}); err == nil {
		t.Error("Expected error for unknown provider")
	}
	agent, err := NewAgent(context.Background(), config.AI{Provider: "openai", OpenAI: config.OpenAIConfig{APIKey: "sk-test"}})
	if err != nil || agent.Model() != DefaultOpenAIModel {
		t.Errorf("Expected OpenAI agent with default model, got %v %v", agent, err)
	}
}

func TestTracedAgentPassesThrough(t *testing.T) {
	mock := NewMockAgent(`{"ok":true}`)
	traced := NewTracedAgent(mock, nil)

	out, err := traced.Generate(context.Background(), Request{Prompt: "p", Operation: "content"})
	if err != nil || out != `{"ok":true}` {
		t.Errorf("unexpected result %q %v", out, err)
	}
	if mock.Calls() != 1 || traced.Model() != "mock" {
		t.Errorf("Expected one call through to mock")
	}
}
