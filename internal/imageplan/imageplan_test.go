package imageplan

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"seoforge/internal/core"
	"seoforge/internal/llm"
	"seoforge/internal/markdown"
)

var article = core.GeneratedArticle{
	Title:   "Best Project Management Tools",
	Content: "Lead.\n\n## Intro\n\ntext\n\n## Pricing\n\ntext\n\n## FAQ\n\ntext",
}

func TestPlanScenario(t *testing.T) {
	agent := llm.NewMockAgent(`{"images":[
		{"type":"section","placement":"Intro","prompt":"team planning at a whiteboard","alt":"Team planning","style":""},
		{"type":"hero","placement":"hero","prompt":"modern office dashboard","alt":"","style":"bright"},
		{"type":"section","placement":"Pricing","prompt":"price tags on software boxes","alt":"Pricing","style":""},
		{"type":"diagram","placement":"FAQ","prompt":"question flowchart","alt":"FAQ flow","style":""}
	]}`)
	p := NewPlanner(agent)

	items, err := p.Plan(context.Background(), article)
	if err != nil {
		t.Fatalf("Plan failed: %v", err)
	}
	if len(items) != 4 {
		t.Fatalf("Expected 4 items, got %d", len(items))
	}
	if !items[0].IsHero() || items[0].Alt != "modern office dashboard" {
		t.Errorf("hero must come first with alt fallback, got %+v", items[0])
	}
	var placements []string
	for _, it := range items[1:] {
		placements = append(placements, it.Placement)
	}
	if diff := cmp.Diff([]string{"Intro", "Pricing", "FAQ"}, placements); diff != "" {
		t.Errorf("placements mismatch (-want +got):\n%s", diff)
	}

	prompt := agent.Requests[0].Prompt
	for _, want := range []string{"FIRST THIRD:\n1. Intro", "MIDDLE THIRD:\n2. Pricing", "LAST THIRD:\n3. FAQ"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q:\n%s", want, prompt)
		}
	}
}

func TestPlanFallsBackToHeroOnly(t *testing.T) {
	tests := []struct {
		name  string
		agent *llm.MockAgent
	}{
		{"agent error", &llm.MockAgent{Err: errors.New("quota")}},
		{"no images", llm.NewMockAgent(`{"images":[]}`)},
		{"bad json", llm.NewMockAgent(`{"images":`)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items, err := NewPlanner(tt.agent).Plan(context.Background(), article)
			if err == nil {
				t.Error("Expected error to report degradation")
			}
			if diff := cmp.Diff(HeroOnly(article.Title), items); diff != "" {
				t.Errorf("fallback mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestNormalize(t *testing.T) {
	long := strings.Repeat("word ", 40)
	items := []core.ImagePlanItem{
		{Type: "photo", Placement: "A", Prompt: long},
		{Type: core.ImageTypeSection, Placement: "a", Prompt: "duplicate placement"},
		{Type: core.ImageTypeDiagram, Placement: "B", Prompt: "flow", Alt: "Flow"},
		{Type: core.ImageTypeSection, Placement: "", Prompt: "no placement"},
		{Type: core.ImageTypeSection, Placement: "C", Prompt: "c"},
		{Type: core.ImageTypeSection, Placement: "D", Prompt: "d"},
		{Type: core.ImageTypeHero, Placement: "Intro", Prompt: "hero one"},
		{Type: core.ImageTypeHero, Placement: "hero", Prompt: "hero two"},
	}
	got := Normalize(items, "Title")

	if len(got) != 4 {
		t.Fatalf("Expected hero + 3, got %d: %+v", len(got), got)
	}
	if got[0].Prompt != "hero one" || got[0].Placement != core.PlacementHero {
		t.Errorf("unexpected hero: %+v", got[0])
	}
	if got[1].Type != core.ImageTypeSection {
		t.Errorf("unknown type should become section, got %s", got[1].Type)
	}
	if n := len(strings.Fields(got[1].Prompt)); n != MaxPromptWords {
		t.Errorf("Expected prompt truncated to %d words, got %d", MaxPromptWords, n)
	}
	if got[1].Alt != got[1].Prompt {
		t.Error("empty alt should fall back to the prompt")
	}
	if got[2].Type != core.ImageTypeDiagram || got[3].Placement != "C" {
		t.Errorf("unexpected supporting items: %+v", got[1:])
	}
}

func TestNormalizeSynthesizesHero(t *testing.T) {
	got := Normalize([]core.ImagePlanItem{{Type: core.ImageTypeSection, Placement: "Intro", Prompt: "desk"}}, "CRM Guide")
	if len(got) != 2 || !got[0].IsHero() || got[0].Alt != "CRM Guide" {
		t.Errorf("Expected synthesized hero first, got %+v", got)
	}
}

func TestThirds(t *testing.T) {
	mk := func(n int) []markdown.Heading {
		hs := make([]markdown.Heading, n)
		for i := range hs {
			hs[i] = markdown.Heading{Level: 2, Text: string(rune('A' + i))}
		}
		return hs
	}
	tests := []struct {
		n    int
		want [3]int
	}{
		{0, [3]int{0, 0, 0}},
		{1, [3]int{1, 0, 0}},
		{3, [3]int{1, 1, 1}},
		{4, [3]int{2, 1, 1}},
		{7, [3]int{3, 2, 2}},
	}
	for _, tt := range tests {
		g := Thirds(mk(tt.n))
		got := [3]int{len(g[0]), len(g[1]), len(g[2])}
		if got != tt.want {
			t.Errorf("Thirds(%d) sizes = %v, want %v", tt.n, got, tt.want)
		}
	}
}
