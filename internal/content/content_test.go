package content

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"seoforge/internal/core"
	"seoforge/internal/llm"
)

func articleJSON(t *testing.T, title, body, meta, slug string) string {
	t.Helper()
	data, err := json.Marshal(articleResponse{Title: title, Content: body, MetaDescription: meta, Slug: slug})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return string(data)
}

func competitorBrief() core.CompetitiveBrief {
	return core.CompetitiveBrief{
		Keyword:             "best project management tools",
		Competitors:         []core.CompetitorInsight{{URL: "https://a.example"}},
		RequiredSections:    []string{"Pricing", "Key features"},
		ContentGaps:         []string{"Migration between tools"},
		UnansweredQuestions: []string{"Which tool works offline?"},
		LSIKeywords:         []string{"kanban board"},
		TargetWordCount:     core.WordBand{Min: 2000, Max: 2640},
	}
}

func TestGenerateAdaptivePrompt(t *testing.T) {
	agent := llm.NewMockAgent(articleJSON(t, "Best PM Tools", "## Intro\nText", "meta", "best-pm-tools"))
	g := NewGenerator(agent)

	in := Input{
		Request: core.ArticleRequest{Keyword: "best project management tools", ContentType: core.ContentTypeListicle, TargetLength: core.LengthLong},
		Product: core.ProductConfig{Name: "Acme", Style: core.StylePreferences{InternalLinks: 5}},
		Brief:   competitorBrief(),
		Links: []core.LinkCandidate{
			{Title: "Kanban basics", URL: "https://acme.example/kanban"},
			{Title: "Gantt charts", URL: "https://acme.example/gantt"},
		},
	}
	if _, err := g.Generate(context.Background(), in); err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	prompt := agent.Requests[0].Prompt
	for _, want := range []string{
		"- Pricing",
		"- Key features",
		"Competitors run 2000-2640 words",
		"- Migration between tools",
		"- Which tool works offline?",
		"2400-3200 words",
		"Embed exactly 2 contextual internal links",
		"(https://acme.example/gantt)",
		"first 100 words",
		"kanban board",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
	if strings.Contains(prompt, "Round-up listicle") {
		t.Error("adaptive prompt must not use the fixed outline")
	}
}

func TestGenerateStandardPrompt(t *testing.T) {
	agent := llm.NewMockAgent(articleJSON(t, "How to set up a CRM", "Text", "", ""))
	g := NewGenerator(agent)

	in := Input{
		Request: core.ArticleRequest{Keyword: "crm setup", ContentType: core.ContentTypeGuide, GuideSubtype: core.GuideHowTo},
		Brief:   core.CompetitiveBrief{Fallback: true, TargetWordCount: core.WordBand{Min: 1500, Max: 2500}},
	}
	if _, err := g.Generate(context.Background(), in); err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	prompt := agent.Requests[0].Prompt
	if !strings.Contains(prompt, "How-to guide") || !strings.Contains(prompt, "Step-by-step instructions (~900 words)") {
		t.Errorf("expected how-to outline in prompt:\n%s", prompt)
	}
	if !strings.Contains(prompt, "1600-2400 words") {
		t.Error("expected medium band by default")
	}
	if strings.Contains(prompt, "INTERNAL LINKS") {
		t.Error("no link instruction expected without candidates")
	}
}

func TestGeneratePostProcessing(t *testing.T) {
	long := strings.Repeat("helpful words ", 20)
	body := "```markdown\n![hero](https://img.example/hero.png)\n\n## Introduction\nBody text.\n```"
	agent := llm.NewMockAgent(articleJSON(t, "Model Title", body, long, ""))
	g := NewGenerator(agent, WithWatermark("Made with Acme"))

	in := Input{
		Request: core.ArticleRequest{Keyword: "Café Marketing Ideas", Title: "Preset Title", ContentType: core.ContentTypeListicle},
		Product: core.ProductConfig{Watermark: true},
	}
	article, err := g.Generate(context.Background(), in)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	if article.Title != "Preset Title" {
		t.Errorf("Expected preset title, got %q", article.Title)
	}
	if strings.HasPrefix(strings.TrimSpace(article.Content), "!") {
		t.Errorf("body starts with an image: %q", article.Content)
	}
	if !strings.HasPrefix(article.Content, "## Introduction") {
		t.Errorf("unexpected body start: %q", article.Content)
	}
	if !strings.HasSuffix(strings.TrimSpace(article.Content), "Made with Acme") {
		t.Errorf("Expected watermark at the end, got %q", article.Content)
	}
	if article.Slug != "cafe-marketing-ideas" {
		t.Errorf("Expected slug from keyword, got %q", article.Slug)
	}
	if n := utf8.RuneCountInString(article.MetaDescription); n > MaxMetaDescription {
		t.Errorf("meta description has %d characters", n)
	}
}

func TestGenerateFailures(t *testing.T) {
	tests := []struct {
		name  string
		agent *llm.MockAgent
	}{
		{"agent error", &llm.MockAgent{Err: errors.New("boom")}},
		{"empty content", llm.NewMockAgent(`{"title":"T","content":"","meta_description":"","slug":""}`)},
		{"only an image", llm.NewMockAgent(`{"title":"T","content":"![x](y.png)","meta_description":"","slug":""}`)},
		{"empty title", llm.NewMockAgent(`{"title":" ","content":"Body","meta_description":"","slug":""}`)},
		{"invalid json", llm.NewMockAgent(`not json`)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewGenerator(tt.agent)
			_, err := g.Generate(context.Background(), Input{Request: core.ArticleRequest{Keyword: "crm"}})
			if err == nil {
				t.Fatal("Expected error")
			}
		})
	}
}

func TestCleanBody(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"## Title\ntext", "## Title\ntext"},
		{"\n\n![a](b.png)\n<img src=\"c.png\">\nIntro", "Intro"},
		{"!Important: read this", "Important: read this"},
		{"```\nplain\n```", "plain"},
	}
	for _, tt := range tests {
		if got := CleanBody(tt.in); got != tt.want {
			t.Errorf("CleanBody(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSlugify(t *testing.T) {
	tests := []struct{ in, want string }{
		{"Best CRM Tools — 2026 Édition!", "best-crm-tools-2026-edition"},
		{"  already-a-slug ", "already-a-slug"},
		{"日本語", ""},
	}
	for _, tt := range tests {
		if got := Slugify(tt.in); got != tt.want {
			t.Errorf("Slugify(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestLinkCount(t *testing.T) {
	if got := LinkCount(core.ProductConfig{}, 10, DefaultLinks); got != 3 {
		t.Errorf("Expected default 3, got %d", got)
	}
	if got := LinkCount(core.ProductConfig{Style: core.StylePreferences{InternalLinks: 5}}, 2, DefaultLinks); got != 2 {
		t.Errorf("Expected cap at candidate count, got %d", got)
	}
	if got := LinkCount(core.ProductConfig{}, 0, DefaultLinks); got != 0 {
		t.Errorf("Expected 0 without candidates, got %d", got)
	}
}

func TestOutlineDefaults(t *testing.T) {
	if o := OutlineFor(core.ArticleRequest{ContentType: core.ContentTypeGuide}); o.Name != "Explainer guide" {
		t.Errorf("guide default = %s", o.Name)
	}
	if o := OutlineFor(core.ArticleRequest{ContentType: core.ContentTypeListicle}); o.Name != "Round-up listicle" {
		t.Errorf("listicle default = %s", o.Name)
	}
	if b := LengthBand(core.LengthComprehensive); b != (core.WordBand{Min: 3200, Max: 4200}) {
		t.Errorf("comprehensive band = %+v", b)
	}
}
