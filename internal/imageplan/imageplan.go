// Package imageplan decides which images an article gets and where they go.
package imageplan

import (
	"context"
	"fmt"
	"strings"

	"seoforge/internal/core"
	"seoforge/internal/llm"
	"seoforge/internal/markdown"
)

const (
	// MaxSupporting is the number of non-hero images allowed.
	MaxSupporting = 3
	// MaxPromptWords bounds image prompts.
	MaxPromptWords = 30
)

// Planner asks a text agent for an image plan.
type Planner struct {
	agent llm.Agent
}

// NewPlanner creates a planner.
func NewPlanner(agent llm.Agent) *Planner {
	return &Planner{agent: agent}
}

type planResponse struct {
	Images []core.ImagePlanItem `json:"images"`
}

// Plan returns one hero followed by up to three supporting images. On agent
// failure, or when nothing usable comes back, it returns HeroOnly together
// with the error.
func (p *Planner) Plan(ctx context.Context, article core.GeneratedArticle) ([]core.ImagePlanItem, error) {
	headings := markdown.Headings(article.Content)

	resp, err := llm.GenerateJSON[planResponse](ctx, p.agent, llm.Request{
		Operation:   "image_plan",
		System:      systemPrompt,
		Prompt:      buildPrompt(article.Title, headings),
		Schema:      responseSchema(),
		SchemaName:  "image_plan",
		Temperature: 0.5,
	})
	if err != nil {
		return HeroOnly(article.Title), fmt.Errorf("image plan agent failed: %w", err)
	}

	items := Normalize(resp.Images, article.Title)
	if len(items) == 0 {
		return HeroOnly(article.Title), fmt.Errorf("image plan agent returned no usable images")
	}
	return items, nil
}

// HeroOnly is the deterministic plan used when planning fails.
func HeroOnly(title string) []core.ImagePlanItem {
	return []core.ImagePlanItem{heroFor(title)}
}

func heroFor(title string) core.ImagePlanItem {
	title = strings.TrimSpace(title)
	return core.ImagePlanItem{
		Type:      core.ImageTypeHero,
		Placement: core.PlacementHero,
		Prompt:    TruncateWords("Editorial header image for an article titled "+title, MaxPromptWords),
		Alt:       title,
	}
}

// Normalize enforces plan shape: exactly one hero first, at most
// MaxSupporting section or diagram items, short prompts and non-empty alt text.
func Normalize(items []core.ImagePlanItem, title string) []core.ImagePlanItem {
	var hero *core.ImagePlanItem
	var supporting []core.ImagePlanItem
	seen := make(map[string]bool)

	for _, item := range items {
		item.Prompt = TruncateWords(item.Prompt, MaxPromptWords)
		item.Placement = strings.TrimSpace(item.Placement)
		item.Alt = strings.TrimSpace(item.Alt)
		item.Style = strings.TrimSpace(item.Style)

		if item.IsHero() {
			if hero != nil {
				continue
			}
			item.Type = core.ImageTypeHero
			item.Placement = core.PlacementHero
			if item.Prompt == "" {
				item = heroFor(title)
			}
			if item.Alt == "" {
				item.Alt = item.Prompt
			}
			h := item
			hero = &h
			continue
		}

		if item.Prompt == "" || item.Placement == "" || len(supporting) == MaxSupporting {
			continue
		}
		key := strings.ToLower(item.Placement)
		if seen[key] {
			continue
		}
		seen[key] = true
		if item.Type != core.ImageTypeDiagram {
			item.Type = core.ImageTypeSection
		}
		if item.Alt == "" {
			item.Alt = item.Prompt
		}
		supporting = append(supporting, item)
	}

	if hero == nil && len(supporting) == 0 {
		return nil
	}
	if hero == nil {
		h := heroFor(title)
		hero = &h
	}
	return append([]core.ImagePlanItem{*hero}, supporting...)
}

// TruncateWords keeps the first n words of s.
func TruncateWords(s string, n int) string {
	words := strings.Fields(s)
	if len(words) > n {
		words = words[:n]
	}
	return strings.Join(words, " ")
}

// Thirds splits headings into first, middle and last groups.
func Thirds(headings []markdown.Heading) [3][]markdown.Heading {
	var groups [3][]markdown.Heading
	n := len(headings)
	if n == 0 {
		return groups
	}
	a := (n + 2) / 3
	b := a + (n-a+1)/2
	groups[0] = headings[:a]
	groups[1] = headings[a:b]
	groups[2] = headings[b:]
	return groups
}
