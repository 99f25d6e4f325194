// Package content writes the article body from the competitive brief.
package content

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"seoforge/internal/core"
	"seoforge/internal/llm"
)

// DefaultLinks is the number of internal links when the product sets none.
const DefaultLinks = 3

// DefaultWatermark is the attribution line appended for watermarked products.
const DefaultWatermark = "_Written with SEOForge._"

// ErrIncompleteArticle is returned when the model omits the title or body.
var ErrIncompleteArticle = errors.New("generated article is missing title or content")

// Generator produces articles with a text agent.
type Generator struct {
	agent        llm.Agent
	defaultLinks int
	watermark    string
	maxTokens    int32
}

// Option configures a Generator.
type Option func(*Generator)

// WithDefaultLinks sets the link count used when the product does not configure one.
func WithDefaultLinks(n int) Option {
	return func(g *Generator) {
		if n > 0 {
			g.defaultLinks = n
		}
	}
}

// WithWatermark overrides the attribution line.
func WithWatermark(line string) Option {
	return func(g *Generator) {
		if strings.TrimSpace(line) != "" {
			g.watermark = line
		}
	}
}

// WithMaxTokens caps the completion size.
func WithMaxTokens(n int32) Option {
	return func(g *Generator) { g.maxTokens = n }
}

// NewGenerator creates a content generator.
func NewGenerator(agent llm.Agent, opts ...Option) *Generator {
	g := &Generator{agent: agent, defaultLinks: DefaultLinks, watermark: DefaultWatermark}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate writes the article. Any failure is returned to the caller; there
// is no fallback article.
func (g *Generator) Generate(ctx context.Context, in Input) (core.GeneratedArticle, error) {
	links := LinkCount(in.Product, len(in.Links), g.defaultLinks)

	resp, err := llm.GenerateJSON[articleResponse](ctx, g.agent, llm.Request{
		Operation:   "content",
		System:      systemPrompt,
		Prompt:      buildPrompt(in, links),
		Schema:      responseSchema(),
		SchemaName:  "article",
		Temperature: 0.7,
		MaxTokens:   g.maxTokens,
	})
	if err != nil {
		return core.GeneratedArticle{}, fmt.Errorf("content agent failed: %w", err)
	}

	article := g.finish(in, resp)
	if article.Title == "" || article.Content == "" {
		return core.GeneratedArticle{}, ErrIncompleteArticle
	}
	return article, nil
}

func (g *Generator) finish(in Input, resp articleResponse) core.GeneratedArticle {
	title := strings.TrimSpace(resp.Title)
	if preset := strings.TrimSpace(in.Request.Title); preset != "" {
		title = preset
	}

	body := CleanBody(resp.Content)
	if body != "" && in.Product.Watermark {
		body = AppendWatermark(body, g.watermark)
	}

	slug := Slugify(resp.Slug)
	if slug == "" {
		slug = Slugify(in.Request.Keyword)
	}

	return core.GeneratedArticle{
		Title:           title,
		Content:         body,
		MetaDescription: TrimMeta(resp.MetaDescription),
		Slug:            slug,
	}
}
