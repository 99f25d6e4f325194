package pipeline

import (
	"context"

	"seoforge/internal/content"
	"seoforge/internal/core"
	"seoforge/internal/fetch"
	"seoforge/internal/visual"
)

// ArticleLoader resolves the request and product for an article
type ArticleLoader interface {
	LoadArticle(ctx context.Context, articleID string) (core.ArticleRequest, core.ProductConfig, error)
}

// SerpFetcher returns the top organic results for a keyword in a market
type SerpFetcher interface {
	FetchSerp(ctx context.Context, keyword, countryCode, languageCode string) ([]core.SerpResult, error)
}

// LinkFetcher returns internal-link candidates for a product
type LinkFetcher interface {
	Fetch(ctx context.Context, product core.ProductConfig, articleID string) ([]core.LinkCandidate, error)
}

// CompetitorAnalyzer fetches and parses ranking pages.
// Per-URL failures are reported in the outcome, never as an error.
type CompetitorAnalyzer interface {
	Analyze(ctx context.Context, results []core.SerpResult) fetch.Outcome
}

// BriefGenerator synthesizes the competitive brief.
// On error it still returns the best brief it could build.
type BriefGenerator interface {
	Generate(ctx context.Context, req core.ArticleRequest, product core.ProductConfig, competitors []core.CompetitorContent) (core.CompetitiveBrief, error)
}

// ContentGenerator writes the article
type ContentGenerator interface {
	Generate(ctx context.Context, in content.Input) (core.GeneratedArticle, error)
}

// ImagePlanner proposes images for an article.
// On error it still returns a fallback plan.
type ImagePlanner interface {
	Plan(ctx context.Context, article core.GeneratedArticle) ([]core.ImagePlanItem, error)
}

// ImageGenerator produces hosted images for a plan
type ImageGenerator interface {
	Generate(ctx context.Context, articleID string, style core.ImageStyle, items []core.ImagePlanItem) visual.Outcome
}
