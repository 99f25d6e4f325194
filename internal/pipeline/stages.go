package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"seoforge/internal/brief"
	"seoforge/internal/content"
	"seoforge/internal/imageplan"
	"seoforge/internal/markdown"
)

// Stage is one step of the pipeline.
type Stage struct {
	ID      StageID
	Owns    field
	Timeout time.Duration // Zero means the stage manages its own deadlines
	Run     func(ctx context.Context, s PipelineState) Result
}

// stages returns the nine stages in execution order.
func (p *Pipeline) stages() []Stage {
	t := p.config.Timeouts
	return []Stage{
		{ID: StageLoadArticle, Owns: fieldArticle, Timeout: t[StageLoadArticle], Run: p.loadArticle},
		{ID: StageFetchSerp, Owns: fieldSerp, Timeout: t[StageFetchSerp], Run: p.fetchSerp},
		{ID: StageFetchLinkCandidates, Owns: fieldLinks, Timeout: t[StageFetchLinkCandidates], Run: p.fetchLinks},
		{ID: StageFetchCompetitors, Owns: fieldCompetitors, Timeout: t[StageFetchCompetitors], Run: p.fetchCompetitors},
		{ID: StageGenerateBrief, Owns: fieldBrief, Timeout: t[StageGenerateBrief], Run: p.generateBrief},
		{ID: StageGenerateContent, Owns: fieldContent, Timeout: t[StageGenerateContent], Run: p.generateContent},
		{ID: StagePlanImages, Owns: fieldPlan, Timeout: t[StagePlanImages], Run: p.planImages},
		{ID: StageGenerateImages, Owns: fieldImages, Timeout: t[StageGenerateImages], Run: p.generateImages},
		{ID: StageInsertImages, Owns: fieldFinal, Run: p.insertImages},
	}
}

func (p *Pipeline) loadArticle(ctx context.Context, s PipelineState) Result {
	req, product, err := p.loader.LoadArticle(ctx, s.ArticleID())
	if err != nil {
		return Fatal(s, err)
	}
	if err := req.Validate(); err != nil {
		return Fatal(s, err)
	}
	return OK(s.WithArticle(req, product))
}

func (p *Pipeline) fetchSerp(ctx context.Context, s PipelineState) Result {
	if p.serp == nil {
		return OK(s.WithSerp(nil))
	}
	product := s.Product()
	results, err := p.serp.FetchSerp(ctx, s.Request().Keyword, product.CountryCode, product.LanguageCode)
	if err != nil {
		return Degraded(s.WithSerp(nil), err)
	}
	return OK(s.WithSerp(results))
}

func (p *Pipeline) fetchLinks(ctx context.Context, s PipelineState) Result {
	if p.links == nil {
		return OK(s.WithLinks(nil))
	}
	candidates, err := p.links.Fetch(ctx, s.Product(), s.ArticleID())
	if err != nil {
		return Degraded(s.WithLinks(nil), err)
	}
	return OK(s.WithLinks(candidates))
}

func (p *Pipeline) fetchCompetitors(ctx context.Context, s PipelineState) Result {
	serp := s.Serp()
	if len(serp) == 0 || p.competitors == nil {
		return OK(s.WithCompetitors(nil))
	}
	outcome := p.competitors.Analyze(ctx, serp)
	next := s.WithCompetitors(outcome.Competitors)
	if len(outcome.Failures) > 0 {
		errs := make([]error, 0, len(outcome.Failures))
		for _, f := range outcome.Failures {
			errs = append(errs, fmt.Errorf("%s: %w", f.URL, f.Err))
		}
		return Degraded(next, errors.Join(errs...))
	}
	return OK(next)
}

func (p *Pipeline) generateBrief(ctx context.Context, s PipelineState) Result {
	req := s.Request()
	competitors := s.Competitors()
	if len(competitors) == 0 {
		return OK(s.WithBrief(brief.Fallback(req.Keyword)))
	}
	b, err := p.brief.Generate(ctx, req, s.Product(), competitors)
	if err != nil {
		if len(b.RequiredSections) == 0 && b.TargetWordCount.Max == 0 {
			b = brief.Heuristic(req.Keyword, competitors)
		}
		return Degraded(s.WithBrief(b), err)
	}
	return OK(s.WithBrief(b))
}

func (p *Pipeline) generateContent(ctx context.Context, s PipelineState) Result {
	article, err := p.content.Generate(ctx, content.Input{
		Request: s.Request(),
		Product: s.Product(),
		Brief:   s.Brief(),
		Links:   s.Links(),
	})
	if err != nil {
		return Fatal(s, err)
	}
	return OK(s.WithGeneratedArticle(article))
}

func (p *Pipeline) planImages(ctx context.Context, s PipelineState) Result {
	article := s.Article()
	if p.planner == nil {
		return OK(s.WithPlan(imageplan.HeroOnly(article.Title)))
	}
	plan, err := p.planner.Plan(ctx, article)
	if err != nil {
		if len(plan) == 0 {
			plan = imageplan.HeroOnly(article.Title)
		}
		return Degraded(s.WithPlan(plan), err)
	}
	return OK(s.WithPlan(plan))
}

func (p *Pipeline) generateImages(ctx context.Context, s PipelineState) Result {
	plan := s.Plan()
	if len(plan) == 0 || p.images == nil {
		return OK(s.WithImages(nil))
	}
	outcome := p.images.Generate(ctx, s.ArticleID(), s.Product().ImageStyle, plan)
	next := s.WithImages(outcome.Images)
	if len(outcome.Failures) > 0 {
		errs := make([]error, 0, len(outcome.Failures))
		for _, f := range outcome.Failures {
			errs = append(errs, fmt.Errorf("image %d (%s): %w", f.Index, f.Type, f.Err))
		}
		return Degraded(next, errors.Join(errs...))
	}
	return OK(next)
}

func (p *Pipeline) insertImages(ctx context.Context, s PipelineState) Result {
	body, _ := markdown.InsertImages(s.Article().Content, s.Images())
	return OK(s.WithFinalContent(body))
}
