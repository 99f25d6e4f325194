package fetch

import (
	"context"
	"errors"

	"golang.org/x/sync/errgroup"

	"seoforge/internal/core"
	"seoforge/internal/logger"
)

// PageFetcher downloads raw HTML.
type PageFetcher interface {
	FetchHTML(ctx context.Context, url string) (string, error)
}

// thinPageWords is the word count below which a page is re-rendered with JS when a renderer is set.
const thinPageWords = 150

// Analyzer turns SERP results into parsed competitor content.
type Analyzer struct {
	fetcher      PageFetcher
	renderer     Renderer
	concurrency  int
	previewChars int
}

// AnalyzerOption configures an Analyzer.
type AnalyzerOption func(*Analyzer)

// WithRenderer enables the JS rendering fallback for thin pages.
func WithRenderer(r Renderer) AnalyzerOption {
	return func(a *Analyzer) { a.renderer = r }
}

// WithConcurrency bounds the number of pages fetched at once.
func WithConcurrency(n int) AnalyzerOption {
	return func(a *Analyzer) {
		if n > 0 {
			a.concurrency = n
		}
	}
}

// WithPreviewChars sets the preview length.
func WithPreviewChars(n int) AnalyzerOption {
	return func(a *Analyzer) {
		if n > 0 {
			a.previewChars = n
		}
	}
}

// NewAnalyzer creates an analyzer.
func NewAnalyzer(fetcher PageFetcher, opts ...AnalyzerOption) *Analyzer {
	a := &Analyzer{fetcher: fetcher, concurrency: 1, previewChars: DefaultPreviewChars}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Failure records why one competitor was skipped.
type Failure struct {
	URL string
	Err error
}

// Outcome is the result of analyzing a SERP.
type Outcome struct {
	Competitors []core.CompetitorContent
	Attempted   int
	Failures    []Failure
}

// Analyze fetches and parses every result. Failures are per URL; output keeps SERP order.
func (a *Analyzer) Analyze(ctx context.Context, results []core.SerpResult) Outcome {
	log := logger.Component("competitors")

	type slot struct {
		content core.CompetitorContent
		err     error
	}
	slots := make([]slot, len(results))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(a.concurrency)
	for i, result := range results {
		i, result := i, result
		g.Go(func() error {
			content, err := a.analyzeOne(gCtx, result)
			slots[i] = slot{content: content, err: err}
			return nil
		})
	}
	_ = g.Wait()

	out := Outcome{Attempted: len(results)}
	for i, s := range slots {
		if s.err != nil {
			log.Warn().Err(s.err).Str("url", results[i].URL).Msg("Skipping competitor")
			out.Failures = append(out.Failures, Failure{URL: results[i].URL, Err: s.err})
			continue
		}
		out.Competitors = append(out.Competitors, s.content)
	}

	log.Info().
		Int("analyzed", len(out.Competitors)).
		Int("attempted", out.Attempted).
		Msgf("Analyzed %d of %d competitors", len(out.Competitors), out.Attempted)

	return out
}

func (a *Analyzer) analyzeOne(ctx context.Context, result core.SerpResult) (core.CompetitorContent, error) {
	if err := ctx.Err(); err != nil {
		return core.CompetitorContent{}, err
	}

	if result.RawHTML != "" {
		return a.parse(result, result.RawHTML)
	}

	html, fetchErr := a.fetcher.FetchHTML(ctx, result.URL)
	var (
		content  core.CompetitorContent
		parseErr error
	)
	if fetchErr == nil {
		content, parseErr = a.parse(result, html)
		if parseErr == nil && (a.renderer == nil || content.WordCount >= thinPageWords) {
			return content, nil
		}
	}

	// Hard transport failures are not retried in a browser.
	if a.renderer == nil || (fetchErr != nil && !errors.Is(fetchErr, ErrEmptyContent)) {
		if fetchErr != nil {
			return core.CompetitorContent{}, fetchErr
		}
		return content, parseErr
	}

	rendered, err := a.renderer.Render(ctx, result.URL)
	if err != nil {
		if parseErr == nil && fetchErr == nil {
			return content, nil
		}
		return core.CompetitorContent{}, err
	}
	renderedContent, err := a.parse(result, rendered)
	if err != nil {
		if parseErr == nil && fetchErr == nil {
			return content, nil
		}
		return core.CompetitorContent{}, err
	}
	if fetchErr == nil && parseErr == nil && renderedContent.WordCount < content.WordCount {
		return content, nil
	}
	return renderedContent, nil
}

func (a *Analyzer) parse(result core.SerpResult, html string) (core.CompetitorContent, error) {
	content, err := ParseCompetitor(result.URL, html, a.previewChars)
	if err != nil {
		return core.CompetitorContent{}, err
	}
	if content.Title == "" {
		content.Title = result.Title
	}
	return content, nil
}
