// Package pipeline runs the nine-stage article generation workflow.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"seoforge/internal/core"
	"seoforge/internal/logger"
	"seoforge/internal/markdown"
	"seoforge/internal/observability"
)

// Pipeline orchestrates article generation. Stages run strictly in order;
// each run owns its own state, so one Pipeline can serve concurrent runs.
type Pipeline struct {
	loader      ArticleLoader
	serp        SerpFetcher        // Optional
	links       LinkFetcher        // Optional
	competitors CompetitorAnalyzer // Optional
	brief       BriefGenerator
	content     ContentGenerator
	planner     ImagePlanner   // Optional
	images      ImageGenerator // Optional

	posthog *observability.PostHogClient
	config  Config
}

// Components are the collaborators a Pipeline drives.
type Components struct {
	Loader      ArticleLoader
	Serp        SerpFetcher
	Links       LinkFetcher
	Competitors CompetitorAnalyzer
	Brief       BriefGenerator
	Content     ContentGenerator
	Planner     ImagePlanner
	Images      ImageGenerator
	PostHog     *observability.PostHogClient
}

// Config holds pipeline configuration
type Config struct {
	Timeouts map[StageID]time.Duration
}

// DefaultConfig returns the default per-stage deadlines. Competitor and
// image stages bound each item instead.
func DefaultConfig() Config {
	return Config{Timeouts: map[StageID]time.Duration{
		StageLoadArticle:         5 * time.Second,
		StageFetchSerp:           15 * time.Second,
		StageFetchLinkCandidates: 5 * time.Second,
		StageGenerateBrief:       90 * time.Second,
		StageGenerateContent:     240 * time.Second,
		StagePlanImages:          60 * time.Second,
	}}
}

// NewPipeline creates a pipeline. Loader, Brief and Content are required.
func NewPipeline(c Components, cfg Config) (*Pipeline, error) {
	if c.Loader == nil {
		return nil, errors.New("article loader is required")
	}
	if c.Brief == nil {
		return nil, errors.New("brief generator is required")
	}
	if c.Content == nil {
		return nil, errors.New("content generator is required")
	}
	if cfg.Timeouts == nil {
		cfg.Timeouts = DefaultConfig().Timeouts
	}
	return &Pipeline{
		loader:      c.Loader,
		serp:        c.Serp,
		links:       c.Links,
		competitors: c.Competitors,
		brief:       c.Brief,
		content:     c.Content,
		planner:     c.Planner,
		images:      c.Images,
		posthog:     c.PostHog,
		config:      cfg,
	}, nil
}

// StageTiming records how one stage went.
type StageTiming struct {
	Stage    StageID
	Duration time.Duration
	Severity Severity
	Err      error
}

// Stats tracks pipeline execution metrics
type Stats struct {
	RunID                string
	Stages               []StageTiming
	Degraded             []StageID
	CompetitorsAttempted int
	CompetitorsAnalyzed  int
	LinksAvailable       int
	LinksEmbedded        int
	ImagesPlanned        int
	ImagesGenerated      int
	WordCount            int
	QualityWarnings      []string
	StartTime            time.Time
	EndTime              time.Time
}

// Duration is the total run time.
func (s Stats) Duration() time.Duration {
	return s.EndTime.Sub(s.StartTime)
}

// RunReport is the full output of a successful run.
type RunReport struct {
	Article core.GeneratedArticle // Content has images inserted
	Images  []core.GeneratedImage // Includes the hero, which is not in the body
	Brief   core.CompetitiveBrief
	Stats   Stats
}

// RunArticleGeneration runs the pipeline for articleID. The caller sees a
// complete result or a *StageError naming the stage that failed.
func (p *Pipeline) RunArticleGeneration(ctx context.Context, articleID string) (*core.GeneratedArticle, []core.GeneratedImage, error) {
	report, err := p.Run(ctx, articleID)
	if err != nil {
		return nil, nil, err
	}
	return &report.Article, report.Images, nil
}

// Run is RunArticleGeneration with execution stats.
func (p *Pipeline) Run(ctx context.Context, articleID string) (*RunReport, error) {
	runID := uuid.NewString()
	log := logger.Component("pipeline").With().Str("run_id", runID).Str("article_id", articleID).Logger()
	stats := Stats{RunID: runID, StartTime: time.Now()}

	state := NewState(runID, articleID)
	log.Info().Msg("Starting article generation")

	for _, stage := range p.stages() {
		if err := ctx.Err(); err != nil {
			return nil, p.abort(ctx, state, stage.ID, err)
		}

		start := time.Now()
		res := p.runStage(ctx, stage, state)
		timing := StageTiming{Stage: stage.ID, Duration: time.Since(start), Severity: res.Severity, Err: res.Err}
		stats.Stages = append(stats.Stages, timing)

		stageLog := log.With().Str("stage", string(stage.ID)).Dur("duration", timing.Duration).Logger()
		switch res.Severity {
		case SeverityFatal:
			stageLog.Error().Err(res.Err).Msg("Stage failed")
			return nil, p.abort(ctx, state, stage.ID, res.Err)
		case SeverityDegraded:
			stageLog.Warn().Err(res.Err).Msg("Stage degraded, continuing with fallback")
			stats.Degraded = append(stats.Degraded, stage.ID)
		default:
			stageLog.Info().Msg("Stage completed")
		}

		if err := checkAdditive(state, res.State, stage.Owns); err != nil {
			return nil, p.abort(ctx, state, stage.ID, err)
		}
		state = res.State
	}

	stats.EndTime = time.Now()
	report := p.report(state, stats)
	for _, w := range report.Stats.QualityWarnings {
		log.Warn().Str("check", "quality").Msg(w)
	}
	log.Info().
		Dur("duration", report.Stats.Duration()).
		Int("competitors", report.Stats.CompetitorsAnalyzed).
		Int("images", report.Stats.ImagesGenerated).
		Int("words", report.Stats.WordCount).
		Msg("Article generation completed")

	_ = p.posthog.TrackGenerationCompleted(ctx, observability.GenerationStats{
		RunID:               runID,
		ArticleID:           articleID,
		Keyword:             state.Request().Keyword,
		DurationMs:          report.Stats.Duration().Milliseconds(),
		CompetitorsAnalyzed: report.Stats.CompetitorsAnalyzed,
		CompetitorsTotal:    report.Stats.CompetitorsAttempted,
		ImagesGenerated:     report.Stats.ImagesGenerated,
		ImagesPlanned:       report.Stats.ImagesPlanned,
		WordCount:           report.Stats.WordCount,
		DegradedStages:      stageNames(report.Stats.Degraded),
	})
	return report, nil
}

func (p *Pipeline) runStage(ctx context.Context, stage Stage, state PipelineState) Result {
	if stage.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, stage.Timeout)
		defer cancel()
	}
	return stage.Run(ctx, state)
}

func (p *Pipeline) abort(ctx context.Context, state PipelineState, stage StageID, err error) error {
	_ = p.posthog.TrackGenerationFailed(context.WithoutCancel(ctx), state.RunID(), state.ArticleID(), string(stage), err)
	return &StageError{Stage: stage, Err: err}
}

// checkAdditive verifies that next keeps everything prev had and fills
// exactly the field the stage owns.
func checkAdditive(prev, next PipelineState, owns field) error {
	switch {
	case next.runID != prev.runID || next.articleID != prev.articleID:
		return fmt.Errorf("%w: run identity changed", ErrNotAdditive)
	case next.overwritten != prev.overwritten:
		return fmt.Errorf("%w: field written twice", ErrNotAdditive)
	case !next.has(prev.filled):
		return fmt.Errorf("%w: earlier output dropped", ErrNotAdditive)
	case next.filled != prev.filled|owns:
		return fmt.Errorf("%w: expected only its own output", ErrNotAdditive)
	}
	return nil
}

func (p *Pipeline) report(state PipelineState, stats Stats) *RunReport {
	article := state.Article()
	article.Content = state.FinalContent()

	stats.CompetitorsAttempted = len(state.Serp())
	stats.CompetitorsAnalyzed = len(state.Competitors())
	stats.LinksAvailable = len(state.Links())
	stats.LinksEmbedded = embeddedLinks(article.Content, state.Links())
	stats.ImagesPlanned = len(state.Plan())
	stats.ImagesGenerated = len(state.Images())
	stats.WordCount = len(strings.Fields(article.Content))
	stats.QualityWarnings = CheckQuality(state)

	return &RunReport{
		Article: article,
		Images:  state.Images(),
		Brief:   state.Brief(),
		Stats:   stats,
	}
}

func embeddedLinks(body string, candidates []core.LinkCandidate) int {
	known := make(map[string]bool, len(candidates))
	for _, c := range candidates {
		known[strings.TrimRight(c.URL, "/")] = true
	}
	n := 0
	for _, l := range markdown.ExtractLinks(body) {
		if known[strings.TrimRight(l.URL, "/")] {
			n++
		}
	}
	return n
}

func stageNames(ids []StageID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = string(id)
	}
	return out
}
