package pipeline

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/genai"

	"seoforge/internal/brief"
	"seoforge/internal/config"
	"seoforge/internal/content"
	"seoforge/internal/fetch"
	"seoforge/internal/imageplan"
	"seoforge/internal/links"
	"seoforge/internal/llm"
	"seoforge/internal/locale"
	"seoforge/internal/logger"
	"seoforge/internal/observability"
	"seoforge/internal/persistence"
	"seoforge/internal/search"
	"seoforge/internal/storage"
	"seoforge/internal/visual"
)

// Builder helps construct a fully configured Pipeline
type Builder struct {
	cfg     *config.Config
	store   *persistence.SQLStore
	agent   llm.Agent
	serp    search.Provider
	images  visual.Provider
	objects storage.ObjectStore
	posthog *observability.PostHogClient
}

// NewBuilder creates a builder for cfg
func NewBuilder(cfg *config.Config) *Builder {
	return &Builder{cfg: cfg}
}

// WithStore sets the database used for loading articles and link candidates
func (b *Builder) WithStore(store *persistence.SQLStore) *Builder {
	b.store = store
	return b
}

// WithAgent overrides the text agent built from ai.provider
func (b *Builder) WithAgent(agent llm.Agent) *Builder {
	b.agent = agent
	return b
}

// WithSearchProvider overrides the provider built from search.provider
func (b *Builder) WithSearchProvider(p search.Provider) *Builder {
	b.serp = p
	return b
}

// WithImageProvider overrides the provider built from images.provider
func (b *Builder) WithImageProvider(p visual.Provider) *Builder {
	b.images = p
	return b
}

// WithObjectStore overrides the store built from storage.provider
func (b *Builder) WithObjectStore(s storage.ObjectStore) *Builder {
	b.objects = s
	return b
}

// WithAnalytics sets the PostHog client
func (b *Builder) WithAnalytics(p *observability.PostHogClient) *Builder {
	b.posthog = p
	return b
}

// Build constructs a fully configured Pipeline. Missing search or image
// credentials do not fail the build; the affected stages degrade instead.
func (b *Builder) Build(ctx context.Context) (*Pipeline, error) {
	if b.cfg == nil {
		return nil, fmt.Errorf("configuration is required")
	}
	if b.store == nil {
		return nil, fmt.Errorf("article store is required")
	}
	log := logger.Component("builder")
	cfg := b.cfg

	posthog := b.posthog
	if posthog == nil {
		posthog = observability.Disabled()
	}

	agent := b.agent
	if agent == nil {
		a, err := llm.NewAgent(ctx, cfg.AI)
		if err != nil {
			return nil, fmt.Errorf("failed to create LLM agent: %w", err)
		}
		agent = a
	}
	var gClient *genai.Client
	if g, ok := agent.(*llm.GeminiClient); ok {
		gClient = g.GenaiClient()
	}
	traced := llm.NewTracedAgent(agent, posthog)

	var serp SerpFetcher
	provider := b.serp
	if provider == nil {
		p, err := search.NewProvider(search.ProviderType(cfg.Search.Provider), search.Options{
			Login:          cfg.Search.Providers.DataForSEO.Login,
			Password:       cfg.Search.Providers.DataForSEO.Password,
			BaseURL:        cfg.Search.Providers.DataForSEO.BaseURL,
			APIKey:         cfg.Search.Providers.SerpAPI.APIKey,
			GoogleAPIKey:   cfg.Search.Providers.Google.APIKey,
			SearchEngineID: cfg.Search.Providers.Google.SearchEngineID,
			UserAgent:      cfg.Fetch.UserAgent,
			Timeout:        config.Duration(cfg.Search.Timeout, 10*time.Second),
			RateLimit:      config.Duration(cfg.Search.RateLimit, 0),
		})
		if err != nil {
			log.Warn().Err(err).Msg("Search provider unavailable, SERP stage will degrade")
			serp = unavailableSerp{err: err}
		}
		provider = p
	}
	if serp == nil {
		source := NewSerpSource(provider, locale.Default(), cfg.Pipeline.MaxCompetitors)
		if cfg.Search.Depth > 0 {
			source.depth = cfg.Search.Depth
		}
		serp = source
	}

	fetchTimeout := config.Duration(cfg.Fetch.Timeout, fetch.DefaultTimeout)
	analyzerOpts := []fetch.AnalyzerOption{
		fetch.WithConcurrency(cfg.Pipeline.MaxConcurrency),
		fetch.WithPreviewChars(cfg.Fetch.PreviewChars),
	}
	if cfg.Fetch.RenderJS {
		analyzerOpts = append(analyzerOpts, fetch.WithRenderer(fetch.NewChromeRenderer(cfg.Fetch.UserAgent, 2*fetchTimeout)))
	}
	analyzer := fetch.NewAnalyzer(fetch.NewClient(
		fetch.WithUserAgent(cfg.Fetch.UserAgent),
		fetch.WithTimeout(fetchTimeout),
	), analyzerOpts...)

	contentOpts := []content.Option{content.WithMaxTokens(cfg.AI.MaxTokens())}
	if cfg.Pipeline.DefaultLinks > 0 {
		contentOpts = append(contentOpts, content.WithDefaultLinks(cfg.Pipeline.DefaultLinks))
	}
	if cfg.Pipeline.WatermarkText != "" {
		contentOpts = append(contentOpts, content.WithWatermark(cfg.Pipeline.WatermarkText))
	}

	var images ImageGenerator
	if gen, err := b.imageGenerator(ctx, gClient, posthog); err != nil {
		log.Warn().Err(err).Msg("Image generation unavailable, articles will have no images")
	} else {
		images = gen
	}

	return NewPipeline(Components{
		Loader:      b.store,
		Serp:        serp,
		Links:       links.NewFetcher(b.store, cfg.Pipeline.MaxLinks),
		Competitors: analyzer,
		Brief:       brief.NewGenerator(traced),
		Content:     content.NewGenerator(traced, contentOpts...),
		Planner:     imageplan.NewPlanner(traced),
		Images:      images,
		PostHog:     posthog,
	}, ConfigFrom(cfg.Pipeline))
}

func (b *Builder) imageGenerator(ctx context.Context, gClient *genai.Client, posthog *observability.PostHogClient) (*visual.Generator, error) {
	provider := b.images
	if provider == nil {
		p, err := visual.NewProvider(ctx, *b.cfg, gClient)
		if err != nil {
			return nil, err
		}
		provider = p
	}
	objects := b.objects
	if objects == nil {
		s, err := storage.New(ctx, b.cfg.Storage)
		if err != nil {
			return nil, fmt.Errorf("failed to create object store: %w", err)
		}
		objects = s
	}
	return visual.NewGenerator(provider, objects,
		visual.WithConcurrency(b.cfg.Pipeline.MaxConcurrency),
		visual.WithTimeout(config.Duration(b.cfg.Images.Timeout, visual.DefaultTimeout)),
		visual.WithAnalytics(posthog),
	), nil
}

// ConfigFrom converts the pipeline section of the application config.
func ConfigFrom(p config.Pipeline) Config {
	d := DefaultConfig().Timeouts
	return Config{Timeouts: map[StageID]time.Duration{
		StageLoadArticle:         config.Duration(p.Timeouts.Load, d[StageLoadArticle]),
		StageFetchSerp:           config.Duration(p.Timeouts.Serp, d[StageFetchSerp]),
		StageFetchLinkCandidates: config.Duration(p.Timeouts.Links, d[StageFetchLinkCandidates]),
		StageGenerateBrief:       config.Duration(p.Timeouts.Brief, d[StageGenerateBrief]),
		StageGenerateContent:     config.Duration(p.Timeouts.Content, d[StageGenerateContent]),
		StagePlanImages:          config.Duration(p.Timeouts.Plan, d[StagePlanImages]),
	}}
}
