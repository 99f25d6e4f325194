// Package observability sends product analytics events to PostHog
package observability

import (
	"context"
	"fmt"
	"time"

	"github.com/posthog/posthog-go"

	"seoforge/internal/config"
	"seoforge/internal/logger"
)

// Event names
const (
	EventGenerationCompleted = "article_generation_completed"
	EventGenerationFailed    = "article_generation_failed"
	EventLLMCall             = "llm_call"
	EventImageGenerated      = "image_generated"
)

// systemDistinctID is used for events not tied to a user
const systemDistinctID = "seoforge"

// sink is the subset of posthog.Client used here
type sink interface {
	Enqueue(posthog.Message) error
	Close() error
}

// PostHogClient wraps the PostHog SDK for product analytics
type PostHogClient struct {
	client  sink
	enabled bool
}

// EventProperties contains properties for an event
type EventProperties map[string]interface{}

// NewPostHogClient creates a new PostHog analytics client. A disabled config
// yields a client whose methods are no-ops.
func NewPostHogClient(cfg config.PostHogConfig) (*PostHogClient, error) {
	if !cfg.Enabled {
		return &PostHogClient{enabled: false}, nil
	}

	if cfg.APIKey == "" {
		return nil, fmt.Errorf("PostHog enabled but missing API key")
	}

	client, err := posthog.NewWithConfig(cfg.APIKey, posthog.Config{
		Endpoint: cfg.Host,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create PostHog client: %w", err)
	}

	return &PostHogClient{client: client, enabled: true}, nil
}

// Disabled returns a no-op client
func Disabled() *PostHogClient {
	return &PostHogClient{}
}

// IsEnabled returns whether PostHog tracking is enabled
func (p *PostHogClient) IsEnabled() bool {
	return p != nil && p.enabled
}

// Capture sends an event to PostHog
func (p *PostHogClient) Capture(ctx context.Context, distinctID string, event string, properties EventProperties) error {
	if !p.IsEnabled() {
		return nil
	}

	props := posthog.NewProperties()
	for k, v := range properties {
		props.Set(k, v)
	}

	err := p.client.Enqueue(posthog.Capture{
		DistinctId: distinctID,
		Event:      event,
		Timestamp:  time.Now(),
		Properties: props,
	})
	if err != nil {
		logger.Warn("PostHog capture failed", "event", event, "error", err.Error())
	}
	return err
}

// GenerationStats is the analytics view of a pipeline run
type GenerationStats struct {
	RunID               string
	ArticleID           string
	Keyword             string
	DurationMs          int64
	CompetitorsAnalyzed int
	CompetitorsTotal    int
	ImagesGenerated     int
	ImagesPlanned       int
	WordCount           int
	DegradedStages      []string
}

// TrackGenerationCompleted tracks a successful pipeline run
func (p *PostHogClient) TrackGenerationCompleted(ctx context.Context, stats GenerationStats) error {
	return p.Capture(ctx, systemDistinctID, EventGenerationCompleted, EventProperties{
		"run_id":               stats.RunID,
		"article_id":           stats.ArticleID,
		"keyword":              stats.Keyword,
		"duration_ms":          stats.DurationMs,
		"competitors_analyzed": stats.CompetitorsAnalyzed,
		"competitors_total":    stats.CompetitorsTotal,
		"images_generated":     stats.ImagesGenerated,
		"images_planned":       stats.ImagesPlanned,
		"word_count":           stats.WordCount,
		"degraded_stages":      stats.DegradedStages,
	})
}

// TrackGenerationFailed tracks a pipeline run that aborted
func (p *PostHogClient) TrackGenerationFailed(ctx context.Context, runID, articleID, stage string, err error) error {
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	return p.Capture(ctx, systemDistinctID, EventGenerationFailed, EventProperties{
		"run_id":        runID,
		"article_id":    articleID,
		"stage":         stage,
		"error_message": msg,
	})
}

// TrackLLMCall tracks LLM API calls for cost and performance monitoring
func (p *PostHogClient) TrackLLMCall(ctx context.Context, model string, operation string, tokens int, costUSD float64, latencyMs int64, success bool) error {
	return p.Capture(ctx, systemDistinctID, EventLLMCall, EventProperties{
		"model":      model,
		"operation":  operation, // "brief", "content", "image_plan"
		"tokens":     tokens,
		"cost_usd":   costUSD,
		"latency_ms": latencyMs,
		"success":    success,
	})
}

// TrackImageGenerated tracks one image generation attempt
func (p *PostHogClient) TrackImageGenerated(ctx context.Context, provider, imageType string, latencyMs int64, success bool) error {
	return p.Capture(ctx, systemDistinctID, EventImageGenerated, EventProperties{
		"provider":   provider,
		"image_type": imageType,
		"latency_ms": latencyMs,
		"success":    success,
	})
}

// Shutdown flushes pending events and closes the client
func (p *PostHogClient) Shutdown(ctx context.Context) error {
	if !p.IsEnabled() {
		return nil
	}

	return p.client.Close()
}
