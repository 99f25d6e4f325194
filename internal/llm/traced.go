package llm

import (
	"context"
	"time"

	"seoforge/internal/cost"
	"seoforge/internal/logger"
	"seoforge/internal/observability"
)

// TracedAgent wraps an Agent with latency logging and PostHog tracking.
type TracedAgent struct {
	agent   Agent
	posthog *observability.PostHogClient
}

// NewTracedAgent wraps agent. A nil PostHog client only logs.
func NewTracedAgent(agent Agent, posthog *observability.PostHogClient) *TracedAgent {
	return &TracedAgent{agent: agent, posthog: posthog}
}

// Model returns the wrapped agent's model.
func (tc *TracedAgent) Model() string {
	return tc.agent.Model()
}

// Generate generates text with tracing
func (tc *TracedAgent) Generate(ctx context.Context, req Request) (string, error) {
	startTime := time.Now()
	result, err := tc.agent.Generate(ctx, req)
	latencyMs := time.Since(startTime).Milliseconds()

	usage := cost.Estimate(tc.agent.Model(), req.System+"\n"+req.Prompt, result)

	log := logger.Component("llm")
	if err != nil {
		log.Warn().Err(err).Str("operation", req.Operation).Str("model", tc.agent.Model()).Int64("latency_ms", latencyMs).Msg("LLM call failed")
	} else {
		log.Debug().
			Str("operation", req.Operation).
			Str("model", tc.agent.Model()).
			Int64("latency_ms", latencyMs).
			Int("input_tokens", usage.InputTokens).
			Int("output_tokens", usage.OutputTokens).
			Str("cost", cost.FormatUSD(usage.CostUSD)).
			Msg("LLM call completed")
	}

	if tc.posthog.IsEnabled() {
		_ = tc.posthog.TrackLLMCall(ctx, tc.agent.Model(), req.Operation, usage.TotalTokens(), usage.CostUSD, latencyMs, err == nil)
	}

	return result, err
}
