package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "seoforge.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	Reset()
	defer Reset()

	cfg, err := Load(writeConfig(t, "app:\n  debug: true\n"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Search.Provider != "dataforseo" {
		t.Errorf("Expected default search provider dataforseo, got %s", cfg.Search.Provider)
	}
	if cfg.Pipeline.MaxConcurrency != 3 {
		t.Errorf("Expected max_concurrency 3, got %d", cfg.Pipeline.MaxConcurrency)
	}
	if cfg.Fetch.PreviewChars != 1000 {
		t.Errorf("Expected preview_chars 1000, got %d", cfg.Fetch.PreviewChars)
	}
	if cfg.Database.Driver != "sqlite" || !strings.HasSuffix(cfg.Database.ConnectionString, "seoforge.db") {
		t.Errorf("Expected sqlite default DSN, got %s %q", cfg.Database.Driver, cfg.Database.ConnectionString)
	}
	if cfg.Server.WriteTimeout != 10*time.Minute {
		t.Errorf("Expected 10m write timeout, got %v", cfg.Server.WriteTimeout)
	}
	if !cfg.App.Debug {
		t.Error("Expected app.debug from file")
	}
}

func TestLoadEnvironmentAliases(t *testing.T) {
	Reset()
	defer Reset()

	t.Setenv("DATAFORSEO_LOGIN", "user@example.com")
	t.Setenv("DATAFORSEO_PASSWORD", "secret")
	t.Setenv("GOOGLE_AI_API_KEY", "gemini-key")

	cfg, err := Load(writeConfig(t, "logging:\n  level: debug\n"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Search.Providers.DataForSEO.Login != "user@example.com" {
		t.Errorf("Expected login from env, got %q", cfg.Search.Providers.DataForSEO.Login)
	}
	if cfg.Search.Providers.DataForSEO.Password != "secret" {
		t.Errorf("Expected password from env, got %q", cfg.Search.Providers.DataForSEO.Password)
	}
	if cfg.AI.Gemini.APIKey != "gemini-key" {
		t.Errorf("Expected gemini key from alias, got %q", cfg.AI.Gemini.APIKey)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{
			name:    "unknown search provider",
			body:    "search:\n  provider: bing\n",
			wantErr: "Unknown search provider",
		},
		{
			name:    "bad duration",
			body:    "pipeline:\n  timeouts:\n    content: forever\n",
			wantErr: "invalid duration for pipeline.timeouts.content",
		},
		{
			name:    "gcs without bucket",
			body:    "storage:\n  provider: gcs\n",
			wantErr: "storage.gcs.bucket",
		},
		{
			name:    "unknown database driver",
			body:    "database:\n  driver: mysql\n",
			wantErr: "Unknown database driver",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			Reset()
			defer Reset()

			_, err := Load(writeConfig(t, tt.body))
			if err == nil {
				t.Fatal("Expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestDuration(t *testing.T) {
	if got := Duration("", 5*time.Second); got != 5*time.Second {
		t.Errorf("Expected fallback, got %v", got)
	}
	if got := Duration("90s", time.Second); got != 90*time.Second {
		t.Errorf("Expected 90s, got %v", got)
	}
	if got := Duration("nope", time.Second); got != time.Second {
		t.Errorf("Expected fallback for garbage, got %v", got)
	}
}

func TestAIMaxTokensFollowsProvider(t *testing.T) {
	ai := AI{
		Provider: "gemini",
		Gemini:   GeminiConfig{MaxTokens: 8192},
		OpenAI:   OpenAIConfig{MaxTokens: 4096},
	}
	if got := ai.MaxTokens(); got != 8192 {
		t.Errorf("gemini MaxTokens = %d, want 8192", got)
	}
	ai.Provider = "openai"
	if got := ai.MaxTokens(); got != 4096 {
		t.Errorf("openai MaxTokens = %d, want 4096", got)
	}
}

func TestLoadSearchSettings(t *testing.T) {
	Reset()
	defer Reset()

	cfg, err := Load(writeConfig(t, `search:
  provider: duckduckgo
  rate_limit: 2s
pipeline:
  timeouts:
    serp: 20s
`))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Search.Provider != "duckduckgo" || Duration(cfg.Search.RateLimit, 0) != 2*time.Second {
		t.Errorf("search = %+v", cfg.Search)
	}
	if cfg.Pipeline.Timeouts.Serp != "20s" {
		t.Errorf("serp timeout = %q, want 20s", cfg.Pipeline.Timeouts.Serp)
	}

	Reset()
	if _, err := Load(writeConfig(t, "search:\n  rate_limit: soon\n")); err == nil {
		t.Error("expected invalid rate_limit to be rejected")
	}
}
