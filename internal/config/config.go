package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App       App       `mapstructure:"app"`
	Database  Database  `mapstructure:"database"`
	AI        AI        `mapstructure:"ai"`
	Images    Images    `mapstructure:"images"`
	Search    Search    `mapstructure:"search"`
	Fetch     Fetch     `mapstructure:"fetch"`
	Pipeline  Pipeline  `mapstructure:"pipeline"`
	Storage   Storage   `mapstructure:"storage"`
	Output    Output    `mapstructure:"output"`
	Server    Server    `mapstructure:"server"`
	Analytics Analytics `mapstructure:"analytics"`
	Logging   Logging   `mapstructure:"logging"`
}

// App holds general application configuration
type App struct {
	Debug   bool   `mapstructure:"debug"`
	DataDir string `mapstructure:"data_dir"`
}

// Database holds persistence configuration
type Database struct {
	Driver           string `mapstructure:"driver"` // sqlite or postgres
	ConnectionString string `mapstructure:"connection_string"`
}

// AI holds text-generation configuration
type AI struct {
	Provider string       `mapstructure:"provider"` // gemini or openai
	Gemini   GeminiConfig `mapstructure:"gemini"`
	OpenAI   OpenAIConfig `mapstructure:"openai"`
}

// GeminiConfig holds Google Gemini configuration
type GeminiConfig struct {
	APIKey      string  `mapstructure:"api_key"`
	Model       string  `mapstructure:"model"`
	ImageModel  string  `mapstructure:"image_model"`
	Temperature float32 `mapstructure:"temperature"`
	MaxTokens   int32   `mapstructure:"max_tokens"`
}

// OpenAIConfig holds OpenAI configuration
type OpenAIConfig struct {
	APIKey     string `mapstructure:"api_key"`
	Model      string `mapstructure:"model"`
	ImageModel string `mapstructure:"image_model"`
	BaseURL    string `mapstructure:"base_url"`
	MaxTokens  int32  `mapstructure:"max_tokens"`
}

// MaxTokens returns the completion cap of the active text provider.
func (a AI) MaxTokens() int32 {
	if a.Provider == "openai" {
		return a.OpenAI.MaxTokens
	}
	return a.Gemini.MaxTokens
}

// Images holds image-generation configuration
type Images struct {
	Provider string `mapstructure:"provider"` // gemini or openai
	Timeout  string `mapstructure:"timeout"`
}

// Search holds search provider configuration
type Search struct {
	Provider  string          `mapstructure:"provider"`
	Depth     int             `mapstructure:"depth"`
	Timeout   string          `mapstructure:"timeout"`
	RateLimit string          `mapstructure:"rate_limit"` // Minimum gap between provider calls
	Providers SearchProviders `mapstructure:"providers"`
}

// SearchProviders holds configuration for all search providers
type SearchProviders struct {
	DataForSEO DataForSEOConfig `mapstructure:"dataforseo"`
	SerpAPI    SerpAPIConfig    `mapstructure:"serpapi"`
	Google     GoogleCSEConfig  `mapstructure:"google"`
}

// DataForSEOConfig holds DataForSEO credentials
type DataForSEOConfig struct {
	Login    string `mapstructure:"login"`
	Password string `mapstructure:"password"`
	BaseURL  string `mapstructure:"base_url"`
}

// SerpAPIConfig holds SerpAPI configuration
type SerpAPIConfig struct {
	APIKey string `mapstructure:"api_key"`
}

// GoogleCSEConfig holds Google Custom Search credentials
type GoogleCSEConfig struct {
	APIKey         string `mapstructure:"api_key"`
	SearchEngineID string `mapstructure:"search_engine_id"`
}

// Fetch holds competitor scraping configuration
type Fetch struct {
	Timeout      string `mapstructure:"timeout"`
	UserAgent    string `mapstructure:"user_agent"`
	RenderJS     bool   `mapstructure:"render_js"`
	PreviewChars int    `mapstructure:"preview_chars"`
}

// Pipeline holds orchestration settings
type Pipeline struct {
	MaxConcurrency int              `mapstructure:"max_concurrency"`
	MaxCompetitors int              `mapstructure:"max_competitors"`
	MaxLinks       int              `mapstructure:"max_links"`
	DefaultLinks   int              `mapstructure:"default_links"`
	WatermarkText  string           `mapstructure:"watermark_text"`
	Timeouts       PipelineTimeouts `mapstructure:"timeouts"`
}

// PipelineTimeouts holds per-stage deadlines as duration strings
type PipelineTimeouts struct {
	Load    string `mapstructure:"load"`
	Serp    string `mapstructure:"serp"`
	Links   string `mapstructure:"links"`
	Brief   string `mapstructure:"brief"`
	Content string `mapstructure:"content"`
	Plan    string `mapstructure:"plan"`
}

// Storage holds object storage configuration
type Storage struct {
	Provider string       `mapstructure:"provider"` // local or gcs
	Local    LocalStorage `mapstructure:"local"`
	GCS      GCSStorage   `mapstructure:"gcs"`
}

// LocalStorage writes objects to a directory served elsewhere
type LocalStorage struct {
	Directory string `mapstructure:"directory"`
	BaseURL   string `mapstructure:"base_url"`
}

// GCSStorage holds Google Cloud Storage settings
type GCSStorage struct {
	Bucket          string `mapstructure:"bucket"`
	CredentialsFile string `mapstructure:"credentials_file"`
	PublicBaseURL   string `mapstructure:"public_base_url"`
}

// Output holds output configuration
type Output struct {
	Directory string `mapstructure:"directory"`
}

// Server holds HTTP server configuration
type Server struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	CORS            CORSConfig    `mapstructure:"cors"`
}

// CORSConfig holds CORS settings
type CORSConfig struct {
	Enabled        bool     `mapstructure:"enabled"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// Analytics holds product analytics configuration
type Analytics struct {
	PostHog PostHogConfig `mapstructure:"posthog"`
}

// PostHogConfig holds PostHog settings
type PostHogConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	APIKey  string `mapstructure:"api_key"`
	Host    string `mapstructure:"host"`
}

// Logging holds logging configuration
type Logging struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

var globalConfig *Config

// Load loads the configuration from various sources
func Load(configFile string) (*Config, error) {
	if globalConfig != nil {
		return globalConfig, nil
	}

	// Load .env file if it exists
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(".env"); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: Error loading .env file: %v\n", err)
		}
	}

	if configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME")
		viper.SetConfigName(".seoforge")
		viper.SetConfigType("yaml")
	}

	setDefaults()
	bindEnvironmentVariables()

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	config := &Config{}
	if err := viper.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := postProcessConfig(config); err != nil {
		return nil, fmt.Errorf("error post-processing config: %w", err)
	}

	if err := validateConfig(config); err != nil {
		return nil, err
	}

	globalConfig = config
	return config, nil
}

// Get returns the global configuration, loading it if necessary
func Get() *Config {
	if globalConfig == nil {
		config, err := Load("")
		if err != nil {
			panic(fmt.Sprintf("Failed to load configuration: %v", err))
		}
		return config
	}
	return globalConfig
}

// setDefaults sets default configuration values
func setDefaults() {
	viper.SetDefault("app.debug", false)
	viper.SetDefault("app.data_dir", ".seoforge")

	viper.SetDefault("database.driver", "sqlite")
	viper.SetDefault("database.connection_string", "")

	viper.SetDefault("ai.provider", "gemini")
	viper.SetDefault("ai.gemini.model", "gemini-2.5-flash")
	viper.SetDefault("ai.gemini.image_model", "imagen-3.0-generate-002")
	viper.SetDefault("ai.gemini.temperature", 0.7)
	viper.SetDefault("ai.gemini.max_tokens", 16384)
	viper.SetDefault("ai.openai.model", "gpt-4o")
	viper.SetDefault("ai.openai.image_model", "gpt-image-1")
	viper.SetDefault("ai.openai.base_url", "")
	viper.SetDefault("ai.openai.max_tokens", 16384)

	viper.SetDefault("images.provider", "gemini")
	viper.SetDefault("images.timeout", "90s")

	viper.SetDefault("search.provider", "dataforseo")
	viper.SetDefault("search.depth", 10)
	viper.SetDefault("search.timeout", "10s")
	viper.SetDefault("search.rate_limit", "")
	viper.SetDefault("search.providers.dataforseo.base_url", "https://api.dataforseo.com")

	viper.SetDefault("fetch.timeout", "10s")
	viper.SetDefault("fetch.user_agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36")
	viper.SetDefault("fetch.render_js", false)
	viper.SetDefault("fetch.preview_chars", 1000)

	viper.SetDefault("pipeline.max_concurrency", 3)
	viper.SetDefault("pipeline.max_competitors", 3)
	viper.SetDefault("pipeline.max_links", 20)
	viper.SetDefault("pipeline.default_links", 3)
	viper.SetDefault("pipeline.watermark_text", "")
	viper.SetDefault("pipeline.timeouts.load", "5s")
	viper.SetDefault("pipeline.timeouts.serp", "15s")
	viper.SetDefault("pipeline.timeouts.links", "5s")
	viper.SetDefault("pipeline.timeouts.brief", "90s")
	viper.SetDefault("pipeline.timeouts.content", "240s")
	viper.SetDefault("pipeline.timeouts.plan", "60s")

	viper.SetDefault("storage.provider", "local")
	viper.SetDefault("storage.local.directory", ".seoforge/media")
	viper.SetDefault("storage.local.base_url", "http://localhost:8080/media")

	viper.SetDefault("output.directory", "articles")

	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.read_timeout", "30s")
	viper.SetDefault("server.write_timeout", "10m")
	viper.SetDefault("server.shutdown_timeout", "30s")
	viper.SetDefault("server.cors.enabled", false)

	viper.SetDefault("analytics.posthog.enabled", false)
	viper.SetDefault("analytics.posthog.host", "https://us.i.posthog.com")

	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "json")
}

// bindEnvironmentVariables sets up flexible environment variable binding
func bindEnvironmentVariables() {
	bindEnvKeys("ai.gemini.api_key", []string{
		"GEMINI_API_KEY",
		"GOOGLE_GEMINI_API_KEY",
		"GOOGLE_AI_API_KEY",
	})

	bindEnvKeys("ai.openai.api_key", []string{
		"OPENAI_API_KEY",
	})

	bindEnvKeys("search.providers.dataforseo.login", []string{
		"DATAFORSEO_LOGIN",
		"DATAFORSEO_USERNAME",
	})

	bindEnvKeys("search.providers.dataforseo.password", []string{
		"DATAFORSEO_PASSWORD",
	})

	bindEnvKeys("search.providers.serpapi.api_key", []string{
		"SERPAPI_API_KEY",
		"SERPAPI_KEY",
	})

	bindEnvKeys("search.providers.google.api_key", []string{
		"GOOGLE_CSE_API_KEY",
		"GOOGLE_SEARCH_API_KEY",
	})

	bindEnvKeys("search.providers.google.search_engine_id", []string{
		"GOOGLE_CSE_ID",
		"GOOGLE_SEARCH_ENGINE_ID",
	})

	bindEnvKeys("database.connection_string", []string{
		"DATABASE_URL",
	})

	bindEnvKeys("storage.gcs.credentials_file", []string{
		"GOOGLE_APPLICATION_CREDENTIALS",
	})

	bindEnvKeys("analytics.posthog.api_key", []string{
		"POSTHOG_API_KEY",
	})
}

// bindEnvKeys binds the first found environment variable to a viper key
func bindEnvKeys(viperKey string, envKeys []string) {
	for _, envKey := range envKeys {
		if value := os.Getenv(envKey); value != "" {
			viper.Set(viperKey, value)
			return
		}
	}
}

// postProcessConfig applies post-processing to configuration values
func postProcessConfig(config *Config) error {
	config.App.DataDir = expandPath(config.App.DataDir)
	config.Output.Directory = expandPath(config.Output.Directory)
	config.Storage.Local.Directory = expandPath(config.Storage.Local.Directory)

	if config.Database.Driver == "sqlite" && config.Database.ConnectionString == "" {
		config.Database.ConnectionString = filepath.Join(config.App.DataDir, "seoforge.db")
	}
	if config.Pipeline.MaxConcurrency < 1 {
		config.Pipeline.MaxConcurrency = 1
	}

	durations := map[string]string{
		"images.timeout":            config.Images.Timeout,
		"search.timeout":            config.Search.Timeout,
		"search.rate_limit":         config.Search.RateLimit,
		"fetch.timeout":             config.Fetch.Timeout,
		"pipeline.timeouts.load":    config.Pipeline.Timeouts.Load,
		"pipeline.timeouts.serp":    config.Pipeline.Timeouts.Serp,
		"pipeline.timeouts.links":   config.Pipeline.Timeouts.Links,
		"pipeline.timeouts.brief":   config.Pipeline.Timeouts.Brief,
		"pipeline.timeouts.content": config.Pipeline.Timeouts.Content,
		"pipeline.timeouts.plan":    config.Pipeline.Timeouts.Plan,
	}

	for key, duration := range durations {
		if duration != "" {
			if _, err := time.ParseDuration(duration); err != nil {
				return fmt.Errorf("invalid duration for %s: %s", key, duration)
			}
		}
	}

	return nil
}

// expandPath expands ~ and environment variables in paths
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return os.ExpandEnv(path)
}

// validateConfig rejects unknown provider names and incomplete credentials
func validateConfig(config *Config) error {
	var errors []string

	switch config.Database.Driver {
	case "sqlite", "postgres":
	default:
		errors = append(errors, fmt.Sprintf("Unknown database driver: %s. Supported: sqlite, postgres", config.Database.Driver))
	}

	switch config.AI.Provider {
	case "gemini", "openai":
	default:
		errors = append(errors, fmt.Sprintf("Unknown AI provider: %s. Supported: gemini, openai", config.AI.Provider))
	}

	switch config.Images.Provider {
	case "gemini", "openai":
	default:
		errors = append(errors, fmt.Sprintf("Unknown image provider: %s. Supported: gemini, openai", config.Images.Provider))
	}

	switch config.Search.Provider {
	case "dataforseo", "serpapi", "google", "duckduckgo", "mock":
	default:
		errors = append(errors, fmt.Sprintf("Unknown search provider: %s. Supported: dataforseo, serpapi, google, duckduckgo, mock", config.Search.Provider))
	}

	switch config.Storage.Provider {
	case "local":
	case "gcs":
		if config.Storage.GCS.Bucket == "" {
			errors = append(errors, "GCS storage requires storage.gcs.bucket")
		}
	default:
		errors = append(errors, fmt.Sprintf("Unknown storage provider: %s. Supported: local, gcs", config.Storage.Provider))
	}

	if config.Analytics.PostHog.Enabled && config.Analytics.PostHog.APIKey == "" {
		errors = append(errors, "PostHog analytics enabled but POSTHOG_API_KEY is not set")
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration errors:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

// Duration parses a validated duration string, returning fallback when empty.
func Duration(value string, fallback time.Duration) time.Duration {
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return d
}

// Reset clears the global configuration (useful for testing)
func Reset() {
	globalConfig = nil
	viper.Reset()
}
