package search

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"seoforge/internal/core"
	"seoforge/internal/logger"
)

const serpAPIBaseURL = "https://serpapi.com/search"

// SerpAPIProvider implements Provider using SerpAPI
type SerpAPIProvider struct {
	apiKey   string
	baseURL  string
	client   *http.Client
	throttle *throttle
}

// NewSerpAPIProvider creates a new SerpAPI search provider
func NewSerpAPIProvider(opts Options) *SerpAPIProvider {
	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = serpAPIBaseURL
	}
	return &SerpAPIProvider{
		apiKey:   opts.APIKey,
		baseURL:  baseURL,
		client:   &http.Client{Timeout: timeoutOr(opts.Timeout, 10*time.Second)},
		throttle: newThrottle(opts.RateLimit),
	}
}

// Name returns the name of this provider
func (s *SerpAPIProvider) Name() string {
	return "SerpAPI"
}

// Search performs a search using SerpAPI
func (s *SerpAPIProvider) Search(ctx context.Context, q Query) ([]core.SerpResult, error) {
	q = q.withDefaults()

	if err := s.throttle.wait(ctx); err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("q", q.Keyword)
	params.Set("engine", "google")
	params.Set("api_key", s.apiKey)
	params.Set("num", strconv.Itoa(q.Depth))
	params.Set("gl", q.CountryGL)
	params.Set("hl", q.LanguageCode)
	params.Set("device", q.Device)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create SerpAPI request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	defer resp.Body.Close()

	var apiResponse struct {
		OrganicResults []struct {
			Title    string `json:"title"`
			Link     string `json:"link"`
			Snippet  string `json:"snippet"`
			Position int    `json:"position"`
		} `json:"organic_results"`
		Error string `json:"error,omitempty"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&apiResponse); err != nil {
		if resp.StatusCode != http.StatusOK {
			return nil, &ProviderError{Provider: s.Name(), Code: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
		}
		return nil, fmt.Errorf("failed to parse SerpAPI response: %w", err)
	}

	if resp.StatusCode != http.StatusOK || apiResponse.Error != "" {
		// SerpAPI reports "no results" as an error string with status 200
		if resp.StatusCode == http.StatusOK && len(apiResponse.OrganicResults) == 0 {
			return nil, nil
		}
		return nil, &ProviderError{Provider: s.Name(), Code: resp.StatusCode, Message: apiResponse.Error}
	}

	results := make([]core.SerpResult, 0, len(apiResponse.OrganicResults))
	for _, item := range apiResponse.OrganicResults {
		results = append(results, core.SerpResult{
			Position: item.Position,
			URL:      item.Link,
			Title:    item.Title,
			Snippet:  item.Snippet,
		})
	}

	logger.Debug("SerpAPI search completed", "keyword", q.Keyword, "results_found", len(results))

	return results, nil
}
