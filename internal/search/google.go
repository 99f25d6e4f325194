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

const googleCSEBaseURL = "https://www.googleapis.com/customsearch/v1"

// GoogleProvider implements Provider using the Google Custom Search JSON API.
// The API returns at most 10 results per request, which covers the pages
// the pipeline analyzes.
type GoogleProvider struct {
	apiKey   string
	engineID string
	baseURL  string
	client   *http.Client
	throttle *throttle
}

// NewGoogleProvider creates a new Google Custom Search provider
func NewGoogleProvider(opts Options) *GoogleProvider {
	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = googleCSEBaseURL
	}
	return &GoogleProvider{
		apiKey:   opts.GoogleAPIKey,
		engineID: opts.SearchEngineID,
		baseURL:  baseURL,
		client:   &http.Client{Timeout: timeoutOr(opts.Timeout, 10*time.Second)},
		throttle: newThrottle(timeoutOr(opts.RateLimit, 100*time.Millisecond)),
	}
}

// Name returns the name of this provider
func (g *GoogleProvider) Name() string {
	return "Google Custom Search"
}

// Search performs a search using Google Custom Search
func (g *GoogleProvider) Search(ctx context.Context, q Query) ([]core.SerpResult, error) {
	q = q.withDefaults()
	if err := g.throttle.wait(ctx); err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("key", g.apiKey)
	params.Set("cx", g.engineID)
	params.Set("q", q.Keyword)
	params.Set("num", strconv.Itoa(min(q.Depth, 10)))
	params.Set("gl", q.CountryGL)
	params.Set("hl", q.LanguageCode)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create Google CSE request: %w", err)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	defer resp.Body.Close()

	var apiResponse struct {
		Items []struct {
			Title   string `json:"title"`
			Link    string `json:"link"`
			Snippet string `json:"snippet"`
		} `json:"items"`
		Error *struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
		} `json:"error,omitempty"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&apiResponse); err != nil {
		if resp.StatusCode != http.StatusOK {
			return nil, &ProviderError{Provider: g.Name(), Code: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
		}
		return nil, fmt.Errorf("failed to parse Google CSE response: %w", err)
	}
	if apiResponse.Error != nil {
		return nil, &ProviderError{Provider: g.Name(), Code: apiResponse.Error.Code, Message: apiResponse.Error.Message}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &ProviderError{Provider: g.Name(), Code: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
	}

	results := make([]core.SerpResult, 0, len(apiResponse.Items))
	for i, item := range apiResponse.Items {
		results = append(results, core.SerpResult{
			Position: i + 1,
			URL:      item.Link,
			Title:    item.Title,
			Snippet:  item.Snippet,
		})
	}

	logger.Debug("Google Custom Search completed", "keyword", q.Keyword, "results_found", len(results))
	return results, nil
}
