package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"seoforge/internal/core"
	"seoforge/internal/logger"
)

const dataForSEOBaseURL = "https://api.dataforseo.com"

const dataForSEOOK = 20000

// DataForSEOProvider implements Provider using the DataForSEO live organic SERP endpoint
type DataForSEOProvider struct {
	login    string
	password string
	baseURL  string
	client   *http.Client
	throttle *throttle
}

// NewDataForSEOProvider creates a new DataForSEO provider
func NewDataForSEOProvider(opts Options) *DataForSEOProvider {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = dataForSEOBaseURL
	}
	return &DataForSEOProvider{
		login:    opts.Login,
		password: opts.Password,
		baseURL:  strings.TrimRight(baseURL, "/"),
		client:   &http.Client{Timeout: timeout},
		throttle: newThrottle(opts.RateLimit),
	}
}

// Name returns the name of this provider
func (d *DataForSEOProvider) Name() string {
	return "DataForSEO"
}

type dataForSEOTask struct {
	Keyword      string `json:"keyword"`
	LocationCode int    `json:"location_code"`
	LanguageCode string `json:"language_code"`
	Device       string `json:"device"`
	OS           string `json:"os"`
	Depth        int    `json:"depth"`
}

type dataForSEOResponse struct {
	StatusCode    int    `json:"status_code"`
	StatusMessage string `json:"status_message"`
	Tasks         []struct {
		StatusCode    int    `json:"status_code"`
		StatusMessage string `json:"status_message"`
		Result        []struct {
			Items []struct {
				Type        string `json:"type"`
				RankGroup   int    `json:"rank_group"`
				URL         string `json:"url"`
				Title       string `json:"title"`
				Description string `json:"description"`
			} `json:"items"`
		} `json:"result"`
	} `json:"tasks"`
}

// Search performs a live organic Google search
func (d *DataForSEOProvider) Search(ctx context.Context, q Query) ([]core.SerpResult, error) {
	q = q.withDefaults()
	if err := d.throttle.wait(ctx); err != nil {
		return nil, err
	}

	body, err := json.Marshal([]dataForSEOTask{{
		Keyword:      q.Keyword,
		LocationCode: q.LocationCode,
		LanguageCode: q.LanguageCode,
		Device:       q.Device,
		OS:           q.OS,
		Depth:        q.Depth,
	}})
	if err != nil {
		return nil, fmt.Errorf("failed to encode DataForSEO task: %w", err)
	}

	endpoint := d.baseURL + "/v3/serp/google/organic/live/advanced"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create DataForSEO request: %w", err)
	}
	req.SetBasicAuth(d.login, d.password)
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return nil, fmt.Errorf("dataforseo: %w (status %d)", ErrUnauthorized, resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &ProviderError{Provider: d.Name(), Code: resp.StatusCode, Message: strings.TrimSpace(string(msg))}
	}

	var apiResponse dataForSEOResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResponse); err != nil {
		return nil, fmt.Errorf("failed to parse DataForSEO response: %w", err)
	}

	if apiResponse.StatusCode != dataForSEOOK {
		return nil, &ProviderError{Provider: d.Name(), Code: apiResponse.StatusCode, Message: apiResponse.StatusMessage}
	}
	if len(apiResponse.Tasks) == 0 {
		return nil, &ProviderError{Provider: d.Name(), Code: apiResponse.StatusCode, Message: "empty task list"}
	}
	task := apiResponse.Tasks[0]
	if task.StatusCode != dataForSEOOK {
		return nil, &ProviderError{Provider: d.Name(), Code: task.StatusCode, Message: task.StatusMessage}
	}

	var results []core.SerpResult
	for _, result := range task.Result {
		for _, item := range result.Items {
			if item.Type != "organic" {
				continue
			}
			results = append(results, core.SerpResult{
				Position: item.RankGroup,
				URL:      item.URL,
				Title:    item.Title,
				Snippet:  item.Description,
			})
		}
	}

	logger.Debug("DataForSEO search completed", "keyword", q.Keyword, "location_code", q.LocationCode, "results_found", len(results))

	return results, nil
}
