package search

import (
	"context"
	"fmt"

	"seoforge/internal/core"
)

// MockProvider implements Provider for testing and offline runs
type MockProvider struct {
	name    string
	results []core.SerpResult
	err     error
	Calls   []Query
}

// NewMockProvider creates a new mock search provider
func NewMockProvider() *MockProvider {
	return &MockProvider{
		name: "Mock",
		results: []core.SerpResult{
			{Position: 1, URL: "https://example.com/article1", Title: "Example Article 1", Snippet: "This is a mock search result."},
			{Position: 2, URL: "https://test.org/article2", Title: "Test Article 2", Snippet: "Another mock search result."},
			{Position: 3, URL: "https://demo.net/article3", Title: "Demo Article 3", Snippet: "Third mock result."},
		},
	}
}

// Name returns the name of this provider
func (m *MockProvider) Name() string {
	return m.name
}

// Search returns the configured results or error
func (m *MockProvider) Search(ctx context.Context, q Query) ([]core.SerpResult, error) {
	m.Calls = append(m.Calls, q)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if m.err != nil {
		return nil, m.err
	}

	depth := q.Depth
	if depth <= 0 || depth > len(m.results) {
		depth = len(m.results)
	}
	results := make([]core.SerpResult, depth)
	copy(results, m.results[:depth])
	for i := range results {
		if results[i].Snippet == "" {
			results[i].Snippet = fmt.Sprintf("Result for %s", q.Keyword)
		}
	}
	return results, nil
}

// SetResults allows customization of mock results for testing
func (m *MockProvider) SetResults(results []core.SerpResult) {
	m.results = results
}

// SetError makes every Search call fail with err
func (m *MockProvider) SetError(err error) {
	m.err = err
}
