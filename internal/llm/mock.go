package llm

import (
	"context"
	"sync"
)

// MockAgent is a scripted Agent for tests.
type MockAgent struct {
	mu        sync.Mutex
	Responses []string // Returned in order; the last one repeats
	Err       error
	Requests  []Request
}

// NewMockAgent returns an agent that replies with responses in order.
func NewMockAgent(responses ...string) *MockAgent {
	return &MockAgent{Responses: responses}
}

// Model returns a fixed model name.
func (m *MockAgent) Model() string {
	return "mock"
}

// Generate records the request and returns the next scripted response.
func (m *MockAgent) Generate(ctx context.Context, req Request) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Requests = append(m.Requests, req)
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if m.Err != nil {
		return "", m.Err
	}
	if len(m.Responses) == 0 {
		return "", ErrEmptyResponse
	}
	idx := len(m.Requests) - 1
	if idx >= len(m.Responses) {
		idx = len(m.Responses) - 1
	}
	return m.Responses[idx], nil
}

// Calls returns the number of Generate calls.
func (m *MockAgent) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Requests)
}
