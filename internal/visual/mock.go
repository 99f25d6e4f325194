package visual

import (
	"context"
	"sync"
)

// MockProvider is a scripted Provider for tests.
type MockProvider struct {
	mu      sync.Mutex
	Image   Image
	FailOn  map[string]error // prompt -> error
	Prompts []string
	Ratios  []string
}

// NewMockProvider returns a provider that always yields a small PNG.
func NewMockProvider() *MockProvider {
	return &MockProvider{
		Image:  Image{Data: []byte("\x89PNG\r\n\x1a\nmock"), ContentType: "image/png"},
		FailOn: make(map[string]error),
	}
}

// Name returns "mock".
func (m *MockProvider) Name() string {
	return "mock"
}

// Generate records the call and returns the scripted image or error.
func (m *MockProvider) Generate(ctx context.Context, prompt, aspectRatio string) (Image, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Prompts = append(m.Prompts, prompt)
	m.Ratios = append(m.Ratios, aspectRatio)
	if err := ctx.Err(); err != nil {
		return Image{}, err
	}
	if err, ok := m.FailOn[prompt]; ok {
		return Image{}, err
	}
	return m.Image, nil
}
