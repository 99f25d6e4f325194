package cost

import (
	"math"
	"testing"
)

func TestEstimateTokenCount(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected int
	}{
		{name: "empty string", input: "", expected: 0},
		{name: "simple text", input: "Hello world", expected: 4},                                                            // 11 / 3.5
		{name: "longer text", input: "This is a longer piece of text that should result in more tokens.", expected: 19}, // 66 / 3.5
		{name: "text with newlines", input: "Line 1\nLine 2\nLine 3", expected: 6},
		{name: "text with extra whitespace", input: "  Text with   extra    spaces  ", expected: 8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := EstimateTokenCount(tt.input); got != tt.expected {
				t.Errorf("EstimateTokenCount(%q) = %d, expected %d", tt.input, got, tt.expected)
			}
		})
	}
}

func TestLookup(t *testing.T) {
	tests := []struct {
		model string
		want  string
		ok    bool
	}{
		{"gemini-2.5-flash", "gemini-2.5-flash", true},
		{"models/gemini-2.5-pro", "gemini-2.5-pro", true},
		{"gemini-2.5-flash-preview-05-20", "gemini-2.5-flash", true},
		{"gpt-4o-mini-2024-07-18", "gpt-4o-mini", true},
		{"GPT-4o", "gpt-4o", true},
		{"claude-unknown", "", false},
	}
	for _, tt := range tests {
		p, ok := Lookup(tt.model)
		if ok != tt.ok || p.Model != tt.want {
			t.Errorf("Lookup(%q) = (%q, %v), want (%q, %v)", tt.model, p.Model, ok, tt.want, tt.ok)
		}
	}
}

func TestEstimate(t *testing.T) {
	prompt := string(make([]byte, 3500000)) // 1M tokens of NUL runes
	u := Estimate("gpt-4o", prompt, "")
	if u.InputTokens != 1000000 {
		t.Fatalf("input tokens = %d", u.InputTokens)
	}
	if !u.Priced || math.Abs(u.CostUSD-2.50) > 1e-9 {
		t.Errorf("cost = %v priced=%v, want 2.50", u.CostUSD, u.Priced)
	}

	unknown := Estimate("mystery", "hello", "world")
	if unknown.Priced || unknown.CostUSD != 0 {
		t.Errorf("unknown model should be unpriced, got %+v", unknown)
	}
	if unknown.TotalTokens() != 4 {
		t.Errorf("total tokens = %d, want 4", unknown.TotalTokens())
	}
}

func TestFormatUSD(t *testing.T) {
	if got := FormatUSD(0.0012); got != "$0.0012" {
		t.Errorf("FormatUSD(0.0012) = %s", got)
	}
	if got := FormatUSD(1.5); got != "$1.50" {
		t.Errorf("FormatUSD(1.5) = %s", got)
	}
}
