// Package cost estimates token usage and spend for text-model calls.
package cost

import (
	"fmt"
	"math"
	"strings"
	"unicode/utf8"
)

// Pricing is the list price of a text model.
type Pricing struct {
	Model                 string
	InputCostPer1MTokens  float64 // USD
	OutputCostPer1MTokens float64 // USD
}

// PricingTable holds list prices keyed by model name.
var PricingTable = map[string]Pricing{
	"gemini-2.5-flash": {Model: "gemini-2.5-flash", InputCostPer1MTokens: 0.30, OutputCostPer1MTokens: 2.50},
	"gemini-2.5-pro":   {Model: "gemini-2.5-pro", InputCostPer1MTokens: 1.25, OutputCostPer1MTokens: 10.00},
	"gemini-2.0-flash": {Model: "gemini-2.0-flash", InputCostPer1MTokens: 0.10, OutputCostPer1MTokens: 0.40},
	"gpt-4o":           {Model: "gpt-4o", InputCostPer1MTokens: 2.50, OutputCostPer1MTokens: 10.00},
	"gpt-4o-mini":      {Model: "gpt-4o-mini", InputCostPer1MTokens: 0.15, OutputCostPer1MTokens: 0.60},
	"gpt-4.1":          {Model: "gpt-4.1", InputCostPer1MTokens: 2.00, OutputCostPer1MTokens: 8.00},
}

// EstimateTokenCount approximates the token count of text at 3.5
// characters per token after whitespace is normalized.
func EstimateTokenCount(text string) int {
	text = strings.TrimSpace(text)
	text = strings.ReplaceAll(text, "\n", " ")
	return int(math.Ceil(float64(utf8.RuneCountInString(text)) / 3.5))
}

// Usage is the estimated footprint of one call.
type Usage struct {
	Model        string
	InputTokens  int
	OutputTokens int
	CostUSD      float64
	Priced       bool // False when the model has no pricing entry
}

// TotalTokens returns input plus output tokens.
func (u Usage) TotalTokens() int {
	return u.InputTokens + u.OutputTokens
}

// Estimate prices a call from its prompt and completion text.
func Estimate(model, prompt, completion string) Usage {
	u := Usage{
		Model:        model,
		InputTokens:  EstimateTokenCount(prompt),
		OutputTokens: EstimateTokenCount(completion),
	}
	if p, ok := Lookup(model); ok {
		u.Priced = true
		u.CostUSD = float64(u.InputTokens)/1e6*p.InputCostPer1MTokens +
			float64(u.OutputTokens)/1e6*p.OutputCostPer1MTokens
	}
	return u
}

// Lookup finds pricing for model. Versioned names such as
// "gemini-2.5-flash-preview-05-20" match their base entry; the longest
// matching base wins.
func Lookup(model string) (Pricing, bool) {
	model = strings.ToLower(strings.TrimPrefix(model, "models/"))
	if p, ok := PricingTable[model]; ok {
		return p, true
	}
	var best Pricing
	found := false
	for name, p := range PricingTable {
		if strings.HasPrefix(model, name+"-") && len(name) > len(best.Model) {
			best, found = p, true
		}
	}
	return best, found
}

// FormatUSD renders a cost with enough precision for sub-cent calls.
func FormatUSD(v float64) string {
	if v < 0.01 {
		return fmt.Sprintf("$%.4f", v)
	}
	return fmt.Sprintf("$%.2f", v)
}
