package pipeline

import (
	"context"
	"fmt"

	"seoforge/internal/core"
	"seoforge/internal/locale"
	"seoforge/internal/search"
)

// SerpSource adapts a search.Provider to the SerpFetcher stage contract.
type SerpSource struct {
	provider search.Provider
	locales  *locale.Table
	depth    int
	top      int
}

// NewSerpSource wraps provider. top is the number of organic results kept.
func NewSerpSource(provider search.Provider, locales *locale.Table, top int) *SerpSource {
	if locales == nil {
		locales = locale.Default()
	}
	if top <= 0 {
		top = search.DefaultTop
	}
	return &SerpSource{provider: provider, locales: locales, depth: search.DefaultDepth, top: top}
}

// FetchSerp resolves the market and returns the top organic results.
func (s *SerpSource) FetchSerp(ctx context.Context, keyword, countryCode, languageCode string) ([]core.SerpResult, error) {
	market := s.locales.Resolve(countryCode, languageCode)
	results, err := s.provider.Search(ctx, search.Query{
		Keyword:      keyword,
		LocationCode: market.Country.LocationCode,
		CountryGL:    market.Country.GL,
		LanguageCode: market.LanguageCode,
		Depth:        s.depth,
	})
	if err != nil {
		return nil, fmt.Errorf("%s search failed: %w", s.provider.Name(), err)
	}
	return search.TopOrganic(results, s.top), nil
}

// unavailableSerp stands in for a provider that could not be configured.
// Every call degrades the stage with the construction error.
type unavailableSerp struct {
	err error
}

func (u unavailableSerp) FetchSerp(ctx context.Context, keyword, countryCode, languageCode string) ([]core.SerpResult, error) {
	return nil, u.err
}
