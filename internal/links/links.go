// Package links resolves existing site pages usable as internal links.
package links

import (
	"context"
	"fmt"
	"strings"

	"seoforge/internal/core"
)

// MaxCandidates caps the candidate list in both modes.
const MaxCandidates = 20

// CandidateStore is the persistence view the fetcher needs.
type CandidateStore interface {
	LoadLinkCandidates(ctx context.Context, productID, excludeArticleID string, limit int) ([]core.LinkCandidate, error)
}

// Fetcher selects between sitemap and database candidates.
type Fetcher struct {
	store CandidateStore
	limit int
}

// NewFetcher creates a fetcher. A nil store disables database mode.
func NewFetcher(store CandidateStore, limit int) *Fetcher {
	if limit <= 0 || limit > MaxCandidates {
		limit = MaxCandidates
	}
	return &Fetcher{store: store, limit: limit}
}

// Fetch returns the candidates for product, never including articleID.
func (f *Fetcher) Fetch(ctx context.Context, product core.ProductConfig, articleID string) ([]core.LinkCandidate, error) {
	switch product.LinkSource {
	case core.LinkSourceSitemap:
		return f.fromSitemap(product.SitemapPages), nil
	case core.LinkSourceDatabase, "":
		if f.store == nil {
			return nil, fmt.Errorf("database link source requested but no store configured")
		}
		candidates, err := f.store.LoadLinkCandidates(ctx, product.ID, articleID, f.limit)
		if err != nil {
			return nil, fmt.Errorf("failed to load published articles: %w", err)
		}
		return f.clean(candidates), nil
	default:
		return nil, fmt.Errorf("unknown link source %q", product.LinkSource)
	}
}

func (f *Fetcher) fromSitemap(pages []core.LinkCandidate) []core.LinkCandidate {
	return f.clean(pages)
}

// clean drops entries without a URL, deduplicates by URL and applies the cap.
func (f *Fetcher) clean(in []core.LinkCandidate) []core.LinkCandidate {
	seen := make(map[string]bool, len(in))
	out := make([]core.LinkCandidate, 0, min(len(in), f.limit))
	for _, c := range in {
		url := strings.TrimSpace(c.URL)
		if url == "" || seen[url] {
			continue
		}
		seen[url] = true
		c.URL = url
		if strings.TrimSpace(c.Title) == "" {
			c.Title = c.Keyword
		}
		out = append(out, c)
		if len(out) == f.limit {
			break
		}
	}
	return out
}
