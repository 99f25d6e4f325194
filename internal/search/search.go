package search

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"seoforge/internal/core"
)

// Provider fetches organic search results for a keyword.
type Provider interface {
	Search(ctx context.Context, q Query) ([]core.SerpResult, error)

	// Name returns the name of the search provider
	Name() string
}

// Query describes one SERP request.
type Query struct {
	Keyword      string
	LocationCode int    // DataForSEO location_code
	CountryGL    string // Google gl parameter
	LanguageCode string
	Depth        int    // Number of results requested
	Device       string // desktop or mobile
	OS           string
}

// Default request profile.
const (
	DefaultDepth  = 10
	DefaultDevice = "desktop"
	DefaultOS     = "windows"
	DefaultTop    = 3
)

// ProviderType represents the type of search provider
type ProviderType string

const (
	ProviderTypeDataForSEO ProviderType = "dataforseo"
	ProviderTypeSerpAPI    ProviderType = "serpapi"
	ProviderTypeGoogle     ProviderType = "google"
	ProviderTypeDuckDuckGo ProviderType = "duckduckgo"
	ProviderTypeMock       ProviderType = "mock"
)

// Options configures provider construction.
type Options struct {
	Login     string // DataForSEO login
	Password  string // DataForSEO password
	BaseURL   string // Overrides the provider endpoint
	APIKey    string // SerpAPI key
	Timeout   time.Duration
	RateLimit time.Duration // Minimum gap between calls; providers pick a default when zero

	GoogleAPIKey   string // Custom Search JSON API key
	SearchEngineID string // Custom Search engine id (cx)
	UserAgent      string // Sent by the DuckDuckGo HTML scraper
}

// NewProvider creates a search provider of the specified type
func NewProvider(providerType ProviderType, opts Options) (Provider, error) {
	switch providerType {
	case ProviderTypeDataForSEO, "":
		if opts.Login == "" || opts.Password == "" {
			return nil, fmt.Errorf("dataforseo: %w", ErrMissingCredentials)
		}
		return NewDataForSEOProvider(opts), nil
	case ProviderTypeSerpAPI:
		if opts.APIKey == "" {
			return nil, fmt.Errorf("serpapi: %w", ErrMissingCredentials)
		}
		return NewSerpAPIProvider(opts), nil
	case ProviderTypeGoogle:
		if opts.GoogleAPIKey == "" || opts.SearchEngineID == "" {
			return nil, fmt.Errorf("google: %w", ErrMissingCredentials)
		}
		return NewGoogleProvider(opts), nil
	case ProviderTypeDuckDuckGo:
		return NewDuckDuckGoProvider(opts), nil
	case ProviderTypeMock:
		return NewMockProvider(), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedProvider, providerType)
	}
}

// TopOrganic keeps results that have both a URL and a title, ordered by
// position, and truncates to n.
func TopOrganic(results []core.SerpResult, n int) []core.SerpResult {
	kept := make([]core.SerpResult, 0, len(results))
	for _, r := range results {
		if strings.TrimSpace(r.URL) == "" || strings.TrimSpace(r.Title) == "" {
			continue
		}
		kept = append(kept, r)
	}
	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].Position < kept[j].Position
	})
	if n > 0 && len(kept) > n {
		kept = kept[:n]
	}
	return kept
}

// throttle spaces out calls to a provider.
type throttle struct {
	mu   sync.Mutex
	gap  time.Duration
	last time.Time
}

func newThrottle(gap time.Duration) *throttle {
	return &throttle{gap: gap}
}

func (t *throttle) wait(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if elapsed := time.Since(t.last); !t.last.IsZero() && elapsed < t.gap {
		timer := time.NewTimer(t.gap - elapsed)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	t.last = time.Now()
	return nil
}

func timeoutOr(d, fallback time.Duration) time.Duration {
	if d <= 0 {
		return fallback
	}
	return d
}

func (q Query) withDefaults() Query {
	if q.Depth <= 0 {
		q.Depth = DefaultDepth
	}
	if q.Device == "" {
		q.Device = DefaultDevice
	}
	if q.OS == "" {
		q.OS = DefaultOS
	}
	if q.LocationCode == 0 {
		q.LocationCode = 2840
	}
	if q.CountryGL == "" {
		q.CountryGL = "us"
	}
	if q.LanguageCode == "" {
		q.LanguageCode = "en"
	}
	return q
}
