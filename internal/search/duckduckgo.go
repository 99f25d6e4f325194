package search

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"seoforge/internal/core"
	"seoforge/internal/logger"
)

const duckDuckGoBaseURL = "https://html.duckduckgo.com/html/"

const defaultDuckDuckGoUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"

// DuckDuckGoProvider scrapes the DuckDuckGo HTML endpoint. It needs no
// credentials, so it works as a fallback when no paid SERP API is set up.
type DuckDuckGoProvider struct {
	baseURL   string
	userAgent string
	client    *http.Client
	throttle  *throttle
}

// NewDuckDuckGoProvider creates a new DuckDuckGo search provider
func NewDuckDuckGoProvider(opts Options) *DuckDuckGoProvider {
	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = duckDuckGoBaseURL
	}
	ua := opts.UserAgent
	if ua == "" {
		ua = defaultDuckDuckGoUserAgent
	}
	return &DuckDuckGoProvider{
		baseURL:   baseURL,
		userAgent: ua,
		client:    &http.Client{Timeout: timeoutOr(opts.Timeout, 15*time.Second)},
		throttle:  newThrottle(timeoutOr(opts.RateLimit, 2*time.Second)),
	}
}

// Name returns the name of this provider
func (d *DuckDuckGoProvider) Name() string {
	return "DuckDuckGo"
}

// Search performs a search against the DuckDuckGo HTML endpoint
func (d *DuckDuckGoProvider) Search(ctx context.Context, q Query) ([]core.SerpResult, error) {
	q = q.withDefaults()
	if err := d.throttle.wait(ctx); err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("q", q.Keyword)
	params.Set("kl", strings.ToLower(q.CountryGL)+"-"+strings.ToLower(q.LanguageCode))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create DuckDuckGo request: %w", err)
	}
	req.Header.Set("User-Agent", d.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")
	req.Header.Set("Accept-Language", q.LanguageCode)

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &ProviderError{Provider: d.Name(), Code: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse DuckDuckGo response: %w", err)
	}
	if doc.Find(".anomaly-modal, #challenge-form").Length() > 0 {
		return nil, fmt.Errorf("duckduckgo: %w: challenge page returned", ErrRateLimited)
	}

	results := parseDuckDuckGo(doc, q.Depth)
	logger.Debug("DuckDuckGo search completed", "keyword", q.Keyword, "results_found", len(results))
	return results, nil
}

// parseDuckDuckGo extracts organic results in page order, skipping ads.
func parseDuckDuckGo(doc *goquery.Document, limit int) []core.SerpResult {
	var results []core.SerpResult
	doc.Find(".result").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		if sel.HasClass("result--ad") {
			return true
		}
		link := sel.Find("a.result__a").First()
		href, _ := link.Attr("href")
		target := resolveDuckDuckGoURL(href)
		title := strings.Join(strings.Fields(link.Text()), " ")
		if target == "" || title == "" {
			return true
		}
		results = append(results, core.SerpResult{
			Position: len(results) + 1,
			URL:      target,
			Title:    title,
			Snippet:  strings.Join(strings.Fields(sel.Find(".result__snippet").Text()), " "),
		})
		return limit <= 0 || len(results) < limit
	})
	return results
}

// resolveDuckDuckGoURL unwraps "/l/?uddg=<target>" redirect links.
func resolveDuckDuckGoURL(href string) string {
	if href == "" {
		return ""
	}
	if strings.HasPrefix(href, "//") {
		href = "https:" + href
	}
	u, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if (u.Host == "" || strings.HasSuffix(u.Host, "duckduckgo.com")) && strings.HasPrefix(u.Path, "/l/") {
		if target := u.Query().Get("uddg"); target != "" {
			return resolveDuckDuckGoURL(target)
		}
		return ""
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return ""
	}
	return u.String()
}
