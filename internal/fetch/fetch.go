// Package fetch downloads and parses competitor pages.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"
)

// Defaults for competitor fetching.
const (
	DefaultTimeout      = 10 * time.Second
	DefaultUserAgent    = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"
	DefaultMaxBodyBytes = 5 << 20
	maxRedirects        = 10
)

var (
	// ErrNotHTML is returned when the response is not an HTML document
	ErrNotHTML = errors.New("response is not HTML")
	// ErrEmptyContent is returned when a page has no visible text
	ErrEmptyContent = errors.New("page has no visible text")
	// ErrTooManyRedirects is returned when a redirect chain exceeds the limit
	ErrTooManyRedirects = errors.New("too many redirects")
)

// StatusError reports a non-2xx response.
type StatusError struct {
	URL  string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("failed to fetch URL %s: status code %d", e.URL, e.Code)
}

// Client fetches HTML pages with a browser-like user agent.
type Client struct {
	http         *http.Client
	userAgent    string
	maxBodyBytes int64
}

// Option configures a Client.
type Option func(*Client)

// WithUserAgent overrides the user agent.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// WithTimeout overrides the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// WithHTTPClient uses hc for requests. hc is copied; when it has no
// redirect policy of its own the redirect cap still applies, and a zero
// timeout keeps the current one.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc == nil {
			return
		}
		clone := *hc
		if clone.CheckRedirect == nil {
			clone.CheckRedirect = c.http.CheckRedirect
		}
		if clone.Timeout == 0 {
			clone.Timeout = c.http.Timeout
		}
		c.http = &clone
	}
}

// NewClient creates a fetch client.
func NewClient(opts ...Option) *Client {
	c := &Client{
		http: &http.Client{
			Timeout: DefaultTimeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= maxRedirects {
					return ErrTooManyRedirects
				}
				return nil
			},
		},
		userAgent:    DefaultUserAgent,
		maxBodyBytes: DefaultMaxBodyBytes,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FetchHTML downloads url and returns the HTML body.
func (c *Client) FetchHTML(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request for %s: %w", url, err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch URL %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &StatusError{URL: url, Code: resp.StatusCode}
	}

	if ct := resp.Header.Get("Content-Type"); ct != "" {
		mediaType, _, err := mime.ParseMediaType(ct)
		if err != nil || (mediaType != "text/html" && mediaType != "application/xhtml+xml") {
			return "", fmt.Errorf("%w: %s (%s)", ErrNotHTML, url, ct)
		}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBodyBytes))
	if err != nil {
		return "", fmt.Errorf("failed to read response body from %s: %w", url, err)
	}
	if strings.TrimSpace(string(body)) == "" {
		return "", fmt.Errorf("%w: %s", ErrEmptyContent, url)
	}

	return string(body), nil
}
