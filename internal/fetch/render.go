package fetch

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"
)

// Renderer returns the HTML of a page after client-side scripts have run.
type Renderer interface {
	Render(ctx context.Context, url string) (string, error)
}

// ChromeRenderer drives a headless Chrome through chromedp.
type ChromeRenderer struct {
	userAgent string
	timeout   time.Duration
	settle    time.Duration
}

// NewChromeRenderer creates a renderer. Chrome must be installed on the host.
func NewChromeRenderer(userAgent string, timeout time.Duration) *ChromeRenderer {
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	if timeout <= 0 {
		timeout = 2 * DefaultTimeout
	}
	return &ChromeRenderer{userAgent: userAgent, timeout: timeout, settle: 500 * time.Millisecond}
}

// Render loads url in a fresh browser tab and returns document.documentElement.outerHTML.
func (r *ChromeRenderer) Render(ctx context.Context, url string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.UserAgent(r.userAgent),
	)
	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, opts...)
	defer allocCancel()

	browserCtx, browserCancel := chromedp.NewContext(allocCtx)
	defer browserCancel()

	var html string
	err := chromedp.Run(browserCtx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Sleep(r.settle),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	if err != nil {
		return "", fmt.Errorf("chromedp render %s: %w", url, err)
	}
	return html, nil
}
