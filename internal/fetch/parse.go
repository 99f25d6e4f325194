package fetch

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"seoforge/internal/core"
)

// DefaultPreviewChars bounds CompetitorContent.Preview.
const DefaultPreviewChars = 1000

const boilerplateSelector = "script, style, nav, header, footer, noscript, iframe, svg, template"

// ParseCompetitor extracts title, headings, meta description, word count and
// a text preview from a competitor page.
func ParseCompetitor(url, html string, previewChars int) (core.CompetitorContent, error) {
	if previewChars <= 0 {
		previewChars = DefaultPreviewChars
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return core.CompetitorContent{}, fmt.Errorf("failed to parse HTML from %s: %w", url, err)
	}

	meta := metaDescription(doc)
	headTitle := collapse(doc.Find("head title").First().Text())
	ogTitle, _ := doc.Find("meta[property='og:title']").Attr("content")

	doc.Find(boilerplateSelector).Remove()

	var headings []string
	doc.Find("h1, h2, h3, h4").Each(func(_ int, s *goquery.Selection) {
		if text := collapse(s.Text()); text != "" {
			headings = append(headings, text)
		}
	})

	body := doc.Find("body")
	if body.Length() == 0 {
		body = doc.Selection
	}
	var b strings.Builder
	collectText(body, &b)
	text := collapse(b.String())
	if text == "" {
		return core.CompetitorContent{}, fmt.Errorf("%w: %s", ErrEmptyContent, url)
	}

	title := headTitle
	if title == "" {
		title = collapse(ogTitle)
	}
	if title == "" {
		title = collapse(doc.Find("h1").First().Text())
	}

	if headings == nil {
		headings = []string{}
	}

	return core.CompetitorContent{
		URL:             url,
		Title:           title,
		MetaDescription: meta,
		Headings:        headings,
		WordCount:       len(strings.Fields(text)),
		Preview:         truncateRunes(text, previewChars),
	}, nil
}

func metaDescription(doc *goquery.Document) string {
	if desc, ok := doc.Find("meta[name='description']").Attr("content"); ok && strings.TrimSpace(desc) != "" {
		return collapse(desc)
	}
	if desc, ok := doc.Find("meta[property='og:description']").Attr("content"); ok {
		return collapse(desc)
	}
	return ""
}

// collectText walks text nodes so adjacent block elements stay separated.
func collectText(s *goquery.Selection, b *strings.Builder) {
	s.Contents().Each(func(_ int, c *goquery.Selection) {
		switch goquery.NodeName(c) {
		case "#text":
			b.WriteString(c.Text())
			b.WriteByte(' ')
		case "#comment":
		default:
			collectText(c, b)
		}
	})
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
