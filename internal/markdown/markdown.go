// Package markdown inspects and edits generated article bodies.
package markdown

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"
)

// Heading is a heading found in a markdown document.
type Heading struct {
	Level int
	Text  string
	Line  int // zero-based line of the heading in the source
}

// Link is an inline link found in a markdown document.
type Link struct {
	Text string
	URL  string
}

var md = goldmark.New(goldmark.WithExtensions(extension.GFM))

func parse(source []byte) ast.Node {
	return md.Parser().Parse(text.NewReader(source))
}

// Headings returns the document's headings in order. Headings inside code
// blocks are ignored.
func Headings(body string) []Heading {
	source := []byte(body)
	var out []Heading
	_ = ast.Walk(parse(source), func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		h, ok := n.(*ast.Heading)
		if !ok {
			return ast.WalkContinue, nil
		}
		heading := Heading{Level: h.Level, Text: strings.TrimSpace(nodeText(h, source))}
		if lines := h.Lines(); lines.Len() > 0 {
			heading.Line = bytes.Count(source[:lines.At(0).Start], []byte("\n"))
		}
		if heading.Text != "" {
			out = append(out, heading)
		}
		return ast.WalkSkipChildren, nil
	})
	return out
}

// ExtractLinks returns the inline and auto links of the document, excluding images.
func ExtractLinks(body string) []Link {
	source := []byte(body)
	var out []Link
	_ = ast.Walk(parse(source), func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch l := n.(type) {
		case *ast.Image:
			return ast.WalkSkipChildren, nil
		case *ast.Link:
			out = append(out, Link{Text: nodeText(l, source), URL: string(l.Destination)})
			return ast.WalkSkipChildren, nil
		case *ast.AutoLink:
			url := string(l.URL(source))
			out = append(out, Link{Text: url, URL: url})
		}
		return ast.WalkContinue, nil
	})
	return out
}

// ToHTML renders the document for previews.
func ToHTML(body string) (string, error) {
	var buf bytes.Buffer
	if err := md.Convert([]byte(body), &buf); err != nil {
		return "", fmt.Errorf("failed to render markdown: %w", err)
	}
	return buf.String(), nil
}

func nodeText(n ast.Node, source []byte) string {
	var b strings.Builder
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		switch t := c.(type) {
		case *ast.Text:
			b.Write(t.Segment.Value(source))
			if t.SoftLineBreak() {
				b.WriteByte(' ')
			}
		case *ast.String:
			b.Write(t.Value)
		default:
			b.WriteString(nodeText(c, source))
		}
	}
	return b.String()
}
