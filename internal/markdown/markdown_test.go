package markdown

import (
	"fmt"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"seoforge/internal/core"
)

const scenarioBody = `Project management tools keep teams aligned.

## Intro

Why this list exists.

## Pricing
Costs vary widely.

## FAQ

Common questions.`

func scenarioImages() []core.GeneratedImage {
	return []core.GeneratedImage{
		{URL: "https://cdn.example/0-hero.png", Type: core.ImageTypeHero, Placement: "hero", Alt: "Hero"},
		{URL: "https://cdn.example/1-section.png", Type: core.ImageTypeSection, Placement: "Intro", Alt: "Team board"},
		{URL: "https://cdn.example/2-section.png", Type: core.ImageTypeSection, Placement: "Pricing", Alt: "Price chart"},
		{URL: "https://cdn.example/3-diagram.png", Type: core.ImageTypeDiagram, Placement: "FAQ", Alt: "Flow"},
	}
}

func TestInsertImagesScenario(t *testing.T) {
	out, stats := InsertImages(scenarioBody, scenarioImages())

	if stats.Inserted != 3 || stats.Hero != 1 || stats.Appended != 0 {
		t.Errorf("unexpected stats: %+v", stats)
	}
	if strings.Contains(out, "0-hero.png") {
		t.Error("hero image must never be embedded")
	}
	if strings.Count(out, "![") != 3 {
		t.Errorf("Expected 3 images, got:\n%s", out)
	}

	want := `Project management tools keep teams aligned.

## Intro

![Team board](https://cdn.example/1-section.png)

Why this list exists.

## Pricing
![Price chart](https://cdn.example/2-section.png)

Costs vary widely.

## FAQ

![Flow](https://cdn.example/3-diagram.png)

Common questions.`
	if diff := cmp.Diff(want, out); diff != "" {
		t.Errorf("body mismatch (-want +got):\n%s", diff)
	}
}

func TestInsertImagesIdempotent(t *testing.T) {
	once, _ := InsertImages(scenarioBody, scenarioImages())
	twice, stats := InsertImages(once, scenarioImages())
	if once != twice {
		t.Errorf("second pass changed the body:\n%s", cmp.Diff(once, twice))
	}
	if stats.Existing != 3 || stats.Inserted != 0 {
		t.Errorf("unexpected stats on re-run: %+v", stats)
	}
}

func TestInsertImagesHeadingMatch(t *testing.T) {
	body := "# Intro\ntext\n\n## How It Works\n\nDetails here.\n\n## Conclusion\nBye"
	img := core.GeneratedImage{URL: "u.png", Type: core.ImageTypeSection, Placement: "How It Works", Alt: "a"}

	out, _ := InsertImages(body, []core.GeneratedImage{img})
	lines := strings.Split(out, "\n")

	var heading, image, conclusion int
	for i, l := range lines {
		switch {
		case l == "## How It Works":
			heading = i
		case l == "![a](u.png)":
			image = i
		case l == "## Conclusion":
			conclusion = i
		}
	}
	if image <= heading || image >= conclusion {
		t.Fatalf("image at line %d, heading %d, conclusion %d:\n%s", image, heading, conclusion, out)
	}
	for i := heading + 1; i < image; i++ {
		if strings.TrimSpace(lines[i]) != "" {
			t.Errorf("image is not on the first non-blank line after the heading:\n%s", out)
		}
	}
}

func TestMatchHeading(t *testing.T) {
	lines := []string{
		"# Pricing plans for small teams",
		"## Pricing",
		"## Pricing plans",
		"```",
		"# Integrations",
		"```",
		"#hashtag",
	}
	tests := []struct {
		placement string
		want      int
	}{
		{"pricing", 1},
		{"PRICING PLANS", 2},
		{"Pricing plans for small teams and enterprises", 0},
		{"plans for small", 0},
		{"Integrations", -1},
		{"hashtag", -1},
		{"", -1},
	}
	for _, tt := range tests {
		if got := matchHeading(lines, tt.placement); got != tt.want {
			t.Errorf("matchHeading(%q) = %d, want %d", tt.placement, got, tt.want)
		}
	}
}

func TestInsertImagesInlineMarkupHeadings(t *testing.T) {
	body := strings.Join([]string{
		"Intro text.",
		"",
		"## Why `kubectl` matters",
		"",
		"Because clusters.",
		"",
		"## The **best** tools",
		"",
		"A list.",
		"",
		"## Read the [official docs](https://kubernetes.io/docs)",
		"",
		"Links.",
		"",
		"~~~",
		"## Conclusion",
		"~~~",
		"",
		"Getting _started_ fast",
		"----------------------",
		"",
		"Setup.",
		"",
		"## Conclusion",
		"",
		"Done.",
	}, "\n")

	tests := []struct {
		name      string
		placement string
		after     string
	}{
		{"inline code", "Why kubectl matters", "## Why `kubectl` matters"},
		{"emphasis", "The best tools", "## The **best** tools"},
		{"link", "Read the official docs", "## Read the [official docs](https://kubernetes.io/docs)"},
		{"markup echoed in placement", "The **best** tools", "## The **best** tools"},
		{"setext", "Getting started fast", "----------------------"},
		{"tilde fence ignored", "Conclusion", "## Conclusion"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img := core.GeneratedImage{URL: "https://cdn.example/x.png", Type: core.ImageTypeSection, Placement: tt.placement, Alt: "x"}
			out, stats := InsertImages(body, []core.GeneratedImage{img})
			if stats.Inserted != 1 || stats.Appended != 0 {
				t.Fatalf("stats = %+v:\n%s", stats, out)
			}
			lines := strings.Split(out, "\n")
			for i, line := range lines {
				if !strings.Contains(line, "x.png") {
					continue
				}
				j := i - 1
				for j >= 0 && strings.TrimSpace(lines[j]) == "" {
					j--
				}
				if j < 0 || lines[j] != tt.after {
					t.Errorf("image follows %q, want %q:\n%s", lines[max(j, 0)], tt.after, out)
				}
				if tt.name == "tilde fence ignored" && i < 20 {
					t.Errorf("image placed inside the fenced block:\n%s", out)
				}
			}
		})
	}
}

func TestInsertImagesUsesPlannerHeadings(t *testing.T) {
	body := "## Why `kubectl` matters\n\nText.\n\n## The **best** tools\n\nMore.\n\n## Conclusion\n\nEnd."
	var images []core.GeneratedImage
	for i, h := range Headings(body)[:2] {
		images = append(images, core.GeneratedImage{
			URL:       fmt.Sprintf("https://cdn.example/%d.png", i),
			Type:      core.ImageTypeSection,
			Placement: h.Text,
			Alt:       h.Text,
		})
	}
	_, stats := InsertImages(body, images)
	if stats.Inserted != 2 || stats.Appended != 0 {
		t.Errorf("stats = %+v, want 2 inserted", stats)
	}
}

func TestInsertImagesAppendsUnmatched(t *testing.T) {
	body := "## Intro\ntext\n\n"
	img := core.GeneratedImage{URL: "u.png", Type: core.ImageTypeSection, Placement: "Nowhere", Alt: "n"}
	out, stats := InsertImages(body, []core.GeneratedImage{img})
	if stats.Appended != 1 {
		t.Errorf("Expected append, got %+v", stats)
	}
	if !strings.HasSuffix(strings.TrimSpace(out), "![n](u.png)") {
		t.Errorf("image not at the end:\n%s", out)
	}
}

func TestInsertImagesPlacementHeroOnSectionType(t *testing.T) {
	img := core.GeneratedImage{URL: "h.png", Type: core.ImageTypeSection, Placement: "Hero"}
	out, stats := InsertImages("## Hero\ntext", []core.GeneratedImage{img})
	if strings.Contains(out, "h.png") || stats.Hero != 1 {
		t.Errorf("hero placement must be excluded: %q %+v", out, stats)
	}
}

func TestHeadings(t *testing.T) {
	body := "Intro text\n\n## What **is** it\n\n```\n# not a heading\n```\n\n### How it `works`\n\nSetext\n------\n"
	got := Headings(body)
	want := []Heading{
		{Level: 2, Text: "What is it", Line: 2},
		{Level: 3, Text: "How it works", Line: 8},
		{Level: 2, Text: "Setext", Line: 10},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("headings mismatch (-want +got):\n%s", diff)
	}
}

func TestExtractLinks(t *testing.T) {
	body := "See [Kanban basics](https://acme.example/kanban) and ![img](https://cdn.example/x.png) or <https://acme.example/gantt>."
	got := ExtractLinks(body)
	want := []Link{
		{Text: "Kanban basics", URL: "https://acme.example/kanban"},
		{Text: "https://acme.example/gantt", URL: "https://acme.example/gantt"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("links mismatch (-want +got):\n%s", diff)
	}
}

func TestToHTML(t *testing.T) {
	html, err := ToHTML("## Title\n\n| a | b |\n|---|---|\n| 1 | 2 |\n")
	if err != nil {
		t.Fatalf("ToHTML failed: %v", err)
	}
	if !strings.Contains(html, "<h2>Title</h2>") || !strings.Contains(html, "<table>") {
		t.Errorf("unexpected html: %s", html)
	}
}
