// Package brief synthesizes a competitive content brief from analyzed competitor pages.
package brief

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"

	"seoforge/internal/core"
	"seoforge/internal/llm"
)

// Fallback word band used when no competitor data exists.
const (
	FallbackMinWords = 1500
	FallbackMaxWords = 2500
)

// List caps applied after generation.
const (
	maxRequiredSections  = 10
	maxHeuristicSections = 8
	maxLSIKeywords       = 10
	maxGaps              = 7
	maxQuestions         = 7
	maxSuggestions       = 10
	maxSectionWords      = 8
)

// upwardAdjustment is applied to the longest competitor to get the band maximum.
const upwardAdjustment = 1.2

// StandardPlacement is the default set of keyword placement targets.
var StandardPlacement = []string{"title", "introduction", "headings", "conclusion"}

// Generator produces competitive briefs.
type Generator struct {
	agent llm.Agent
}

// NewGenerator creates a brief generator.
func NewGenerator(agent llm.Agent) *Generator {
	return &Generator{agent: agent}
}

// Generate builds the brief. With zero competitors it returns Fallback without
// calling the agent. When the agent fails it returns the Heuristic brief
// together with the agent error so the caller can record the degradation.
func (g *Generator) Generate(ctx context.Context, req core.ArticleRequest, product core.ProductConfig, competitors []core.CompetitorContent) (core.CompetitiveBrief, error) {
	if len(competitors) == 0 {
		return Fallback(req.Keyword), nil
	}

	resp, err := llm.GenerateJSON[briefResponse](ctx, g.agent, llm.Request{
		Operation:   "brief",
		System:      systemPrompt,
		Prompt:      buildPrompt(req, product, competitors),
		Schema:      responseSchema(),
		SchemaName:  "competitive_brief",
		Temperature: 0.4,
	})
	if err != nil {
		return Heuristic(req.Keyword, competitors), fmt.Errorf("brief agent failed: %w", err)
	}

	return assemble(req.Keyword, competitors, resp), nil
}

// Fallback is the deterministic brief used when no competitor was analyzed.
func Fallback(keyword string) core.CompetitiveBrief {
	return core.CompetitiveBrief{
		Keyword:             keyword,
		LSIKeywords:         []string{},
		SearchIntent:        "informational",
		Competitors:         []core.CompetitorInsight{},
		ContentGaps:         []string{},
		UnansweredQuestions: []string{},
		RequiredSections:    []string{},
		TargetWordCount:     core.WordBand{Min: FallbackMinWords, Max: FallbackMaxWords},
		KeywordPlacement:    append([]string(nil), StandardPlacement...),
		ImageSuggestions:    []string{},
		LinkingSuggestions:  []string{},
		Technical:           genericTechnical(keyword),
		Fallback:            true,
	}
}

// Heuristic builds a brief from competitor headings alone.
func Heuristic(keyword string, competitors []core.CompetitorContent) core.CompetitiveBrief {
	if len(competitors) == 0 {
		return Fallback(keyword)
	}
	b := Fallback(keyword)
	b.Fallback = false
	b.Competitors = insights(competitors, nil)
	b.RequiredSections = frequentHeadings(competitors, maxHeuristicSections)
	if len(b.RequiredSections) == 0 {
		b.RequiredSections = defaultSections(keyword)
	}
	b.TargetWordCount = TargetBand(competitors)
	return b
}

// TargetBand derives the word band from observed competitor lengths:
// min is the rounded average, max is the longest page plus 20%.
func TargetBand(competitors []core.CompetitorContent) core.WordBand {
	var sum, n, longest int
	for _, c := range competitors {
		if c.WordCount <= 0 {
			continue
		}
		sum += c.WordCount
		n++
		if c.WordCount > longest {
			longest = c.WordCount
		}
	}
	if n == 0 {
		return core.WordBand{Min: FallbackMinWords, Max: FallbackMaxWords}
	}
	return core.WordBand{
		Min: int(math.Round(float64(sum) / float64(n))),
		Max: int(math.Round(float64(longest) * upwardAdjustment)),
	}
}

func assemble(keyword string, competitors []core.CompetitorContent, resp briefResponse) core.CompetitiveBrief {
	b := core.CompetitiveBrief{
		Keyword:             keyword,
		LSIKeywords:         cleanList(resp.LSIKeywords, maxLSIKeywords),
		SearchIntent:        strings.ToLower(strings.TrimSpace(resp.SearchIntent)),
		Competitors:         insights(competitors, resp.Competitors),
		ContentGaps:         cleanList(resp.ContentGaps, maxGaps),
		UnansweredQuestions: cleanList(resp.UnansweredQuestions, maxQuestions),
		RequiredSections:    CleanSections(resp.RequiredSections, maxRequiredSections),
		TargetWordCount:     TargetBand(competitors),
		KeywordPlacement:    cleanList(resp.KeywordPlacement, maxSuggestions),
		ImageSuggestions:    cleanList(resp.ImageSuggestions, maxSuggestions),
		LinkingSuggestions:  cleanList(resp.LinkingSuggestions, maxSuggestions),
		Technical: core.TechnicalGuidance{
			TitleGuidance:    strings.TrimSpace(resp.Technical.TitleGuidance),
			MetaGuidance:     strings.TrimSpace(resp.Technical.MetaGuidance),
			SchemaTypes:      cleanList(resp.Technical.SchemaTypes, maxSuggestions),
			HeadingHierarchy: strings.TrimSpace(resp.Technical.HeadingHierarchy),
		},
	}

	if b.SearchIntent == "" {
		b.SearchIntent = "informational"
	}
	if len(b.RequiredSections) == 0 {
		b.RequiredSections = frequentHeadings(competitors, maxHeuristicSections)
	}
	if len(b.RequiredSections) == 0 {
		b.RequiredSections = defaultSections(keyword)
	}
	if len(b.KeywordPlacement) == 0 {
		b.KeywordPlacement = append([]string(nil), StandardPlacement...)
	}
	generic := genericTechnical(keyword)
	if b.Technical.TitleGuidance == "" {
		b.Technical.TitleGuidance = generic.TitleGuidance
	}
	if b.Technical.MetaGuidance == "" {
		b.Technical.MetaGuidance = generic.MetaGuidance
	}
	if len(b.Technical.SchemaTypes) == 0 {
		b.Technical.SchemaTypes = generic.SchemaTypes
	}
	if b.Technical.HeadingHierarchy == "" {
		b.Technical.HeadingHierarchy = generic.HeadingHierarchy
	}
	return b
}

func insights(competitors []core.CompetitorContent, fromModel []competitorPoints) []core.CompetitorInsight {
	points := make(map[string][]string, len(fromModel))
	for _, c := range fromModel {
		points[strings.TrimSpace(c.URL)] = cleanList(c.MainPoints, 5)
	}
	out := make([]core.CompetitorInsight, 0, len(competitors))
	for i, c := range competitors {
		mp, ok := points[c.URL]
		if !ok && i < len(fromModel) && fromModel[i].URL == "" {
			mp = cleanList(fromModel[i].MainPoints, 5)
		}
		if mp == nil {
			mp = []string{}
		}
		out = append(out, core.CompetitorInsight{
			URL:        c.URL,
			Title:      c.Title,
			WordCount:  c.WordCount,
			MainPoints: mp,
			Headings:   append([]string{}, c.Headings...),
		})
	}
	return out
}

func genericTechnical(keyword string) core.TechnicalGuidance {
	return core.TechnicalGuidance{
		TitleGuidance:    fmt.Sprintf("Keep the title under 60 characters and include %q near the start.", keyword),
		MetaGuidance:     "Write a 140-160 character meta description that includes the keyword and a clear benefit.",
		SchemaTypes:      []string{"Article", "FAQPage"},
		HeadingHierarchy: "One H1 for the title, H2 for main sections, H3 for subsections. Never skip levels.",
	}
}

func defaultSections(keyword string) []string {
	return []string{
		"What is " + keyword,
		"Why it matters",
		"How to get started",
		"Common mistakes",
		"FAQ",
	}
}

var (
	numberingPrefix = regexp.MustCompile(`^(\d+[.)]|[-*•#]+)\s*`)
	sectionSplit    = regexp.MustCompile(`\s*(:| - | – | — )\s*`)
)

// CleanSections trims, deduplicates and shortens section titles.
func CleanSections(sections []string, limit int) []string {
	out := []string{}
	seen := make(map[string]bool)
	for _, s := range sections {
		s = shortenSection(s)
		if s == "" {
			continue
		}
		key := strings.ToLower(s)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, s)
		if len(out) == limit {
			break
		}
	}
	return out
}

func shortenSection(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	s = numberingPrefix.ReplaceAllString(s, "")
	s = strings.Trim(s, "*_\"' ")
	if len(strings.Fields(s)) > maxSectionWords || strings.HasSuffix(s, ".") {
		if loc := sectionSplit.FindStringIndex(s); loc != nil && loc[0] > 0 {
			s = s[:loc[0]]
		}
		words := strings.Fields(s)
		if len(words) > maxSectionWords {
			words = words[:maxSectionWords]
		}
		s = strings.Join(words, " ")
	}
	return strings.TrimRight(s, ".,;:!")
}

func cleanList(items []string, limit int) []string {
	out := []string{}
	seen := make(map[string]bool)
	for _, item := range items {
		item = strings.TrimSpace(numberingPrefix.ReplaceAllString(strings.TrimSpace(item), ""))
		if item == "" {
			continue
		}
		key := strings.ToLower(item)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, item)
		if len(out) == limit {
			break
		}
	}
	return out
}

var boilerplateHeadings = map[string]bool{
	"table of contents":  true,
	"contents":           true,
	"related posts":      true,
	"related articles":   true,
	"share this":         true,
	"share this article": true,
	"comments":           true,
	"leave a reply":      true,
	"leave a comment":    true,
	"subscribe":          true,
	"newsletter":         true,
	"about the author":   true,
	"you may also like":  true,
}

// frequentHeadings ranks section-like headings by how many competitors use
// them. Each page's title heading is skipped.
func frequentHeadings(competitors []core.CompetitorContent, limit int) []string {
	type entry struct {
		text  string
		count int
		first int
	}
	byKey := make(map[string]*entry)
	order := 0
	for _, c := range competitors {
		seenHere := make(map[string]bool)
		for i, h := range c.Headings {
			text := shortenSection(h)
			key := strings.ToLower(text)
			if text == "" || seenHere[key] || boilerplateHeadings[key] {
				continue
			}
			if i == 0 && (strings.EqualFold(text, c.Title) || len(c.Headings) > 1) {
				// Leading heading is the page title.
				continue
			}
			seenHere[key] = true
			e, ok := byKey[key]
			if !ok {
				e = &entry{text: text, first: order}
				byKey[key] = e
				order++
			}
			e.count++
		}
	}

	entries := make([]*entry, 0, len(byKey))
	for _, e := range byKey {
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].count != entries[j].count {
			return entries[i].count > entries[j].count
		}
		return entries[i].first < entries[j].first
	})

	out := []string{}
	for _, e := range entries {
		out = append(out, e.text)
		if len(out) == limit {
			break
		}
	}
	return out
}
