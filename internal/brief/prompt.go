package brief

import (
	"fmt"
	"strings"

	"seoforge/internal/core"
	"seoforge/internal/llm"
)

const systemPrompt = `You are an SEO content strategist. You study the pages that currently rank for a keyword and
produce a precise, structured content brief that a writer can follow to outrank them.
Base every claim on the competitor data provided. Respond with JSON only.`

type competitorPoints struct {
	URL        string   `json:"url"`
	MainPoints []string `json:"main_points"`
}

type briefResponse struct {
	SearchIntent        string             `json:"search_intent"`
	LSIKeywords         []string           `json:"lsi_keywords"`
	Competitors         []competitorPoints `json:"competitors"`
	ContentGaps         []string           `json:"content_gaps"`
	UnansweredQuestions []string           `json:"unanswered_questions"`
	RequiredSections    []string           `json:"required_sections"`
	TargetWordCount     core.WordBand      `json:"target_word_count"`
	KeywordPlacement    []string           `json:"keyword_placement"`
	ImageSuggestions    []string           `json:"image_suggestions"`
	LinkingSuggestions  []string           `json:"linking_suggestions"`
	Technical           struct {
		TitleGuidance    string   `json:"title_guidance"`
		MetaGuidance     string   `json:"meta_guidance"`
		SchemaTypes      []string `json:"schema_types"`
		HeadingHierarchy string   `json:"heading_hierarchy"`
	} `json:"technical"`
}

func responseSchema() *llm.Schema {
	list := func(desc string) *llm.Schema { return llm.ArrayOf(llm.String(""), desc) }
	return llm.Object(
		llm.Prop("search_intent", llm.Enum("Dominant search intent", "informational", "commercial", "transactional", "navigational")),
		llm.Prop("lsi_keywords", list("5-10 semantically related terms observed across competitors")),
		llm.Prop("competitors", llm.ArrayOf(llm.Object(
			llm.Prop("url", llm.String("Competitor URL exactly as given")),
			llm.Prop("main_points", list("3-5 main points the page makes")),
		), "One entry per competitor")),
		llm.Prop("content_gaps", list("3-7 topics competitors miss or cover poorly")),
		llm.Prop("unanswered_questions", list("3-7 reader questions no competitor answers")),
		llm.Prop("required_sections", list("5-10 section titles, short noun phrases, not sentences")),
		llm.Prop("target_word_count", llm.Object(
			llm.Prop("min", llm.Integer("Minimum words")),
			llm.Prop("max", llm.Integer("Maximum words")),
		)),
		llm.Prop("keyword_placement", list("Where the keyword must appear")),
		llm.Prop("image_suggestions", list("Images that would add value")),
		llm.Prop("linking_suggestions", list("Internal and external linking ideas")),
		llm.Prop("technical", llm.Object(
			llm.Prop("title_guidance", llm.String("")),
			llm.Prop("meta_guidance", llm.String("")),
			llm.Prop("schema_types", list("schema.org types to mark up")),
			llm.Prop("heading_hierarchy", llm.String("")),
		)),
	)
}

func buildPrompt(req core.ArticleRequest, product core.ProductConfig, competitors []core.CompetitorContent) string {
	var b strings.Builder

	fmt.Fprintf(&b, "TARGET KEYWORD: %s\n", req.Keyword)
	fmt.Fprintf(&b, "CONTENT TYPE: %s", req.ContentType)
	if sub := req.Subtype(); sub != "" {
		fmt.Fprintf(&b, " (%s)", sub)
	}
	b.WriteString("\n")
	if product.Name != "" {
		fmt.Fprintf(&b, "BRAND: %s", product.Name)
		if product.Description != "" {
			fmt.Fprintf(&b, " - %s", product.Description)
		}
		b.WriteString("\n")
	}
	if len(product.TargetAudiences) > 0 {
		fmt.Fprintf(&b, "AUDIENCE: %s\n", strings.Join(product.TargetAudiences, ", "))
	}

	fmt.Fprintf(&b, "\nTOP %d RANKING PAGES:\n", len(competitors))
	for i, c := range competitors {
		fmt.Fprintf(&b, "\n### Competitor %d\n", i+1)
		fmt.Fprintf(&b, "Title: %s\nURL: %s\nWord count: %d\n", c.Title, c.URL, c.WordCount)
		if c.MetaDescription != "" {
			fmt.Fprintf(&b, "Meta description: %s\n", c.MetaDescription)
		}
		if len(c.Headings) > 0 {
			b.WriteString("Headings:\n")
			for _, h := range c.Headings {
				fmt.Fprintf(&b, "- %s\n", h)
			}
		}
		if c.Preview != "" {
			fmt.Fprintf(&b, "Content preview:\n%s\n", c.Preview)
		}
	}

	band := TargetBand(competitors)
	b.WriteString(`
INSTRUCTIONS:
1. Identify the dominant search intent.
2. List 5-10 LSI keywords that actually appear across the competitors.
3. For each competitor, summarize its main points.
4. Find 3-7 content gaps: topics that are missing, shallow or outdated.
5. Find 3-7 questions a searcher still has after reading every competitor.
6. Define 5-10 REQUIRED SECTIONS as short section titles (2-6 words). Titles only, never full sentences.
   Together they must cover everything the competitors cover plus the gaps.
`)
	fmt.Fprintf(&b, "7. Recommend a word count 10-20%% above the competitor average. Observed range suggests %d-%d words.\n", band.Min, band.Max)
	b.WriteString(`8. Say where the keyword must be placed, which images would help, and how to link internally.
9. Give technical guidance for the title, meta description, schema markup and heading hierarchy.
`)

	return b.String()
}
