package content

import (
	"fmt"
	"strings"

	"seoforge/internal/core"
	"seoforge/internal/llm"
)

const systemPrompt = `You are a senior content writer who produces search-optimized articles in Markdown.
Write for humans first: specific, concrete, well structured, no fluff.
Never start the article body with an image. Never invent URLs.
Respond with JSON only.`

// FillerPhrases are banned from generated copy.
var FillerPhrases = []string{
	"in today's fast-paced world",
	"in today's digital age",
	"in the ever-evolving landscape",
	"it's important to note that",
	"at the end of the day",
	"look no further",
	"unlock the power of",
	"dive deep into",
	"let's dive in",
	"game-changer",
	"without further ado",
	"in conclusion",
	"needless to say",
	"a testament to",
	"navigating the complexities",
}

type articleResponse struct {
	Title           string `json:"title"`
	Content         string `json:"content"`
	MetaDescription string `json:"meta_description"`
	Slug            string `json:"slug"`
}

func responseSchema() *llm.Schema {
	return llm.Object(
		llm.Prop("title", llm.String("SEO title under 60 characters containing the keyword")),
		llm.Prop("content", llm.String("Full article body in Markdown, starting with a heading or plain text, never an image")),
		llm.Prop("meta_description", llm.String("140-160 character meta description containing the keyword")),
		llm.Prop("slug", llm.String("lowercase-hyphenated URL slug containing the keyword")),
	)
}

// Input is everything the content prompt is built from.
type Input struct {
	Request core.ArticleRequest
	Product core.ProductConfig
	Brief   core.CompetitiveBrief
	Links   []core.LinkCandidate
}

// LinkCount is the number of contextual links the article must embed.
func LinkCount(product core.ProductConfig, candidates int, fallback int) int {
	n := product.Style.InternalLinks
	if n <= 0 {
		n = fallback
	}
	if n > candidates {
		n = candidates
	}
	if n < 0 {
		return 0
	}
	return n
}

func buildPrompt(in Input, linkCount int) string {
	var prompt strings.Builder
	req, product, b := in.Request, in.Product, in.Brief
	band := LengthBand(req.TargetLength)

	prompt.WriteString(fmt.Sprintf("Write a %s article targeting the keyword %q.\n\n", articleKind(req), req.Keyword))
	if req.Title != "" {
		prompt.WriteString(fmt.Sprintf("**Title (fixed):** %s\n", req.Title))
	}
	prompt.WriteString(fmt.Sprintf("**Target length:** %d-%d words\n", band.Min, band.Max))
	if b.SearchIntent != "" {
		prompt.WriteString(fmt.Sprintf("**Search intent:** %s\n", b.SearchIntent))
	}
	prompt.WriteString("\n")

	writeBrand(&prompt, product)

	if b.HasCompetitorData() {
		prompt.WriteString("**STRUCTURE (based on the pages that currently rank):**\n")
		prompt.WriteString("Every one of these sections is mandatory, as H2 headings, in a logical order:\n")
		for _, s := range b.RequiredSections {
			prompt.WriteString(fmt.Sprintf("- %s\n", s))
		}
		prompt.WriteString(fmt.Sprintf("\nCompetitors run %d-%d words. Exceed that range with substance, not padding.\n", b.TargetWordCount.Min, b.TargetWordCount.Max))
		if len(b.ContentGaps) > 0 {
			prompt.WriteString("\nDedicate a section to each content gap the competitors miss:\n")
			for _, g := range b.ContentGaps {
				prompt.WriteString(fmt.Sprintf("- %s\n", g))
			}
		}
		if len(b.UnansweredQuestions) > 0 {
			prompt.WriteString("\nExplicitly answer each of these questions:\n")
			for _, q := range b.UnansweredQuestions {
				prompt.WriteString(fmt.Sprintf("- %s\n", q))
			}
		}
	} else {
		outline := OutlineFor(req)
		prompt.WriteString(fmt.Sprintf("**STRUCTURE (%s):**\n", outline.Name))
		for _, s := range outline.Sections {
			line := fmt.Sprintf("- %s (~%d words)", s.Title, s.Words)
			if s.Notes != "" {
				line += ": " + s.Notes
			}
			prompt.WriteString(line + "\n")
		}
	}
	prompt.WriteString("\n")

	prompt.WriteString("**KEYWORD PLACEMENT:**\n")
	prompt.WriteString(fmt.Sprintf("- Use %q in the title\n", req.Keyword))
	prompt.WriteString("- Use it within the first 100 words\n")
	prompt.WriteString("- Use it in at least one H2 or H3 heading\n")
	prompt.WriteString("- Use it in the meta description\n")
	prompt.WriteString("- Build the slug from it\n")
	if len(b.LSIKeywords) > 0 {
		prompt.WriteString(fmt.Sprintf("- Work these related terms in naturally: %s\n", strings.Join(b.LSIKeywords, ", ")))
	}
	prompt.WriteString("\n")

	if linkCount > 0 {
		prompt.WriteString(fmt.Sprintf("**INTERNAL LINKS:** Embed exactly %d contextual internal links chosen only from this list. ", linkCount))
		prompt.WriteString("Use descriptive anchor text inside sentences. Never fabricate URLs.\n")
		for _, l := range in.Links {
			prompt.WriteString(fmt.Sprintf("- [%s](%s)\n", l.Title, l.URL))
		}
		prompt.WriteString("\n")
	}

	prompt.WriteString("**DO NOT USE these phrases or close variants:**\n")
	for _, p := range FillerPhrases {
		prompt.WriteString(fmt.Sprintf("- %q\n", p))
	}
	prompt.WriteString("\n")

	prompt.WriteString("**FORMAT:**\n")
	prompt.WriteString("- Markdown body. Do not repeat the title as an H1.\n")
	prompt.WriteString("- Start with plain text or a heading. Do not put an image at the top.\n")
	prompt.WriteString("- Short paragraphs, lists and tables where they help scanning.\n")

	return prompt.String()
}

func articleKind(req core.ArticleRequest) string {
	kind := string(req.ContentType)
	if kind == "" {
		kind = string(core.ContentTypeGuide)
	}
	if sub := req.Subtype(); sub != "" {
		return strings.ReplaceAll(sub, "_", "-") + " " + kind
	}
	return kind
}

func writeBrand(prompt *strings.Builder, product core.ProductConfig) {
	if product.Name == "" && product.Style.Tone == "" && len(product.TargetAudiences) == 0 {
		return
	}
	prompt.WriteString("**BRAND & VOICE:**\n")
	if product.Name != "" {
		line := "- Brand: " + product.Name
		if product.Description != "" {
			line += " - " + product.Description
		}
		if product.URL != "" {
			line += " (" + product.URL + ")"
		}
		prompt.WriteString(line + "\n")
	}
	if len(product.TargetAudiences) > 0 {
		prompt.WriteString(fmt.Sprintf("- Audience: %s\n", strings.Join(product.TargetAudiences, ", ")))
	}
	if product.Style.Tone != "" {
		prompt.WriteString(fmt.Sprintf("- Tone: %s\n", product.Style.Tone))
	}
	if len(product.ReferenceURLs) > 0 {
		prompt.WriteString("- Match the tone of these reference articles: " + strings.Join(product.ReferenceURLs, ", ") + "\n")
	}
	if product.Style.IncludeVideo {
		prompt.WriteString("- Add one placeholder line `[VIDEO: short description]` where a video would help\n")
	}
	if product.Style.IncludeCTA {
		prompt.WriteString(fmt.Sprintf("- End with a short call to action for %s\n", nonEmpty(product.Name, "the product")))
	}
	if product.Style.SuggestInfographics {
		prompt.WriteString("- Suggest one infographic as a line `[INFOGRAPHIC: description]`\n")
	}
	if product.Style.UseEmojis {
		prompt.WriteString("- Emojis are allowed sparingly in headings\n")
	} else {
		prompt.WriteString("- Do not use emojis\n")
	}
	prompt.WriteString("\n")
}

func nonEmpty(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}
