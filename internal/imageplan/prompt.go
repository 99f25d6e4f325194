package imageplan

import (
	"fmt"
	"strings"

	"seoforge/internal/llm"
	"seoforge/internal/markdown"
)

const systemPrompt = `You are an art director planning images for a web article.
Placements must be copied verbatim from the heading list. Respond with JSON only.`

var groupNames = [3]string{"FIRST THIRD", "MIDDLE THIRD", "LAST THIRD"}

func responseSchema() *llm.Schema {
	return llm.Object(
		llm.Prop("images", llm.ArrayOf(llm.Object(
			llm.Prop("type", llm.Enum("Image role", "hero", "section", "diagram")),
			llm.Prop("placement", llm.String(`"hero" for the hero image, otherwise the exact text of a heading`)),
			llm.Prop("prompt", llm.String("Image generation prompt, at most 30 words")),
			llm.Prop("alt", llm.String("Descriptive alt text")),
			llm.Prop("style", llm.String("Short visual style modifier, may be empty")),
		), "1-4 images: exactly one hero plus up to 3 supporting images")),
	)
}

func buildPrompt(title string, headings []markdown.Heading) string {
	var b strings.Builder

	fmt.Fprintf(&b, "ARTICLE TITLE: %s\n\n", title)
	b.WriteString("Plan 1-4 images:\n")
	b.WriteString(`- Exactly one "hero" image with placement "hero". It represents the whole article.` + "\n")
	b.WriteString("- Up to 3 supporting images of type \"section\" or \"diagram\". Use \"diagram\" only for processes, comparisons or structures.\n")
	b.WriteString("- Each supporting placement must be copied exactly from the headings below.\n")

	groups := Thirds(headings)
	if len(headings) > 0 {
		b.WriteString("- Spread the supporting images: one in the FIRST third, one in the MIDDLE third and one in the LAST third. Never cluster them.\n")
		b.WriteString("\nHEADINGS:\n")
		num := 1
		for i, group := range groups {
			if len(group) == 0 {
				continue
			}
			fmt.Fprintf(&b, "%s:\n", groupNames[i])
			for _, h := range group {
				fmt.Fprintf(&b, "%d. %s\n", num, h.Text)
				num++
			}
		}
	} else {
		b.WriteString("\nThe article has no headings, so plan the hero image only.\n")
	}

	fmt.Fprintf(&b, "\nPROMPTS: concrete subject, setting and composition in %d words or fewer. No text, logos or watermarks in the image.\n", MaxPromptWords)
	return b.String()
}
