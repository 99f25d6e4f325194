package markdown

import (
	"fmt"
	"strings"

	"seoforge/internal/core"
)

// InsertStats reports what InsertImages did.
type InsertStats struct {
	Inserted int // placed under a matching heading
	Appended int // no heading matched; added at the end
	Hero     int // hero images left out of the body
	Existing int // already referenced in the body
}

// ImageMarkdown renders the markdown reference for an image.
func ImageMarkdown(img core.GeneratedImage) string {
	alt := strings.NewReplacer("[", "", "]", "", "\n", " ").Replace(img.Alt)
	return fmt.Sprintf("![%s](%s)", strings.TrimSpace(alt), img.URL)
}

// InsertImages splices non-hero images into body after the heading that
// matches each image's placement. Images whose URL is already present are
// skipped, so running it again over its own output changes nothing.
func InsertImages(body string, images []core.GeneratedImage) (string, InsertStats) {
	var stats InsertStats

	ordered := make([]core.GeneratedImage, 0, len(images))
	for _, img := range images {
		if img.IsHero() {
			ordered = append(ordered, img)
		}
	}
	for _, img := range images {
		if !img.IsHero() {
			ordered = append(ordered, img)
		}
	}

	lines := strings.Split(body, "\n")
	for _, img := range ordered {
		if img.IsHero() {
			stats.Hero++
			continue
		}
		if img.URL == "" {
			continue
		}
		if strings.Contains(strings.Join(lines, "\n"), "("+img.URL+")") {
			stats.Existing++
			continue
		}

		ref := ImageMarkdown(img)
		idx := matchHeading(lines, img.Placement)
		if idx < 0 {
			lines = appendImage(lines, ref)
			stats.Appended++
			continue
		}

		at := idx + 1
		for at < len(lines) && strings.TrimSpace(lines[at]) == "" {
			at++
		}
		insert := []string{ref, ""}
		lines = append(lines[:at], append(insert, lines[at:]...)...)
		stats.Inserted++
	}

	return strings.Join(lines, "\n"), stats
}

func appendImage(lines []string, ref string) []string {
	for len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "" {
		lines = lines[:len(lines)-1]
	}
	if len(lines) > 0 {
		lines = append(lines, "")
	}
	return append(lines, ref, "")
}

// matchHeading returns the line index of the heading that best matches
// placement, or -1. Headings are read the same way Headings reports them,
// so inline markup and fenced blocks are handled by the parser. An exact
// case-insensitive match wins; otherwise the longest containing or
// contained heading is used. For setext headings the underline index is
// returned.
func matchHeading(lines []string, placement string) int {
	want := normalizeHeading(strings.TrimLeft(strings.TrimSpace(placement), "# "))
	if want == "" {
		return -1
	}

	best, bestScore := -1, 0
	for _, h := range Headings(strings.Join(lines, "\n")) {
		got := normalizeHeading(h.Text)
		if got == "" {
			continue
		}
		if got == want {
			return headingEnd(lines, h.Line)
		}
		if strings.Contains(got, want) || strings.Contains(want, got) {
			if score := max(len(got), len(want)); score > bestScore {
				best, bestScore = headingEnd(lines, h.Line), score
			}
		}
	}
	return best
}

var markupStripper = strings.NewReplacer("`", "", "*", "", "_", "", "[", "", "]", "")

// normalizeHeading lowercases s, drops inline markup characters a model may
// echo back in a placement, and collapses whitespace.
func normalizeHeading(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(markupStripper.Replace(s)), " "))
}

func headingEnd(lines []string, line int) int {
	if line >= len(lines) || strings.HasPrefix(strings.TrimSpace(lines[line]), "#") {
		return line
	}
	if next := line + 1; next < len(lines) && isSetextUnderline(lines[next]) {
		return next
	}
	return line
}

func isSetextUnderline(line string) bool {
	t := strings.TrimSpace(line)
	return t != "" && (strings.Trim(t, "=") == "" || strings.Trim(t, "-") == "")
}
