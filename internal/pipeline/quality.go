package pipeline

import (
	"fmt"
	"strings"

	"seoforge/internal/content"
	"seoforge/internal/markdown"
)

// QualityCheck inspects a finished run. Checks never block the pipeline;
// a non-empty message is reported as a warning.
type QualityCheck struct {
	Name  string
	Check func(s PipelineState) string
}

// DefaultQualityChecks are the checks run after every successful run.
var DefaultQualityChecks = []QualityCheck{
	{Name: "word_count", Check: checkWordCount},
	{Name: "keyword_placement", Check: checkKeywordPlacement},
	{Name: "filler_phrases", Check: checkFiller},
	{Name: "internal_links", Check: checkInternalLinks},
}

// CheckQuality runs the default checks and returns their warnings.
func CheckQuality(s PipelineState) []string {
	var warnings []string
	for _, qc := range DefaultQualityChecks {
		if msg := qc.Check(s); msg != "" {
			warnings = append(warnings, qc.Name+": "+msg)
		}
	}
	return warnings
}

func checkWordCount(s PipelineState) string {
	band := s.Brief().TargetWordCount
	if band.Min == 0 {
		return ""
	}
	words := len(strings.Fields(s.Article().Content))
	// Generated copy routinely lands a little short; only flag real misses.
	if words < band.Min*8/10 {
		return fmt.Sprintf("%d words, target is %d-%d", words, band.Min, band.Max)
	}
	return ""
}

func checkKeywordPlacement(s PipelineState) string {
	keyword := strings.ToLower(strings.TrimSpace(s.Request().Keyword))
	if keyword == "" {
		return ""
	}
	article := s.Article()
	var missing []string
	if !strings.Contains(strings.ToLower(article.Title), keyword) {
		missing = append(missing, "title")
	}
	opening := strings.Fields(article.Content)
	if len(opening) > 100 {
		opening = opening[:100]
	}
	if !strings.Contains(strings.ToLower(strings.Join(opening, " ")), keyword) {
		missing = append(missing, "first 100 words")
	}
	if len(missing) == 0 {
		return ""
	}
	return fmt.Sprintf("keyword %q missing from %s", keyword, strings.Join(missing, " and "))
}

func checkFiller(s PipelineState) string {
	body := strings.ToLower(s.Article().Content)
	var found []string
	for _, phrase := range content.FillerPhrases {
		if strings.Contains(body, phrase) {
			found = append(found, fmt.Sprintf("%q", phrase))
		}
	}
	if len(found) == 0 {
		return ""
	}
	return "filler phrases present: " + strings.Join(found, ", ")
}

func checkInternalLinks(s PipelineState) string {
	candidates := s.Links()
	known := make(map[string]bool, len(candidates))
	for _, c := range candidates {
		known[strings.TrimRight(c.URL, "/")] = true
	}
	productURL := strings.TrimRight(s.Product().URL, "/")

	embedded := 0
	var unknown []string
	for _, l := range markdown.ExtractLinks(s.Article().Content) {
		u := strings.TrimRight(l.URL, "/")
		switch {
		case known[u]:
			embedded++
		case productURL != "" && strings.HasPrefix(u, productURL):
			unknown = append(unknown, l.URL)
		}
	}

	want := content.LinkCount(s.Product(), len(candidates), content.DefaultLinks)
	switch {
	case len(unknown) > 0:
		return fmt.Sprintf("links to pages outside the candidate list: %s", strings.Join(unknown, ", "))
	case embedded != want:
		return fmt.Sprintf("%d internal links embedded, expected %d", embedded, want)
	}
	return ""
}
