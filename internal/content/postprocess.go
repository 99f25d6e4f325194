package content

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// MaxMetaDescription is the longest meta description kept, in characters.
const MaxMetaDescription = 160

var (
	imageLine   = regexp.MustCompile(`^\s*(!\[[^\]]*\]\([^)]*\)|<img\b[^>]*>)\s*$`)
	slugInvalid = regexp.MustCompile(`[^a-z0-9]+`)
)

// CleanBody strips a wrapping code fence and any leading image lines so the
// body never starts with an image marker.
func CleanBody(body string) string {
	body = stripFence(body)
	lines := strings.Split(body, "\n")
	start := 0
	for start < len(lines) {
		line := strings.TrimSpace(lines[start])
		if line == "" || imageLine.MatchString(line) {
			start++
			continue
		}
		if strings.HasPrefix(line, "!") {
			// Malformed image markup; drop the marker and keep the text.
			lines[start] = strings.TrimLeft(line, "! ")
			if strings.TrimSpace(lines[start]) == "" {
				start++
				continue
			}
		}
		break
	}
	return strings.TrimSpace(strings.Join(lines[start:], "\n"))
}

func stripFence(body string) string {
	body = strings.TrimSpace(body)
	if !strings.HasPrefix(body, "```") {
		return body
	}
	nl := strings.IndexByte(body, '\n')
	if nl < 0 {
		return ""
	}
	body = strings.TrimSpace(body[nl+1:])
	return strings.TrimSpace(strings.TrimSuffix(body, "```"))
}

var transliterations = map[rune]string{
	'à': "a", 'á': "a", 'â': "a", 'ã': "a", 'ä': "a", 'å': "a",
	'è': "e", 'é': "e", 'ê': "e", 'ë': "e",
	'ì': "i", 'í': "i", 'î': "i", 'ï': "i",
	'ò': "o", 'ó': "o", 'ô': "o", 'õ': "o", 'ö': "o", 'ø': "o",
	'ù': "u", 'ú': "u", 'û': "u", 'ü': "u",
	'ñ': "n", 'ç': "c", 'ß': "ss", 'ý': "y", 'ÿ': "y", 'æ': "ae", 'œ': "oe",
}

// Slugify lowercases s, folds common accents and joins ASCII words with hyphens.
func Slugify(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if t, ok := transliterations[r]; ok {
			b.WriteString(t)
			continue
		}
		if r < unicode.MaxASCII {
			b.WriteRune(r)
		} else {
			b.WriteByte(' ')
		}
	}
	return strings.Trim(slugInvalid.ReplaceAllString(b.String(), "-"), "-")
}

// TrimMeta shortens a meta description to MaxMetaDescription characters,
// cutting at a word boundary when one is close.
func TrimMeta(meta string) string {
	meta = strings.Join(strings.Fields(meta), " ")
	if utf8.RuneCountInString(meta) <= MaxMetaDescription {
		return meta
	}
	runes := []rune(meta)[:MaxMetaDescription]
	cut := string(runes)
	if i := strings.LastIndexByte(cut, ' '); i > MaxMetaDescription*3/4 {
		cut = cut[:i]
	}
	return strings.TrimRight(cut, " ,;:-")
}

// AppendWatermark adds the attribution line once.
func AppendWatermark(body, line string) string {
	if line == "" || strings.Contains(body, line) {
		return body
	}
	return strings.TrimRight(body, "\n ") + "\n\n---\n\n" + line + "\n"
}
