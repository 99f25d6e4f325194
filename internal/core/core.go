package core

import (
	"errors"
	"fmt"
	"strings"
)

// ContentType is the high-level shape of an article.
type ContentType string

const (
	ContentTypeGuide    ContentType = "guide"
	ContentTypeListicle ContentType = "listicle"
)

// GuideSubtype refines a guide article.
type GuideSubtype string

const (
	GuideHowTo      GuideSubtype = "how_to"
	GuideExplainer  GuideSubtype = "explainer"
	GuideComparison GuideSubtype = "comparison"
	GuideReference  GuideSubtype = "reference"
)

// ListicleSubtype refines a listicle article.
type ListicleSubtype string

const (
	ListicleRoundUp   ListicleSubtype = "round_up"
	ListicleResources ListicleSubtype = "resources"
	ListicleExamples  ListicleSubtype = "examples"
)

// TargetLength is the requested length bucket for an article.
type TargetLength string

const (
	LengthShort         TargetLength = "short"
	LengthMedium        TargetLength = "medium"
	LengthLong          TargetLength = "long"
	LengthComprehensive TargetLength = "comprehensive"
)

// ImageStyle is the visual style applied to generated images.
type ImageStyle string

const (
	ImageStyleBrandText    ImageStyle = "brand-text"
	ImageStylePhotographic ImageStyle = "photographic"
	ImageStyleIllustration ImageStyle = "illustration"
	ImageStyleAbstract     ImageStyle = "abstract"
	ImageStyleMinimalist   ImageStyle = "minimalist"
)

// LinkSource selects where internal-link candidates come from.
type LinkSource string

const (
	LinkSourceSitemap  LinkSource = "sitemap"
	LinkSourceDatabase LinkSource = "database"
)

// ImageType is the role of a planned image in the article.
type ImageType string

const (
	ImageTypeHero    ImageType = "hero"
	ImageTypeSection ImageType = "section"
	ImageTypeDiagram ImageType = "diagram"
)

// PlacementHero is the placement literal reserved for the hero image.
const PlacementHero = "hero"

// ErrInvalidRequest is returned by ArticleRequest.Validate.
var ErrInvalidRequest = errors.New("invalid article request")

// ArticleRequest is what the user asked to have written.
type ArticleRequest struct {
	ID                string          `json:"id"`
	ProductID         string          `json:"product_id"`
	Keyword           string          `json:"keyword"`                      // Target keyword (required)
	Title             string          `json:"title,omitempty"`              // Optional pre-set title
	ContentType       ContentType     `json:"content_type"`                 // guide or listicle
	GuideSubtype      GuideSubtype    `json:"guide_subtype,omitempty"`      // Only for guides
	ListicleSubtype   ListicleSubtype `json:"listicle_subtype,omitempty"`   // Only for listicles
	SearchVolume      *float64        `json:"search_volume,omitempty"`      // Monthly searches
	KeywordDifficulty *float64        `json:"keyword_difficulty,omitempty"` // 0-100
	CPC               *float64        `json:"cpc,omitempty"`                // Cost per click
	Competition       *float64        `json:"competition,omitempty"`        // 0-1
	TargetLength      TargetLength    `json:"target_length,omitempty"`
}

// Validate checks the invariants of an article request.
func (r ArticleRequest) Validate() error {
	if strings.TrimSpace(r.Keyword) == "" {
		return fmt.Errorf("%w: keyword is required", ErrInvalidRequest)
	}
	switch r.ContentType {
	case ContentTypeGuide:
		if r.ListicleSubtype != "" {
			return fmt.Errorf("%w: guide cannot carry listicle subtype %q", ErrInvalidRequest, r.ListicleSubtype)
		}
		switch r.GuideSubtype {
		case "", GuideHowTo, GuideExplainer, GuideComparison, GuideReference:
		default:
			return fmt.Errorf("%w: unknown guide subtype %q", ErrInvalidRequest, r.GuideSubtype)
		}
	case ContentTypeListicle:
		if r.GuideSubtype != "" {
			return fmt.Errorf("%w: listicle cannot carry guide subtype %q", ErrInvalidRequest, r.GuideSubtype)
		}
		switch r.ListicleSubtype {
		case "", ListicleRoundUp, ListicleResources, ListicleExamples:
		default:
			return fmt.Errorf("%w: unknown listicle subtype %q", ErrInvalidRequest, r.ListicleSubtype)
		}
	default:
		return fmt.Errorf("%w: unknown content type %q", ErrInvalidRequest, r.ContentType)
	}
	switch r.TargetLength {
	case "", LengthShort, LengthMedium, LengthLong, LengthComprehensive:
	default:
		return fmt.Errorf("%w: unknown target length %q", ErrInvalidRequest, r.TargetLength)
	}
	return nil
}

// Subtype returns whichever subtype is set, or "".
func (r ArticleRequest) Subtype() string {
	if r.GuideSubtype != "" {
		return string(r.GuideSubtype)
	}
	return string(r.ListicleSubtype)
}

// StylePreferences captures the product's editorial voice.
type StylePreferences struct {
	Tone                string `json:"tone,omitempty"`
	InternalLinks       int    `json:"internal_links"` // Desired number of contextual internal links
	IncludeVideo        bool   `json:"include_video"`
	IncludeCTA          bool   `json:"include_cta"`
	SuggestInfographics bool   `json:"suggest_infographics"`
	UseEmojis           bool   `json:"use_emojis"`
}

// ProductConfig describes the brand the article is written for.
type ProductConfig struct {
	ID              string           `json:"id"`
	Name            string           `json:"name"`
	Description     string           `json:"description,omitempty"`
	URL             string           `json:"url,omitempty"`
	LanguageCode    string           `json:"language_code,omitempty"` // ISO 639-1
	CountryCode     string           `json:"country_code,omitempty"`  // ISO 3166-1 alpha-2
	TargetAudiences []string         `json:"target_audiences,omitempty"`
	Style           StylePreferences `json:"style"`
	ReferenceURLs   []string         `json:"reference_urls,omitempty"` // Tone calibration
	ImageStyle      ImageStyle       `json:"image_style,omitempty"`
	BrandColor      string           `json:"brand_color,omitempty"`
	Watermark       bool             `json:"watermark"`
	LinkSource      LinkSource       `json:"link_source,omitempty"`
	SitemapPages    []LinkCandidate  `json:"sitemap_pages,omitempty"` // Cached sitemap snapshot
}

// SerpResult is one organic search result.
type SerpResult struct {
	Position int    `json:"position"`
	URL      string `json:"url"`
	Title    string `json:"title"`
	Snippet  string `json:"snippet,omitempty"`
	RawHTML  string `json:"-"` // Present only when the provider returns page HTML
}

// CompetitorContent is the parsed content of a ranking page.
type CompetitorContent struct {
	URL             string   `json:"url"`
	Title           string   `json:"title"`
	MetaDescription string   `json:"meta_description,omitempty"`
	Headings        []string `json:"headings"`
	WordCount       int      `json:"word_count"`
	Preview         string   `json:"preview"` // First ~1000 characters of visible text
}

// CompetitorInsight is the brief's view of a single competitor.
type CompetitorInsight struct {
	URL        string   `json:"url"`
	Title      string   `json:"title"`
	WordCount  int      `json:"word_count"`
	MainPoints []string `json:"main_points"`
	Headings   []string `json:"headings"`
}

// WordBand is an inclusive word-count range.
type WordBand struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// TechnicalGuidance holds on-page SEO rules for the writer.
type TechnicalGuidance struct {
	TitleGuidance    string   `json:"title_guidance"`
	MetaGuidance     string   `json:"meta_guidance"`
	SchemaTypes      []string `json:"schema_types"`
	HeadingHierarchy string   `json:"heading_hierarchy"`
}

// CompetitiveBrief is the structural contract the content generator honors.
type CompetitiveBrief struct {
	Keyword             string              `json:"keyword"`
	LSIKeywords         []string            `json:"lsi_keywords"`
	SearchIntent        string              `json:"search_intent"`
	Competitors         []CompetitorInsight `json:"competitors"`
	ContentGaps         []string            `json:"content_gaps"`
	UnansweredQuestions []string            `json:"unanswered_questions"`
	RequiredSections    []string            `json:"required_sections"` // Section titles only
	TargetWordCount     WordBand            `json:"target_word_count"`
	KeywordPlacement    []string            `json:"keyword_placement"`
	ImageSuggestions    []string            `json:"image_suggestions"`
	LinkingSuggestions  []string            `json:"linking_suggestions"`
	Technical           TechnicalGuidance   `json:"technical"`
	Fallback            bool                `json:"fallback"` // Built without competitor analysis
}

// HasCompetitorData reports whether the brief reflects real competitor analysis.
func (b CompetitiveBrief) HasCompetitorData() bool {
	return !b.Fallback && len(b.Competitors) > 0 && len(b.RequiredSections) > 0
}

// LinkCandidate is an existing page usable as an internal link.
type LinkCandidate struct {
	Title   string `json:"title" yaml:"title"`
	Keyword string `json:"keyword,omitempty" yaml:"keyword"`
	URL     string `json:"url" yaml:"url"`
}

// GeneratedArticle is the written article.
type GeneratedArticle struct {
	Title           string `json:"title"`
	Content         string `json:"content"` // Markdown body
	MetaDescription string `json:"meta_description"`
	Slug            string `json:"slug"`
}

// ImagePlanItem is one image the planner wants generated.
type ImagePlanItem struct {
	Type      ImageType `json:"type"`
	Placement string    `json:"placement"` // "hero" or the exact text of a heading
	Prompt    string    `json:"prompt"`    // At most 30 words
	Alt       string    `json:"alt"`
	Style     string    `json:"style,omitempty"`
}

// IsHero reports whether the item is the hero image.
func (i ImagePlanItem) IsHero() bool {
	return i.Type == ImageTypeHero || strings.EqualFold(strings.TrimSpace(i.Placement), PlacementHero)
}

// GeneratedImage is an uploaded image ready to reference.
type GeneratedImage struct {
	URL       string    `json:"url"`
	Type      ImageType `json:"type"`
	Placement string    `json:"placement"`
	Alt       string    `json:"alt"`
}

// IsHero reports whether the image is the hero image.
func (g GeneratedImage) IsHero() bool {
	return g.Type == ImageTypeHero || strings.EqualFold(strings.TrimSpace(g.Placement), PlacementHero)
}
