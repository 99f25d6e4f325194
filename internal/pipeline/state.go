package pipeline

import (
	"seoforge/internal/core"
)

type field uint16

const (
	fieldArticle field = 1 << iota
	fieldSerp
	fieldLinks
	fieldCompetitors
	fieldBrief
	fieldContent
	fieldPlan
	fieldImages
	fieldFinal
)

// PipelineState is the immutable record passed from stage to stage. Each
// With method returns a copy with one more field filled; a field can be
// filled only once.
type PipelineState struct {
	runID     string
	articleID string

	request     core.ArticleRequest
	product     core.ProductConfig
	serp        []core.SerpResult
	links       []core.LinkCandidate
	competitors []core.CompetitorContent
	brief       core.CompetitiveBrief
	article     core.GeneratedArticle
	plan        []core.ImagePlanItem
	images      []core.GeneratedImage
	final       string

	filled      field
	overwritten field
}

// NewState starts a run for articleID.
func NewState(runID, articleID string) PipelineState {
	return PipelineState{runID: runID, articleID: articleID}
}

func (s PipelineState) RunID() string                         { return s.runID }
func (s PipelineState) ArticleID() string                     { return s.articleID }
func (s PipelineState) Request() core.ArticleRequest          { return s.request }
func (s PipelineState) Product() core.ProductConfig           { return s.product }
func (s PipelineState) Serp() []core.SerpResult               { return s.serp }
func (s PipelineState) Links() []core.LinkCandidate           { return s.links }
func (s PipelineState) Competitors() []core.CompetitorContent { return s.competitors }
func (s PipelineState) Brief() core.CompetitiveBrief          { return s.brief }
func (s PipelineState) Article() core.GeneratedArticle        { return s.article }
func (s PipelineState) Plan() []core.ImagePlanItem            { return s.plan }
func (s PipelineState) Images() []core.GeneratedImage         { return s.images }
func (s PipelineState) FinalContent() string                  { return s.final }

// has reports whether every given field is filled.
func (s PipelineState) has(f field) bool {
	return s.filled&f == f
}

func (s PipelineState) fill(f field) PipelineState {
	if s.filled&f != 0 {
		s.overwritten |= f
	}
	s.filled |= f
	return s
}

// WithArticle records the loaded request and product.
func (s PipelineState) WithArticle(req core.ArticleRequest, product core.ProductConfig) PipelineState {
	s.request = req
	s.product = product
	return s.fill(fieldArticle)
}

// WithSerp records the organic results.
func (s PipelineState) WithSerp(results []core.SerpResult) PipelineState {
	s.serp = clone(results)
	return s.fill(fieldSerp)
}

// WithLinks records the internal-link candidates.
func (s PipelineState) WithLinks(links []core.LinkCandidate) PipelineState {
	s.links = clone(links)
	return s.fill(fieldLinks)
}

// WithCompetitors records the analyzed competitor pages.
func (s PipelineState) WithCompetitors(competitors []core.CompetitorContent) PipelineState {
	s.competitors = clone(competitors)
	return s.fill(fieldCompetitors)
}

// WithBrief records the competitive brief.
func (s PipelineState) WithBrief(b core.CompetitiveBrief) PipelineState {
	s.brief = b
	return s.fill(fieldBrief)
}

// WithGeneratedArticle records the written article.
func (s PipelineState) WithGeneratedArticle(a core.GeneratedArticle) PipelineState {
	s.article = a
	return s.fill(fieldContent)
}

// WithPlan records the image plan.
func (s PipelineState) WithPlan(plan []core.ImagePlanItem) PipelineState {
	s.plan = clone(plan)
	return s.fill(fieldPlan)
}

// WithImages records the hosted images.
func (s PipelineState) WithImages(images []core.GeneratedImage) PipelineState {
	s.images = clone(images)
	return s.fill(fieldImages)
}

// WithFinalContent records the body with images inserted.
func (s PipelineState) WithFinalContent(body string) PipelineState {
	s.final = body
	return s.fill(fieldFinal)
}

// clone copies a slice so later stages never share backing arrays; nil
// becomes an empty slice.
func clone[T any](in []T) []T {
	out := make([]T, len(in))
	copy(out, in)
	return out
}
