package visual

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"seoforge/internal/core"
	"seoforge/internal/logger"
	"seoforge/internal/observability"
	"seoforge/internal/storage"
)

// Defaults for a Generator.
const (
	DefaultConcurrency = 3
	DefaultTimeout     = 90 * time.Second
)

// Failure records one plan item that produced no image.
type Failure struct {
	Index int
	Type  core.ImageType
	Err   error
}

// Outcome is the result of generating a plan.
type Outcome struct {
	Images   []core.GeneratedImage // plan order, failures omitted
	Planned  int
	Failures []Failure
}

// Generator turns plan items into hosted images.
type Generator struct {
	provider    Provider
	store       storage.ObjectStore
	httpClient  *http.Client
	concurrency int
	timeout     time.Duration
	posthog     *observability.PostHogClient
}

// GeneratorOption configures a Generator.
type GeneratorOption func(*Generator)

// WithConcurrency sets the number of images generated at once.
func WithConcurrency(n int) GeneratorOption {
	return func(g *Generator) {
		if n > 0 {
			g.concurrency = n
		}
	}
}

// WithTimeout bounds each image call.
func WithTimeout(d time.Duration) GeneratorOption {
	return func(g *Generator) { g.timeout = d }
}

// WithDownloadClient sets the client used to fetch provider URLs.
func WithDownloadClient(hc *http.Client) GeneratorOption {
	return func(g *Generator) { g.httpClient = hc }
}

// WithAnalytics records one event per image.
func WithAnalytics(p *observability.PostHogClient) GeneratorOption {
	return func(g *Generator) { g.posthog = p }
}

// NewGenerator creates an image generator.
func NewGenerator(provider Provider, store storage.ObjectStore, opts ...GeneratorOption) *Generator {
	g := &Generator{
		provider:    provider,
		store:       store,
		concurrency: DefaultConcurrency,
		timeout:     DefaultTimeout,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate produces and uploads one image per plan item. A failed item is
// logged and skipped; it never affects the others.
func (g *Generator) Generate(ctx context.Context, articleID string, style core.ImageStyle, items []core.ImagePlanItem) Outcome {
	log := logger.Component("images")
	slots := make([]*core.GeneratedImage, len(items))
	errs := make([]error, len(items))

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(g.concurrency)
	for i, item := range items {
		eg.Go(func() error {
			img, err := g.generateOne(egCtx, articleID, i, style, item)
			if err != nil {
				errs[i] = err
				log.Warn().Err(err).Int("index", i).Str("type", string(item.Type)).Msg("Image generation failed, skipping")
				return nil
			}
			slots[i] = &img
			return nil
		})
	}
	_ = eg.Wait()

	out := Outcome{Planned: len(items), Images: []core.GeneratedImage{}}
	for i := range items {
		if slots[i] != nil {
			out.Images = append(out.Images, *slots[i])
			continue
		}
		out.Failures = append(out.Failures, Failure{Index: i, Type: items[i].Type, Err: errs[i]})
	}
	log.Info().Int("generated", len(out.Images)).Int("planned", out.Planned).Msgf("Generated %d of %d images", len(out.Images), out.Planned)
	return out
}

func (g *Generator) generateOne(ctx context.Context, articleID string, index int, style core.ImageStyle, item core.ImagePlanItem) (core.GeneratedImage, error) {
	if err := ctx.Err(); err != nil {
		return core.GeneratedImage{}, err
	}
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	start := time.Now()
	img, err := g.provider.Generate(ctx, BuildPrompt(item, style), AspectRatio(item.Type))
	_ = g.posthog.TrackImageGenerated(ctx, g.provider.Name(), string(item.Type), time.Since(start).Milliseconds(), err == nil)
	if err != nil {
		return core.GeneratedImage{}, err
	}

	data, contentType := img.Data, img.ContentType
	if len(data) == 0 {
		if img.URL == "" {
			return core.GeneratedImage{}, ErrNoImage
		}
		data, contentType, err = storage.Download(ctx, g.httpClient, img.URL)
		if err != nil {
			return core.GeneratedImage{}, fmt.Errorf("failed to fetch generated image: %w", err)
		}
	}

	url, err := g.store.Upload(ctx, data, contentType, ObjectKey(articleID, index, item.Type, contentType))
	if err != nil {
		return core.GeneratedImage{}, fmt.Errorf("failed to upload image: %w", err)
	}

	placement := item.Placement
	if item.IsHero() {
		placement = core.PlacementHero
	}
	return core.GeneratedImage{URL: url, Type: item.Type, Placement: placement, Alt: item.Alt}, nil
}

// ObjectKey is the storage key for a generated image.
func ObjectKey(articleID string, index int, imageType core.ImageType, contentType string) string {
	if articleID == "" {
		articleID = "unassigned"
	}
	return fmt.Sprintf("articles/%s/%d-%s-%s.%s", articleID, index, imageType, uuid.NewString(), storage.Extension(contentType))
}

var styleSuffixes = map[core.ImageStyle]string{
	core.ImageStyleBrandText:    "clean brand-style graphic, bold shapes, flat colors, space for a headline",
	core.ImageStylePhotographic: "photorealistic, natural light, shallow depth of field",
	core.ImageStyleIllustration: "modern flat illustration, soft palette",
	core.ImageStyleAbstract:     "abstract composition, geometric forms, vibrant gradients",
	core.ImageStyleMinimalist:   "minimalist, plenty of negative space, muted colors",
}

// BuildPrompt returns the final image prompt for item. Diagrams ignore the
// product style.
func BuildPrompt(item core.ImagePlanItem, style core.ImageStyle) string {
	prompt := strings.TrimSpace(item.Prompt)
	if item.Type == core.ImageTypeDiagram {
		return "simple diagram: " + prompt
	}
	parts := []string{prompt}
	if s := strings.TrimSpace(item.Style); s != "" {
		parts = append(parts, s)
	}
	if suffix, ok := styleSuffixes[style]; ok {
		parts = append(parts, suffix)
	}
	return strings.Join(parts, ", ")
}

// AspectRatio returns the aspect ratio requested for an image type.
func AspectRatio(t core.ImageType) string {
	if t == core.ImageTypeDiagram {
		return "4:3"
	}
	return "16:9"
}
