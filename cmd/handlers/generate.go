package handlers

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"seoforge/internal/config"
	"seoforge/internal/core"
	"seoforge/internal/logger"
	"seoforge/internal/markdown"
	"seoforge/internal/observability"
	"seoforge/internal/persistence"
	"seoforge/internal/pipeline"
)

// NewGenerateCmd creates the generate command
func NewGenerateCmd() *cobra.Command {
	var (
		outputDir string
		writeHTML bool
		noSave    bool
	)

	cmd := &cobra.Command{
		Use:   "generate <article-id>",
		Short: "Generate an article",
		Long: `Run the full generation pipeline for a stored article request.

The article is written to <output>/<slug>.md with YAML front matter and,
unless --no-save is given, stored back in the database. Only one run per
article can be active at a time.

Examples:
  seoforge generate art-123
  seoforge generate art-123 --html --output ./out`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(cmd.Context(), args[0], outputDir, writeHTML, noSave)
		},
	}

	cmd.Flags().StringVarP(&outputDir, "output", "o", "", "Output directory (default from config: articles)")
	cmd.Flags().BoolVar(&writeHTML, "html", false, "Also write a rendered HTML file")
	cmd.Flags().BoolVar(&noSave, "no-save", false, "Do not store the result in the database")

	return cmd
}

// frontMatter is written at the top of every generated markdown file.
type frontMatter struct {
	Title           string   `yaml:"title"`
	Slug            string   `yaml:"slug"`
	MetaDescription string   `yaml:"meta_description"`
	Keyword         string   `yaml:"keyword"`
	HeroImage       string   `yaml:"hero_image,omitempty"`
	HeroAlt         string   `yaml:"hero_alt,omitempty"`
	GeneratedAt     string   `yaml:"generated_at"`
	RunID           string   `yaml:"run_id"`
	Degraded        []string `yaml:"degraded_stages,omitempty"`
}

func runGenerate(ctx context.Context, articleID, outputDir string, writeHTML, noSave bool) error {
	cfg := config.Get()
	log := logger.Component("generate")
	if outputDir == "" {
		outputDir = cfg.Output.Directory
	}

	unlock, err := lockArticle(cfg.App.DataDir, articleID)
	if err != nil {
		return err
	}
	defer unlock()

	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	posthog, err := observability.NewPostHogClient(cfg.Analytics.PostHog)
	if err != nil {
		log.Warn().Err(err).Msg("PostHog disabled")
		posthog = observability.Disabled()
	}
	defer posthog.Shutdown(context.Background())

	p, err := pipeline.NewBuilder(cfg).WithStore(store).WithAnalytics(posthog).Build(ctx)
	if err != nil {
		return fmt.Errorf("failed to build pipeline: %w", err)
	}

	fmt.Println(titleStyle.Render("Generating article " + articleID))
	report, err := p.Run(ctx, articleID)
	if err != nil {
		if errors.Is(err, persistence.ErrArticleNotFound) {
			return fmt.Errorf("%w\n\nAdd it first with 'seoforge article add <file>'", err)
		}
		return err
	}

	if !noSave {
		if err := store.SaveGeneratedArticle(ctx, articleID, report.Article, report.Images); err != nil {
			return err
		}
	}

	path, err := writeArticle(outputDir, report, writeHTML)
	if err != nil {
		return err
	}

	fmt.Println(renderStats(report.Stats))
	for _, w := range report.Stats.QualityWarnings {
		fmt.Println(warnStyle.Render("! " + w))
	}
	fmt.Println(successStyle.Render("Article written to " + path))
	return nil
}

// lockArticle takes an exclusive file lock for articleID.
func lockArticle(dataDir, articleID string) (func(), error) {
	dir := filepath.Join(dataDir, "locks")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create lock directory: %w", err)
	}
	lock := flock.New(filepath.Join(dir, safeName(articleID)+".lock"))
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("article %s is already being generated", articleID)
	}
	return func() { _ = lock.Unlock() }, nil
}

func writeArticle(dir string, report *pipeline.RunReport, writeHTML bool) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	article := report.Article
	fm := frontMatter{
		Title:           article.Title,
		Slug:            article.Slug,
		MetaDescription: article.MetaDescription,
		Keyword:         report.Brief.Keyword,
		GeneratedAt:     time.Now().UTC().Format(time.RFC3339),
		RunID:           report.Stats.RunID,
	}
	if hero, ok := heroImage(report.Images); ok {
		fm.HeroImage, fm.HeroAlt = hero.URL, hero.Alt
	}
	for _, id := range report.Stats.Degraded {
		fm.Degraded = append(fm.Degraded, string(id))
	}
	header, err := yaml.Marshal(fm)
	if err != nil {
		return "", fmt.Errorf("failed to encode front matter: %w", err)
	}

	name := safeName(article.Slug)
	path := filepath.Join(dir, name+".md")
	doc := "---\n" + string(header) + "---\n\n" + article.Content + "\n"
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		return "", fmt.Errorf("failed to write article: %w", err)
	}

	if writeHTML {
		html, err := markdown.ToHTML(article.Content)
		if err != nil {
			return "", fmt.Errorf("failed to render HTML: %w", err)
		}
		if err := os.WriteFile(filepath.Join(dir, name+".html"), []byte(html), 0o644); err != nil {
			return "", fmt.Errorf("failed to write HTML: %w", err)
		}
	}
	return path, nil
}

func heroImage(images []core.GeneratedImage) (core.GeneratedImage, bool) {
	for _, img := range images {
		if img.IsHero() {
			return img, true
		}
	}
	return core.GeneratedImage{}, false
}

func renderStats(st pipeline.Stats) string {
	rows := make([][]string, 0, len(st.Stages)+1)
	for _, s := range st.Stages {
		status := s.Severity.String()
		if s.Err != nil {
			status += ": " + firstLine(s.Err.Error())
		}
		rows = append(rows, []string{string(s.Stage), s.Duration.Round(time.Millisecond).String(), status})
	}
	rows = append(rows, []string{"total", st.Duration().Round(time.Millisecond).String(),
		fmt.Sprintf("%d/%d competitors, %d links, %d/%d images, %s words",
			st.CompetitorsAnalyzed, st.CompetitorsAttempted, st.LinksEmbedded,
			st.ImagesGenerated, st.ImagesPlanned, strconv.Itoa(st.WordCount))})
	return renderTable([]string{"Stage", "Duration", "Result"}, rows, []columnAlignment{alignLeft, alignRight})
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i] + " ..."
	}
	return s
}

// safeName keeps a slug or id usable as a file name.
func safeName(s string) string {
	s = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '-'
		}
	}, s)
	s = strings.Trim(s, "-")
	if s == "" {
		return "article"
	}
	return s
}
