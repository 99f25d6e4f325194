package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"seoforge/internal/core"
)

const articleColumns = `
	a.id, a.product_id, a.keyword, a.title, a.content_type, a.guide_subtype, a.listicle_subtype,
	a.search_volume, a.keyword_difficulty, a.cpc, a.competition, a.target_length,
	p.id, p.name, p.description, p.url, p.language_code, p.country_code, p.target_audiences,
	p.style, p.reference_urls, p.image_style, p.brand_color, p.watermark, p.link_source, p.sitemap_pages`

func (s *SQLStore) LoadArticle(ctx context.Context, articleID string) (core.ArticleRequest, core.ProductConfig, error) {
	query := `SELECT ` + articleColumns + `
		FROM articles a
		JOIN products p ON p.id = a.product_id
		WHERE a.id = ?`

	var (
		req                                     core.ArticleRequest
		product                                 core.ProductConfig
		volume, difficulty, cpc, competition    sql.NullFloat64
		audiences, style, refURLs, sitemapPages string
	)

	err := s.queryRow(ctx, query, articleID).Scan(
		&req.ID, &req.ProductID, &req.Keyword, &req.Title, &req.ContentType, &req.GuideSubtype, &req.ListicleSubtype,
		&volume, &difficulty, &cpc, &competition, &req.TargetLength,
		&product.ID, &product.Name, &product.Description, &product.URL, &product.LanguageCode, &product.CountryCode, &audiences,
		&style, &refURLs, &product.ImageStyle, &product.BrandColor, &product.Watermark, &product.LinkSource, &sitemapPages,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return core.ArticleRequest{}, core.ProductConfig{}, fmt.Errorf("%w: %s", ErrArticleNotFound, articleID)
	}
	if err != nil {
		return core.ArticleRequest{}, core.ProductConfig{}, fmt.Errorf("failed to load article %s: %w", articleID, err)
	}

	req.SearchVolume = nullFloat(volume)
	req.KeywordDifficulty = nullFloat(difficulty)
	req.CPC = nullFloat(cpc)
	req.Competition = nullFloat(competition)

	if err := unmarshalColumn(audiences, &product.TargetAudiences); err != nil {
		return req, product, fmt.Errorf("failed to decode target audiences: %w", err)
	}
	if err := unmarshalColumn(style, &product.Style); err != nil {
		return req, product, fmt.Errorf("failed to decode style preferences: %w", err)
	}
	if err := unmarshalColumn(refURLs, &product.ReferenceURLs); err != nil {
		return req, product, fmt.Errorf("failed to decode reference urls: %w", err)
	}
	if err := unmarshalColumn(sitemapPages, &product.SitemapPages); err != nil {
		return req, product, fmt.Errorf("failed to decode sitemap pages: %w", err)
	}

	return req, product, nil
}

func (s *SQLStore) LoadLinkCandidates(ctx context.Context, productID, excludeArticleID string, limit int) ([]core.LinkCandidate, error) {
	if limit <= 0 {
		limit = DefaultLinkCandidateLimit
	}

	// One row per publication; the newest publication of each article wins.
	query := `
		SELECT a.id, a.generated_title, a.title, a.keyword, pub.url
		FROM articles a
		JOIN article_publications pub ON pub.article_id = a.id
		WHERE a.product_id = ? AND a.id <> ? AND pub.url <> ''
		ORDER BY pub.published_at DESC, a.id`

	rows, err := s.query(ctx, query, productID, excludeArticleID)
	if err != nil {
		return nil, fmt.Errorf("failed to query link candidates: %w", err)
	}
	defer rows.Close()

	seen := make(map[string]bool)
	var candidates []core.LinkCandidate
	for rows.Next() {
		var id, generatedTitle, title, keyword, url string
		if err := rows.Scan(&id, &generatedTitle, &title, &keyword, &url); err != nil {
			return nil, err
		}
		if seen[id] {
			continue
		}
		seen[id] = true

		display := generatedTitle
		if display == "" {
			display = title
		}
		if display == "" {
			display = keyword
		}
		candidates = append(candidates, core.LinkCandidate{Title: display, Keyword: keyword, URL: url})
		if len(candidates) >= limit {
			break
		}
	}
	return candidates, rows.Err()
}

func (s *SQLStore) SaveGeneratedArticle(ctx context.Context, articleID string, article core.GeneratedArticle, images []core.GeneratedImage) error {
	if images == nil {
		images = []core.GeneratedImage{}
	}
	imagesJSON, err := json.Marshal(images)
	if err != nil {
		return fmt.Errorf("failed to marshal images: %w", err)
	}

	query := `
		UPDATE articles
		SET generated_title = ?, content = ?, meta_description = ?, slug = ?, images = ?,
			status = CASE WHEN status = ? THEN status ELSE ? END, generated_at = ?
		WHERE id = ?`
	res, err := s.exec(ctx, query,
		article.Title, article.Content, article.MetaDescription, article.Slug, string(imagesJSON),
		StatusPublished, StatusGenerated, time.Now().UTC(), articleID,
	)
	if err != nil {
		return fmt.Errorf("failed to save generated article: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", ErrArticleNotFound, articleID)
	}
	return nil
}

func (s *SQLStore) CreateProduct(ctx context.Context, product core.ProductConfig) error {
	audiences, err := marshalColumn(product.TargetAudiences)
	if err != nil {
		return err
	}
	style, err := json.Marshal(product.Style)
	if err != nil {
		return fmt.Errorf("failed to marshal style: %w", err)
	}
	refURLs, err := marshalColumn(product.ReferenceURLs)
	if err != nil {
		return err
	}
	sitemapPages, err := marshalColumn(product.SitemapPages)
	if err != nil {
		return err
	}
	linkSource := product.LinkSource
	if linkSource == "" {
		linkSource = core.LinkSourceDatabase
	}

	query := `
		INSERT INTO products (id, name, description, url, language_code, country_code, target_audiences,
			style, reference_urls, image_style, brand_color, watermark, link_source, sitemap_pages)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err = s.exec(ctx, query,
		product.ID, product.Name, product.Description, product.URL, product.LanguageCode, product.CountryCode, audiences,
		string(style), refURLs, string(product.ImageStyle), product.BrandColor, product.Watermark, string(linkSource), sitemapPages,
	)
	if err != nil {
		return fmt.Errorf("failed to create product %s: %w", product.ID, err)
	}
	return nil
}

func (s *SQLStore) CreateArticle(ctx context.Context, req core.ArticleRequest) error {
	if err := req.Validate(); err != nil {
		return err
	}

	var exists int
	err := s.queryRow(ctx, `SELECT COUNT(*) FROM products WHERE id = ?`, req.ProductID).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check product: %w", err)
	}
	if exists == 0 {
		return fmt.Errorf("%w: %s", ErrProductNotFound, req.ProductID)
	}

	query := `
		INSERT INTO articles (id, product_id, keyword, title, content_type, guide_subtype, listicle_subtype,
			search_volume, keyword_difficulty, cpc, competition, target_length, status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err = s.exec(ctx, query,
		req.ID, req.ProductID, req.Keyword, req.Title, string(req.ContentType), string(req.GuideSubtype), string(req.ListicleSubtype),
		floatArg(req.SearchVolume), floatArg(req.KeywordDifficulty), floatArg(req.CPC), floatArg(req.Competition),
		string(req.TargetLength), StatusPlanned,
	)
	if err != nil {
		return fmt.Errorf("failed to create article %s: %w", req.ID, err)
	}
	return nil
}

func (s *SQLStore) RecordPublication(ctx context.Context, articleID, url string, publishedAt time.Time) error {
	if publishedAt.IsZero() {
		publishedAt = time.Now()
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, s.rebind(`UPDATE articles SET status = ? WHERE id = ?`), StatusPublished, articleID)
	if err != nil {
		return fmt.Errorf("failed to update article status: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", ErrArticleNotFound, articleID)
	}

	query := `
		INSERT INTO article_publications (article_id, url, published_at)
		VALUES (?, ?, ?)
		ON CONFLICT (article_id, url) DO UPDATE SET published_at = excluded.published_at`
	if _, err := tx.ExecContext(ctx, s.rebind(query), articleID, url, publishedAt.UTC()); err != nil {
		return fmt.Errorf("failed to record publication: %w", err)
	}
	return tx.Commit()
}

func nullFloat(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

func floatArg(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}

func marshalColumn[T any](v []T) (string, error) {
	if v == nil {
		v = []T{}
	}
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("failed to marshal column: %w", err)
	}
	return string(data), nil
}

func unmarshalColumn(raw string, dest any) error {
	if raw == "" {
		return nil
	}
	return json.Unmarshal([]byte(raw), dest)
}
