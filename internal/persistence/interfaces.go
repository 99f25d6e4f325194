// Package persistence stores products, article requests and generated articles
package persistence

import (
	"context"
	"errors"
	"time"

	"seoforge/internal/core"
)

var (
	// ErrArticleNotFound is returned when an article id does not resolve
	ErrArticleNotFound = errors.New("article not found")
	// ErrProductNotFound is returned when a product id does not resolve
	ErrProductNotFound = errors.New("product not found")
)

// Repository is the persistence collaborator used by the pipeline and the CLI
type Repository interface {
	// LoadArticle resolves an article request together with its product
	LoadArticle(ctx context.Context, articleID string) (core.ArticleRequest, core.ProductConfig, error)

	// LoadLinkCandidates returns published articles of a product, most recent first,
	// excluding excludeArticleID. Only articles with a publication URL qualify.
	LoadLinkCandidates(ctx context.Context, productID, excludeArticleID string, limit int) ([]core.LinkCandidate, error)

	// SaveGeneratedArticle stores the pipeline output for an article
	SaveGeneratedArticle(ctx context.Context, articleID string, article core.GeneratedArticle, images []core.GeneratedImage) error

	// CreateProduct inserts a product
	CreateProduct(ctx context.Context, product core.ProductConfig) error

	// CreateArticle inserts an article request
	CreateArticle(ctx context.Context, req core.ArticleRequest) error

	// RecordPublication marks an article as published at url
	RecordPublication(ctx context.Context, articleID, url string, publishedAt time.Time) error

	// Ping verifies the connection
	Ping(ctx context.Context) error

	Close() error
}

// Article status values
const (
	StatusPlanned   = "planned"
	StatusGenerated = "generated"
	StatusPublished = "published"
)

// DefaultLinkCandidateLimit caps internal-link candidates
const DefaultLinkCandidateLimit = 20
