// Package server exposes article generation over HTTP.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"seoforge/internal/config"
	"seoforge/internal/core"
	"seoforge/internal/logger"
	"seoforge/internal/pipeline"
)

// Generator runs the article pipeline.
type Generator interface {
	Run(ctx context.Context, articleID string) (*pipeline.RunReport, error)
}

// Store is the persistence the HTTP API needs.
type Store interface {
	SaveGeneratedArticle(ctx context.Context, articleID string, article core.GeneratedArticle, images []core.GeneratedImage) error
	RecordPublication(ctx context.Context, articleID, url string, publishedAt time.Time) error
	Ping(ctx context.Context) error
}

// Server represents the HTTP server
type Server struct {
	router     *chi.Mux
	httpServer *http.Server
	store      Store
	generator  Generator
	media      http.Handler
	apiKey     string
	config     config.Server
	log        zerolog.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithMedia serves locally stored images under /media.
func WithMedia(h http.Handler) Option {
	return func(s *Server) { s.media = h }
}

// WithAPIKey requires "Authorization: Bearer <key>" on /api routes.
func WithAPIKey(key string) Option {
	return func(s *Server) { s.apiKey = key }
}

// New creates a new HTTP server instance
func New(store Store, generator Generator, cfg config.Server, opts ...Option) *Server {
	s := &Server{
		router:    chi.NewRouter(),
		store:     store,
		generator: generator,
		config:    cfg,
		log:       logger.Component("server"),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.setupMiddleware()
	s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      s.router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.requestLogger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(securityHeaders)

	if s.config.CORS.Enabled {
		s.router.Use(cors.Handler(cors.Options{
			AllowedOrigins:   s.config.CORS.AllowedOrigins,
			AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
			AllowCredentials: false,
			MaxAge:           300,
		}))
	}
}

func (s *Server) setupRoutes() {
	s.router.Get("/healthz", s.handleHealth)

	s.router.Route("/api", func(r chi.Router) {
		r.Use(s.requireAPIKey)
		r.Route("/articles/{id}", func(r chi.Router) {
			r.Post("/generate", s.handleGenerate)
			r.Post("/publications", s.handlePublication)
		})
	})

	if s.media != nil {
		s.router.With(cacheStaticAssets).Handle("/media/*", http.StripPrefix("/media", s.media))
	}
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.log.Info().
		Str("addr", s.httpServer.Addr).
		Dur("read_timeout", s.config.ReadTimeout).
		Dur("write_timeout", s.config.WriteTimeout).
		Msg("Starting HTTP server")

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server failed to start: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("Shutting down HTTP server gracefully...")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	s.log.Info().Msg("HTTP server stopped")
	return nil
}

// Router returns the chi router instance (useful for testing)
func (s *Server) Router() *chi.Mux {
	return s.router
}
