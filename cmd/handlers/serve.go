package handlers

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"seoforge/internal/config"
	"seoforge/internal/logger"
	"seoforge/internal/observability"
	"seoforge/internal/pipeline"
	"seoforge/internal/server"
	"seoforge/internal/storage"
)

// NewServeCmd creates the serve command for starting the HTTP server
func NewServeCmd() *cobra.Command {
	var (
		port int
		host string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Long: `Start the SEOForge HTTP API.

Endpoints:
  POST /api/articles/{id}/generate      Run the pipeline and store the result
  POST /api/articles/{id}/publications  Record a publication URL
  GET  /healthz                         Database health
  GET  /media/*                         Locally stored images (local storage only)

Set SEOFORGE_API_KEY to require "Authorization: Bearer <key>" on /api.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), port, host)
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "HTTP server port (default from config: 8080)")
	cmd.Flags().StringVar(&host, "host", "", "HTTP server host (default from config: 0.0.0.0)")

	return cmd
}

func runServe(ctx context.Context, port int, host string) error {
	cfg := config.Get()
	log := logger.Component("serve")

	serverCfg := cfg.Server
	if port != 0 {
		serverCfg.Port = port
	}
	if host != "" {
		serverCfg.Host = host
	}

	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()
	if err := store.Ping(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w\n\nRun 'seoforge migrate up' to initialize the database schema.", err)
	}

	posthog, err := observability.NewPostHogClient(cfg.Analytics.PostHog)
	if err != nil {
		log.Warn().Err(err).Msg("PostHog disabled")
		posthog = observability.Disabled()
	}
	defer posthog.Shutdown(context.Background())

	builder := pipeline.NewBuilder(cfg).WithStore(store).WithAnalytics(posthog)
	opts := []server.Option{server.WithAPIKey(os.Getenv("SEOFORGE_API_KEY"))}

	// A local store doubles as the media server for the URLs it hands out.
	if cfg.Storage.Provider == "" || cfg.Storage.Provider == "local" {
		local, err := storage.NewLocalStore(cfg.Storage.Local.Directory, cfg.Storage.Local.BaseURL)
		if err != nil {
			return err
		}
		builder = builder.WithObjectStore(local)
		opts = append(opts, server.WithMedia(local.Handler()))
	}

	p, err := builder.Build(ctx)
	if err != nil {
		return fmt.Errorf("failed to build pipeline: %w", err)
	}

	srv := server.New(store, p, serverCfg, opts...)
	serverErrors := make(chan error, 1)
	go func() {
		log.Info().Msgf("Server listening on http://%s:%d", serverCfg.Host, serverCfg.Port)
		serverErrors <- srv.Start()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		log.Info().Msg("Server shutdown initiated")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), serverCfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
	}
	return nil
}
