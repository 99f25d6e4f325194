package handlers

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"seoforge/internal/config"
	"seoforge/internal/logger"
	"seoforge/internal/persistence"
)

var cfgFile string

// NewRootCmd creates the root command with all subcommands attached
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "seoforge",
		Short: "SEOForge writes search-optimized articles from competitor research.",
		Long: `SEOForge turns a stored article request into a publish-ready markdown
article. Each run pulls the top organic results for the keyword, analyzes the
ranking pages, writes a competitive brief, drafts the article with internal
links, and generates hero and section images.

Typical workflow:
  seoforge migrate up
  seoforge article add fixtures/acme.yaml
  seoforge generate <article-id>`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig()
		},
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./.seoforge.yaml or $HOME/.seoforge.yaml)")

	rootCmd.AddCommand(NewGenerateCmd())
	rootCmd.AddCommand(NewArticleCmd())
	rootCmd.AddCommand(NewServeCmd())
	rootCmd.AddCommand(NewMigrateCmd())

	return rootCmd
}

// Execute runs the root command. Interrupts cancel the running command.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := NewRootCmd().ExecuteContext(ctx); err != nil {
		stop()
		fmt.Fprintln(os.Stderr, errorStyle.Render("Error: ")+err.Error())
		os.Exit(1)
	}
}

// initConfig reads in config file and ENV variables, then configures logging.
func initConfig() error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	logger.Configure(logger.Options{Level: cfg.Logging.Level, Format: cfg.Logging.Format})
	if cfg.App.Debug {
		logger.Configure(logger.Options{Level: "debug", Format: cfg.Logging.Format})
	}
	return nil
}

// openStore connects to the configured database.
func openStore(cfg *config.Config) (*persistence.SQLStore, error) {
	if cfg.Database.ConnectionString == "" {
		return nil, fmt.Errorf("database connection string not configured\n\n" +
			"Set database.connection_string in .seoforge.yaml or the DATABASE_URL environment variable.")
	}
	if cfg.Database.Driver == persistence.DialectSQLite {
		if err := os.MkdirAll(cfg.App.DataDir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}
	store, err := persistence.Open(cfg.Database.Driver, cfg.Database.ConnectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return store, nil
}
