package handlers

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"seoforge/internal/config"
	"seoforge/internal/logger"
	"seoforge/internal/persistence"
)

// NewMigrateCmd creates the migrate command for database migrations
func NewMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage database migrations",
		Long: `Manage database schema migrations.

Subcommands:
  up       Apply all pending migrations
  status   Show migration status
  rollback Roll back the last migration (use with caution!)

Migrations work against both SQLite (default) and PostgreSQL.`,
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrateUp(cmd.Context())
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrateStatus(cmd.Context())
		},
	})
	cmd.AddCommand(newMigrateRollbackCmd())

	return cmd
}

func newMigrateRollbackCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "rollback",
		Short: "Roll back the last migration",
		Long: `Roll back the last applied migration.

Runs the migration's down section when it has one, then removes its
record from schema_migrations. Down sections drop tables, so data in
them is lost. Use --force to skip the confirmation prompt.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrateRollback(cmd.Context(), force)
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "Skip confirmation prompt")
	return cmd
}

func migrator() (*persistence.MigrationManager, func() error, error) {
	store, err := openStore(config.Get())
	if err != nil {
		return nil, nil, err
	}
	return persistence.NewMigrationManager(store), store.Close, nil
}

func runMigrateUp(ctx context.Context) error {
	m, closeFn, err := migrator()
	if err != nil {
		return err
	}
	defer closeFn()

	logger.Info("Starting database migration")
	if err := m.Migrate(ctx); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	fmt.Println(successStyle.Render("All migrations applied successfully"))
	return nil
}

func runMigrateStatus(ctx context.Context) error {
	m, closeFn, err := migrator()
	if err != nil {
		return err
	}
	defer closeFn()

	status, err := m.Status(ctx)
	if err != nil {
		return fmt.Errorf("failed to get migration status: %w", err)
	}
	if len(status) == 0 {
		fmt.Println("No migrations found")
		return nil
	}

	pending := 0
	rows := make([][]string, 0, len(status))
	for _, s := range status {
		state, appliedAt := "pending", ""
		switch {
		case !s.Applied:
			pending++
		case s.Drifted:
			state = "applied (modified)"
		default:
			state = "applied"
		}
		if !s.AppliedAt.IsZero() {
			appliedAt = s.AppliedAt.Local().Format("2006-01-02 15:04")
		}
		rows = append(rows, []string{strconv.Itoa(s.Version), s.Name, state, appliedAt})
	}

	fmt.Println(titleStyle.Render("Migration Status"))
	fmt.Println(renderTable([]string{"Version", "Name", "Status", "Applied At"}, rows, []columnAlignment{alignRight}))
	if pending > 0 {
		fmt.Println(mutedStyle.Render("\nRun 'seoforge migrate up' to apply pending migrations"))
	}
	return nil
}

func runMigrateRollback(ctx context.Context, force bool) error {
	if !force {
		fmt.Println(warnStyle.Render("Rolling back drops the tables created by the last migration."))
		fmt.Print("Are you sure you want to proceed? (yes/no): ")

		var response string
		if _, err := fmt.Scanln(&response); err != nil {
			return fmt.Errorf("failed to read response: %w", err)
		}
		if response != "yes" {
			fmt.Println("Rollback cancelled")
			return nil
		}
	}

	m, closeFn, err := migrator()
	if err != nil {
		return err
	}
	defer closeFn()

	version, reverted, err := m.Rollback(ctx)
	if errors.Is(err, persistence.ErrNothingToRollback) {
		fmt.Println(mutedStyle.Render("Nothing to roll back"))
		return nil
	}
	if err != nil {
		return fmt.Errorf("rollback failed: %w", err)
	}
	if !reverted {
		logger.Warn("Migration has no down section; only its record was removed", "version", version)
		fmt.Println(warnStyle.Render(fmt.Sprintf("Migration %03d record removed; revert its schema changes manually", version)))
		return nil
	}
	fmt.Println(successStyle.Render(fmt.Sprintf("Migration %03d rolled back", version)))
	return nil
}
