// Package migrate implements the "migrate" command.
package migrate

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"photopick/internal/infrastructure/database"
	"photopick/internal/infrastructure/migration"
	"photopick/internal/interfaces/cli/bootstrap"
	"photopick/internal/shared/logger"
)

func NewCommand(opts *bootstrap.Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Database migration tools",
		Long:  `Apply, roll back and inspect the quota schema. sqlite databases are migrated from the models and have no version history.`,
	}

	cmd.AddCommand(
		newUpCommand(opts),
		newDownCommand(opts),
		newStatusCommand(opts),
	)
	return cmd
}

func newUpCommand(opts *bootstrap.Options) *cobra.Command {
	return &cobra.Command{
		Use:   "up",
		Short: "Run all pending migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withManager(opts, func(m *migration.Manager, log logger.Interface) error {
				log.Infow("running up migrations", "strategy", m.GetStrategy().GetName())
				if err := m.Migrate(database.Get()); err != nil {
					return fmt.Errorf("migration failed: %w", err)
				}
				log.Infow("migrations completed successfully")
				return nil
			})
		},
	}
}

func newDownCommand(opts *bootstrap.Options) *cobra.Command {
	var steps int
	cmd := &cobra.Command{
		Use:   "down",
		Short: "Rollback migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withManager(opts, func(m *migration.Manager, log logger.Interface) error {
				log.Infow("running down migrations", "steps", steps)
				if err := m.Down(database.Get(), steps); err != nil {
					return fmt.Errorf("down migration failed: %w", err)
				}
				log.Infow("down migration completed successfully")
				return nil
			})
		},
	}
	cmd.Flags().IntVarP(&steps, "steps", "n", 1, "Number of migrations to rollback")
	return cmd
}

func newStatusCommand(opts *bootstrap.Options) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withManager(opts, func(m *migration.Manager, _ logger.Interface) error {
				out := cmd.OutOrStdout()
				version, err := m.Version(database.Get())
				if errors.Is(err, migration.ErrNotVersioned) {
					fmt.Fprintf(out, "Strategy %s does not track versions\n", m.GetStrategy().GetName())
					return nil
				}
				if err != nil {
					return fmt.Errorf("failed to get migration version: %w", err)
				}
				fmt.Fprintf(out, "Migration Status:\n")
				fmt.Fprintf(out, "  Strategy:        %s\n", m.GetStrategy().GetName())
				fmt.Fprintf(out, "  Current Version: %d\n", version)
				return m.Status(database.Get())
			})
		},
	}
}

func withManager(opts *bootstrap.Options, fn func(*migration.Manager, logger.Interface) error) error {
	cfg, log, err := bootstrap.LoadConfig(opts)
	if err != nil {
		return err
	}
	if err := database.Init(&cfg.Database); err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer database.Close()

	m, err := migration.NewManager(cfg.Database.Driver, log)
	if err != nil {
		return err
	}
	if err := fn(m, log); err != nil {
		log.Errorw("migration command failed", "error", err)
		return err
	}
	return nil
}
