package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tienda-register-ledger/internal/platform/persistence"
)

var rollbackSteps int

// migrateCmd groups the schema migration commands.
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Manage the PostgreSQL schema",
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all pending migrations",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, log, err := loadConfig()
		if err != nil {
			return err
		}
		if err := persistence.RunMigrations(cfg.Postgres.URL, cfg.Postgres.MigrationsPath); err != nil {
			return err
		}
		log.Info("Migrations applied", "path", cfg.Postgres.MigrationsPath)
		return printVersion(cmd, cfg.Postgres.URL, cfg.Postgres.MigrationsPath)
	},
}

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Roll back the given number of migrations",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if rollbackSteps <= 0 {
			return errors.New("--steps must be greater than 0")
		}
		cfg, log, err := loadConfig()
		if err != nil {
			return err
		}
		if err := persistence.RollbackMigrations(cfg.Postgres.URL, cfg.Postgres.MigrationsPath, rollbackSteps); err != nil {
			return err
		}
		log.Info("Migrations rolled back", "steps", rollbackSteps)
		return printVersion(cmd, cfg.Postgres.URL, cfg.Postgres.MigrationsPath)
	},
}

var migrateVersionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the current schema version",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, _, err := loadConfig()
		if err != nil {
			return err
		}
		return printVersion(cmd, cfg.Postgres.URL, cfg.Postgres.MigrationsPath)
	},
}

func init() {
	migrateDownCmd.Flags().IntVar(&rollbackSteps, "steps", 1, "number of migrations to roll back")

	migrateCmd.AddCommand(migrateUpCmd)
	migrateCmd.AddCommand(migrateDownCmd)
	migrateCmd.AddCommand(migrateVersionCmd)
}

func printVersion(cmd *cobra.Command, url, path string) error {
	status, err := persistence.MigrationVersion(url, path)
	if err != nil {
		return err
	}
	dirty := ""
	if status.Dirty {
		dirty = " (dirty)"
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Schema version: %d%s\n", status.Version, dirty)
	return nil
}
