// Package cmd provides the ledgerctl operator commands.
package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/tienda-register-ledger/internal/config"
	"github.com/tienda-register-ledger/internal/data/postgres"
	"github.com/tienda-register-ledger/internal/engine"
	"github.com/tienda-register-ledger/internal/logger"
	"github.com/tienda-register-ledger/internal/platform/persistence"
)

var (
	configName string
	debug      bool
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "ledgerctl",
	Short: "Operate the register ledger",
	Long: `ledgerctl inspects and maintains the register ledger.

It supports:
- Replaying the ledger against the stored balances
- Comparing the MongoDB archive with the ledger head
- Applying and rolling back PostgreSQL migrations

Example:
  ledgerctl verify --archive
  ledgerctl migrate up`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and runs it.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configName, "config", "ledgerctl", "config file base name, read as <name>.env from ./configs or .")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")

	rootCmd.AddCommand(verifyCmd)
	rootCmd.AddCommand(balancesCmd)
	rootCmd.AddCommand(migrateCmd)
}

// loadConfig reads the configuration and builds the logger every command uses
func loadConfig() (*config.Config, *slog.Logger, error) {
	cfg, err := config.LoadConfig(configName)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if debug {
		cfg.Logging.Level = "debug"
	}
	return cfg, logger.NewLogger(cfg), nil
}

// loadState opens PostgreSQL and reads the full register state
func loadState(ctx context.Context, cfg *config.Config, log *slog.Logger) (engine.State, error) {
	db, err := persistence.NewPostgresDB(ctx, log, &cfg.Postgres)
	if err != nil {
		return engine.State{}, err
	}
	defer db.Close()

	return postgres.NewRegisterRepository(log, db).Load(ctx)
}
