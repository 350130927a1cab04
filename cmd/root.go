package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/abhisek/nextstep/internal/config"
	"github.com/abhisek/nextstep/internal/logging"
	"github.com/abhisek/nextstep/internal/store"
)

var rootCmd = &cobra.Command{
	Use:   "nextstep",
	Short: "Career assessment for aspiring developers",
	Long: `nextstep runs three independent assessments (gap analysis, coding and
personality) and turns the results into career guidance.

Candidates take the tests in the terminal with "nextstep take" or through
the HTTP API started by "nextstep serve".`,
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Path to a YAML config file")
	rootCmd.PersistentFlags().String("env-file", "", "Path to a .env file (default .env)")
	rootCmd.PersistentFlags().String("db", "", "Database DSN or SQLite file path (overrides NEXTSTEP_DB_DSN)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(takeCmd)
	rootCmd.AddCommand(candidateCmd)
	rootCmd.AddCommand(tokenCmd)
	rootCmd.AddCommand(resultCmd)
	rootCmd.AddCommand(restartCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(eventsCmd)
	rootCmd.AddCommand(bankCmd)
	rootCmd.AddCommand(llmCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(versionCmd)
}

// loadConfig reads the config file and environment, then applies --db.
// An empty SQLite DSN resolves to the default per-user database file.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	envFile, _ := cmd.Flags().GetString("env-file")
	cfg, err := config.Load(path, envFile)
	if err != nil {
		return nil, err
	}

	if dsn, _ := cmd.Flags().GetString("db"); dsn != "" {
		cfg.Database.DSN = dsn
	}
	if isSQLite(cfg.Database.Driver) {
		if cfg.Database.DSN == "" {
			p, err := store.DefaultDBPath()
			if err != nil {
				return nil, fmt.Errorf("resolve database path: %w", err)
			}
			cfg.Database.DSN = p
		} else if err := store.EnsureDir(cfg.Database.DSN); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}
	return cfg, nil
}

func isSQLite(driver string) bool {
	switch driver {
	case "", "sqlite", "sqlite3":
		return true
	}
	return false
}

// openStore loads the config and opens the database.
func openStore(cmd *cobra.Command) (*config.Config, *store.Store, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, err
	}
	st, err := store.Open(cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("open database: %w", err)
	}
	return cfg, st, nil
}

func newLogger(cfg logging.Config) (*zap.Logger, error) {
	log, err := logging.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return log, nil
}
