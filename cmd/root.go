package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"prdb/internal/config"
	"prdb/internal/db"
	"prdb/internal/logging"
)

var (
	configPath string
	dbPath     string
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:   "prdb",
	Short: "Inspect and maintain the local pull request database",
	Long: `prdb is the maintenance tool for the embedded pull request database:
a per-repository store of open pull requests plus the sync watermark used
to fetch updates incrementally.

The database itself is written by the application; prdb reports on it,
clears single repository partitions, and prunes partitions left behind by
repositories that no longer exist.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file path (default ~/.config/prdb/config.toml)")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "Database file path (overrides config)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error")
}

// loadConfig applies flag overrides on top of the file/env config.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if dbPath != "" {
		cfg.DBPath = dbPath
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	return cfg, nil
}

func openStore() (*db.Store, *config.Config, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}

	store, err := db.Open(cfg.DBPath, logging.New(cfg.LogLevel))
	if err != nil {
		return nil, nil, fmt.Errorf("opening database: %w", err)
	}
	return store, cfg, nil
}
