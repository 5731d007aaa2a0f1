package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

type Config struct {
	DBPath     string  `toml:"db_path"`
	LogLevel   string  `toml:"log_level"`
	KeepRepos  []int64 `toml:"keep_repos"`
	ConfigPath string  `toml:"-"`
}

func defaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "prdb", "config.toml")
}

func defaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".local", "share", "prdb", "pullrequests.db")
}

// Load reads the config file if present, then applies environment
// overrides. A missing file is not an error; defaults apply.
func Load(configPath string) (*Config, error) {
	cfg := &Config{
		DBPath:   defaultDBPath(),
		LogLevel: "info",
	}

	if configPath == "" {
		configPath = defaultConfigPath()
	}
	cfg.ConfigPath = configPath

	if _, err := os.Stat(configPath); err == nil {
		if _, err := toml.DecodeFile(configPath, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if envPath := os.Getenv("PRDB_DB_PATH"); envPath != "" {
		cfg.DBPath = envPath
	}

	if envLevel := os.Getenv("PRDB_LOG_LEVEL"); envLevel != "" {
		cfg.LogLevel = envLevel
	}

	if cfg.DBPath == "" {
		cfg.DBPath = defaultDBPath()
	}

	return cfg, nil
}
