package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

type Config struct {
	DBPath        string `toml:"db_path"`
	ExportsDir    string `toml:"exports_dir"`
	MigrationsDir string `toml:"migrations_dir"`
	ContextDir    string `toml:"context_dir"`
	LogLevel      string `toml:"log_level"`
}

// Load reads ~/.config/statuz/config.toml, then applies STATUZ_*
// environment overrides. A .env file in the working directory is loaded
// first and never overrides variables that are already set.
func Load() (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	return LoadFrom(home, DefaultPath(home))
}

func DefaultPath(home string) string {
	return filepath.Join(home, ".config", "statuz", "config.toml")
}

// LoadFrom is Load with an explicit home directory and config file. A
// missing file is not an error.
func LoadFrom(home, path string) (*Config, error) {
	cfg := &Config{
		DBPath:     filepath.Join(home, ".config", "statuz", "statuz.db"),
		ExportsDir: filepath.Join(home, "WhatsAppExports"),
		ContextDir: filepath.Join(home, ".config", "statuz", "context"),
		LogLevel:   "info",
	}

	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	for env, dst := range map[string]*string{
		"STATUZ_DB_PATH":        &cfg.DBPath,
		"STATUZ_EXPORTS_DIR":    &cfg.ExportsDir,
		"STATUZ_MIGRATIONS_DIR": &cfg.MigrationsDir,
		"STATUZ_LOG_LEVEL":      &cfg.LogLevel,
	} {
		if v := os.Getenv(env); v != "" {
			*dst = v
		}
	}

	// expand ~ in paths
	cfg.DBPath = expandHome(cfg.DBPath, home)
	cfg.ExportsDir = expandHome(cfg.ExportsDir, home)
	cfg.MigrationsDir = expandHome(cfg.MigrationsDir, home)
	cfg.ContextDir = expandHome(cfg.ContextDir, home)

	return cfg, nil
}

func expandHome(path, home string) string {
	if len(path) > 1 && path[0] == '~' && path[1] == '/' {
		return filepath.Join(home, path[2:])
	}
	return path
}
