package main

import (
	"fmt"
	"os"
	"time"

	"github.com/deepaksx/statuz-sub001/internal/config"
	"github.com/deepaksx/statuz-sub001/internal/logging"
	"github.com/deepaksx/statuz-sub001/internal/store"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

type globalFlags struct {
	dbPath   string
	logLevel string
}

// app is what every command needs: config, a logger and the database.
type app struct {
	cfg *config.Config
	log zerolog.Logger
	db  *store.DB
}

func loadConfig(flags *globalFlags) (*config.Config, zerolog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, zerolog.Logger{}, fmt.Errorf("load config: %w", err)
	}
	if flags.dbPath != "" {
		cfg.DBPath = flags.dbPath
	}
	if flags.logLevel != "" {
		cfg.LogLevel = flags.logLevel
	}
	return cfg, logging.New(os.Stderr, cfg.LogLevel), nil
}

// openApp loads config and opens the database, applying pending migrations.
func openApp(cmd *cobra.Command, flags *globalFlags) (*app, error) {
	return openStore(cmd, flags, false)
}

func openStore(cmd *cobra.Command, flags *globalFlags, noMigrate bool) (*app, error) {
	cfg, log, err := loadConfig(flags)
	if err != nil {
		return nil, err
	}

	db, err := store.Open(cmd.Context(), cfg.DBPath, store.Options{
		MigrationsDir: cfg.MigrationsDir,
		NoMigrate:     noMigrate,
		Logger:        log,
	})
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	return &app{cfg: cfg, log: log, db: db}, nil
}

func (a *app) Close() error {
	return a.db.Close()
}

// parseSince accepts YYYY-MM-DD or a duration such as 72h.
func parseSince(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.ParseInLocation("2006-01-02", s, time.Local); err == nil {
		return t, nil
	}
	if d, err := time.ParseDuration(s); err == nil {
		return time.Now().Add(-d), nil
	}
	return time.Time{}, fmt.Errorf("invalid --since %q (want YYYY-MM-DD or a duration like 48h)", s)
}
