package main

import (
	"fmt"
	"os"

	"github.com/deepaksx/statuz-sub001/internal/ingest"
	"github.com/deepaksx/statuz-sub001/internal/store"
	"github.com/spf13/cobra"
)

func doctorCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Self-check: verify directories, DB, migrations, FTS5, and show stats",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := loadConfig(flags)
			if err != nil {
				return err
			}

			// check directories
			fmt.Println("=== Directories ===")
			checkDir("Exports", cfg.ExportsDir)
			checkDir("Context", cfg.ContextDir)
			if cfg.MigrationsDir != "" {
				checkDir("Migrations", cfg.MigrationsDir)
			} else {
				fmt.Println("  Migrations: embedded")
			}

			// scan file counts
			fmt.Println("\n=== Export Scan ===")
			files, err := ingest.Scan(cfg.ExportsDir)
			if err != nil {
				fmt.Printf("  scan error: %v\n", err)
			} else {
				fmt.Printf("  Export files: %d\n", len(files))
			}

			// check DB
			fmt.Println("\n=== Database ===")
			fmt.Printf("  Path: %s\n", cfg.DBPath)
			if _, err := os.Stat(cfg.DBPath); os.IsNotExist(err) {
				fmt.Println("  Status: NOT FOUND (run 'statuz import' first)")
				return nil
			}

			a, err := openStore(cmd, flags, true)
			if err != nil {
				return err
			}
			defer a.Close()
			ctx := cmd.Context()

			st, err := a.db.MigrationStatus(ctx)
			if err != nil {
				fmt.Printf("  Migrations error: %v\n", err)
			} else {
				fmt.Printf("  Migrations: %d applied, %d pending\n", len(st.Applied), len(st.Pending))
				if len(st.Pending) > 0 {
					fmt.Println("  Status: PENDING (run 'statuz migrate')")
					return nil
				}
			}

			groups, err := a.db.Groups(ctx)
			if err != nil {
				return err
			}
			msgCount, err := a.db.MessageCount(ctx)
			if err != nil {
				return fmt.Errorf("count messages: %w", err)
			}
			fmt.Printf("  Groups:   %d\n", len(groups))
			fmt.Printf("  Messages: %d\n", msgCount)

			var fallbacks int
			if err := a.db.Raw().QueryRowContext(ctx, "SELECT COALESCE(SUM(fallbacks), 0) FROM imports").Scan(&fallbacks); err == nil && fallbacks > 0 {
				fmt.Printf("  Unreadable timestamps: %d (stored with import time)\n", fallbacks)
			}

			// check FTS5
			fmt.Println("\n=== FTS5 ===")
			ftsCount, err := a.db.FTSCount(ctx)
			if err != nil {
				fmt.Printf("  FTS5 error: %v\n", err)
			} else {
				fmt.Printf("  FTS5 entries: %d\n", ftsCount)
				if ftsCount == msgCount {
					fmt.Println("  Status: OK (synced)")
				} else {
					fmt.Printf("  Status: MISMATCH (messages=%d, fts=%d)\n", msgCount, ftsCount)
				}
			}

			printGroups(groups)

			// check DB file size
			if info, err := os.Stat(cfg.DBPath); err == nil {
				sizeMB := float64(info.Size()) / 1024 / 1024
				fmt.Printf("\n=== DB Size: %.1f MB ===\n", sizeMB)
			}

			return nil
		},
	}
}

func printGroups(groups []store.GroupSummary) {
	if len(groups) == 0 {
		return
	}
	fmt.Println("\n=== Groups ===")
	for _, g := range groups {
		last := "-"
		if !g.LastMessage.IsZero() {
			last = g.LastMessage.Format("2006-01-02 15:04")
		}
		fmt.Printf("  %-30s %6d messages, last %s\n", g.Name, g.Messages, last)
	}
}

func checkDir(name, path string) {
	if info, err := os.Stat(path); err != nil {
		fmt.Printf("  %s: %s (NOT FOUND)\n", name, path)
	} else if !info.IsDir() {
		fmt.Printf("  %s: %s (NOT A DIRECTORY)\n", name, path)
	} else {
		fmt.Printf("  %s: %s (OK)\n", name, path)
	}
}
