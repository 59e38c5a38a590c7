package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
)

var version = "dev"

func newRootCmd() *cobra.Command {
	var flags globalFlags

	rootCmd := &cobra.Command{
		Use:           "statuz",
		Short:         "Statuz - project status tracking from WhatsApp chat exports",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&flags.dbPath, "db", "", "Database path (overrides config)")
	rootCmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "Log level: debug, info, warn, error")

	rootCmd.AddCommand(importCmd(&flags))
	rootCmd.AddCommand(migrateCmd(&flags))
	rootCmd.AddCommand(searchCmd(&flags))
	rootCmd.AddCommand(listCmd(&flags))
	rootCmd.AddCommand(previewCmd(&flags))
	rootCmd.AddCommand(openCmd(&flags))
	rootCmd.AddCommand(contextCmd(&flags))
	rootCmd.AddCommand(milestoneCmd(&flags))
	rootCmd.AddCommand(reportCmd(&flags))
	rootCmd.AddCommand(doctorCmd(&flags))

	return rootCmd
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
