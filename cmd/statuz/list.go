package main

import (
	"github.com/deepaksx/statuz-sub001/internal/ingest"
	"github.com/deepaksx/statuz-sub001/internal/tui"
	"github.com/spf13/cobra"
)

func listCmd(flags *globalFlags) *cobra.Command {
	var filters filterFlags

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Browse the latest messages",
		Long:  `Opens the browser showing the latest messages first. Type to search.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := filters.options()
			if err != nil {
				return err
			}

			a, err := openApp(cmd, flags)
			if err != nil {
				return err
			}
			defer a.Close()

			if _, err := ingest.ImportAll(cmd.Context(), a.db, a.cfg.ExportsDir, ingest.Options{Log: a.log}); err != nil {
				a.log.Warn().Err(err).Msg("auto import")
			}

			return tui.RunList(cmd.Context(), a.db, opts)
		},
	}

	filters.register(cmd, 500)

	return cmd
}
