package main

import (
	"github.com/deepaksx/statuz-sub001/internal/open"
	"github.com/spf13/cobra"
)

func openCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "open <messageId>",
		Short: "Open the source export in $EDITOR at the message's line",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd, flags)
			if err != nil {
				return err
			}
			defer a.Close()

			return open.Message(cmd.Context(), a.db, args[0])
		},
	}
}
