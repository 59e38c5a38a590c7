package main

import (
	"fmt"

	"github.com/deepaksx/statuz-sub001/internal/render"
	"github.com/spf13/cobra"
)

func previewCmd(flags *globalFlags) *cobra.Command {
	var hitID string
	var context int
	var width int
	var query string

	cmd := &cobra.Command{
		Use:   "preview <group>",
		Short: "Preview a group's conversation with context around a hit",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd, flags)
			if err != nil {
				return err
			}
			defer a.Close()

			g, err := a.db.ResolveGroup(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			out, _, err := render.Conversation(cmd.Context(), a.db, g.ID, render.Options{
				HitID:   hitID,
				Context: context,
				Width:   width,
				Query:   query,
			})
			if err != nil {
				return err
			}

			fmt.Print(out)
			return nil
		},
	}

	cmd.Flags().StringVar(&hitID, "hit", "", "Message id to highlight")
	cmd.Flags().IntVar(&context, "context", 10, "Messages before/after hit to show (-1 = all)")
	cmd.Flags().IntVar(&width, "width", 0, "Wrap width (0 = no wrap)")
	cmd.Flags().StringVar(&query, "query", "", "Search query for keyword highlighting")

	return cmd
}
