package main

import (
	"fmt"
	"os"
	"time"

	"github.com/deepaksx/statuz-sub001/internal/report"
	"github.com/spf13/cobra"
)

func reportCmd(flags *globalFlags) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "report <group>",
		Short: "Print a Markdown status report for a group",
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

			snap, err := report.Build(cmd.Context(), a.db, g.ID, time.Now())
			if err != nil {
				return err
			}
			md := snap.Markdown()

			if output != "" {
				if err := os.WriteFile(output, []byte(md), 0o644); err != nil {
					return fmt.Errorf("write report: %w", err)
				}
				fmt.Fprintf(os.Stderr, "Wrote %s\n", output)
			} else {
				fmt.Print(md)
			}

			return a.db.Audit(cmd.Context(), "report", fmt.Sprintf("%s: messages=%d milestones=%d", g.Name, snap.Messages, len(snap.Milestones)))
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Write the report to a file")

	return cmd
}
