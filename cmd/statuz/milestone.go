package main

import (
	"fmt"
	"strings"

	"github.com/deepaksx/statuz-sub001/internal/store"
	"github.com/spf13/cobra"
)

func milestoneCmd(flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "milestone",
		Short: "List and update milestones",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list <group>",
		Short: "List a group's milestones",
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
			ms, err := a.db.Milestones(cmd.Context(), g.ID)
			if err != nil {
				return err
			}
			if len(ms) == 0 {
				fmt.Printf("No milestones for %s.\n", g.Name)
				return nil
			}
			for _, m := range ms {
				due := "-"
				if !m.Due.IsZero() {
					due = m.Due.Format("2006-01-02")
				}
				fmt.Printf("%s\t%-11s\t%s\t%s\n", m.ID, m.Status, due, m.Title)
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "set <milestoneId> <status>",
		Short: "Set a milestone's status",
		Long:  "Status is one of " + strings.Join(store.Statuses, ", ") + ".",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd, flags)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.db.SetMilestoneStatus(cmd.Context(), args[0], args[1]); err != nil {
				return err
			}
			status, _ := store.ValidStatus(args[1])
			if err := a.db.Audit(cmd.Context(), "milestone", args[0]+" -> "+status); err != nil {
				return err
			}
			fmt.Printf("%s -> %s\n", args[0], status)
			return nil
		},
	})

	return cmd
}
