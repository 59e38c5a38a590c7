package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func migrateCmd(flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations",
		Long: `Applies every pending migration in id order, each in its own transaction.
Other commands do this automatically when they open the database.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openStore(cmd, flags, true)
			if err != nil {
				return err
			}
			defer a.Close()

			res, err := a.db.Migrate(cmd.Context())
			if err != nil {
				return err
			}
			if len(res.Applied) == 0 {
				fmt.Println("Schema is up to date.")
				return nil
			}
			for _, u := range res.Applied {
				fmt.Printf("applied  %03d  %s\n", u.ID, u.Name)
			}
			return nil
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "List applied and pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openStore(cmd, flags, true)
			if err != nil {
				return err
			}
			defer a.Close()

			st, err := a.db.MigrationStatus(cmd.Context())
			if err != nil {
				return err
			}
			for _, e := range st.Applied {
				fmt.Printf("applied  %03d  %-30s  %s\n", e.ID, e.Name, e.AppliedAt.Format("2006-01-02 15:04:05"))
			}
			for _, u := range st.Pending {
				fmt.Printf("pending  %03d  %s\n", u.ID, u.Name)
			}
			return nil
		},
	})

	return cmd
}
