package main

import (
	"fmt"
	"os"

	"github.com/deepaksx/statuz-sub001/internal/ingest"
	"github.com/spf13/cobra"
)

func importCmd(flags *globalFlags) *cobra.Command {
	var group string

	cmd := &cobra.Command{
		Use:   "import [file]",
		Short: "Import WhatsApp chat exports",
		Long: `Without arguments, imports every changed *.txt export under the exports
directory. With a file, imports that export, optionally into a named group.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd, flags)
			if err != nil {
				return err
			}
			defer a.Close()

			opts := ingest.Options{Log: a.log}

			if len(args) == 1 {
				res, err := ingest.ImportFile(cmd.Context(), a.db, args[0], group, opts)
				if err != nil {
					return fmt.Errorf("import: %w", err)
				}
				fmt.Fprintf(os.Stderr, "Imported %s into %q: parsed=%d new=%d fallbacks=%d\n",
					args[0], res.Group.Name, res.Parsed, res.Inserted, res.Fallbacks)
				return nil
			}

			if group != "" {
				return fmt.Errorf("--group needs a file argument")
			}
			fmt.Fprintf(os.Stderr, "Scanning %s...\n", a.cfg.ExportsDir)

			stats, err := ingest.ImportAll(cmd.Context(), a.db, a.cfg.ExportsDir, opts)
			if err != nil {
				return fmt.Errorf("import: %w", err)
			}

			fmt.Fprintf(os.Stderr, "Done. %s\n", stats)
			return nil
		},
	}

	cmd.Flags().StringVar(&group, "group", "", "Group name (default: derived from the file name)")

	return cmd
}
