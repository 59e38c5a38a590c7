package main

import (
	"fmt"
	"os"

	"github.com/deepaksx/statuz-sub001/internal/projctx"
	"github.com/spf13/cobra"
)

func contextCmd(flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "context",
		Short: "Manage project context files",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "load [file|dir]",
		Short: "Load project context YAML into the database",
		Long: `Loads one context file, or every *.yaml/*.yml file in a directory
(default: the configured context directory). Each file names its group,
project, stakeholders and milestones.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd, flags)
			if err != nil {
				return err
			}
			defer a.Close()

			path := a.cfg.ContextDir
			if len(args) == 1 {
				path = args[0]
			}

			var files []*projctx.File
			if info, err := os.Stat(path); err == nil && !info.IsDir() {
				f, err := projctx.Load(path)
				if err != nil {
					return err
				}
				files = append(files, f)
			} else {
				files, err = projctx.LoadDir(path)
				if err != nil {
					return err
				}
			}

			if len(files) == 0 {
				fmt.Fprintf(os.Stderr, "No context files in %s\n", path)
				return nil
			}

			for _, f := range files {
				res, err := projctx.Apply(cmd.Context(), a.db, f)
				if err != nil {
					return fmt.Errorf("%s: %w", f.Path, err)
				}
				fmt.Printf("%s -> %s (%d milestones)\n", f.Path, res.Group.Name, res.Milestones)
			}
			return nil
		},
	})

	return cmd
}
