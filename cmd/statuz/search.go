package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/deepaksx/statuz-sub001/internal/ingest"
	"github.com/deepaksx/statuz-sub001/internal/search"
	"github.com/deepaksx/statuz-sub001/internal/tui"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

const (
	sColorReset   = "\033[0m"
	sColorBoldRed = "\033[1;31m"
	sColorBlue    = "\033[1;34m"
	sColorGreen   = "\033[1;32m"
	sColorDim     = "\033[2m"
)

func colorizeSnippet(snippet string) string {
	snippet = strings.ReplaceAll(snippet, ">>>", sColorBoldRed)
	snippet = strings.ReplaceAll(snippet, "<<<", sColorReset)
	return snippet
}

func tsvField(s string) string {
	s = strings.ReplaceAll(s, "\t", " ")
	return strings.ReplaceAll(s, "\n", " ")
}

// filterFlags are shared by search and list.
type filterFlags struct {
	group, author, since string
	limit                int
}

func (f *filterFlags) register(cmd *cobra.Command, defLimit int) {
	cmd.Flags().StringVar(&f.group, "group", "", "Filter by group name or id")
	cmd.Flags().StringVar(&f.author, "author", "", "Filter by author")
	cmd.Flags().StringVar(&f.since, "since", "", "Only messages since YYYY-MM-DD or a duration like 48h")
	cmd.Flags().IntVar(&f.limit, "limit", defLimit, "Max results")
}

func (f *filterFlags) options() (search.Options, error) {
	since, err := parseSince(f.since)
	if err != nil {
		return search.Options{}, err
	}
	return search.Options{Group: f.group, Author: f.author, Since: since, Limit: f.limit}, nil
}

func searchCmd(flags *globalFlags) *cobra.Command {
	var filters filterFlags

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Full-text search across imported chats",
		Long: `Search imported messages using FTS5. Opens the browser on a terminal;
otherwise prints TSV for fzf integration:
  messageId, groupId, time, group, author, snippet

Example shell function:
  sz() {
    statuz search "$*" | fzf \
      --ansi \
      --delimiter='\t' --with-nth=3.. \
      --preview 'statuz preview {2} --hit {1} --context 5 --query {q}' \
      --preview-window=right:60%:wrap \
      --bind 'enter:execute(statuz open {1})'
  }`,
		Args: cobra.ExactArgs(1),
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

			// pick up new exports before searching
			if _, err := ingest.ImportAll(cmd.Context(), a.db, a.cfg.ExportsDir, ingest.Options{Log: a.log}); err != nil {
				a.log.Warn().Err(err).Msg("auto import")
			}

			// Interactive TUI when stdout is a terminal; TSV output for pipes
			if term.IsTerminal(int(os.Stdout.Fd())) {
				return tui.Run(cmd.Context(), a.db, args[0], opts)
			}

			opts.Query = args[0]
			results, err := search.Search(cmd.Context(), a.db, opts)
			if err != nil {
				return err
			}

			if len(results) == 0 {
				fmt.Fprintln(os.Stderr, "No results found.")
				return nil
			}

			for _, r := range results {
				// first two fields stay plain for fzf {1} {2}
				fmt.Printf("%s\t%s\t%s%s%s\t%s%s%s\t%s%s%s\t%s\n",
					r.MessageID,
					r.GroupID,
					sColorDim, r.Timestamp.Format("2006-01-02 15:04"), sColorReset,
					sColorBlue, tsvField(r.GroupName), sColorReset,
					sColorGreen, tsvField(r.Author), sColorReset,
					colorizeSnippet(tsvField(r.Snippet)),
				)
			}
			return nil
		},
	}

	filters.register(cmd, 100)

	return cmd
}
