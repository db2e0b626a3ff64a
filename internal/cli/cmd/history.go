package cmd

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"vidsnag/internal/dirs"
	"vidsnag/internal/history"
	"vidsnag/internal/util/format"
)

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "history",
		Short:         "Show finished downloads",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := dirs.HistoryFile()
			if err != nil {
				return &ExitError{Code: ExitCLIError, Err: err}
			}
			store := history.Open(p)
			out := cmd.OutOrStdout()

			if clear, _ := cmd.Flags().GetBool("clear"); clear {
				if err := store.Clear(); err != nil {
					return &ExitError{Code: ExitCLIError, Err: err}
				}
				fmt.Fprintln(out, "History cleared.")
				return nil
			}

			limit, _ := cmd.Flags().GetInt("limit")
			entries, err := store.List(limit)
			if err != nil {
				return &ExitError{Code: ExitCLIError, Err: err}
			}
			if len(entries) == 0 {
				fmt.Fprintln(out, "No downloads yet.")
				return nil
			}
			t := newTable(out, "When", "Kind", "Quality", "Size", "Title", "Path")
			for _, e := range entries {
				t.Append([]string{
					humanize.Time(e.CreatedAt),
					string(e.Kind),
					string(e.Quality),
					format.HumanizeBytes(e.Bytes),
					truncateRunes(e.Title, 48),
					e.Path,
				})
			}
			t.Render()
			return nil
		},
	}
	cmd.Flags().IntP("limit", "n", 20, "Number of entries to show; 0 shows all")
	cmd.Flags().Bool("clear", false, "Forget every recorded download")
	return cmd
}
