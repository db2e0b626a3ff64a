package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"vidsnag/internal/config"
	"vidsnag/internal/model"
	"vidsnag/internal/pipeline"
	"vidsnag/internal/util/format"
)

func newSearchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "search <query...>",
		Short:         "Search and list results without downloading",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.BindFlags(cmd.Flags(), map[string]string{"limit": config.KeySearchLimit}); err != nil {
				return &ExitError{Code: ExitCLIError, Err: err}
			}
			s, err := newSession(cmd)
			if err != nil {
				return err
			}
			defer s.close(cmd)

			query := strings.Join(args, " ")
			results, err := s.service().Search(cmd.Context(), query)
			if err != nil {
				return &ExitError{Code: ExitSearchError, Err: fmt.Errorf("%w: %w", pipeline.ErrSearch, err)}
			}
			renderResults(cmd, results)
			return nil
		},
	}
	cmd.Flags().IntP("limit", "n", 10, "Number of results (max 50)")
	return cmd
}

func renderResults(cmd *cobra.Command, results []model.SearchResult) {
	t := newTable(cmd.OutOrStdout(), "#", "Title", "Uploader", "Length", "Views", "URL")
	for i, r := range results {
		views := ""
		if r.ViewCount > 0 {
			views = format.Count(r.ViewCount)
		}
		t.Append([]string{
			strconv.Itoa(i + 1),
			truncateRunes(r.Title, 60),
			truncateRunes(r.Uploader, 24),
			format.Duration(r.DurationSec),
			views,
			r.URL,
		})
	}
	t.Render()
}

func truncateRunes(s string, n int) string {
	rs := []rune(s)
	if len(rs) <= n {
		return s
	}
	return string(rs[:n-1]) + "…"
}
