package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"vidsnag/internal/downloader"
	"vidsnag/internal/pipeline"
	"vidsnag/internal/util/format"
)

func newFormatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:           "formats <url|query...>",
		Short:         "List the qualities a video offers",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(cmd)
			if err != nil {
				return err
			}
			defer s.close(cmd)

			ctx := cmd.Context()
			svc := s.service()
			url, err := svc.Resolve(ctx, strings.Join(args, " "))
			if err != nil {
				return &ExitError{Code: ExitSearchError, Err: fmt.Errorf("%w: %w", pipeline.ErrSearch, err)}
			}
			info, err := svc.Info(ctx, url)
			if err != nil {
				return &ExitError{Code: ExitDownloadError, Err: fmt.Errorf("%w: %w", pipeline.ErrDownload, err)}
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s\n%s · %s\n%s\n\n", info.Title, info.Uploader, format.Duration(info.DurationSec), info.URL)

			t := newTable(out, "Quality", "Option", "Saved to", "Size")
			for _, o := range downloader.QualityOptions(info, svc.HasFFmpeg()) {
				t.Append([]string{string(o.Quality), o.Label, string(downloader.KindFor(o.Quality)), format.ApproxBytes(o.EstBytes)})
			}
			t.Render()
			if !svc.HasFFmpeg() {
				fmt.Fprintln(out, "\nffmpeg not found: only single-file formats are listed.")
			}
			return nil
		},
	}
}
