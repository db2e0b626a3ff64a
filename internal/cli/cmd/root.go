package cmd

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"vidsnag/internal/config"
	"vidsnag/internal/pipeline"
	"vidsnag/internal/util/deps"
)

const (
	ExitOK            = 0
	ExitCLIError      = 1
	ExitMissingDep    = 2
	ExitDownloadError = 3
	ExitSearchError   = 4
)

// ExitError wraps an error with a process exit code.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return ""
	}
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// exitCodeFor maps a failure to the process exit code. Download failures
// win over search failures when a run produced both.
func exitCodeFor(err error) int {
	var ee *ExitError
	switch {
	case err == nil:
		return ExitOK
	case errors.As(err, &ee):
		return ee.Code
	case errors.Is(err, deps.ErrNotFound):
		return ExitMissingDep
	case errors.Is(err, pipeline.ErrDownload):
		return ExitDownloadError
	case errors.Is(err, pipeline.ErrSearch):
		return ExitSearchError
	default:
		return ExitCLIError
	}
}

// withExitCode wraps err in an ExitError chosen by exitCodeFor.
func withExitCode(err error) error {
	if err == nil {
		return nil
	}
	var ee *ExitError
	if errors.As(err, &ee) {
		return err
	}
	return &ExitError{Code: exitCodeFor(err), Err: err}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "vidsnag [url|query...]",
		Short: "Search, pick a quality and download videos or music with yt-dlp",
		Long: "vidsnag finds a video by URL or search query, lets you choose a quality or audio only, " +
			"and saves the file with yt-dlp. Videos land in your Videos folder and audio in your Music folder.",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.MinimumNArgs(1),
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := config.Init(cmd.Root()); err != nil {
				return &ExitError{Code: ExitCLIError, Err: err}
			}
			return nil
		},
		RunE: runGet,
	}

	pf := root.PersistentFlags()
	pf.BoolP("verbose", "v", false, "Show full subprocess commands/output")
	pf.String("dl-binary", "", "Path to yt-dlp or youtube-dl")
	pf.String("ffmpeg-binary", "", "Path to ffmpeg")
	pf.String("video-dir", "", "Where videos are saved (default: your Videos folder)")
	pf.String("music-dir", "", "Where audio is saved (default: your Music folder)")
	pf.Int("jobs", 2, "Max concurrent jobs in TUI")
	pf.String("cache-ttl", "30m", "How long search results and metadata are cached; 0 disables")
	pf.Int("retries", 2, "Retries for transient engine failures")
	pf.Float64("rate-limit", 0, "Max engine invocations per second; 0 = unlimited")
	pf.Bool("embed-metadata", true, "Embed title/artist tags when ffmpeg is available")

	// `vidsnag <input>` behaves like `vidsnag get <input>`.
	bindGetFlags(root.Flags())

	root.AddCommand(newGetCmd())
	root.AddCommand(newSearchCmd())
	root.AddCommand(newFormatsCmd())
	root.AddCommand(newHistoryCmd())
	root.AddCommand(newCacheCmd())
	root.AddCommand(newDoctorCmd())
	root.AddCommand(newCompletionCmd())

	return root
}

// Execute runs the CLI with the provided context.
func Execute(ctx context.Context) error {
	root := newRootCmd()
	return root.ExecuteContext(ctx)
}
