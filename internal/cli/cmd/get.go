package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"vidsnag/internal/config"
	"vidsnag/internal/downloader"
	"vidsnag/internal/model"
	"vidsnag/internal/pipeline"
	"vidsnag/internal/ui"
	"vidsnag/internal/util"
	"vidsnag/internal/util/format"
)

func newGetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get <url|query>...",
		Short: "Download videos or audio by URL or search query",
		Long: "Each URL is one download. Words that are not URLs are joined into a search query " +
			"and the top hit is downloaded (or chosen with --pick).",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.MinimumNArgs(1),
		RunE:          runGet,
	}
	bindGetFlags(cmd.Flags())
	return cmd
}

func bindGetFlags(fs *pflag.FlagSet) {
	fs.StringP("quality", "q", "best", "Quality: best, audio, or a max height such as 720p")
	fs.BoolP("audio", "a", false, "Audio only, saved to the music folder (same as --quality audio)")
	fs.String("audio-format", "mp3", "Audio format when ffmpeg is available: mp3, m4a, opus, best")
	fs.Bool("dry-run", false, "Show plan without downloading")
	fs.Bool("no-ui", false, "Disable TUI and prompts; use plain textual output")
	fs.Bool("pick", false, "Choose among search results instead of taking the top hit")
	fs.Bool("keep-temp", false, "Keep intermediate downloads")
	fs.Bool("force", false, "Download again even if an earlier download is still on disk")
}

var getFlagKeys = map[string]string{
	"quality":      config.KeyQuality,
	"audio-format": config.KeyAudioFormat,
}

func runGet(cmd *cobra.Command, args []string) error {
	if err := config.BindFlags(cmd.Flags(), getFlagKeys); err != nil {
		return &ExitError{Code: ExitCLIError, Err: err}
	}
	s, err := newSession(cmd)
	if err != nil {
		return err
	}
	defer s.close(cmd)

	fs := cmd.Flags()
	audio, _ := fs.GetBool("audio")
	s.opts.DryRun, _ = fs.GetBool("dry-run")
	s.opts.NoUI, _ = fs.GetBool("no-ui")
	s.opts.Pick, _ = fs.GetBool("pick")
	s.opts.KeepTemp, _ = fs.GetBool("keep-temp")
	s.opts.Force, _ = fs.GetBool("force")
	if audio {
		s.opts.Quality = model.QualityAudio
	}

	ctx := cmd.Context()
	inputs := groupInputs(args)
	if len(inputs) == 0 {
		return &ExitError{Code: ExitCLIError, Err: errors.New("nothing to download")}
	}
	interactive := !s.opts.NoUI && isTerminal()

	if s.opts.Pick {
		if !interactive {
			return &ExitError{Code: ExitCLIError, Err: errors.New("--pick needs an interactive terminal")}
		}
		if inputs, err = pickInputs(ctx, s, inputs); err != nil {
			return withExitCode(err)
		}
	}

	if interactive && len(inputs) == 1 && !fs.Changed("quality") && !audio {
		q, url, err := promptQuality(ctx, s, inputs[0])
		if err != nil {
			return withExitCode(err)
		}
		s.opts.Quality = q
		inputs[0] = url
	}

	if useTUI(s.opts, interactive) {
		return withExitCode(ui.Run(ctx, inputs, s.opts, s.shared))
	}
	return runPlain(cmd, s, inputs)
}

// useTUI reports whether jobs run in the terminal UI. Dry runs always print
// full plans as text, even on a terminal.
func useTUI(opts model.Options, interactive bool) bool {
	return interactive && !opts.DryRun
}

// groupInputs keeps each URL as its own input and joins runs of other words
// into one search query, so `vidsnag never gonna give` is a single search.
func groupInputs(args []string) []string {
	var out, words []string
	flush := func() {
		if len(words) > 0 {
			out = append(out, strings.Join(words, " "))
			words = nil
		}
	}
	for _, a := range args {
		kind, v, err := util.ClassifyInput(a)
		if err != nil {
			continue
		}
		if kind == util.InputURL {
			flush()
			out = append(out, v)
			continue
		}
		words = append(words, v)
	}
	flush()
	return out
}

func runPlain(cmd *cobra.Command, s *session, inputs []string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()
	rep := newPlainReporter(out, cmd.ErrOrStderr(), s.opts.Verbose)

	var errs []error
	for i, in := range inputs {
		if len(inputs) > 1 {
			fmt.Fprintf(out, "[%d/%d] %s\n", i+1, len(inputs), in)
		}
		res, err := s.service(pipeline.WithReporter(rep)).RunJob(ctx, in)
		if err != nil {
			errs = append(errs, err)
			if ctx.Err() != nil {
				break
			}
			continue
		}
		if res.Plan != nil {
			printPlan(out, res.Plan)
		}
		if res.TempDir != "" {
			fmt.Fprintf(out, "  temp files kept in %s\n", res.TempDir)
		}
	}

	if len(errs) == 0 {
		return nil
	}
	if len(inputs) == 1 {
		return &ExitError{Code: exitCodeFor(errs[0]), Err: nil}
	}
	return &ExitError{
		Code: exitCodeFor(errors.Join(errs...)),
		Err:  fmt.Errorf("%d of %d job(s) failed", len(errs), len(inputs)),
	}
}

// pickInputs replaces every search query with the result the user picks.
func pickInputs(ctx context.Context, s *session, inputs []string) ([]string, error) {
	svc := s.service(pipeline.WithPicker(surveyPicker))
	out := make([]string, 0, len(inputs))
	for _, in := range inputs {
		url, err := svc.Resolve(ctx, in)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", pipeline.ErrSearch, err)
		}
		out = append(out, url)
	}
	return out, nil
}

func surveyPicker(query string, results []model.SearchResult) (model.SearchResult, error) {
	labels := make([]string, len(results))
	for i, r := range results {
		labels[i] = resultLabel(r)
	}
	var idx int
	prompt := &survey.Select{
		Message:  fmt.Sprintf("Results for %q:", query),
		Options:  labels,
		PageSize: 10,
	}
	if err := survey.AskOne(prompt, &idx); err != nil {
		return model.SearchResult{}, promptErr(err)
	}
	return results[idx], nil
}

func resultLabel(r model.SearchResult) string {
	label := r.Title
	if r.Uploader != "" {
		label += " · " + r.Uploader
	}
	return label + " (" + format.Duration(r.DurationSec) + ")"
}

// promptQuality resolves input, fetches its formats and asks which quality to
// download. It returns the choice and the resolved URL.
func promptQuality(ctx context.Context, s *session, input string) (model.Quality, string, error) {
	svc := s.service()
	url, err := svc.Resolve(ctx, input)
	if err != nil {
		return "", "", fmt.Errorf("%w: %w", pipeline.ErrSearch, err)
	}
	info, err := svc.Info(ctx, url)
	if err != nil {
		return "", "", fmt.Errorf("%w: %w", pipeline.ErrDownload, err)
	}

	options := downloader.QualityOptions(info, svc.HasFFmpeg())
	preferred := downloader.Resolve(s.opts.Quality, info, svc.HasFFmpeg())
	labels := make([]string, len(options))
	var def string
	for i, o := range options {
		labels[i] = qualityLabel(o)
		if o.Quality == preferred {
			def = labels[i]
		}
	}

	prompt := &survey.Select{
		Message: fmt.Sprintf("Quality for %q:", info.Title),
		Options: labels,
	}
	if def != "" {
		prompt.Default = def
	}
	var idx int
	if err := survey.AskOne(prompt, &idx); err != nil {
		return "", "", promptErr(err)
	}
	return options[idx].Quality, url, nil
}

func qualityLabel(o model.QualityOption) string {
	return fmt.Sprintf("%-14s %s", o.Label, format.ApproxBytes(o.EstBytes))
}

func promptErr(err error) error {
	if errors.Is(err, terminal.InterruptErr) {
		return &ExitError{Code: ExitCLIError, Err: errors.New("aborted")}
	}
	return &ExitError{Code: ExitCLIError, Err: fmt.Errorf("prompt: %w", err)}
}
