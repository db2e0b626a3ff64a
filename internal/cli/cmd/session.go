package cmd

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"

	"vidsnag/internal/cache"
	"vidsnag/internal/config"
	"vidsnag/internal/dirs"
	"vidsnag/internal/history"
	"vidsnag/internal/model"
	"vidsnag/internal/pipeline"
	"vidsnag/internal/retry"
	"vidsnag/internal/util"
	"vidsnag/internal/util/deps"
)

// engineRunner overrides how the engine is executed; nil runs it with os/exec.
var engineRunner util.CmdRunner

// session is the state one command invocation shares between its jobs.
type session struct {
	opts   model.Options
	shared pipeline.Shared
	cache  *cache.Cache
}

// newSession loads options and locates the engine. A missing ffmpeg only
// produces a warning.
func newSession(cmd *cobra.Command) (*session, error) {
	opts, err := config.Options(viper.GetViper())
	if err != nil {
		return nil, &ExitError{Code: ExitCLIError, Err: err}
	}

	dl, err := deps.FindDownloader(opts.DLBinary)
	if err != nil {
		return nil, &ExitError{Code: ExitMissingDep, Err: err}
	}
	ff, ferr := deps.FindFFmpeg(opts.FFmpegBinary)
	if ferr != nil {
		ff = ""
		fmt.Fprintln(cmd.ErrOrStderr(), color.YellowString("warning: %v", ferr))
	}

	s := &session{opts: opts, cache: openCache(cmd, opts)}
	s.shared = pipeline.Shared{
		DownloaderPath: dl,
		FFmpegPath:     ff,
		Runner:         engineRunner,
		Cache:          s.cache,
		Limiter:        retry.NewLimiter(opts.RateLimit),
		Rotator:        retry.NewHeaderRotator(nil, ""),
	}
	if p, err := dirs.HistoryFile(); err == nil {
		s.shared.History = history.Open(p)
	}
	if p, err := dirs.TempBaseDir(); err == nil {
		s.shared.TempBase = p
	}
	return s, nil
}

// service builds a pipeline service for one job.
func (s *session) service(extra ...pipeline.Option) *pipeline.Service {
	opts := append(s.shared.Options(), pipeline.WithOptions(s.opts))
	return pipeline.NewService(append(opts, extra...)...)
}

// close persists the cache. Failures are reported, never fatal.
func (s *session) close(cmd *cobra.Command) {
	if err := s.cache.Save(); err != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), color.YellowString("warning: %v", err))
	}
}

func openCache(cmd *cobra.Command, opts model.Options) *cache.Cache {
	var copts []cache.Option
	if p, err := dirs.CacheFile(); err == nil {
		copts = append(copts, cache.WithFile(p))
	}
	c := cache.New(opts.CacheTTL, copts...)
	if err := c.Load(); err != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), color.YellowString("warning: %v", err))
	}
	return c
}

var isTerminal = func() bool {
	return term.IsTerminal(int(os.Stdout.Fd())) && term.IsTerminal(int(os.Stdin.Fd()))
}
