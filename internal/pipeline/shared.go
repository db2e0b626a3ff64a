package pipeline

import (
	"vidsnag/internal/cache"
	"vidsnag/internal/history"
	"vidsnag/internal/retry"
	"vidsnag/internal/util"
)

// Shared holds the state every job of one invocation uses together:
// engine paths, the result cache, the rate limit and the header rotation.
type Shared struct {
	DownloaderPath string
	FFmpegPath     string
	Runner         util.CmdRunner // nil = os/exec
	Cache          *cache.Cache
	Limiter        *retry.Limiter
	Rotator        *retry.HeaderRotator
	History        *history.Store
	TempBase       string
	Picker         Picker
}

// Options converts s into service options.
func (s Shared) Options() []Option {
	opts := []Option{
		WithDownloaderPath(s.DownloaderPath),
		WithFFmpegPath(s.FFmpegPath),
		WithCache(s.Cache),
		WithLimiter(s.Limiter),
		WithRotator(s.Rotator),
		WithHistory(s.History),
		WithTempBase(s.TempBase),
	}
	if s.Runner != nil {
		opts = append(opts, WithRunner(s.Runner))
	}
	if s.Picker != nil {
		opts = append(opts, WithPicker(s.Picker))
	}
	return opts
}
